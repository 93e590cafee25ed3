package subscriptions

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Kiran3100/Hostel-Main-sub019/api/controllers/dto"
	"github.com/Kiran3100/Hostel-Main-sub019/api/middleware"
	"github.com/Kiran3100/Hostel-Main-sub019/api/responses"
	"github.com/Kiran3100/Hostel-Main-sub019/api/validators"
	subscriptionsvc "github.com/Kiran3100/Hostel-Main-sub019/internal/subscriptions"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
)

// Service describes the subscription lifecycle methods used by the HTTP controllers.
type Service interface {
	Create(ctx context.Context, input subscriptionsvc.CreateInput) (*models.Subscription, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	GetActiveForHostel(ctx context.Context, hostelID uuid.UUID) (*models.Subscription, error)
	Activate(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Subscription, error)
	Suspend(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Subscription, error)
	Renew(ctx context.Context, id uuid.UUID, input subscriptionsvc.RenewInput) (*models.Subscription, error)
	Cancel(ctx context.Context, id uuid.UUID, input subscriptionsvc.CancelInput) (*models.Subscription, *models.Cancellation, error)
	ChangePlan(ctx context.Context, id uuid.UUID, input subscriptionsvc.ChangePlanInput) (*models.Subscription, error)
	ToggleAutoRenew(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Subscription, error)
	EndTrial(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Subscription, error)
	ListHistory(ctx context.Context, id uuid.UUID) ([]models.SubscriptionHistory, error)
	ListCycles(ctx context.Context, id uuid.UUID) ([]models.BillingCycle, error)
}

type createRequest struct {
	HostelID       string  `json:"hostel_id" validate:"required,uuid"`
	PlanID         string  `json:"plan_id" validate:"required,uuid"`
	BillingCadence string  `json:"billing_cadence" validate:"required,oneof=monthly yearly"`
	StartDate      string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate        *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	AutoRenew      bool    `json:"auto_renew"`
}

type suspendRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type renewRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"omitempty,gte=0"`
}

type cancelRequest struct {
	Immediate       bool             `json:"immediate"`
	Reason          string           `json:"reason" validate:"max=500"`
	RefundAmount    *decimal.Decimal `json:"refund_amount" validate:"omitempty,gte=0"`
	RefundReference string           `json:"refund_reference" validate:"max=128"`
}

type changePlanRequest struct {
	PlanID string           `json:"plan_id" validate:"required,uuid"`
	Amount *decimal.Decimal `json:"amount" validate:"omitempty,gte=0"`
}

type cancelResponse struct {
	Subscription dto.Subscription  `json:"subscription"`
	Cancellation *dto.Cancellation `json:"cancellation"`
}

type historyResponse struct {
	History []dto.HistoryEntry `json:"history"`
}

type cyclesResponse struct {
	Cycles []dto.BillingCycle `json:"cycles"`
}

func unavailable(ctx context.Context, logg *logger.Logger, w http.ResponseWriter) {
	responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
}

func SubscriptionCreate(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			unavailable(ctx, logg, w)
			return
		}

		var payload createRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		start, err := validators.ParseDate("start_date", &payload.StartDate)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		end, err := validators.ParseDate("end_date", payload.EndDate)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		cadence, err := enums.ParseBillingCadence(payload.BillingCadence)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid billing cadence"))
			return
		}

		sub, err := svc.Create(ctx, subscriptionsvc.CreateInput{
			HostelID:  uuid.MustParse(payload.HostelID),
			PlanID:    uuid.MustParse(payload.PlanID),
			Cadence:   cadence,
			StartDate: *start,
			EndDate:   end,
			AutoRenew: payload.AutoRenew,
			Actor:     middleware.ActorFromContext(ctx),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto.FromSubscription(*sub))
	}
}

func SubscriptionGet(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			unavailable(ctx, logg, w)
			return
		}
		id, err := validators.ParseUUIDParam(r, "subscriptionID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sub, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.FromSubscription(*sub))
	}
}

// HostelActiveSubscription returns the hostel's current active subscription.
func HostelActiveSubscription(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			unavailable(ctx, logg, w)
			return
		}
		hostelID, err := validators.ParseUUIDParam(r, "hostelID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sub, err := svc.GetActiveForHostel(ctx, hostelID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if sub == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "hostel has no active subscription"))
			return
		}
		responses.WriteSuccess(w, dto.FromSubscription(*sub))
	}
}

func SubscriptionSuspend(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			unavailable(ctx, logg, w)
			return
		}
		id, err := validators.ParseUUIDParam(r, "subscriptionID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload suspendRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sub, err := svc.Suspend(ctx, id, payload.Reason, middleware.ActorFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.FromSubscription(*sub))
	}
}

func SubscriptionActivate(svc Service, logg *logger.Logger) http.HandlerFunc {
	return actorAction(svc, logg, func(ctx context.Context, id, actor uuid.UUID) (*models.Subscription, error) {
		return svc.Activate(ctx, id, actor)
	})
}

func SubscriptionToggleAutoRenew(svc Service, logg *logger.Logger) http.HandlerFunc {
	return actorAction(svc, logg, func(ctx context.Context, id, actor uuid.UUID) (*models.Subscription, error) {
		return svc.ToggleAutoRenew(ctx, id, actor)
	})
}

func SubscriptionEndTrial(svc Service, logg *logger.Logger) http.HandlerFunc {
	return actorAction(svc, logg, func(ctx context.Context, id, actor uuid.UUID) (*models.Subscription, error) {
		return svc.EndTrial(ctx, id, actor)
	})
}

func actorAction(svc Service, logg *logger.Logger, fn func(ctx context.Context, id, actor uuid.UUID) (*models.Subscription, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			unavailable(ctx, logg, w)
			return
		}
		id, err := validators.ParseUUIDParam(r, "subscriptionID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sub, err := fn(ctx, id, middleware.ActorFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.FromSubscription(*sub))
	}
}

func SubscriptionRenew(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			unavailable(ctx, logg, w)
			return
		}
		id, err := validators.ParseUUIDParam(r, "subscriptionID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload renewRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sub, err := svc.Renew(ctx, id, subscriptionsvc.RenewInput{
			Amount: payload.Amount,
			Actor:  middleware.ActorFromContext(ctx),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.FromSubscription(*sub))
	}
}

func SubscriptionCancel(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			unavailable(ctx, logg, w)
			return
		}
		id, err := validators.ParseUUIDParam(r, "subscriptionID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload cancelRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sub, cancellation, err := svc.Cancel(ctx, id, subscriptionsvc.CancelInput{
			Immediate:       payload.Immediate,
			Reason:          payload.Reason,
			RefundAmount:    payload.RefundAmount,
			RefundReference: payload.RefundReference,
			Actor:           middleware.ActorFromContext(ctx),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cancelResponse{
			Subscription: dto.FromSubscription(*sub),
			Cancellation: dto.FromCancellation(cancellation),
		})
	}
}

func SubscriptionChangePlan(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			unavailable(ctx, logg, w)
			return
		}
		id, err := validators.ParseUUIDParam(r, "subscriptionID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload changePlanRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sub, err := svc.ChangePlan(ctx, id, subscriptionsvc.ChangePlanInput{
			PlanID: uuid.MustParse(payload.PlanID),
			Amount: payload.Amount,
			Actor:  middleware.ActorFromContext(ctx),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.FromSubscription(*sub))
	}
}

func SubscriptionHistory(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			unavailable(ctx, logg, w)
			return
		}
		id, err := validators.ParseUUIDParam(r, "subscriptionID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		entries, err := svc.ListHistory(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, historyResponse{History: dto.FromHistory(entries)})
	}
}

func SubscriptionCycles(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			unavailable(ctx, logg, w)
			return
		}
		id, err := validators.ParseUUIDParam(r, "subscriptionID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		cycles, err := svc.ListCycles(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cyclesResponse{Cycles: dto.FromCycles(cycles)})
	}
}
