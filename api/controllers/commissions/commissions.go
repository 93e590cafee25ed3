package commissions

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Kiran3100/Hostel-Main-sub019/api/controllers/dto"
	"github.com/Kiran3100/Hostel-Main-sub019/api/middleware"
	"github.com/Kiran3100/Hostel-Main-sub019/api/responses"
	"github.com/Kiran3100/Hostel-Main-sub019/api/validators"
	commissionsvc "github.com/Kiran3100/Hostel-Main-sub019/internal/commissions"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
)

// Service describes the commission methods used by the HTTP controllers.
type Service interface {
	CreateForBooking(ctx context.Context, input commissionsvc.BookingInput) (*models.Commission, bool, error)
	StartProcessing(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Commission, error)
	MarkPaid(ctx context.Context, id uuid.UUID, input commissionsvc.PaidInput) (*models.Commission, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Commission, error)
	Waive(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Commission, error)
	Dispute(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Commission, error)
	Refund(ctx context.Context, id uuid.UUID, reference string, actor uuid.UUID) (*models.Commission, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Commission, error)
	ListPendingForHostel(ctx context.Context, hostelID uuid.UUID, limit int) ([]models.Commission, error)
	SummaryForHostel(ctx context.Context, hostelID uuid.UUID) (*commissionsvc.Summary, error)
}

const (
	actionStartProcessing = "start_processing"
	actionPay             = "pay"
	actionCancel          = "cancel"
	actionWaive           = "waive"
	actionDispute         = "dispute"
	actionRefund          = "refund"
)

type bookingRequest struct {
	BookingID      string           `json:"booking_id" validate:"required,uuid"`
	HostelID       string           `json:"hostel_id" validate:"required,uuid"`
	SubscriptionID *string          `json:"subscription_id" validate:"omitempty,uuid"`
	BookingAmount  decimal.Decimal  `json:"booking_amount" validate:"gte=0"`
	Percentage     *decimal.Decimal `json:"percentage" validate:"omitempty,gte=0,lte=100"`
	DueDays        *int             `json:"due_days" validate:"omitempty,gte=0"`
	BookingDate    *string          `json:"booking_date" validate:"omitempty,datetime=2006-01-02"`
}

type transitionRequest struct {
	Action    string  `json:"action" validate:"required,oneof=start_processing pay cancel waive dispute refund"`
	Reason    string  `json:"reason" validate:"max=500"`
	Reference string  `json:"reference" validate:"max=128"`
	PaidDate  *string `json:"paid_date" validate:"omitempty,datetime=2006-01-02"`
}

type pendingResponse struct {
	Commissions []dto.Commission `json:"commissions"`
}

func unavailable(ctx context.Context, logg *logger.Logger, w http.ResponseWriter) {
	responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "commission service unavailable"))
}

// CommissionCreateForBooking is idempotent per booking: replays answer 200 with the stored record.
func CommissionCreateForBooking(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			unavailable(ctx, logg, w)
			return
		}

		var payload bookingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		bookingDate, err := validators.ParseDate("booking_date", payload.BookingDate)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input := commissionsvc.BookingInput{
			BookingID:     uuid.MustParse(payload.BookingID),
			HostelID:      uuid.MustParse(payload.HostelID),
			BookingAmount: payload.BookingAmount,
			Percentage:    payload.Percentage,
			DueDays:       payload.DueDays,
			BookingDate:   bookingDate,
			Actor:         middleware.ActorFromContext(ctx),
		}
		if payload.SubscriptionID != nil {
			subID := uuid.MustParse(*payload.SubscriptionID)
			input.SubscriptionID = &subID
		}

		commission, created, err := svc.CreateForBooking(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, dto.FromCommission(*commission))
	}
}

func CommissionGet(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			unavailable(ctx, logg, w)
			return
		}
		id, err := validators.ParseUUIDParam(r, "commissionID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		commission, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.FromCommission(*commission))
	}
}

// CommissionTransition moves a commission through its status machine.
func CommissionTransition(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			unavailable(ctx, logg, w)
			return
		}
		id, err := validators.ParseUUIDParam(r, "commissionID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload transitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(ctx)
		var commission *models.Commission
		switch payload.Action {
		case actionStartProcessing:
			commission, err = svc.StartProcessing(ctx, id, actor)
		case actionPay:
			parsed, parseErr := validators.ParseDate("paid_date", payload.PaidDate)
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, parseErr)
				return
			}
			commission, err = svc.MarkPaid(ctx, id, commissionsvc.PaidInput{
				PaidDate:  parsed,
				Reference: payload.Reference,
				Actor:     actor,
			})
		case actionCancel:
			commission, err = svc.Cancel(ctx, id, payload.Reason, actor)
		case actionWaive:
			commission, err = svc.Waive(ctx, id, payload.Reason, actor)
		case actionDispute:
			commission, err = svc.Dispute(ctx, id, payload.Reason, actor)
		case actionRefund:
			commission, err = svc.Refund(ctx, id, payload.Reference, actor)
		default:
			err = pkgerrors.New(pkgerrors.CodeValidation, "unknown commission action").WithDetails(map[string]any{"action": payload.Action})
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.FromCommission(*commission))
	}
}

func HostelPendingCommissions(svc Service, logg *logger.Logger) http.HandlerFunc {
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
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 500)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.ListPendingForHostel(ctx, hostelID, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, pendingResponse{Commissions: dto.FromCommissions(rows)})
	}
}

func HostelCommissionSummary(svc Service, logg *logger.Logger) http.HandlerFunc {
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

		summary, err := svc.SummaryForHostel(ctx, hostelID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
