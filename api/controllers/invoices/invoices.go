package invoices

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Kiran3100/Hostel-Main-sub019/api/controllers/dto"
	"github.com/Kiran3100/Hostel-Main-sub019/api/middleware"
	"github.com/Kiran3100/Hostel-Main-sub019/api/responses"
	"github.com/Kiran3100/Hostel-Main-sub019/api/validators"
	invoicesvc "github.com/Kiran3100/Hostel-Main-sub019/internal/invoices"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/pagination"
)

// Service describes the invoice methods used by the HTTP controllers.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	ApplyPayment(ctx context.Context, id uuid.UUID, input invoicesvc.PaymentInput) (*models.Invoice, error)
	MarkAsPaid(ctx context.Context, id uuid.UUID, input invoicesvc.SettleInput) (*models.Invoice, error)
	ApplyDiscount(ctx context.Context, id uuid.UUID, discount decimal.Decimal, actor uuid.UUID) (*models.Invoice, error)
	Send(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Invoice, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Invoice, error)
	Void(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Invoice, error)
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID, params pagination.Params) (pagination.Page[models.Invoice], error)
}

type paymentRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Reference string          `json:"reference" validate:"max=128"`
	Method    string          `json:"method" validate:"max=64"`
	PaidDate  *string         `json:"paid_date" validate:"omitempty,datetime=2006-01-02"`
}

type settleRequest struct {
	Reference string  `json:"reference" validate:"max=128"`
	Method    string  `json:"method" validate:"max=64"`
	PaidDate  *string `json:"paid_date" validate:"omitempty,datetime=2006-01-02"`
}

type discountRequest struct {
	Discount decimal.Decimal `json:"discount" validate:"gte=0"`
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type invoicePageResponse struct {
	Invoices   []dto.Invoice `json:"invoices"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func unavailable(ctx context.Context, logg *logger.Logger, w http.ResponseWriter) {
	responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
}

func InvoiceGet(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			unavailable(ctx, logg, w)
			return
		}
		id, err := validators.ParseUUIDParam(r, "invoiceID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		invoice, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.FromInvoice(*invoice))
	}
}

// SubscriptionInvoices pages a subscription's invoices newest first.
func SubscriptionInvoices(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			unavailable(ctx, logg, w)
			return
		}
		subscriptionID, err := validators.ParseUUIDParam(r, "subscriptionID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.ListBySubscription(ctx, subscriptionID, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoicePageResponse{
			Invoices:   dto.FromInvoices(page.Items),
			NextCursor: page.NextCursor,
		})
	}
}

func InvoicePayment(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			unavailable(ctx, logg, w)
			return
		}
		id, err := validators.ParseUUIDParam(r, "invoiceID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload paymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		paidDate, err := validators.ParseDate("paid_date", payload.PaidDate)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		invoice, err := svc.ApplyPayment(ctx, id, invoicesvc.PaymentInput{
			Amount:    payload.Amount,
			Reference: payload.Reference,
			Method:    payload.Method,
			PaidDate:  paidDate,
			Actor:     middleware.ActorFromContext(ctx),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.FromInvoice(*invoice))
	}
}

// InvoiceSettle pays the remaining balance in full.
func InvoiceSettle(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			unavailable(ctx, logg, w)
			return
		}
		id, err := validators.ParseUUIDParam(r, "invoiceID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload settleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		paidDate, err := validators.ParseDate("paid_date", payload.PaidDate)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		invoice, err := svc.MarkAsPaid(ctx, id, invoicesvc.SettleInput{
			Reference: payload.Reference,
			Method:    payload.Method,
			PaidDate:  paidDate,
			Actor:     middleware.ActorFromContext(ctx),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.FromInvoice(*invoice))
	}
}

func InvoiceDiscount(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			unavailable(ctx, logg, w)
			return
		}
		id, err := validators.ParseUUIDParam(r, "invoiceID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload discountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		invoice, err := svc.ApplyDiscount(ctx, id, payload.Discount, middleware.ActorFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.FromInvoice(*invoice))
	}
}

func InvoiceSend(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			unavailable(ctx, logg, w)
			return
		}
		id, err := validators.ParseUUIDParam(r, "invoiceID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		invoice, err := svc.Send(ctx, id, middleware.ActorFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.FromInvoice(*invoice))
	}
}

func InvoiceCancel(svc Service, logg *logger.Logger) http.HandlerFunc {
	return reasonAction(svc, logg, func(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Invoice, error) {
		return svc.Cancel(ctx, id, reason, actor)
	})
}

func InvoiceVoid(svc Service, logg *logger.Logger) http.HandlerFunc {
	return reasonAction(svc, logg, func(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Invoice, error) {
		return svc.Void(ctx, id, reason, actor)
	})
}

func reasonAction(svc Service, logg *logger.Logger, fn func(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Invoice, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			unavailable(ctx, logg, w)
			return
		}
		id, err := validators.ParseUUIDParam(r, "invoiceID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload reasonRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		invoice, err := fn(ctx, id, payload.Reason, middleware.ActorFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.FromInvoice(*invoice))
	}
}
