package analytics

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Kiran3100/Hostel-Main-sub019/api/responses"
	"github.com/Kiran3100/Hostel-Main-sub019/api/validators"
	analyticssvc "github.com/Kiran3100/Hostel-Main-sub019/internal/analytics"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
)

// Service describes the analytics methods used by the HTTP controllers.
type Service interface {
	Summary(ctx context.Context, start, end time.Time) (*analyticssvc.Summary, error)
	SubscriptionHealth(ctx context.Context, subscriptionID uuid.UUID) (*analyticssvc.Health, error)
}

func BillingSummary(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		start, end, err := resolvePeriod(r, timeNowUTC())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		summary, err := svc.Summary(ctx, start, end)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func SubscriptionHealth(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "subscriptionID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		health, err := svc.SubscriptionHealth(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, health)
	}
}
