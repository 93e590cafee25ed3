package usage

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Kiran3100/Hostel-Main-sub019/api/controllers/dto"
	"github.com/Kiran3100/Hostel-Main-sub019/api/responses"
	"github.com/Kiran3100/Hostel-Main-sub019/api/validators"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
)

// Service describes the feature gate methods used by the HTTP controllers.
type Service interface {
	Check(ctx context.Context, hostelID uuid.UUID, key string, amount int64) error
	Consume(ctx context.Context, hostelID uuid.UUID, key string, amount int64) error
	ListFeatures(ctx context.Context, subscriptionID uuid.UUID) ([]models.FeatureUsage, error)
	ListLimits(ctx context.Context, subscriptionID uuid.UUID) ([]models.SubscriptionLimit, error)
}

// gateRequest names either a feature key or a resource limit type (hostels, rooms, students, admins).
type gateRequest struct {
	Key    string `json:"key" validate:"required,max=64"`
	Amount int64  `json:"amount" validate:"gte=1"`
}

type gateResponse struct {
	Key     string `json:"key"`
	Amount  int64  `json:"amount"`
	Allowed bool   `json:"allowed"`
}

type usageResponse struct {
	Features []dto.FeatureUsage `json:"features"`
	Limits   []dto.Limit        `json:"limits"`
}

func unavailable(ctx context.Context, logg *logger.Logger, w http.ResponseWriter) {
	responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "usage service unavailable"))
}

// UsageCheck answers whether the hostel may use amount more of key. Rejections surface as QUOTA_EXCEEDED.
func UsageCheck(svc Service, logg *logger.Logger) http.HandlerFunc {
	return gate(svc, logg, func(ctx context.Context, hostelID uuid.UUID, key string, amount int64) error {
		return svc.Check(ctx, hostelID, key, amount)
	})
}

// UsageConsume checks and records usage in one step.
func UsageConsume(svc Service, logg *logger.Logger) http.HandlerFunc {
	return gate(svc, logg, func(ctx context.Context, hostelID uuid.UUID, key string, amount int64) error {
		return svc.Consume(ctx, hostelID, key, amount)
	})
}

func gate(svc Service, logg *logger.Logger, fn func(ctx context.Context, hostelID uuid.UUID, key string, amount int64) error) http.HandlerFunc {
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
		var payload gateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		key := strings.TrimSpace(payload.Key)

		if logg != nil {
			ctx = logg.WithHostelID(ctx, hostelID.String())
		}
		if err := fn(ctx, hostelID, key, payload.Amount); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, gateResponse{Key: key, Amount: payload.Amount, Allowed: true})
	}
}

func SubscriptionUsage(svc Service, logg *logger.Logger) http.HandlerFunc {
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

		features, err := svc.ListFeatures(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limits, err := svc.ListLimits(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, usageResponse{
			Features: dto.FromFeatureUsage(features),
			Limits:   dto.FromLimits(limits),
		})
	}
}
