package plans

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
	plansvc "github.com/Kiran3100/Hostel-Main-sub019/internal/plans"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/types"
)

// Service describes the plan catalog methods used by the HTTP controllers.
type Service interface {
	Create(ctx context.Context, input plansvc.CreateInput) (*models.Plan, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	List(ctx context.Context, query plansvc.ListQuery) ([]models.Plan, error)
	Update(ctx context.Context, id uuid.UUID, patch plansvc.Patch) (*models.Plan, bool, error)
	Archive(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Plan, error)
}

type featureRequest struct {
	Enabled bool   `json:"enabled"`
	Limit   *int64 `json:"limit" validate:"omitempty,gte=0"`
}

type createRequest struct {
	PlanType     string                    `json:"plan_type" validate:"required,max=64"`
	Name         string                    `json:"name" validate:"required,max=128"`
	Description  *string                   `json:"description"`
	IsPublic     bool                      `json:"is_public"`
	PriceMonthly decimal.Decimal           `json:"price_monthly" validate:"gte=0"`
	PriceYearly  decimal.Decimal           `json:"price_yearly" validate:"gte=0"`
	Currency     string                    `json:"currency" validate:"required,len=3"`
	TrialDays    int                       `json:"trial_days" validate:"gte=0"`
	MaxHostels   *int64                    `json:"max_hostels" validate:"omitempty,gte=0"`
	MaxRooms     *int64                    `json:"max_rooms" validate:"omitempty,gte=0"`
	MaxStudents  *int64                    `json:"max_students" validate:"omitempty,gte=0"`
	MaxAdmins    *int64                    `json:"max_admins" validate:"omitempty,gte=0"`
	Features     map[string]featureRequest `json:"features" validate:"omitempty,dive"`
}

type patchRequest struct {
	Name         *string                   `json:"name" validate:"omitempty,max=128"`
	Description  *string                   `json:"description"`
	IsPublic     *bool                     `json:"is_public"`
	PriceMonthly *decimal.Decimal          `json:"price_monthly" validate:"omitempty,gte=0"`
	PriceYearly  *decimal.Decimal          `json:"price_yearly" validate:"omitempty,gte=0"`
	Currency     *string                   `json:"currency" validate:"omitempty,len=3"`
	TrialDays    *int                      `json:"trial_days" validate:"omitempty,gte=0"`
	MaxHostels   types.NullableInt64       `json:"max_hostels"`
	MaxRooms     types.NullableInt64       `json:"max_rooms"`
	MaxStudents  types.NullableInt64       `json:"max_students"`
	MaxAdmins    types.NullableInt64       `json:"max_admins"`
	Features     map[string]featureRequest `json:"features" validate:"omitempty,dive"`
}

type planListResponse struct {
	Plans []dto.Plan `json:"plans"`
}

type planUpdateResponse struct {
	Plan       dto.Plan `json:"plan"`
	NewVersion bool     `json:"new_version"`
}

func toFeatures(in map[string]featureRequest) models.PlanFeatures {
	if in == nil {
		return nil
	}
	out := make(models.PlanFeatures, len(in))
	for key, f := range in {
		out[strings.TrimSpace(key)] = models.PlanFeature{Enabled: f.Enabled, Limit: f.Limit}
	}
	return out
}

func PlanCreate(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plan service unavailable"))
			return
		}

		var payload createRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		plan, err := svc.Create(ctx, plansvc.CreateInput{
			PlanType:     payload.PlanType,
			Name:         payload.Name,
			Description:  payload.Description,
			IsPublic:     payload.IsPublic,
			PriceMonthly: payload.PriceMonthly,
			PriceYearly:  payload.PriceYearly,
			Currency:     payload.Currency,
			TrialDays:    payload.TrialDays,
			MaxHostels:   payload.MaxHostels,
			MaxRooms:     payload.MaxRooms,
			MaxStudents:  payload.MaxStudents,
			MaxAdmins:    payload.MaxAdmins,
			Features:     toFeatures(payload.Features),
			Actor:        middleware.ActorFromContext(ctx),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto.FromPlan(*plan))
	}
}

func PlanList(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plan service unavailable"))
			return
		}

		var query plansvc.ListQuery
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParsePlanStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			query.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("plan_type")); raw != "" {
			query.PlanType = &raw
		}
		isPublic, err := validators.ParseQueryBool(r, "is_public")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		query.IsPublic = isPublic

		plans, err := svc.List(ctx, query)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, planListResponse{Plans: dto.FromPlans(plans)})
	}
}

func PlanGet(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plan service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "planID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		plan, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.FromPlan(*plan))
	}
}

// PlanUpdate patches a plan. Price or limit edits on a referenced plan answer with the new version.
func PlanUpdate(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plan service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "planID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload patchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		patch := plansvc.Patch{
			Name:         payload.Name,
			Description:  payload.Description,
			IsPublic:     payload.IsPublic,
			PriceMonthly: payload.PriceMonthly,
			PriceYearly:  payload.PriceYearly,
			Currency:     payload.Currency,
			TrialDays:    payload.TrialDays,
			MaxHostels:   payload.MaxHostels,
			MaxRooms:     payload.MaxRooms,
			MaxStudents:  payload.MaxStudents,
			MaxAdmins:    payload.MaxAdmins,
			Actor:        middleware.ActorFromContext(ctx),
		}
		if payload.Features != nil {
			features := toFeatures(payload.Features)
			patch.Features = &features
		}

		plan, versioned, err := svc.Update(ctx, id, patch)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status := http.StatusOK
		if versioned {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, planUpdateResponse{Plan: dto.FromPlan(*plan), NewVersion: versioned})
	}
}

func PlanArchive(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plan service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "planID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		plan, err := svc.Archive(ctx, id, middleware.ActorFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto.FromPlan(*plan))
	}
}
