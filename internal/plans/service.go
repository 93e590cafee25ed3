package plans

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/money"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the plan catalog.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Plan, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	List(ctx context.Context, query ListQuery) ([]models.Plan, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (*models.Plan, bool, error)
	Archive(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Plan, error)
}

// ServiceParams groups dependencies for the plan service.
type ServiceParams struct {
	Repo              Repository
	TransactionRunner txRunner
	Logger            *logger.Logger
	Now               func() time.Time
}

// CreateInput describes a new plan. Nil limits are unlimited.
type CreateInput struct {
	PlanType     string
	Name         string
	Description  *string
	IsPublic     bool
	PriceMonthly decimal.Decimal
	PriceYearly  decimal.Decimal
	Currency     string
	TrialDays    int
	MaxHostels   *int64
	MaxRooms     *int64
	MaxStudents  *int64
	MaxAdmins    *int64
	Features     models.PlanFeatures
	Actor        uuid.UUID
}

// Patch is a typed partial update. Nil pointers and invalid nullable fields are left untouched.
type Patch struct {
	Name         *string
	Description  *string
	IsPublic     *bool
	PriceMonthly *decimal.Decimal
	PriceYearly  *decimal.Decimal
	Currency     *string
	TrialDays    *int
	MaxHostels   types.NullableInt64
	MaxRooms     types.NullableInt64
	MaxStudents  types.NullableInt64
	MaxAdmins    types.NullableInt64
	Features     *models.PlanFeatures
	Actor        uuid.UUID
}

type service struct {
	repo     Repository
	txRunner txRunner
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a plan service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("plan repo required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		txRunner: params.TransactionRunner,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Plan, error) {
	plan := &models.Plan{
		PlanType:     normalizePlanType(input.PlanType),
		Name:         strings.TrimSpace(input.Name),
		Description:  input.Description,
		Version:      1,
		Status:       enums.PlanStatusActive,
		IsPublic:     input.IsPublic,
		PriceMonthly: money.Round(input.PriceMonthly),
		PriceYearly:  money.Round(input.PriceYearly),
		Currency:     money.NormalizeCurrency(input.Currency),
		TrialDays:    input.TrialDays,
		MaxHostels:   input.MaxHostels,
		MaxRooms:     input.MaxRooms,
		MaxStudents:  input.MaxStudents,
		MaxAdmins:    input.MaxAdmins,
		Features:     input.Features,
		CreatedBy:    models.ActorRef(input.Actor),
		UpdatedBy:    models.ActorRef(input.Actor),
	}
	if plan.Features == nil {
		plan.Features = models.PlanFeatures{}
	}
	if err := Validate(plan); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create plan")
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{"plan_id": plan.ID.String(), "plan_type": plan.PlanType})
	s.logg.Info(logCtx, "plan created")
	return plan, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan id is required")
	}
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load plan")
	}
	if plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
	}
	return plan, nil
}

func (s *service) List(ctx context.Context, query ListQuery) ([]models.Plan, error) {
	if query.Status != nil && !query.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid plan status filter")
	}
	if query.PlanType != nil {
		normalized := normalizePlanType(*query.PlanType)
		query.PlanType = &normalized
	}
	plans, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list plans")
	}
	return plans, nil
}

// Update edits a plan in place, or writes a new version when an active
// subscription still references the current one. The bool result reports
// whether a new version was created.
func (s *service) Update(ctx context.Context, id uuid.UUID, patch Patch) (*models.Plan, bool, error) {
	var (
		result    *models.Plan
		versioned bool
	)
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load plan")
		}
		if current == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
		}
		if !current.Status.IsEditable() {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "%s plans cannot be edited", current.Status)
		}

		edited := *current
		applyPatch(&edited, patch)
		if err := Validate(&edited); err != nil {
			return err
		}

		inUse, err := repo.CountActiveSubscriptions(ctx, current.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count plan subscriptions")
		}
		if inUse == 0 {
			if err := repo.Save(ctx, &edited); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update plan")
			}
			result = &edited
			return nil
		}

		previousID := current.ID
		edited.ID = uuid.Nil
		edited.Version = current.Version + 1
		edited.PreviousVersionID = &previousID
		edited.CreatedBy = models.ActorRef(patch.Actor)
		edited.CreatedAt = time.Time{}
		edited.UpdatedAt = time.Time{}
		if err := repo.Create(ctx, &edited); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create plan version")
		}

		current.Status = enums.PlanStatusSuperseded
		current.UpdatedBy = models.ActorRef(patch.Actor)
		if err := repo.Save(ctx, current); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "supersede plan")
		}
		result = &edited
		versioned = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"plan_id":   result.ID.String(),
		"version":   result.Version,
		"versioned": versioned,
	})
	s.logg.Info(logCtx, "plan updated")
	return result, versioned, nil
}

func (s *service) Archive(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Plan, error) {
	plan, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan.Status == enums.PlanStatusArchived {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "plan already archived")
	}
	plan.Status = enums.PlanStatusArchived
	plan.UpdatedBy = models.ActorRef(actor)
	if err := s.repo.Save(ctx, plan); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "archive plan")
	}
	s.logg.Info(s.logg.WithField(ctx, "plan_id", plan.ID.String()), "plan archived")
	return plan, nil
}

func applyPatch(plan *models.Plan, patch Patch) {
	if patch.Name != nil {
		plan.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		plan.Description = patch.Description
	}
	if patch.IsPublic != nil {
		plan.IsPublic = *patch.IsPublic
	}
	if patch.PriceMonthly != nil {
		plan.PriceMonthly = money.Round(*patch.PriceMonthly)
	}
	if patch.PriceYearly != nil {
		plan.PriceYearly = money.Round(*patch.PriceYearly)
	}
	if patch.Currency != nil {
		plan.Currency = money.NormalizeCurrency(*patch.Currency)
	}
	if patch.TrialDays != nil {
		plan.TrialDays = *patch.TrialDays
	}
	patch.MaxHostels.Apply(&plan.MaxHostels)
	patch.MaxRooms.Apply(&plan.MaxRooms)
	patch.MaxStudents.Apply(&plan.MaxStudents)
	patch.MaxAdmins.Apply(&plan.MaxAdmins)
	if patch.Features != nil {
		features := make(models.PlanFeatures, len(*patch.Features))
		for k, v := range *patch.Features {
			features[k] = v
		}
		plan.Features = features
	}
	plan.UpdatedBy = models.ActorRef(patch.Actor)
}

func normalizePlanType(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
