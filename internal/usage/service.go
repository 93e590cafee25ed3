package usage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/dates"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/metrics"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/types"
)

const defaultWarningPercent = 80

// Window is the usage period a counter accumulates over.
type Window struct {
	Start time.Time
	End   time.Time
}

// AddResult reports the limit after an add and whether this call crossed the warning threshold.
type AddResult struct {
	Limit            *models.SubscriptionLimit
	WarningTriggered bool
}

// LimitPatch adjusts a resource limit. Invalid nullable fields are left untouched.
type LimitPatch struct {
	LimitValue       types.NullableInt64
	WarningThreshold types.NullableInt64
	IsEnforced       *bool
}

// Service enforces plan quotas for a subscription.
type Service interface {
	Provision(ctx context.Context, tx *gorm.DB, sub *models.Subscription, plan *models.Plan) error
	SyncPlan(ctx context.Context, tx *gorm.DB, sub *models.Subscription, plan *models.Plan) error

	ListFeatures(ctx context.Context, subscriptionID uuid.UUID) ([]models.FeatureUsage, error)
	CanUse(ctx context.Context, subscriptionID uuid.UUID, key string, amount int64) (bool, error)
	Increment(ctx context.Context, subscriptionID uuid.UUID, key string, amount int64) (*models.FeatureUsage, error)
	Decrement(ctx context.Context, subscriptionID uuid.UUID, key string, amount int64) (*models.FeatureUsage, error)
	Reset(ctx context.Context, subscriptionID uuid.UUID, key string, window Window) error
	ResetAll(ctx context.Context, subscriptionID uuid.UUID, window Window) error
	Rollover(ctx context.Context, subscriptionID uuid.UUID, window Window) (int64, error)
	RecalculateExceeded(ctx context.Context) (int64, error)

	ListLimits(ctx context.Context, subscriptionID uuid.UUID) ([]models.SubscriptionLimit, error)
	CanAdd(ctx context.Context, subscriptionID uuid.UUID, limitType enums.LimitType, amount int64) (bool, error)
	AddResource(ctx context.Context, subscriptionID uuid.UUID, limitType enums.LimitType, amount int64) (*AddResult, error)
	RemoveResource(ctx context.Context, subscriptionID uuid.UUID, limitType enums.LimitType, amount int64) (*models.SubscriptionLimit, error)
	UpdateLimit(ctx context.Context, subscriptionID uuid.UUID, limitType enums.LimitType, patch LimitPatch) (*models.SubscriptionLimit, error)

	Check(ctx context.Context, hostelID uuid.UUID, key string, amount int64) error
	Consume(ctx context.Context, hostelID uuid.UUID, key string, amount int64) error
}

// ServiceParams groups dependencies for the usage service.
type ServiceParams struct {
	Repo           Repository
	Logger         *logger.Logger
	Metrics        *metrics.BillingMetrics
	WarningPercent int
	Now            func() time.Time
}

type service struct {
	repo           Repository
	logg           *logger.Logger
	metrics        *metrics.BillingMetrics
	warningPercent int
	now            func() time.Time
}

// NewService builds the feature and limit enforcer.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("usage repo required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	pct := params.WarningPercent
	if pct <= 0 || pct > 100 {
		pct = defaultWarningPercent
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:           params.Repo,
		logg:           params.Logger,
		metrics:        params.Metrics,
		warningPercent: pct,
		now:            now,
	}, nil
}

// WarningThreshold returns ceil(limit * percent / 100), or nil for unlimited.
func WarningThreshold(limit *int64, percent int) *int64 {
	if limit == nil {
		return nil
	}
	threshold := (*limit*int64(percent) + 99) / 100
	return &threshold
}

// FirstWindow is the first cadence period of the subscription.
func FirstWindow(sub *models.Subscription) Window {
	end := dates.AddDays(sub.StartDate, sub.BillingCadence.PeriodDays()-1)
	return Window{Start: sub.StartDate, End: dates.Min(end, sub.EndDate)}
}

func (s *service) Provision(ctx context.Context, tx *gorm.DB, sub *models.Subscription, plan *models.Plan) error {
	if sub == nil || plan == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription and plan are required")
	}
	repo := s.repo.WithTx(tx)
	window := FirstWindow(sub)

	features := make([]models.FeatureUsage, 0, len(plan.Features))
	for _, key := range sortedKeys(plan.Features) {
		feature := plan.Features[key]
		features = append(features, models.FeatureUsage{
			SubscriptionID: sub.ID,
			FeatureKey:     key,
			UsageLimit:     copyLimit(feature.Limit),
			IsEnabled:      feature.Enabled,
			PeriodStart:    &window.Start,
			PeriodEnd:      &window.End,
		})
	}
	if err := repo.CreateFeatures(ctx, features); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create feature usage")
	}

	resourceLimits := plan.ResourceLimits()
	limits := make([]models.SubscriptionLimit, 0, len(resourceLimits))
	for _, limitType := range enums.LimitTypes() {
		value := copyLimit(resourceLimits[limitType])
		limits = append(limits, models.SubscriptionLimit{
			SubscriptionID:   sub.ID,
			LimitType:        limitType,
			LimitValue:       value,
			IsEnforced:       true,
			WarningThreshold: WarningThreshold(value, s.warningPercent),
		})
	}
	if err := repo.CreateLimits(ctx, limits); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription limits")
	}
	return nil
}

// SyncPlan aligns counters with a new plan. Usage carries over; features the
// plan no longer offers are disabled rather than removed.
func (s *service) SyncPlan(ctx context.Context, tx *gorm.DB, sub *models.Subscription, plan *models.Plan) error {
	if sub == nil || plan == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription and plan are required")
	}
	repo := s.repo.WithTx(tx)

	existing, err := repo.ListFeatures(ctx, sub.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list feature usage")
	}
	seen := make(map[string]bool, len(existing))
	for i := range existing {
		row := &existing[i]
		seen[row.FeatureKey] = true
		feature, ok := plan.Features[row.FeatureKey]
		row.IsEnabled = ok && feature.Enabled
		row.UsageLimit = copyLimit(feature.Limit)
		row.IsLimitExceeded = row.UsageLimit != nil && row.CurrentUsage > *row.UsageLimit
		if err := repo.SaveFeature(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update feature usage")
		}
	}
	window := FirstWindow(sub)
	var added []models.FeatureUsage
	for _, key := range sortedKeys(plan.Features) {
		if seen[key] {
			continue
		}
		feature := plan.Features[key]
		added = append(added, models.FeatureUsage{
			SubscriptionID: sub.ID,
			FeatureKey:     key,
			UsageLimit:     copyLimit(feature.Limit),
			IsEnabled:      feature.Enabled,
			PeriodStart:    &window.Start,
			PeriodEnd:      &window.End,
		})
	}
	if err := repo.CreateFeatures(ctx, added); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create feature usage")
	}

	limits, err := repo.ListLimits(ctx, sub.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscription limits")
	}
	resourceLimits := plan.ResourceLimits()
	present := make(map[enums.LimitType]bool, len(limits))
	for i := range limits {
		row := &limits[i]
		present[row.LimitType] = true
		s.applyLimit(row, copyLimit(resourceLimits[row.LimitType]), nil)
		if err := repo.SaveLimit(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription limit")
		}
	}
	var missing []models.SubscriptionLimit
	for _, limitType := range enums.LimitTypes() {
		if present[limitType] {
			continue
		}
		value := copyLimit(resourceLimits[limitType])
		missing = append(missing, models.SubscriptionLimit{
			SubscriptionID:   sub.ID,
			LimitType:        limitType,
			LimitValue:       value,
			IsEnforced:       true,
			WarningThreshold: WarningThreshold(value, s.warningPercent),
		})
	}
	if err := repo.CreateLimits(ctx, missing); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription limits")
	}
	return nil
}

func (s *service) ListFeatures(ctx context.Context, subscriptionID uuid.UUID) ([]models.FeatureUsage, error) {
	rows, err := s.repo.ListFeatures(ctx, subscriptionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list feature usage")
	}
	return rows, nil
}

func (s *service) CanUse(ctx context.Context, subscriptionID uuid.UUID, key string, amount int64) (bool, error) {
	if err := validateAmount(amount); err != nil {
		return false, err
	}
	row, err := s.repo.FindFeature(ctx, subscriptionID, key)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load feature usage")
	}
	if row == nil {
		return false, nil
	}
	return row.CanUse(amount), nil
}

func (s *service) Increment(ctx context.Context, subscriptionID uuid.UUID, key string, amount int64) (*models.FeatureUsage, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	ok, err := s.repo.IncrementFeature(ctx, subscriptionID, key, amount, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment feature usage")
	}
	row, err := s.repo.FindFeature(ctx, subscriptionID, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load feature usage")
	}
	if !ok {
		return nil, s.featureRejection(ctx, subscriptionID, key, amount, row)
	}
	return row, nil
}

func (s *service) Decrement(ctx context.Context, subscriptionID uuid.UUID, key string, amount int64) (*models.FeatureUsage, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	ok, err := s.repo.DecrementFeature(ctx, subscriptionID, key, amount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement feature usage")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "feature usage not found")
	}
	row, err := s.repo.FindFeature(ctx, subscriptionID, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load feature usage")
	}
	return row, nil
}

func (s *service) Reset(ctx context.Context, subscriptionID uuid.UUID, key string, window Window) error {
	if key == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "feature key is required")
	}
	updated, err := s.repo.ResetFeatures(ctx, subscriptionID, key, normalizeWindow(window))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset feature usage")
	}
	if updated == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "feature usage not found")
	}
	return nil
}

func (s *service) ResetAll(ctx context.Context, subscriptionID uuid.UUID, window Window) error {
	if _, err := s.repo.ResetFeatures(ctx, subscriptionID, "", normalizeWindow(window)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset feature usage")
	}
	return nil
}

// Rollover moves the subscription's counters into window, zeroing only those
// still tracking an earlier period. It reports how many counters were reset.
func (s *service) Rollover(ctx context.Context, subscriptionID uuid.UUID, window Window) (int64, error) {
	reset, err := s.repo.RolloverFeatures(ctx, subscriptionID, normalizeWindow(window))
	if err != nil {
		return reset, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "roll over feature usage")
	}
	return reset, nil
}

func (s *service) RecalculateExceeded(ctx context.Context) (int64, error) {
	changed, err := s.repo.RecalculateExceeded(ctx)
	if err != nil {
		return changed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recalculate exceeded flags")
	}
	return changed, nil
}

func (s *service) ListLimits(ctx context.Context, subscriptionID uuid.UUID) ([]models.SubscriptionLimit, error) {
	rows, err := s.repo.ListLimits(ctx, subscriptionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscription limits")
	}
	return rows, nil
}

func (s *service) CanAdd(ctx context.Context, subscriptionID uuid.UUID, limitType enums.LimitType, amount int64) (bool, error) {
	if err := validateAmount(amount); err != nil {
		return false, err
	}
	row, err := s.repo.FindLimit(ctx, subscriptionID, limitType)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription limit")
	}
	if row == nil {
		return false, nil
	}
	return row.CanAdd(amount), nil
}

func (s *service) AddResource(ctx context.Context, subscriptionID uuid.UUID, limitType enums.LimitType, amount int64) (*AddResult, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	ok, err := s.repo.AddResource(ctx, subscriptionID, limitType, amount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add resource")
	}
	row, err := s.repo.FindLimit(ctx, subscriptionID, limitType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription limit")
	}
	if !ok {
		return nil, s.limitRejection(ctx, subscriptionID, limitType, amount, row)
	}

	result := &AddResult{Limit: row}
	if row.WarningDue() {
		claimed, err := s.repo.ClaimWarning(ctx, row.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag limit warning")
		}
		if claimed {
			row.WarningSent = true
			result.WarningTriggered = true
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"subscription_id": subscriptionID.String(),
				"limit_type":      limitType.String(),
				"current_value":   row.CurrentValue,
				"threshold":       *row.WarningThreshold,
			})
			s.logg.Warn(logCtx, "subscription limit warning threshold reached")
		}
	}
	return result, nil
}

func (s *service) RemoveResource(ctx context.Context, subscriptionID uuid.UUID, limitType enums.LimitType, amount int64) (*models.SubscriptionLimit, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	ok, err := s.repo.RemoveResource(ctx, subscriptionID, limitType, amount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove resource")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription limit not found")
	}
	row, err := s.repo.FindLimit(ctx, subscriptionID, limitType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription limit")
	}
	return row, nil
}

func (s *service) UpdateLimit(ctx context.Context, subscriptionID uuid.UUID, limitType enums.LimitType, patch LimitPatch) (*models.SubscriptionLimit, error) {
	row, err := s.repo.FindLimit(ctx, subscriptionID, limitType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription limit")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription limit not found")
	}

	value := copyLimit(row.LimitValue)
	if patch.LimitValue.Valid {
		patch.LimitValue.Apply(&value)
		if value != nil && *value <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "limit value must be > 0")
		}
	}
	var threshold *int64
	if patch.WarningThreshold.Valid {
		patch.WarningThreshold.Apply(&threshold)
		if threshold != nil && *threshold < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "warning threshold must be >= 0")
		}
	} else if !patch.LimitValue.Valid {
		threshold = copyLimit(row.WarningThreshold)
	}
	if patch.IsEnforced != nil {
		row.IsEnforced = *patch.IsEnforced
	}
	s.applyLimit(row, value, threshold)

	if err := s.repo.SaveLimit(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription limit")
	}
	return row, nil
}

// applyLimit sets the limit and threshold, recomputing the derived flags. A nil
// threshold is derived from the warning percent.
func (s *service) applyLimit(row *models.SubscriptionLimit, value, threshold *int64) {
	if threshold == nil {
		threshold = WarningThreshold(value, s.warningPercent)
	}
	row.LimitValue = value
	row.WarningThreshold = threshold
	row.IsExceeded = value != nil && row.CurrentValue > *value
	if threshold == nil || row.CurrentValue < *threshold {
		row.WarningSent = false
	}
}

func (s *service) Check(ctx context.Context, hostelID uuid.UUID, key string, amount int64) error {
	sub, err := s.activeSubscription(ctx, hostelID, key)
	if err != nil {
		return err
	}
	if limitType, err := enums.ParseLimitType(key); err == nil {
		allowed, err := s.CanAdd(ctx, sub.ID, limitType, amount)
		if err != nil {
			return err
		}
		if !allowed {
			row, _ := s.repo.FindLimit(ctx, sub.ID, limitType)
			return s.limitRejection(ctx, sub.ID, limitType, amount, row)
		}
		return nil
	}
	allowed, err := s.CanUse(ctx, sub.ID, key, amount)
	if err != nil {
		return err
	}
	if !allowed {
		row, _ := s.repo.FindFeature(ctx, sub.ID, key)
		return s.featureRejection(ctx, sub.ID, key, amount, row)
	}
	return nil
}

func (s *service) Consume(ctx context.Context, hostelID uuid.UUID, key string, amount int64) error {
	sub, err := s.activeSubscription(ctx, hostelID, key)
	if err != nil {
		return err
	}
	if limitType, err := enums.ParseLimitType(key); err == nil {
		_, err := s.AddResource(ctx, sub.ID, limitType, amount)
		return err
	}
	_, err = s.Increment(ctx, sub.ID, key, amount)
	return err
}

func (s *service) activeSubscription(ctx context.Context, hostelID uuid.UUID, key string) (*models.Subscription, error) {
	if hostelID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hostel id is required")
	}
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "feature key is required")
	}
	sub, err := s.repo.FindActiveSubscription(ctx, hostelID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active subscription")
	}
	if sub == nil {
		s.metrics.IncQuotaRejection(key)
		return nil, pkgerrors.New(pkgerrors.CodeQuotaExceeded, "hostel has no active subscription").
			WithDetails(map[string]any{"hostel_id": hostelID.String(), "key": key, "reason": "no_active_subscription"})
	}
	return sub, nil
}

func (s *service) featureRejection(ctx context.Context, subscriptionID uuid.UUID, key string, amount int64, row *models.FeatureUsage) error {
	details := map[string]any{"subscription_id": subscriptionID.String(), "key": key, "requested": amount}
	switch {
	case row == nil:
		details["reason"] = "feature_not_in_plan"
	case !row.IsEnabled:
		details["reason"] = "feature_disabled"
	default:
		details["reason"] = "limit_reached"
		details["current"] = row.CurrentUsage
		if row.UsageLimit != nil {
			details["limit"] = *row.UsageLimit
		}
	}
	return s.reject(ctx, key, details)
}

func (s *service) limitRejection(ctx context.Context, subscriptionID uuid.UUID, limitType enums.LimitType, amount int64, row *models.SubscriptionLimit) error {
	details := map[string]any{"subscription_id": subscriptionID.String(), "key": limitType.String(), "requested": amount}
	if row == nil {
		details["reason"] = "limit_not_provisioned"
	} else {
		details["reason"] = "limit_reached"
		details["current"] = row.CurrentValue
		if row.LimitValue != nil {
			details["limit"] = *row.LimitValue
		}
	}
	return s.reject(ctx, limitType.String(), details)
}

func (s *service) reject(ctx context.Context, key string, details map[string]any) error {
	s.metrics.IncQuotaRejection(key)
	s.logg.Info(s.logg.WithFields(ctx, details), "quota rejected")
	return pkgerrors.New(pkgerrors.CodeQuotaExceeded, "plan limit reached").WithDetails(details)
}

func validateAmount(amount int64) error {
	if amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be > 0")
	}
	return nil
}

func normalizeWindow(window Window) Window {
	return Window{Start: dates.Date(window.Start), End: dates.Date(window.End)}
}

func copyLimit(v *int64) *int64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func sortedKeys(features models.PlanFeatures) []string {
	keys := make([]string, 0, len(features))
	for key := range features {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
