package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
)

const (
	featureExceededExpr = "CASE WHEN usage_limit IS NOT NULL AND (%s) > usage_limit THEN TRUE ELSE FALSE END"
	limitExceededExpr   = "CASE WHEN limit_value IS NOT NULL AND (%s) > limit_value THEN TRUE ELSE FALSE END"
)

// Repository persists feature usage counters and resource limits.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindActiveSubscription(ctx context.Context, hostelID uuid.UUID) (*models.Subscription, error)

	CreateFeatures(ctx context.Context, rows []models.FeatureUsage) error
	SaveFeature(ctx context.Context, row *models.FeatureUsage) error
	FindFeature(ctx context.Context, subscriptionID uuid.UUID, key string) (*models.FeatureUsage, error)
	ListFeatures(ctx context.Context, subscriptionID uuid.UUID) ([]models.FeatureUsage, error)
	IncrementFeature(ctx context.Context, subscriptionID uuid.UUID, key string, amount int64, at time.Time) (bool, error)
	DecrementFeature(ctx context.Context, subscriptionID uuid.UUID, key string, amount int64) (bool, error)
	ResetFeatures(ctx context.Context, subscriptionID uuid.UUID, key string, window Window) (int64, error)
	RolloverFeatures(ctx context.Context, subscriptionID uuid.UUID, window Window) (int64, error)

	CreateLimits(ctx context.Context, rows []models.SubscriptionLimit) error
	SaveLimit(ctx context.Context, row *models.SubscriptionLimit) error
	FindLimit(ctx context.Context, subscriptionID uuid.UUID, limitType enums.LimitType) (*models.SubscriptionLimit, error)
	ListLimits(ctx context.Context, subscriptionID uuid.UUID) ([]models.SubscriptionLimit, error)
	AddResource(ctx context.Context, subscriptionID uuid.UUID, limitType enums.LimitType, amount int64) (bool, error)
	RemoveResource(ctx context.Context, subscriptionID uuid.UUID, limitType enums.LimitType, amount int64) (bool, error)
	ClaimWarning(ctx context.Context, id uuid.UUID) (bool, error)

	RecalculateExceeded(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a usage repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindActiveSubscription(ctx context.Context, hostelID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).
		Where("hostel_id = ? AND status = ? AND is_deleted = ?", hostelID, enums.SubscriptionStatusActive, false).
		First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repository) CreateFeatures(ctx context.Context, rows []models.FeatureUsage) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repository) SaveFeature(ctx context.Context, row *models.FeatureUsage) error {
	return r.db.WithContext(ctx).Save(row).Error
}

func (r *repository) FindFeature(ctx context.Context, subscriptionID uuid.UUID, key string) (*models.FeatureUsage, error) {
	var row models.FeatureUsage
	if err := r.db.WithContext(ctx).
		Where("subscription_id = ? AND feature_key = ?", subscriptionID, key).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListFeatures(ctx context.Context, subscriptionID uuid.UUID) ([]models.FeatureUsage, error) {
	var rows []models.FeatureUsage
	if err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("feature_key ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// IncrementFeature adds amount only while the result stays within the limit.
// It reports false when the row is missing, disabled, or full.
func (r *repository) IncrementFeature(ctx context.Context, subscriptionID uuid.UUID, key string, amount int64, at time.Time) (bool, error) {
	next := "current_usage + ?"
	res := r.db.WithContext(ctx).
		Model(&models.FeatureUsage{}).
		Where("subscription_id = ? AND feature_key = ? AND is_enabled = ?", subscriptionID, key, true).
		Where("usage_limit IS NULL OR current_usage + ? <= usage_limit", amount).
		Updates(map[string]any{
			"current_usage":     gorm.Expr(next, amount),
			"is_limit_exceeded": gorm.Expr(fmt.Sprintf(featureExceededExpr, next), amount),
			"last_used_at":      at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) DecrementFeature(ctx context.Context, subscriptionID uuid.UUID, key string, amount int64) (bool, error) {
	next := "CASE WHEN current_usage > ? THEN current_usage - ? ELSE 0 END"
	res := r.db.WithContext(ctx).
		Model(&models.FeatureUsage{}).
		Where("subscription_id = ? AND feature_key = ?", subscriptionID, key).
		Updates(map[string]any{
			"current_usage":     gorm.Expr(next, amount, amount),
			"is_limit_exceeded": gorm.Expr(fmt.Sprintf(featureExceededExpr, next), amount, amount),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ResetFeatures zeroes one feature, or every feature of the subscription when key is empty.
func (r *repository) ResetFeatures(ctx context.Context, subscriptionID uuid.UUID, key string, window Window) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.FeatureUsage{}).
		Where("subscription_id = ?", subscriptionID)
	if key != "" {
		query = query.Where("feature_key = ?", key)
	}
	res := query.Updates(map[string]any{
		"current_usage":     0,
		"is_limit_exceeded": false,
		"period_start":      window.Start,
		"period_end":        window.End,
	})
	return res.RowsAffected, res.Error
}

// RolloverFeatures zeroes the counters of the subscription that are not yet in window.
func (r *repository) RolloverFeatures(ctx context.Context, subscriptionID uuid.UUID, window Window) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.FeatureUsage{}).
		Where("subscription_id = ?", subscriptionID).
		Where("period_start IS NULL OR period_start <> ?", window.Start).
		Updates(map[string]any{
			"current_usage":     0,
			"is_limit_exceeded": false,
			"period_start":      window.Start,
			"period_end":        window.End,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) CreateLimits(ctx context.Context, rows []models.SubscriptionLimit) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repository) SaveLimit(ctx context.Context, row *models.SubscriptionLimit) error {
	return r.db.WithContext(ctx).Save(row).Error
}

func (r *repository) FindLimit(ctx context.Context, subscriptionID uuid.UUID, limitType enums.LimitType) (*models.SubscriptionLimit, error) {
	var row models.SubscriptionLimit
	if err := r.db.WithContext(ctx).
		Where("subscription_id = ? AND limit_type = ?", subscriptionID, limitType).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListLimits(ctx context.Context, subscriptionID uuid.UUID) ([]models.SubscriptionLimit, error) {
	var rows []models.SubscriptionLimit
	if err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("limit_type ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AddResource increments current_value unless an enforced limit would be passed.
func (r *repository) AddResource(ctx context.Context, subscriptionID uuid.UUID, limitType enums.LimitType, amount int64) (bool, error) {
	next := "current_value + ?"
	res := r.db.WithContext(ctx).
		Model(&models.SubscriptionLimit{}).
		Where("subscription_id = ? AND limit_type = ?", subscriptionID, limitType).
		Where("is_enforced = ? OR limit_value IS NULL OR current_value + ? <= limit_value", false, amount).
		Updates(map[string]any{
			"current_value": gorm.Expr(next, amount),
			"is_exceeded":   gorm.Expr(fmt.Sprintf(limitExceededExpr, next), amount),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) RemoveResource(ctx context.Context, subscriptionID uuid.UUID, limitType enums.LimitType, amount int64) (bool, error) {
	next := "CASE WHEN current_value > ? THEN current_value - ? ELSE 0 END"
	res := r.db.WithContext(ctx).
		Model(&models.SubscriptionLimit{}).
		Where("subscription_id = ? AND limit_type = ?", subscriptionID, limitType).
		Updates(map[string]any{
			"current_value": gorm.Expr(next, amount, amount),
			"is_exceeded":   gorm.Expr(fmt.Sprintf(limitExceededExpr, next), amount, amount),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ClaimWarning sets warning_sent once the threshold is reached. Only the first
// caller after the threshold is crossed gets true.
func (r *repository) ClaimWarning(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.SubscriptionLimit{}).
		Where("id = ? AND warning_sent = ?", id, false).
		Where("warning_threshold IS NOT NULL AND current_value >= warning_threshold").
		Update("warning_sent", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RecalculateExceeded repairs exceeded flags on both counters and returns the rows changed.
func (r *repository) RecalculateExceeded(ctx context.Context) (int64, error) {
	db := r.db.WithContext(ctx)
	var total int64

	steps := []func() *gorm.DB{
		func() *gorm.DB {
			return db.Model(&models.FeatureUsage{}).
				Where("is_limit_exceeded = ? AND usage_limit IS NOT NULL AND current_usage > usage_limit", false).
				Update("is_limit_exceeded", true)
		},
		func() *gorm.DB {
			return db.Model(&models.FeatureUsage{}).
				Where("is_limit_exceeded = ? AND (usage_limit IS NULL OR current_usage <= usage_limit)", true).
				Update("is_limit_exceeded", false)
		},
		func() *gorm.DB {
			return db.Model(&models.SubscriptionLimit{}).
				Where("is_exceeded = ? AND limit_value IS NOT NULL AND current_value > limit_value", false).
				Update("is_exceeded", true)
		},
		func() *gorm.DB {
			return db.Model(&models.SubscriptionLimit{}).
				Where("is_exceeded = ? AND (limit_value IS NULL OR current_value <= limit_value)", true).
				Update("is_exceeded", false)
		},
	}
	for _, step := range steps {
		res := step()
		if res.Error != nil {
			return total, res.Error
		}
		total += res.RowsAffected
	}
	return total, nil
}
