package billingcycles

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
)

// Repository handles billing cycle persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBatch(ctx context.Context, cycles []models.BillingCycle) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.BillingCycle, error)
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]models.BillingCycle, error)
	ListDue(ctx context.Context, today time.Time, limit int) ([]models.BillingCycle, error)
	ListDueWithin(ctx context.Context, today time.Time, days int, limit int) ([]models.BillingCycle, error)
	ListStartingOn(ctx context.Context, date time.Time, after uuid.UUID, limit int) ([]models.BillingCycle, error)
	DeleteUnbilledAfter(ctx context.Context, subscriptionID uuid.UUID, after time.Time) (int64, error)
	MarkBilled(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	RefreshDaysUntilBilling(ctx context.Context, today time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a billing cycle repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateBatch(ctx context.Context, cycles []models.BillingCycle) error {
	if len(cycles) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(cycles, 100).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.BillingCycle, error) {
	var cycle models.BillingCycle
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&cycle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cycle, nil
}

func (r *repository) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]models.BillingCycle, error) {
	var cycles []models.BillingCycle
	if err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("cycle_start ASC").
		Find(&cycles).Error; err != nil {
		return nil, err
	}
	return cycles, nil
}

// ListDue returns unbilled cycles that have started by today and belong to an
// active subscription.
func (r *repository) ListDue(ctx context.Context, today time.Time, limit int) ([]models.BillingCycle, error) {
	var cycles []models.BillingCycle
	if err := r.db.WithContext(ctx).
		Where("is_billed = ? AND cycle_start <= ?", false, today).
		Where("subscription_id IN (?)", activeSubscriptionIDs(r.db)).
		Order("cycle_start ASC").
		Limit(normalizeLimit(limit)).
		Find(&cycles).Error; err != nil {
		return nil, err
	}
	return cycles, nil
}

func (r *repository) ListDueWithin(ctx context.Context, today time.Time, days int, limit int) ([]models.BillingCycle, error) {
	if days < 0 {
		days = 0
	}
	var cycles []models.BillingCycle
	if err := r.db.WithContext(ctx).
		Where("is_billed = ? AND cycle_start >= ? AND cycle_start <= ?", false, today, today.AddDate(0, 0, days)).
		Where("subscription_id IN (?)", activeSubscriptionIDs(r.db)).
		Order("cycle_start ASC").
		Limit(normalizeLimit(limit)).
		Find(&cycles).Error; err != nil {
		return nil, err
	}
	return cycles, nil
}

// ListStartingOn pages by cycle id; pass the last id of the previous page as after, or uuid.Nil.
func (r *repository) ListStartingOn(ctx context.Context, date time.Time, after uuid.UUID, limit int) ([]models.BillingCycle, error) {
	var cycles []models.BillingCycle
	query := r.db.WithContext(ctx).
		Where("cycle_start = ?", date).
		Where("subscription_id IN (?)", activeSubscriptionIDs(r.db))
	if after != uuid.Nil {
		query = query.Where("id > ?", after)
	}
	if err := query.
		Order("id ASC").
		Limit(normalizeLimit(limit)).
		Find(&cycles).Error; err != nil {
		return nil, err
	}
	return cycles, nil
}

// DeleteUnbilledAfter removes unbilled cycles starting strictly after the given date.
func (r *repository) DeleteUnbilledAfter(ctx context.Context, subscriptionID uuid.UUID, after time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("subscription_id = ? AND is_billed = ? AND cycle_start > ?", subscriptionID, false, after).
		Delete(&models.BillingCycle{})
	return res.RowsAffected, res.Error
}

// MarkBilled flips is_billed only if it is still false. It reports whether this call won.
func (r *repository) MarkBilled(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.BillingCycle{}).
		Where("id = ? AND is_billed = ?", id, false).
		Updates(map[string]any{
			"is_billed": true,
			"billed_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RefreshDaysUntilBilling rewrites stale days_until_billing values. Dates are
// grouped so each distinct next billing date costs one update.
func (r *repository) RefreshDaysUntilBilling(ctx context.Context, today time.Time) (int64, error) {
	db := r.db.WithContext(ctx)

	res := db.Model(&models.BillingCycle{}).
		Where("next_billing_date <= ? AND days_until_billing <> ?", today, 0).
		Update("days_until_billing", 0)
	if res.Error != nil {
		return 0, res.Error
	}
	updated := res.RowsAffected

	var upcoming []time.Time
	if err := db.Model(&models.BillingCycle{}).
		Where("next_billing_date > ?", today).
		Distinct().
		Pluck("next_billing_date", &upcoming).Error; err != nil {
		return updated, err
	}
	for _, next := range upcoming {
		days := DaysUntilBilling(next, today)
		res := db.Model(&models.BillingCycle{}).
			Where("next_billing_date = ? AND days_until_billing <> ?", next, days).
			Update("days_until_billing", days)
		if res.Error != nil {
			return updated, res.Error
		}
		updated += res.RowsAffected
	}
	return updated, nil
}

func activeSubscriptionIDs(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Subscription{}).
		Select("id").
		Where("status = ? AND is_deleted = ?", enums.SubscriptionStatusActive, false)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 250
	}
	return limit
}
