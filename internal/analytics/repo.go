package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
)

// Repository holds the read-only queries behind the dashboards.
type Repository interface {
	ActiveSubscriptions(ctx context.Context) ([]models.Subscription, error)
	CountActiveAt(ctx context.Context, date time.Time) (int64, error)
	CountCreatedBetween(ctx context.Context, start, end time.Time) (int64, error)
	CountCancelledBetween(ctx context.Context, start, end time.Time) (int64, error)
	InvoicesBetween(ctx context.Context, start, end time.Time) ([]models.Invoice, error)
	CommissionTotals(ctx context.Context, start, end time.Time) (paid, due decimal.Decimal, err error)
	FindSubscription(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	SubscriptionInvoices(ctx context.Context, subscriptionID uuid.UUID) ([]models.Invoice, error)
	CountExceeded(ctx context.Context, subscriptionID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns the analytics read model over the billing tables.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ActiveSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("status = ? AND is_deleted = ?", enums.SubscriptionStatusActive, false).
		Find(&subs).Error
	return subs, err
}

// CountActiveAt counts subscriptions whose span covers date and that had not
// been cancelled before it.
func (r *repository) CountActiveAt(ctx context.Context, date time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("is_deleted = ? AND start_date <= ? AND end_date >= ?", false, date, date).
		Where("cancelled_at IS NULL OR cancelled_at >= ?", date).
		Count(&count).Error
	return count, err
}

func (r *repository) CountCreatedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("is_deleted = ? AND start_date >= ? AND start_date <= ?", false, start, end).
		Count(&count).Error
	return count, err
}

// CountCancelledBetween counts cancellations requested in [start, end).
func (r *repository) CountCancelledBetween(ctx context.Context, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("cancelled_at >= ? AND cancelled_at < ?", start, end).
		Count(&count).Error
	return count, err
}

func (r *repository) InvoicesBetween(ctx context.Context, start, end time.Time) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Where("invoice_date >= ? AND invoice_date <= ?", start, end).
		Find(&invoices).Error
	return invoices, err
}

type commissionTotals struct {
	Paid decimal.Decimal
	Due  decimal.Decimal
}

// CommissionTotals sums collectible commissions created in [start, end) and
// the paid share of them.
func (r *repository) CommissionTotals(ctx context.Context, start, end time.Time) (decimal.Decimal, decimal.Decimal, error) {
	var totals commissionTotals
	err := r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Select(
			"COALESCE(SUM(CASE WHEN status = ? THEN commission_amount ELSE 0 END), 0) AS paid, "+
				"COALESCE(SUM(commission_amount), 0) AS due",
			enums.CommissionStatusPaid,
		).
		Where("created_at >= ? AND created_at < ?", start, end).
		Where("status NOT IN ?", []enums.CommissionStatus{
			enums.CommissionStatusCancelled,
			enums.CommissionStatusWaived,
			enums.CommissionStatusRefunded,
		}).
		Scan(&totals).Error
	return totals.Paid, totals.Due, err
}

func (r *repository) FindSubscription(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	var subs []models.Subscription
	if err := r.db.WithContext(ctx).Where("id = ? AND is_deleted = ?", id, false).Limit(1).Find(&subs).Error; err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, nil
	}
	return &subs[0], nil
}

func (r *repository) SubscriptionInvoices(ctx context.Context, subscriptionID uuid.UUID) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("invoice_date ASC").
		Find(&invoices).Error
	return invoices, err
}

// CountExceeded counts feature counters and resource limits currently over their limit.
func (r *repository) CountExceeded(ctx context.Context, subscriptionID uuid.UUID) (int64, error) {
	var features, limits int64
	if err := r.db.WithContext(ctx).
		Model(&models.FeatureUsage{}).
		Where("subscription_id = ? AND is_limit_exceeded = ?", subscriptionID, true).
		Count(&features).Error; err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).
		Model(&models.SubscriptionLimit{}).
		Where("subscription_id = ? AND is_exceeded = ?", subscriptionID, true).
		Count(&limits).Error; err != nil {
		return 0, err
	}
	return features + limits, nil
}
