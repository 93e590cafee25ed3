package subscriptions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
)

// Repository handles subscription, history and cancellation persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, sub *models.Subscription) error
	SaveIfStatus(ctx context.Context, sub *models.Subscription, expected enums.SubscriptionStatus) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	FindActiveForHostel(ctx context.Context, hostelID uuid.UUID, excludeID uuid.UUID) (*models.Subscription, error)
	FindCoveringDate(ctx context.Context, hostelID uuid.UUID, date time.Time) (*models.Subscription, error)
	ListActivePastEnd(ctx context.Context, today time.Time, limit int) ([]models.Subscription, error)
	ListElapsedTrials(ctx context.Context, today time.Time, limit int) ([]models.Subscription, error)
	ListTrialsEndingOn(ctx context.Context, date time.Time, limit int) ([]models.Subscription, error)

	CreateHistory(ctx context.Context, entry *models.SubscriptionHistory) error
	ListHistory(ctx context.Context, subscriptionID uuid.UUID) ([]models.SubscriptionHistory, error)

	CreateCancellation(ctx context.Context, record *models.Cancellation) error
	FindCancellation(ctx context.Context, subscriptionID uuid.UUID) (*models.Cancellation, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a subscription repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

// SaveIfStatus writes every column of sub as long as the stored status still
// equals expected. It reports false when another writer got there first.
func (r *repository) SaveIfStatus(ctx context.Context, sub *models.Subscription, expected enums.SubscriptionStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ? AND status = ? AND is_deleted = ?", sub.ID, expected, false).
		Select("*").
		Omit("id", "created_at").
		Updates(sub)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repository) FindActiveForHostel(ctx context.Context, hostelID uuid.UUID, excludeID uuid.UUID) (*models.Subscription, error) {
	query := r.db.WithContext(ctx).
		Where("hostel_id = ? AND status = ? AND is_deleted = ?", hostelID, enums.SubscriptionStatusActive, false)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	var sub models.Subscription
	if err := query.First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// FindCoveringDate returns the subscription whose span contains date,
// preferring an active one and then the most recent start.
func (r *repository) FindCoveringDate(ctx context.Context, hostelID uuid.UUID, date time.Time) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).
		Where("hostel_id = ? AND is_deleted = ?", hostelID, false).
		Where("start_date <= ? AND end_date >= ?", date, date).
		Order("CASE WHEN status = 'active' THEN 0 ELSE 1 END").
		Order("start_date DESC").
		First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repository) ListActivePastEnd(ctx context.Context, today time.Time, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := r.db.WithContext(ctx).
		Where("status = ? AND is_deleted = ? AND end_date < ?", enums.SubscriptionStatusActive, false, today).
		Order("end_date ASC").
		Limit(normalizeLimit(limit)).
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repository) ListElapsedTrials(ctx context.Context, today time.Time, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := r.db.WithContext(ctx).
		Where("is_trial = ? AND is_deleted = ? AND trial_end_date < ?", true, false, today).
		Order("trial_end_date ASC").
		Limit(normalizeLimit(limit)).
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repository) ListTrialsEndingOn(ctx context.Context, date time.Time, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := r.db.WithContext(ctx).
		Where("status = ? AND is_trial = ? AND is_deleted = ? AND trial_end_date = ?", enums.SubscriptionStatusActive, true, false, date).
		Order("hostel_id ASC").
		Limit(normalizeLimit(limit)).
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repository) CreateHistory(ctx context.Context, entry *models.SubscriptionHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListHistory(ctx context.Context, subscriptionID uuid.UUID) ([]models.SubscriptionHistory, error) {
	var entries []models.SubscriptionHistory
	if err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("changed_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) CreateCancellation(ctx context.Context, record *models.Cancellation) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) FindCancellation(ctx context.Context, subscriptionID uuid.UUID) (*models.Cancellation, error) {
	var record models.Cancellation
	if err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 200
	}
	return limit
}
