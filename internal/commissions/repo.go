package commissions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/pagination"
)

// settledStatuses can never be overdue.
var settledStatuses = []enums.CommissionStatus{
	enums.CommissionStatusPaid,
	enums.CommissionStatusCancelled,
	enums.CommissionStatusRefunded,
}

// StatusTotal aggregates the commissions of one status.
type StatusTotal struct {
	Status enums.CommissionStatus `json:"status"`
	Count  int64                  `json:"count"`
	Amount decimal.Decimal        `json:"amount"`
}

// Repository handles commission persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, commission *models.Commission) error
	SaveIfStatus(ctx context.Context, commission *models.Commission, expected enums.CommissionStatus) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Commission, error)
	FindByBooking(ctx context.Context, bookingID uuid.UUID) (*models.Commission, error)
	ListPendingForHostel(ctx context.Context, hostelID uuid.UUID, limit int) ([]models.Commission, error)
	ListOverdue(ctx context.Context, today time.Time, limit int) ([]models.Commission, error)
	TotalsByStatus(ctx context.Context, hostelID uuid.UUID) ([]StatusTotal, error)
	OverdueTotal(ctx context.Context, hostelID uuid.UUID, today time.Time) (StatusTotal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a commission repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, commission *models.Commission) error {
	return r.db.WithContext(ctx).Create(commission).Error
}

func (r *repository) SaveIfStatus(ctx context.Context, commission *models.Commission, expected enums.CommissionStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Where("id = ? AND status = ?", commission.ID, expected).
		Select("*").
		Omit("id", "created_at").
		Updates(commission)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Commission, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *repository) FindByBooking(ctx context.Context, bookingID uuid.UUID) (*models.Commission, error) {
	return r.findOne(ctx, "booking_id = ?", bookingID)
}

func (r *repository) findOne(ctx context.Context, query string, args ...any) (*models.Commission, error) {
	var commission models.Commission
	if err := r.db.WithContext(ctx).Where(query, args...).First(&commission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &commission, nil
}

func (r *repository) ListPendingForHostel(ctx context.Context, hostelID uuid.UUID, limit int) ([]models.Commission, error) {
	var commissions []models.Commission
	if err := r.db.WithContext(ctx).
		Where("hostel_id = ? AND status = ?", hostelID, enums.CommissionStatusPending).
		Order("due_date ASC, created_at ASC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&commissions).Error; err != nil {
		return nil, err
	}
	return commissions, nil
}

func (r *repository) ListOverdue(ctx context.Context, today time.Time, limit int) ([]models.Commission, error) {
	var commissions []models.Commission
	if err := r.db.WithContext(ctx).
		Where("due_date < ? AND status NOT IN ?", today, settledStatuses).
		Order("due_date ASC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&commissions).Error; err != nil {
		return nil, err
	}
	return commissions, nil
}

func (r *repository) TotalsByStatus(ctx context.Context, hostelID uuid.UUID) ([]StatusTotal, error) {
	var totals []StatusTotal
	if err := r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(commission_amount), 0) AS amount").
		Where("hostel_id = ?", hostelID).
		Group("status").
		Scan(&totals).Error; err != nil {
		return nil, err
	}
	return totals, nil
}

func (r *repository) OverdueTotal(ctx context.Context, hostelID uuid.UUID, today time.Time) (StatusTotal, error) {
	var total StatusTotal
	err := r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Select("COUNT(*) AS count, COALESCE(SUM(commission_amount), 0) AS amount").
		Where("hostel_id = ? AND due_date < ? AND status NOT IN ?", hostelID, today, settledStatuses).
		Scan(&total).Error
	return total, err
}
