package plans

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
)

// Repository handles plan persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, plan *models.Plan) error
	Save(ctx context.Context, plan *models.Plan) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	List(ctx context.Context, query ListQuery) ([]models.Plan, error)
	CountActiveSubscriptions(ctx context.Context, planID uuid.UUID) (int64, error)
}

// ListQuery filters plan listings. Nil fields are ignored.
type ListQuery struct {
	Status   *enums.PlanStatus
	PlanType *string
	IsPublic *bool
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a plan repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, plan *models.Plan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *repository) Save(ctx context.Context, plan *models.Plan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repository) List(ctx context.Context, query ListQuery) ([]models.Plan, error) {
	q := r.db.WithContext(ctx).Model(&models.Plan{}).Where("is_deleted = ?", false)
	if query.Status != nil {
		q = q.Where("status = ?", *query.Status)
	}
	if query.PlanType != nil {
		q = q.Where("plan_type = ?", *query.PlanType)
	}
	if query.IsPublic != nil {
		q = q.Where("is_public = ?", *query.IsPublic)
	}
	var plans []models.Plan
	if err := q.Order("plan_type ASC, version DESC").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repository) CountActiveSubscriptions(ctx context.Context, planID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("plan_id = ? AND status = ? AND is_deleted = ?", planID, enums.SubscriptionStatusActive, false).
		Count(&count).Error
	return count, err
}
