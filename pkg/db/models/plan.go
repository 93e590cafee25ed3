package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
)

// PlanFeature is a named capability of a plan. A nil Limit means unlimited.
type PlanFeature struct {
	Enabled bool   `json:"enabled"`
	Limit   *int64 `json:"limit,omitempty"`
}

// PlanFeatures maps feature keys to their plan settings.
type PlanFeatures map[string]PlanFeature

// Plan is one version of a priced tier. A version referenced by an active
// subscription is never edited in place.
type Plan struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey"`
	PlanType          string           `gorm:"column:plan_type;not null;index"`
	Name              string           `gorm:"column:name;not null"`
	Description       *string          `gorm:"column:description"`
	Version           int              `gorm:"column:version;not null"`
	PreviousVersionID *uuid.UUID       `gorm:"column:previous_version_id;type:uuid"`
	Status            enums.PlanStatus `gorm:"column:status;type:text;not null;index"`
	IsPublic          bool             `gorm:"column:is_public;not null;default:false"`
	PriceMonthly      decimal.Decimal  `gorm:"column:price_monthly;type:numeric(12,2);not null"`
	PriceYearly       decimal.Decimal  `gorm:"column:price_yearly;type:numeric(12,2);not null"`
	Currency          string           `gorm:"column:currency;type:varchar(3);not null"`
	TrialDays         int              `gorm:"column:trial_days;not null;default:0"`
	MaxHostels        *int64           `gorm:"column:max_hostels"`
	MaxRooms          *int64           `gorm:"column:max_rooms"`
	MaxStudents       *int64           `gorm:"column:max_students"`
	MaxAdmins         *int64           `gorm:"column:max_admins"`
	Features          PlanFeatures     `gorm:"column:features;type:jsonb;serializer:json"`
	CreatedBy         *uuid.UUID       `gorm:"column:created_by;type:uuid"`
	UpdatedBy         *uuid.UUID       `gorm:"column:updated_by;type:uuid"`
	IsDeleted         bool             `gorm:"column:is_deleted;not null;default:false"`
	DeletedAt         *time.Time       `gorm:"column:deleted_at"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Plan) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// PriceFor returns the price charged per cycle for the cadence.
func (p Plan) PriceFor(cadence enums.BillingCadence) decimal.Decimal {
	if cadence == enums.BillingCadenceYearly {
		return p.PriceYearly
	}
	return p.PriceMonthly
}

// ResourceLimits returns the coarse resource caps keyed by limit type.
func (p Plan) ResourceLimits() map[enums.LimitType]*int64 {
	return map[enums.LimitType]*int64{
		enums.LimitTypeHostels:  p.MaxHostels,
		enums.LimitTypeRooms:    p.MaxRooms,
		enums.LimitTypeStudents: p.MaxStudents,
		enums.LimitTypeAdmins:   p.MaxAdmins,
	}
}

// Subscribable reports whether new subscriptions may reference this plan.
func (p Plan) Subscribable() bool {
	return p.Status == enums.PlanStatusActive && !p.IsDeleted
}
