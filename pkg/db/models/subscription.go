package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
)

// ActiveHostelIndex enforces at most one active, non-deleted subscription per hostel.
const ActiveHostelIndex = "idx_subscriptions_active_hostel"

// Subscription is a hostel's time-bounded, billable relationship to a plan.
type Subscription struct {
	ID                   uuid.UUID                `gorm:"type:uuid;primaryKey"`
	HostelID             uuid.UUID                `gorm:"column:hostel_id;type:uuid;not null;index;uniqueIndex:idx_subscriptions_active_hostel,where:status = 'active' AND is_deleted = false"`
	PlanID               uuid.UUID                `gorm:"column:plan_id;type:uuid;not null;index"`
	PlanType             string                   `gorm:"column:plan_type;not null"`
	BillingCadence       enums.BillingCadence     `gorm:"column:billing_cadence;type:text;not null"`
	Amount               decimal.Decimal          `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency             string                   `gorm:"column:currency;type:varchar(3);not null"`
	StartDate            time.Time                `gorm:"column:start_date;type:date;not null"`
	EndDate              time.Time                `gorm:"column:end_date;type:date;not null"`
	AutoRenew            bool                     `gorm:"column:auto_renew;not null;default:false"`
	IsTrial              bool                     `gorm:"column:is_trial;not null;default:false"`
	TrialEndDate         *time.Time               `gorm:"column:trial_end_date;type:date"`
	Status               enums.SubscriptionStatus `gorm:"column:status;type:text;not null;index"`
	NextBillingDate      *time.Time               `gorm:"column:next_billing_date;type:date"`
	RenewalCount         int                      `gorm:"column:renewal_count;not null;default:0"`
	CancelledAt          *time.Time               `gorm:"column:cancelled_at"`
	CancelledBy          *uuid.UUID               `gorm:"column:cancelled_by;type:uuid"`
	CancellationReason   *string                  `gorm:"column:cancellation_reason"`
	LastPaymentDate      *time.Time               `gorm:"column:last_payment_date;type:date"`
	LastPaymentAmount    *decimal.Decimal         `gorm:"column:last_payment_amount;type:numeric(12,2)"`
	LastPaymentReference *string                  `gorm:"column:last_payment_reference"`
	CreatedBy            *uuid.UUID               `gorm:"column:created_by;type:uuid"`
	UpdatedBy            *uuid.UUID               `gorm:"column:updated_by;type:uuid"`
	IsDeleted            bool                     `gorm:"column:is_deleted;not null;default:false"`
	DeletedAt            *time.Time               `gorm:"column:deleted_at"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Subscription) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// InTrial reports whether the trial window still covers today.
func (s Subscription) InTrial(today time.Time) bool {
	if !s.IsTrial || s.TrialEndDate == nil || s.Status != enums.SubscriptionStatusActive {
		return false
	}
	return !today.After(*s.TrialEndDate)
}

// Covers reports whether date falls inside the subscription span.
func (s Subscription) Covers(date time.Time) bool {
	return !date.Before(s.StartDate) && !date.After(s.EndDate)
}
