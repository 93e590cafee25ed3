package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BillingCycle is one billable period of a subscription.
type BillingCycle struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SubscriptionID     uuid.UUID       `gorm:"column:subscription_id;type:uuid;not null;uniqueIndex:idx_billing_cycles_subscription_start,priority:1"`
	HostelID           uuid.UUID       `gorm:"column:hostel_id;type:uuid;not null;index"`
	CycleNumber        int             `gorm:"column:cycle_number;not null"`
	CycleStart         time.Time       `gorm:"column:cycle_start;type:date;not null;uniqueIndex:idx_billing_cycles_subscription_start,priority:2"`
	CycleEnd           time.Time       `gorm:"column:cycle_end;type:date;not null"`
	Amount             decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency           string          `gorm:"column:currency;type:varchar(3);not null"`
	NextBillingDate    time.Time       `gorm:"column:next_billing_date;type:date;not null;index"`
	DaysUntilBilling   int             `gorm:"column:days_until_billing;not null;default:0"`
	IsInTrial          bool            `gorm:"column:is_in_trial;not null;default:false"`
	TrialDaysRemaining int             `gorm:"column:trial_days_remaining;not null;default:0"`
	IsBilled           bool            `gorm:"column:is_billed;not null;default:false;index"`
	BilledAt           *time.Time      `gorm:"column:billed_at"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *BillingCycle) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// LengthDays returns the inclusive number of days in the cycle.
func (c BillingCycle) LengthDays() int {
	return int(c.CycleEnd.Sub(c.CycleStart).Hours()/24) + 1
}
