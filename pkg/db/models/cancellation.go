package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cancellation is created exactly once when a subscription is cancelled.
type Cancellation struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primaryKey"`
	SubscriptionID       uuid.UUID        `gorm:"column:subscription_id;type:uuid;not null;uniqueIndex"`
	HostelID             uuid.UUID        `gorm:"column:hostel_id;type:uuid;not null;index"`
	CancelledAt          time.Time        `gorm:"column:cancelled_at;not null"`
	CancelledBy          *uuid.UUID       `gorm:"column:cancelled_by;type:uuid"`
	Reason               *string          `gorm:"column:reason"`
	CancelImmediately    bool             `gorm:"column:cancel_immediately;not null;default:false"`
	EffectiveDate        time.Time        `gorm:"column:effective_date;type:date;not null"`
	RefundAmount         *decimal.Decimal `gorm:"column:refund_amount;type:numeric(12,2)"`
	RefundReference      *string          `gorm:"column:refund_reference"`
	RefundProcessed      bool             `gorm:"column:refund_processed;not null;default:false"`
	CanReactivate        bool             `gorm:"column:can_reactivate;not null;default:false"`
	ReactivationDeadline *time.Time       `gorm:"column:reactivation_deadline;type:date"`
	CreatedAt            time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (Cancellation) TableName() string {
	return "subscription_cancellations"
}

func (c *Cancellation) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
