package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
)

// Commission is the platform's cut of one booking.
type Commission struct {
	ID                   uuid.UUID              `gorm:"type:uuid;primaryKey"`
	BookingID            uuid.UUID              `gorm:"column:booking_id;type:uuid;not null;uniqueIndex"`
	HostelID             uuid.UUID              `gorm:"column:hostel_id;type:uuid;not null;index"`
	SubscriptionID       uuid.UUID              `gorm:"column:subscription_id;type:uuid;not null;index"`
	BookingAmount        decimal.Decimal        `gorm:"column:booking_amount;type:numeric(12,2);not null"`
	CommissionPercentage decimal.Decimal        `gorm:"column:commission_percentage;type:numeric(5,2);not null"`
	CommissionAmount     decimal.Decimal        `gorm:"column:commission_amount;type:numeric(12,2);not null"`
	Currency             string                 `gorm:"column:currency;type:varchar(3);not null"`
	Status               enums.CommissionStatus `gorm:"column:status;type:text;not null;index"`
	DueDate              time.Time              `gorm:"column:due_date;type:date;not null;index"`
	PaidDate             *time.Time             `gorm:"column:paid_date;type:date"`
	PaymentReference     *string                `gorm:"column:payment_reference"`
	Notes                *string                `gorm:"column:notes"`
	RefundedAt           *time.Time             `gorm:"column:refunded_at"`
	CreatedBy            *uuid.UUID             `gorm:"column:created_by;type:uuid"`
	UpdatedBy            *uuid.UUID             `gorm:"column:updated_by;type:uuid"`
	CreatedAt            time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Commission) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// IsOverdue is derived, never stored.
func (c Commission) IsOverdue(today time.Time) bool {
	return c.DueDate.Before(today) && c.Status.CountsTowardsOverdue()
}
