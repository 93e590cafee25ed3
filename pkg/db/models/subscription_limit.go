package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
)

// SubscriptionLimit bounds a coarse resource count. A nil LimitValue means unlimited.
type SubscriptionLimit struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SubscriptionID   uuid.UUID       `gorm:"column:subscription_id;type:uuid;not null;uniqueIndex:idx_subscription_limits_subscription_type,priority:1"`
	LimitType        enums.LimitType `gorm:"column:limit_type;type:text;not null;uniqueIndex:idx_subscription_limits_subscription_type,priority:2"`
	LimitValue       *int64          `gorm:"column:limit_value"`
	CurrentValue     int64           `gorm:"column:current_value;not null;default:0"`
	IsEnforced       bool            `gorm:"column:is_enforced;not null"`
	IsExceeded       bool            `gorm:"column:is_exceeded;not null;default:false"`
	WarningThreshold *int64          `gorm:"column:warning_threshold"`
	WarningSent      bool            `gorm:"column:warning_sent;not null;default:false"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *SubscriptionLimit) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// CanAdd reports whether amount more resources fit. Unenforced limits always allow.
func (l SubscriptionLimit) CanAdd(amount int64) bool {
	if !l.IsEnforced || l.LimitValue == nil {
		return true
	}
	return l.CurrentValue+amount <= *l.LimitValue
}

// WarningDue reports whether the one-shot warning should fire now.
func (l SubscriptionLimit) WarningDue() bool {
	return !l.WarningSent && l.WarningThreshold != nil && l.CurrentValue >= *l.WarningThreshold
}
