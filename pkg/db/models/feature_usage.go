package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FeatureUsage meters one plan feature for a subscription. A nil UsageLimit means unlimited.
type FeatureUsage struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	SubscriptionID  uuid.UUID  `gorm:"column:subscription_id;type:uuid;not null;uniqueIndex:idx_feature_usage_subscription_feature,priority:1"`
	FeatureKey      string     `gorm:"column:feature_key;not null;uniqueIndex:idx_feature_usage_subscription_feature,priority:2"`
	CurrentUsage    int64      `gorm:"column:current_usage;not null;default:0"`
	UsageLimit      *int64     `gorm:"column:usage_limit"`
	IsEnabled       bool       `gorm:"column:is_enabled;not null"`
	IsLimitExceeded bool       `gorm:"column:is_limit_exceeded;not null;default:false"`
	LastUsedAt      *time.Time `gorm:"column:last_used_at"`
	PeriodStart     *time.Time `gorm:"column:period_start;type:date"`
	PeriodEnd       *time.Time `gorm:"column:period_end;type:date"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (FeatureUsage) TableName() string {
	return "feature_usage"
}

func (f *FeatureUsage) BeforeCreate(*gorm.DB) error {
	ensureID(&f.ID)
	return nil
}

// CanUse reports whether amount more units fit under the limit.
func (f FeatureUsage) CanUse(amount int64) bool {
	if !f.IsEnabled {
		return false
	}
	if f.UsageLimit == nil {
		return true
	}
	return f.CurrentUsage+amount <= *f.UsageLimit
}

// Remaining returns the units left, or nil when unlimited.
func (f FeatureUsage) Remaining() *int64 {
	if f.UsageLimit == nil {
		return nil
	}
	left := *f.UsageLimit - f.CurrentUsage
	if left < 0 {
		left = 0
	}
	return &left
}
