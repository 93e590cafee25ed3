package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
)

// SubscriptionHistory is an append-only audit row written by every lifecycle transition.
type SubscriptionHistory struct {
	ID             uuid.UUID               `gorm:"type:uuid;primaryKey"`
	SubscriptionID uuid.UUID               `gorm:"column:subscription_id;type:uuid;not null;index"`
	HostelID       uuid.UUID               `gorm:"column:hostel_id;type:uuid;not null;index"`
	ChangeType     enums.HistoryChangeType `gorm:"column:change_type;type:text;not null"`
	OldValue       *string                 `gorm:"column:old_value"`
	NewValue       *string                 `gorm:"column:new_value"`
	Reason         *string                 `gorm:"column:reason"`
	ChangedBy      *uuid.UUID              `gorm:"column:changed_by;type:uuid"`
	Metadata       map[string]any          `gorm:"column:metadata;type:jsonb;serializer:json"`
	ChangedAt      time.Time               `gorm:"column:changed_at;not null"`
}

func (SubscriptionHistory) TableName() string {
	return "subscription_history"
}

func (h *SubscriptionHistory) BeforeCreate(*gorm.DB) error {
	ensureID(&h.ID)
	return nil
}
