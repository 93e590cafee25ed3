package models

import (
	"time"

	"github.com/google/uuid"
)

// ActorRef converts an actor id into the nullable audit column value.
func ActorRef(actor uuid.UUID) *uuid.UUID {
	if actor == uuid.Nil {
		return nil
	}
	id := actor
	return &id
}

// SoftDeleteUpdates returns the column updates that soft-delete a row.
func SoftDeleteUpdates(actor uuid.UUID, now time.Time) map[string]any {
	deletedAt := now.UTC()
	return map[string]any{
		"is_deleted": true,
		"deleted_at": &deletedAt,
		"updated_by": ActorRef(actor),
	}
}

// UpdatedByUpdates stamps the last updater on an update map.
func UpdatedByUpdates(updates map[string]any, actor uuid.UUID) map[string]any {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["updated_by"] = ActorRef(actor)
	return updates
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
