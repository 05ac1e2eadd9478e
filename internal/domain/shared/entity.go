package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the identity and timestamps every stored EDI record has.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity stamps a fresh entity. IDs are UUIDv7 so that they sort in
// creation order, which keeps ties on action sequence stable.
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        newID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newID() uuid.UUID {
	if id, err := uuid.NewV7(); err == nil {
		return id
	}
	return uuid.New()
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID { return e.ID }

// Touch bumps the update timestamp
func (e *BaseEntity) Touch(now time.Time) { e.UpdatedAt = now }
