package edi

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SyncConfigRepository persists partner configs
type SyncConfigRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SyncConfig, error)
	FindActive(ctx context.Context) ([]SyncConfig, error)
	Save(ctx context.Context, cfg *SyncConfig) error
}

// DocumentTypeRepository persists document types
type DocumentTypeRepository interface {
	FindByCode(ctx context.Context, code DocumentCode) (*DocumentType, error)
	Save(ctx context.Context, docType *DocumentType) error
}

// SyncActionRepository persists sync actions. Loaded actions carry their
// Config and DocumentType.
type SyncActionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SyncAction, error)
	// FindDue returns active actions of active configs whose watermark is unset
	// or earlier than now, ordered by sequence.
	FindDue(ctx context.Context, now time.Time) ([]SyncAction, error)
	// FindByIDs returns the given actions regardless of watermark, ordered by sequence.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]SyncAction, error)
	FindByConfig(ctx context.Context, configID uuid.UUID) ([]SyncAction, error)
	// UpdateLastSyncDate sets the watermark only if it moves forward.
	UpdateLastSyncDate(ctx context.Context, id uuid.UUID, at time.Time) error
	Save(ctx context.Context, action *SyncAction) error
}

// LogRepository is the append-only audit log store
type LogRepository interface {
	Append(ctx context.Context, entry *LogEntry) error
	FindByAction(ctx context.Context, actionID uuid.UUID, limit int) ([]LogEntry, error)
}
