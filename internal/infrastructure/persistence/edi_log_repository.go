package persistence

import (
	"context"

	"github.com/erp/edisync/internal/domain/edi"
	"github.com/erp/edisync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLogRepository implements edi.LogRepository using GORM.
// Entries are append-only.
type GormLogRepository struct {
	db *gorm.DB
}

// NewGormLogRepository creates a new GormLogRepository
func NewGormLogRepository(db *gorm.DB) *GormLogRepository {
	return &GormLogRepository{db: db}
}

// Append inserts a log entry. Inside a transaction the insert runs under a
// savepoint, so a failed insert does not abort the enclosing transaction.
func (r *GormLogRepository) Append(ctx context.Context, entry *edi.LogEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(models.LogEntryModelFromDomain(entry)).Error
	})
}

// FindByAction returns the newest entries of an action first
func (r *GormLogRepository) FindByAction(ctx context.Context, actionID uuid.UUID, limit int) ([]edi.LogEntry, error) {
	query := r.db.WithContext(ctx).
		Where("action_id = ?", actionID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.LogEntryModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]edi.LogEntry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, nil
}

// Ensure GormLogRepository implements edi.LogRepository
var _ edi.LogRepository = (*GormLogRepository)(nil)
