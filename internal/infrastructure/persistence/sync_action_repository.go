package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/edisync/internal/domain/edi"
	"github.com/erp/edisync/internal/domain/shared"
	"github.com/erp/edisync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSyncActionRepository implements edi.SyncActionRepository using GORM
type GormSyncActionRepository struct {
	db *gorm.DB
}

// NewGormSyncActionRepository creates a new GormSyncActionRepository
func NewGormSyncActionRepository(db *gorm.DB) *GormSyncActionRepository {
	return &GormSyncActionRepository{db: db}
}

// withAssociations preloads config and document type and applies the run order
func (r *GormSyncActionRepository) withAssociations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Config").
		Preload("DocumentType").
		Order("edi_sync_actions.sequence ASC, edi_sync_actions.id ASC")
}

// FindByID finds a sync action by its ID
func (r *GormSyncActionRepository) FindByID(ctx context.Context, id uuid.UUID) (*edi.SyncAction, error) {
	var model models.SyncActionModel
	if err := r.withAssociations(ctx).First(&model, "edi_sync_actions.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindDue returns the actions due at now: active, of an active document type,
// owned by an active config and with a watermark that is unset or before now
func (r *GormSyncActionRepository) FindDue(ctx context.Context, now time.Time) ([]edi.SyncAction, error) {
	var rows []models.SyncActionModel
	if err := r.withAssociations(ctx).
		Joins("JOIN edi_configs ON edi_configs.id = edi_sync_actions.config_id").
		Joins("JOIN edi_document_types ON edi_document_types.id = edi_sync_actions.document_type_id").
		Where("edi_sync_actions.active = ? AND edi_configs.active = ? AND edi_document_types.active = ?", true, true, true).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	actions := make([]edi.SyncAction, 0, len(rows))
	for i := range rows {
		action := rows[i].ToDomain()
		if action.IsDue(now) {
			actions = append(actions, *action)
		}
	}
	return actions, nil
}

// FindByIDs returns the given actions regardless of their watermark
func (r *GormSyncActionRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]edi.SyncAction, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.SyncActionModel
	if err := r.withAssociations(ctx).
		Where("edi_sync_actions.id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toSyncActions(rows), nil
}

// FindByConfig returns every action of a config
func (r *GormSyncActionRepository) FindByConfig(ctx context.Context, configID uuid.UUID) ([]edi.SyncAction, error) {
	var rows []models.SyncActionModel
	if err := r.withAssociations(ctx).
		Where("edi_sync_actions.config_id = ?", configID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toSyncActions(rows), nil
}

// UpdateLastSyncDate moves the watermark forward to at. A stored watermark
// already past at is kept as is.
func (r *GormSyncActionRepository) UpdateLastSyncDate(ctx context.Context, id uuid.UUID, at time.Time) error {
	var model models.SyncActionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.ErrNotFound
		}
		return err
	}

	action := &edi.SyncAction{BaseEntity: model.BaseModel.ToDomain(), LastSyncDate: model.LastSyncDate}
	if err := action.MarkSynced(at); err != nil {
		if errors.Is(err, edi.ErrWatermarkRegression) {
			return nil
		}
		return err
	}

	return r.db.WithContext(ctx).
		Model(&models.SyncActionModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_sync_date": action.LastSyncDate,
			"updated_at":     action.UpdatedAt,
		}).Error
}

// Save creates or updates a sync action. Config and document type are stored by reference.
func (r *GormSyncActionRepository) Save(ctx context.Context, action *edi.SyncAction) error {
	var model models.SyncActionModel
	model.FromDomain(action)
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(&model).Error
}

func toSyncActions(rows []models.SyncActionModel) []edi.SyncAction {
	actions := make([]edi.SyncAction, len(rows))
	for i := range rows {
		actions[i] = *rows[i].ToDomain()
	}
	return actions
}

// Ensure GormSyncActionRepository implements edi.SyncActionRepository
var _ edi.SyncActionRepository = (*GormSyncActionRepository)(nil)
