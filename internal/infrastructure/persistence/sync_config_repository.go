package persistence

import (
	"context"
	"errors"

	"github.com/erp/edisync/internal/domain/edi"
	"github.com/erp/edisync/internal/domain/shared"
	"github.com/erp/edisync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSyncConfigRepository implements edi.SyncConfigRepository using GORM
type GormSyncConfigRepository struct {
	db *gorm.DB
}

// NewGormSyncConfigRepository creates a new GormSyncConfigRepository
func NewGormSyncConfigRepository(db *gorm.DB) *GormSyncConfigRepository {
	return &GormSyncConfigRepository{db: db}
}

// FindByID finds a sync config by its ID
func (r *GormSyncConfigRepository) FindByID(ctx context.Context, id uuid.UUID) (*edi.SyncConfig, error) {
	var model models.SyncConfigModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActive returns active configs ordered by sequence
func (r *GormSyncConfigRepository) FindActive(ctx context.Context) ([]edi.SyncConfig, error) {
	var rows []models.SyncConfigModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("sequence ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	configs := make([]edi.SyncConfig, len(rows))
	for i := range rows {
		configs[i] = *rows[i].ToDomain()
	}
	return configs, nil
}

// Save creates or updates a sync config
func (r *GormSyncConfigRepository) Save(ctx context.Context, cfg *edi.SyncConfig) error {
	return r.db.WithContext(ctx).Save(models.SyncConfigModelFromDomain(cfg)).Error
}

// GormDocumentTypeRepository implements edi.DocumentTypeRepository using GORM
type GormDocumentTypeRepository struct {
	db *gorm.DB
}

// NewGormDocumentTypeRepository creates a new GormDocumentTypeRepository
func NewGormDocumentTypeRepository(db *gorm.DB) *GormDocumentTypeRepository {
	return &GormDocumentTypeRepository{db: db}
}

// FindByCode finds a document type by its code
func (r *GormDocumentTypeRepository) FindByCode(ctx context.Context, code edi.DocumentCode) (*edi.DocumentType, error) {
	var model models.DocumentTypeModel
	if err := r.db.WithContext(ctx).First(&model, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a document type
func (r *GormDocumentTypeRepository) Save(ctx context.Context, docType *edi.DocumentType) error {
	var model models.DocumentTypeModel
	model.FromDomain(docType)
	return r.db.WithContext(ctx).Save(&model).Error
}

// Ensure interfaces are implemented
var (
	_ edi.SyncConfigRepository   = (*GormSyncConfigRepository)(nil)
	_ edi.DocumentTypeRepository = (*GormDocumentTypeRepository)(nil)
)
