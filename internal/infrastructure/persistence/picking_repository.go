package persistence

import (
	"context"

	"github.com/erp/edisync/internal/domain/trade"
	"github.com/erp/edisync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPickingRepository implements PickingRepository using GORM
type GormPickingRepository struct {
	db *gorm.DB
}

// NewGormPickingRepository creates a new GormPickingRepository
func NewGormPickingRepository(db *gorm.DB) *GormPickingRepository {
	return &GormPickingRepository{db: db}
}

// FindByOrder returns the pickings of an order with their move lines
func (r *GormPickingRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]trade.Picking, error) {
	var rows []models.PickingModel
	if err := r.db.WithContext(ctx).
		Preload("MoveLines").
		Where("order_id = ?", orderID).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	pickings := make([]trade.Picking, len(rows))
	for i := range rows {
		pickings[i] = *rows[i].ToDomain()
	}
	return pickings, nil
}

// Save writes the picking header and every move line
func (r *GormPickingRepository) Save(ctx context.Context, picking *trade.Picking) error {
	var model models.PickingModel
	model.FromDomain(picking)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(&model).Error; err != nil {
			return err
		}
		for i := range model.MoveLines {
			if err := tx.Save(&model.MoveLines[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Ensure GormPickingRepository implements trade.PickingRepository
var _ trade.PickingRepository = (*GormPickingRepository)(nil)
