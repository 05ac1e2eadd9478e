package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/edisync/internal/domain/shared"
	"github.com/erp/edisync/internal/domain/trade"
	"github.com/erp/edisync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSalesOrderRepository implements SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	db *gorm.DB
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

func (r *GormSalesOrderRepository) withLines(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC, id ASC")
		}).
		Preload("Pickings", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC")
		}).
		Preload("Pickings.MoveLines")
}

// FindConfirmedSince returns confirmed orders placed at or after since
func (r *GormSalesOrderRepository) FindConfirmedSince(ctx context.Context, since time.Time) ([]trade.SalesOrder, error) {
	var rows []models.SalesOrderModel
	if err := r.withLines(ctx).
		Where("status = ? AND date_order >= ?", trade.OrderStatusConfirmed, since).
		Order("date_order ASC, name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	orders := make([]trade.SalesOrder, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, nil
}

// FindByName finds an order by its exact name
func (r *GormSalesOrderRepository) FindByName(ctx context.Context, name string) (*trade.SalesOrder, error) {
	var model models.SalesOrderModel
	if err := r.withLines(ctx).First(&model, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// UpdateShipmentStatus writes the remote status fields of one order
func (r *GormSalesOrderRepository) UpdateShipmentStatus(ctx context.Context, orderID uuid.UUID, status trade.ShipmentStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.SalesOrderModel{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"remote_status":    status.RemoteStatus,
			"remote_reference": status.RemoteReference,
			"track_and_trace":  status.TrackAndTrace,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Save creates or updates an order with its lines. Lines no longer on the
// order are deleted. Pickings are saved through PickingRepository.
func (r *GormSalesOrderRepository) Save(ctx context.Context, order *trade.SalesOrder) error {
	var model models.SalesOrderModel
	model.FromDomain(order)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(&model).Error; err != nil {
			return err
		}

		currentLineIDs := make([]uuid.UUID, len(model.Lines))
		for i, line := range model.Lines {
			currentLineIDs[i] = line.ID
		}

		stale := tx.Where("order_id = ?", model.ID)
		if len(currentLineIDs) > 0 {
			stale = stale.Where("id NOT IN ?", currentLineIDs)
		}
		if err := stale.Delete(&models.SalesOrderLineModel{}).Error; err != nil {
			return err
		}

		for i := range model.Lines {
			if err := tx.Save(&model.Lines[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Ensure GormSalesOrderRepository implements trade.SalesOrderRepository
var _ trade.SalesOrderRepository = (*GormSalesOrderRepository)(nil)
