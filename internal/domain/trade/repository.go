package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SalesOrderRepository loads and updates sales orders. Loaded orders carry
// their lines and pickings with move lines.
type SalesOrderRepository interface {
	// FindConfirmedSince returns confirmed orders dated at or after since
	FindConfirmedSince(ctx context.Context, since time.Time) ([]SalesOrder, error)
	// FindByName returns the order with exactly this name, or shared.ErrNotFound
	FindByName(ctx context.Context, name string) (*SalesOrder, error)
	UpdateShipmentStatus(ctx context.Context, orderID uuid.UUID, status ShipmentStatus) error
	Save(ctx context.Context, order *SalesOrder) error
}

// PickingRepository persists picking state changes
type PickingRepository interface {
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]Picking, error)
	Save(ctx context.Context, picking *Picking) error
}
