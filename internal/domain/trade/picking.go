package trade

import (
	"fmt"
	"time"

	"github.com/erp/edisync/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PickingState is the state of a fulfillment sub-unit
type PickingState string

const (
	PickingStateDraft     PickingState = "draft"
	PickingStateWaiting   PickingState = "waiting"
	PickingStateConfirmed PickingState = "confirmed"
	PickingStateAssigned  PickingState = "assigned"
	PickingStateDone      PickingState = "done"
	PickingStateCancelled PickingState = "cancel"
)

// String returns the string representation
func (s PickingState) String() string {
	return string(s)
}

// MoveLine is one product movement of a picking. Quantity is the expected
// quantity, QtyDone the quantity actually handled.
type MoveLine struct {
	ID          uuid.UUID
	PickingID   uuid.UUID
	ProductCode string
	Quantity    decimal.Decimal
	QtyDone     decimal.Decimal
}

// Picking is a fulfillment sub-unit of a sales order
type Picking struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Name      string
	State     PickingState
	MoveLines []MoveLine
	DoneAt    *time.Time
}

// NewPicking creates a picking ready to be processed
func NewPicking(orderID uuid.UUID, name string) *Picking {
	return &Picking{
		ID:      uuid.New(),
		OrderID: orderID,
		Name:    name,
		State:   PickingStateAssigned,
	}
}

// AddMoveLine appends a move line expecting quantity of productCode
func (p *Picking) AddMoveLine(productCode string, quantity decimal.Decimal) {
	p.MoveLines = append(p.MoveLines, MoveLine{
		ID:          uuid.New(),
		PickingID:   p.ID,
		ProductCode: productCode,
		Quantity:    quantity,
		QtyDone:     decimal.Zero,
	})
}

// IsReady reports whether the picking can be validated
func (p *Picking) IsReady() bool {
	return p.State == PickingStateAssigned
}

// FillDoneQuantities sets every move line's done quantity to its expected quantity
func (p *Picking) FillDoneQuantities() {
	for i := range p.MoveLines {
		p.MoveLines[i].QtyDone = p.MoveLines[i].Quantity
	}
}

// Validate confirms the picking as done. Every move line must be fully handled.
func (p *Picking) Validate(now time.Time) error {
	if !p.IsReady() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("picking %s is in state %s", p.Name, p.State))
	}
	if len(p.MoveLines) == 0 {
		return shared.NewDomainError("EMPTY_PICKING", fmt.Sprintf("picking %s has no move lines", p.Name))
	}
	for _, ml := range p.MoveLines {
		if !ml.QtyDone.Equal(ml.Quantity) {
			return shared.NewDomainError("QUANTITY_MISMATCH",
				fmt.Sprintf("picking %s: %s done %s of %s", p.Name, ml.ProductCode, ml.QtyDone, ml.Quantity))
		}
	}
	p.State = PickingStateDone
	p.DoneAt = &now
	return nil
}
