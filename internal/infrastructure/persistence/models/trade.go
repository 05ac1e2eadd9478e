package models

import (
	"time"

	"github.com/erp/edisync/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesOrderModel is the persistence model for the trade.SalesOrder aggregate.
// The shipping partner and shipment status are flattened into the row.
type SalesOrderModel struct {
	BaseModel
	Name      string            `gorm:"type:varchar(64);not null;uniqueIndex"`
	Status    trade.OrderStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	DateOrder time.Time         `gorm:"not null;index"`

	ShippingName        string `gorm:"type:varchar(200)"`
	ShippingParentName  string `gorm:"type:varchar(200)"`
	ShippingVAT         string `gorm:"type:varchar(64)"`
	ShippingStreet      string `gorm:"type:varchar(255)"`
	ShippingStreet2     string `gorm:"type:varchar(255)"`
	ShippingZip         string `gorm:"type:varchar(32)"`
	ShippingCity        string `gorm:"type:varchar(128)"`
	ShippingCountryCode string `gorm:"type:varchar(8)"`
	ShippingEmail       string `gorm:"type:varchar(255)"`

	RemoteStatus    string `gorm:"type:varchar(64)"`
	RemoteReference string `gorm:"type:varchar(128)"`
	TrackAndTrace   string `gorm:"type:text"`

	Lines    []SalesOrderLineModel `gorm:"foreignKey:OrderID"`
	Pickings []PickingModel        `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// ToDomain converts the persistence model to a domain SalesOrder.
// Lines and pickings are included when preloaded.
func (m *SalesOrderModel) ToDomain() *trade.SalesOrder {
	order := &trade.SalesOrder{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Status:     m.Status,
		DateOrder:  m.DateOrder,
		Shipping: trade.Partner{
			Name:        m.ShippingName,
			ParentName:  m.ShippingParentName,
			VAT:         m.ShippingVAT,
			Street:      m.ShippingStreet,
			Street2:     m.ShippingStreet2,
			Zip:         m.ShippingZip,
			City:        m.ShippingCity,
			CountryCode: m.ShippingCountryCode,
			Email:       m.ShippingEmail,
		},
		Shipment: trade.ShipmentStatus{
			RemoteStatus:    m.RemoteStatus,
			RemoteReference: m.RemoteReference,
			TrackAndTrace:   m.TrackAndTrace,
		},
		Lines:    make([]trade.SalesOrderLine, len(m.Lines)),
		Pickings: make([]trade.Picking, len(m.Pickings)),
	}
	for i := range m.Lines {
		order.Lines[i] = *m.Lines[i].ToDomain()
	}
	for i := range m.Pickings {
		order.Pickings[i] = *m.Pickings[i].ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain SalesOrder.
// Pickings are persisted through their own repository and are not copied.
func (m *SalesOrderModel) FromDomain(o *trade.SalesOrder) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.Name = o.Name
	m.Status = o.Status
	m.DateOrder = o.DateOrder
	m.ShippingName = o.Shipping.Name
	m.ShippingParentName = o.Shipping.ParentName
	m.ShippingVAT = o.Shipping.VAT
	m.ShippingStreet = o.Shipping.Street
	m.ShippingStreet2 = o.Shipping.Street2
	m.ShippingZip = o.Shipping.Zip
	m.ShippingCity = o.Shipping.City
	m.ShippingCountryCode = o.Shipping.CountryCode
	m.ShippingEmail = o.Shipping.Email
	m.RemoteStatus = o.Shipment.RemoteStatus
	m.RemoteReference = o.Shipment.RemoteReference
	m.TrackAndTrace = o.Shipment.TrackAndTrace
	m.Lines = make([]SalesOrderLineModel, len(o.Lines))
	for i := range o.Lines {
		m.Lines[i].FromDomain(&o.Lines[i])
		m.Lines[i].OrderID = o.ID
	}
}

// SalesOrderLineModel is the persistence model for trade.SalesOrderLine
type SalesOrderLineModel struct {
	ID                      uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID                 uuid.UUID       `gorm:"type:uuid;not null;index"`
	Sequence                int             `gorm:"not null;default:0"`
	ProductName             string          `gorm:"type:varchar(200);not null"`
	ProductDefaultCode      string          `gorm:"type:varchar(64)"`
	ProductBarcode          string          `gorm:"type:varchar(64)"`
	ProductPackagingBarcode string          `gorm:"type:varchar(64)"`
	ProductCategoryID       *uuid.UUID      `gorm:"type:uuid;index"`
	Quantity                decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (SalesOrderLineModel) TableName() string {
	return "sales_order_lines"
}

// ToDomain converts the persistence model to a domain SalesOrderLine
func (m *SalesOrderLineModel) ToDomain() *trade.SalesOrderLine {
	return &trade.SalesOrderLine{
		ID:       m.ID,
		OrderID:  m.OrderID,
		Sequence: m.Sequence,
		Product: trade.Product{
			Name:             m.ProductName,
			DefaultCode:      m.ProductDefaultCode,
			Barcode:          m.ProductBarcode,
			PackagingBarcode: m.ProductPackagingBarcode,
			CategoryID:       m.ProductCategoryID,
		},
		Quantity: m.Quantity,
	}
}

// FromDomain populates the persistence model from a domain SalesOrderLine
func (m *SalesOrderLineModel) FromDomain(l *trade.SalesOrderLine) {
	m.ID = l.ID
	m.OrderID = l.OrderID
	m.Sequence = l.Sequence
	m.ProductName = l.Product.Name
	m.ProductDefaultCode = l.Product.DefaultCode
	m.ProductBarcode = l.Product.Barcode
	m.ProductPackagingBarcode = l.Product.PackagingBarcode
	m.ProductCategoryID = l.Product.CategoryID
	m.Quantity = l.Quantity
}

// PickingModel is the persistence model for trade.Picking
type PickingModel struct {
	ID        uuid.UUID          `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID          `gorm:"type:uuid;not null;index"`
	Name      string             `gorm:"type:varchar(64);not null"`
	State     trade.PickingState `gorm:"type:varchar(20);not null;default:'draft'"`
	DoneAt    *time.Time
	MoveLines []MoveLineModel `gorm:"foreignKey:PickingID"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM
func (PickingModel) TableName() string {
	return "stock_pickings"
}

// ToDomain converts the persistence model to a domain Picking
func (m *PickingModel) ToDomain() *trade.Picking {
	p := &trade.Picking{
		ID:        m.ID,
		OrderID:   m.OrderID,
		Name:      m.Name,
		State:     m.State,
		DoneAt:    m.DoneAt,
		MoveLines: make([]trade.MoveLine, len(m.MoveLines)),
	}
	for i, ml := range m.MoveLines {
		p.MoveLines[i] = trade.MoveLine{
			ID:          ml.ID,
			PickingID:   ml.PickingID,
			ProductCode: ml.ProductCode,
			Quantity:    ml.Quantity,
			QtyDone:     ml.QtyDone,
		}
	}
	return p
}

// FromDomain populates the persistence model from a domain Picking
func (m *PickingModel) FromDomain(p *trade.Picking) {
	m.ID = p.ID
	m.OrderID = p.OrderID
	m.Name = p.Name
	m.State = p.State
	m.DoneAt = p.DoneAt
	m.MoveLines = make([]MoveLineModel, len(p.MoveLines))
	for i, ml := range p.MoveLines {
		m.MoveLines[i] = MoveLineModel{
			ID:          ml.ID,
			PickingID:   p.ID,
			ProductCode: ml.ProductCode,
			Quantity:    ml.Quantity,
			QtyDone:     ml.QtyDone,
		}
	}
}

// MoveLineModel is the persistence model for trade.MoveLine
type MoveLineModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	PickingID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductCode string          `gorm:"type:varchar(64)"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	QtyDone     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (MoveLineModel) TableName() string {
	return "stock_move_lines"
}
