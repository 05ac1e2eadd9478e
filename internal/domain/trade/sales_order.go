package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/edisync/internal/domain/catalog"
	"github.com/erp/edisync/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of a sales order
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "draft"
	OrderStatusSent      OrderStatus = "sent"
	OrderStatusConfirmed OrderStatus = "sale"
	OrderStatusDone      OrderStatus = "done"
	OrderStatusCancelled OrderStatus = "cancel"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusSent, OrderStatusConfirmed, OrderStatusDone, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// RemoteStatusCompleted is the partner status that triggers fulfillment confirmation
const RemoteStatusCompleted = "completed"

// Partner is the shipping partner of an order. ParentName is set when the
// partner is a contact person of a company.
type Partner struct {
	Name        string
	ParentName  string
	VAT         string
	Street      string
	Street2     string
	Zip         string
	City        string
	CountryCode string
	Email       string
}

// ClientName is the company name when the partner has one, else the partner name
func (p Partner) ClientName() string {
	if p.ParentName != "" {
		return p.ParentName
	}
	return p.Name
}

// ClientContact is the contact person name, set only for company contacts
func (p Partner) ClientContact() string {
	if p.ParentName != "" {
		return p.Name
	}
	return ""
}

// Product is the product snapshot carried on an order line
type Product struct {
	Name             string
	DefaultCode      string
	Barcode          string
	PackagingBarcode string
	CategoryID       *uuid.UUID
}

// MatchingKey is the identifier exchanged with partners for this product.
// Precedence: packaging barcode, product barcode, internal reference.
func (p Product) MatchingKey() string {
	for _, key := range []string{p.PackagingBarcode, p.Barcode, p.DefaultCode} {
		if k := strings.TrimSpace(key); k != "" {
			return k
		}
	}
	return ""
}

// SalesOrderLine represents a line item in a sales order
type SalesOrderLine struct {
	ID       uuid.UUID
	OrderID  uuid.UUID
	Sequence int
	Product  Product
	Quantity decimal.Decimal
}

// NewSalesOrderLine creates a new order line
func NewSalesOrderLine(orderID uuid.UUID, product Product, quantity decimal.Decimal) (*SalesOrderLine, error) {
	if strings.TrimSpace(product.Name) == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	return &SalesOrderLine{
		ID:       uuid.New(),
		OrderID:  orderID,
		Product:  product,
		Quantity: quantity,
	}, nil
}

// DisplayName identifies the line in human-facing messages
func (l SalesOrderLine) DisplayName(orderName string) string {
	return fmt.Sprintf("%s - %s", orderName, l.Product.Name)
}

// ShipmentStatus is the fulfillment state reported back by the partner
type ShipmentStatus struct {
	RemoteStatus    string
	RemoteReference string
	TrackAndTrace   string
}

// SalesOrder is the order aggregate exchanged with partners
type SalesOrder struct {
	shared.BaseEntity
	Name      string
	Status    OrderStatus
	DateOrder time.Time
	Shipping  Partner
	Lines     []SalesOrderLine
	Shipment  ShipmentStatus
	Pickings  []Picking
}

// NewSalesOrder creates a draft order
func NewSalesOrder(name string, dateOrder time.Time, shipping Partner) (*SalesOrder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NAME", "Order name cannot be empty")
	}
	return &SalesOrder{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Status:     OrderStatusDraft,
		DateOrder:  dateOrder,
		Shipping:   shipping,
	}, nil
}

// AddLine appends a line to the order
func (o *SalesOrder) AddLine(product Product, quantity decimal.Decimal) (*SalesOrderLine, error) {
	line, err := NewSalesOrderLine(o.ID, product, quantity)
	if err != nil {
		return nil, err
	}
	line.Sequence = len(o.Lines) + 1
	o.Lines = append(o.Lines, *line)
	return &o.Lines[len(o.Lines)-1], nil
}

// Confirm moves a draft or sent order to the confirmed state
func (o *SalesOrder) Confirm() error {
	if o.Status != OrderStatusDraft && o.Status != OrderStatusSent {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot confirm order in %s status", o.Status))
	}
	o.Status = OrderStatusConfirmed
	return nil
}

// IsConfirmed reports whether the order is in the confirmed state
func (o *SalesOrder) IsConfirmed() bool {
	return o.Status == OrderStatusConfirmed
}

// ActiveLines returns lines whose product category is not ignored
func (o *SalesOrder) ActiveLines(ignored catalog.CategorySet) []SalesOrderLine {
	lines := make([]SalesOrderLine, 0, len(o.Lines))
	for _, l := range o.Lines {
		if ignored.Contains(l.Product.CategoryID) {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// ApplyShipmentStatus records the partner's view of the shipment
func (o *SalesOrder) ApplyShipmentStatus(status ShipmentStatus) {
	o.Shipment = status
	o.Touch(time.Now())
}

// IsShipmentCompleted reports whether the partner reported the order as completed
func (o *SalesOrder) IsShipmentCompleted() bool {
	return o.Shipment.RemoteStatus == RemoteStatusCompleted
}
