package trade

import (
	"testing"
	"time"

	"github.com/erp/edisync/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartner_ClientNameAndContact(t *testing.T) {
	company := Partner{Name: "Jane Doe", ParentName: "Acme BV"}
	assert.Equal(t, "Acme BV", company.ClientName())
	assert.Equal(t, "Jane Doe", company.ClientContact())

	person := Partner{Name: "John Roe"}
	assert.Equal(t, "John Roe", person.ClientName())
	assert.Equal(t, "", person.ClientContact())
}

func TestProduct_MatchingKey(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		want    string
	}{
		{"packaging barcode wins", Product{DefaultCode: "SKU1", Barcode: "871", PackagingBarcode: "PKG"}, "PKG"},
		{"product barcode next", Product{DefaultCode: "SKU1", Barcode: "871"}, "871"},
		{"default code last", Product{DefaultCode: "SKU1"}, "SKU1"},
		{"blank values skipped", Product{DefaultCode: "SKU1", Barcode: "  "}, "SKU1"},
		{"nothing set", Product{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.product.MatchingKey())
		})
	}
}

func TestSalesOrder_ActiveLines(t *testing.T) {
	ignoredID := uuid.New()
	otherID := uuid.New()
	order, err := NewSalesOrder("SO001", time.Now(), Partner{Name: "X"})
	require.NoError(t, err)

	_, err = order.AddLine(Product{Name: "Widget", DefaultCode: "W1", CategoryID: &otherID}, decimal.NewFromInt(2))
	require.NoError(t, err)
	_, err = order.AddLine(Product{Name: "Shipping fee", DefaultCode: "SHIP", CategoryID: &ignoredID}, decimal.NewFromInt(1))
	require.NoError(t, err)
	_, err = order.AddLine(Product{Name: "Loose item", DefaultCode: "L1"}, decimal.NewFromInt(1))
	require.NoError(t, err)

	lines := order.ActiveLines(catalog.CategorySet{ignoredID: {}})
	require.Len(t, lines, 2)
	assert.Equal(t, "W1", lines[0].Product.DefaultCode)
	assert.Equal(t, "L1", lines[1].Product.DefaultCode)
	assert.Equal(t, 3, order.Lines[2].Sequence)

	assert.Len(t, order.ActiveLines(nil), 3)
}

func TestSalesOrder_Confirm(t *testing.T) {
	order, err := NewSalesOrder("SO002", time.Now(), Partner{})
	require.NoError(t, err)
	assert.False(t, order.IsConfirmed())

	require.NoError(t, order.Confirm())
	assert.True(t, order.IsConfirmed())
	assert.Error(t, order.Confirm())

	_, err = NewSalesOrder(" ", time.Now(), Partner{})
	assert.Error(t, err)
}

func TestSalesOrder_ApplyShipmentStatus(t *testing.T) {
	order, err := NewSalesOrder("SO003", time.Now(), Partner{})
	require.NoError(t, err)

	order.ApplyShipmentStatus(ShipmentStatus{RemoteStatus: "completed", RemoteReference: "WS-1", TrackAndTrace: "3SABC"})
	assert.True(t, order.IsShipmentCompleted())
	assert.Equal(t, "WS-1", order.Shipment.RemoteReference)

	order.ApplyShipmentStatus(ShipmentStatus{RemoteStatus: "picking"})
	assert.False(t, order.IsShipmentCompleted())
}

func TestSalesOrderLine_DisplayName(t *testing.T) {
	line, err := NewSalesOrderLine(uuid.New(), Product{Name: "Widget"}, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Equal(t, "SO001 - Widget", line.DisplayName("SO001"))

	_, err = NewSalesOrderLine(uuid.New(), Product{}, decimal.NewFromInt(1))
	assert.Error(t, err)
	_, err = NewSalesOrderLine(uuid.New(), Product{Name: "x"}, decimal.NewFromInt(-1))
	assert.Error(t, err)
}
