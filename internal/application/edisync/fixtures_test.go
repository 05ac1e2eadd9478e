package edisync

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/erp/edisync/internal/domain/catalog"
	"github.com/erp/edisync/internal/domain/edi"
	"github.com/erp/edisync/internal/domain/trade"
	"github.com/erp/edisync/internal/infrastructure/rowcodec"
)

var testNow = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func newTestConfig(t *testing.T) *edi.SyncConfig {
	t.Helper()
	cfg, err := edi.NewSyncConfig("webship", "files.example.com", 0, edi.ProtocolSFTP, "edi", "secret")
	require.NoError(t, err)
	cfg.BasePath = "/home/edi"
	return cfg
}

func newTestAction(t *testing.T, cfg *edi.SyncConfig, op edi.OpType, code edi.DocumentCode, dir string) *edi.SyncAction {
	t.Helper()
	docType, err := edi.NewDocumentType(string(code), op, code)
	require.NoError(t, err)
	return edi.NewSyncAction(cfg, *docType, dir)
}

func newExportAction(t *testing.T, cfg *edi.SyncConfig) *edi.SyncAction {
	return newTestAction(t, cfg, edi.OpTypeExport, edi.DocumentCodeExportSaleOrder, "outbound")
}

func newImportAction(t *testing.T, cfg *edi.SyncConfig, op edi.OpType) *edi.SyncAction {
	a := newTestAction(t, cfg, op, edi.DocumentCodeImportSaleOrder, "inbound")
	a.MoveDirPath = "/home/edi/archive"
	return a
}

func completePartner() trade.Partner {
	return trade.Partner{
		Name:        "Jane Doe",
		ParentName:  "Acme BV",
		VAT:         "NL0001",
		Street:      "Main Street 1",
		Zip:         "1000AA",
		City:        "Amsterdam",
		CountryCode: "NL",
		Email:       "jane@example.com",
	}
}

// newConfirmedOrder builds a confirmed order dated one hour before testNow
func newConfirmedOrder(t *testing.T, name string, partner trade.Partner) *trade.SalesOrder {
	t.Helper()
	order, err := trade.NewSalesOrder(name, testNow.Add(-time.Hour), partner)
	require.NoError(t, err)
	require.NoError(t, order.Confirm())
	return order
}

func addLine(t *testing.T, order *trade.SalesOrder, name, barcode string, qty int64, category *uuid.UUID) {
	t.Helper()
	_, err := order.AddLine(trade.Product{Name: name, Barcode: barcode, CategoryID: category}, decimal.NewFromInt(qty))
	require.NoError(t, err)
}

func newReadyPicking(orderID uuid.UUID, name, code string, qty int64) *trade.Picking {
	p := trade.NewPicking(orderID, name)
	p.AddMoveLine(code, decimal.NewFromInt(qty))
	return p
}

// seed stores the given entities in the committed state of the store
func seed(store *memStore, actions []*edi.SyncAction, orders []*trade.SalesOrder, pickings []*trade.Picking, categories []*catalog.Category) {
	for _, a := range actions {
		store.state.actions[a.ID] = *a
	}
	for _, o := range orders {
		store.state.orders[o.ID] = *o
	}
	for _, p := range pickings {
		store.state.pickings[p.ID] = clonePicking(*p)
	}
	for _, c := range categories {
		store.state.categories = append(store.state.categories, *c)
	}
}

// newRun builds an ActionRun working directly on the committed state
func newRun(store *memStore, action *edi.SyncAction) *ActionRun {
	repos := store.committed()
	return &ActionRun{
		Action: action,
		Now:    testNow,
		Repos:  repos,
		Log:    NewLogSink(repos.LogRepo(), nil).ForAction(action),
	}
}

func importFile(rows ...string) []byte {
	data := "reference,sku,status,quantity,order_number,tracking_numbers\n"
	for _, r := range rows {
		data += r + "\n"
	}
	return []byte(data)
}

func newCodec() *rowcodec.Codec {
	return rowcodec.New()
}
