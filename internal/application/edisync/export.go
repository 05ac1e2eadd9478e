package edisync

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erp/edisync/internal/domain/catalog"
	"github.com/erp/edisync/internal/domain/edi"
	"github.com/erp/edisync/internal/domain/trade"
	"github.com/erp/edisync/internal/infrastructure/rowcodec"
	"github.com/erp/edisync/internal/infrastructure/telemetry"
)

// Export constants
const (
	// ExportStatusReadyToPick is written into the status column of every exported row
	ExportStatusReadyToPick = "ready-to-pick"

	DefaultExportWindow   = 24 * time.Hour
	DefaultExportFileName = "orders.csv"

	LogTitleExportFailed     = "EXPORT Failed"
	LogTitleNoOrdersExported = "NO ORDERS EXPORTED"
	LogTitleExportSucceeded  = "Exported Orders (Success)"

	noExportDataMessage = "There is no relatable data found to be exported!"
)

// exportFields is the column order of the export file
var exportFields = []string{
	"client_name",
	"client_contact",
	"client_vat",
	"shipping_address_1",
	"shipping_address_2",
	"shipping_postal_code",
	"shipping_city",
	"shipping_country",
	"client_email",
	"sku",
	"quantity",
	"connector",
	"reference",
	"status",
}

// ExportFields returns the export header
func ExportFields() []string {
	return slices.Clone(exportFields)
}

// ExportRow is one line of the export file
type ExportRow struct {
	ClientName         string
	ClientContact      string
	ClientVAT          string
	ShippingAddress1   string
	ShippingAddress2   string
	ShippingPostalCode string
	ShippingCity       string
	ShippingCountry    string
	ClientEmail        string
	SKU                string
	Quantity           decimal.Decimal
	Connector          string
	Reference          string
	Status             string
}

// NewExportRow shapes one order line
func NewExportRow(order *trade.SalesOrder, line trade.SalesOrderLine) ExportRow {
	p := order.Shipping
	return ExportRow{
		ClientName:         p.ClientName(),
		ClientContact:      p.ClientContact(),
		ClientVAT:          p.VAT,
		ShippingAddress1:   p.Street,
		ShippingAddress2:   p.Street2,
		ShippingPostalCode: p.Zip,
		ShippingCity:       p.City,
		ShippingCountry:    p.CountryCode,
		ClientEmail:        p.Email,
		SKU:                line.Product.MatchingKey(),
		Quantity:           line.Quantity,
		Connector:          order.Name,
		Reference:          order.Name,
		Status:             ExportStatusReadyToPick,
	}
}

// Values returns the row in export column order
func (r ExportRow) Values() []string {
	return []string{
		r.ClientName,
		r.ClientContact,
		r.ClientVAT,
		r.ShippingAddress1,
		r.ShippingAddress2,
		r.ShippingPostalCode,
		r.ShippingCity,
		r.ShippingCountry,
		r.ClientEmail,
		r.SKU,
		r.Quantity.String(),
		r.Connector,
		r.Reference,
		r.Status,
	}
}

// MissingFields lists the required fields that are empty (or zero for quantity)
func (r ExportRow) MissingFields() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"client_name", r.ClientName},
		{"shipping_address_1", r.ShippingAddress1},
		{"shipping_postal_code", r.ShippingPostalCode},
		{"shipping_city", r.ShippingCity},
		{"shipping_country", r.ShippingCountry},
		{"sku", r.SKU},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if r.Quantity.IsZero() {
		missing = append(missing, "quantity")
	}
	return missing
}

// OrderExportResult is the row shaping result of one order
type OrderExportResult struct {
	OrderName string
	Rows      []ExportRow
	// Problems holds one "missing field" message per missing field per line
	Problems []string
}

// Valid reports whether every line of the order is complete
func (r OrderExportResult) Valid() bool {
	return len(r.Problems) == 0
}

// ShapeOrder builds the export rows of one order, skipping ignored lines
func ShapeOrder(order *trade.SalesOrder, ignored catalog.CategorySet) OrderExportResult {
	result := OrderExportResult{OrderName: order.Name}
	for _, line := range order.ActiveLines(ignored) {
		row := NewExportRow(order, line)
		for _, field := range row.MissingFields() {
			result.Problems = append(result.Problems,
				fmt.Sprintf("missing field: %s For line: %s", field, line.DisplayName(order.Name)))
		}
		result.Rows = append(result.Rows, row)
	}
	return result
}

// ExportBatch is the aggregate of all order results of one export run
type ExportBatch struct {
	Rows      [][]string
	Processed []string
	Excluded  []OrderExportResult
}

// BuildExportBatch keeps the rows of valid orders and collects the excluded ones
func BuildExportBatch(results []OrderExportResult) ExportBatch {
	var batch ExportBatch
	for _, res := range results {
		if !res.Valid() {
			batch.Excluded = append(batch.Excluded, res)
			continue
		}
		if len(res.Rows) == 0 {
			continue
		}
		for _, row := range res.Rows {
			batch.Rows = append(batch.Rows, row.Values())
		}
		batch.Processed = append(batch.Processed, res.OrderName)
	}
	return batch
}

// ExportConfig holds the export settings
type ExportConfig struct {
	// Window is how far back confirmed orders are picked up
	Window time.Duration
	// FileName is the remote file name
	FileName string
}

// DefaultExportConfig returns the export defaults
func DefaultExportConfig() ExportConfig {
	return ExportConfig{Window: DefaultExportWindow, FileName: DefaultExportFileName}
}

// SaleOrderExporter uploads recently confirmed orders as one delimited file
type SaleOrderExporter struct {
	handlerDeps
	gateway edi.TransportGateway
	codec   *rowcodec.Codec
	config  ExportConfig
}

// Ensure SaleOrderExporter implements DocumentHandler
var _ DocumentHandler = (*SaleOrderExporter)(nil)

// NewSaleOrderExporter creates the export handler
func NewSaleOrderExporter(gateway edi.TransportGateway, codec *rowcodec.Codec, cfg ExportConfig, opts ...HandlerOption) *SaleOrderExporter {
	if cfg.Window <= 0 {
		cfg.Window = DefaultExportWindow
	}
	if cfg.FileName == "" {
		cfg.FileName = DefaultExportFileName
	}
	deps := defaultHandlerDeps()
	for _, opt := range opts {
		opt(&deps)
	}
	return &SaleOrderExporter{
		handlerDeps: deps,
		gateway:     gateway,
		codec:       codec,
		config:      cfg,
	}
}

// Code returns the document code
func (e *SaleOrderExporter) Code() edi.DocumentCode {
	return edi.DocumentCodeExportSaleOrder
}

// Direction returns DirectionExport
func (e *SaleOrderExporter) Direction() Direction {
	return DirectionExport
}

// Handle selects confirmed orders of the trailing window, writes one log entry
// per incomplete order and uploads the rows of the complete ones
func (e *SaleOrderExporter) Handle(ctx context.Context, run *ActionRun) (Outcome, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "SaleOrderExporter", "Handle")
	defer span.End()

	logger := e.logger.With(zap.String("action_id", run.Action.ID.String()))

	categories, err := run.Repos.CategoryRepo().FindAll(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return Outcome{}, fmt.Errorf("failed to load categories: %w", err)
	}
	ignored := catalog.IgnoredCategories(categories)

	since := run.Now.Add(-e.config.Window)
	orders, err := run.Repos.OrderRepo().FindConfirmedSince(ctx, since)
	if err != nil {
		telemetry.RecordError(span, err)
		return Outcome{}, fmt.Errorf("failed to load confirmed orders: %w", err)
	}

	results := make([]OrderExportResult, 0, len(orders))
	for i := range orders {
		results = append(results, ShapeOrder(&orders[i], ignored))
	}
	batch := BuildExportBatch(results)

	for _, excluded := range batch.Excluded {
		run.Log.Write(ctx, excluded.OrderName, strings.Join(excluded.Problems, "\n"))
	}

	telemetry.SetAttributes(span,
		"orders", len(orders),
		"rows", len(batch.Rows),
		"excluded_orders", len(batch.Excluded))

	if len(batch.Rows) == 0 {
		logger.Info("No orders to export", zap.Int("candidates", len(orders)))
		run.Log.Write(ctx, LogTitleNoOrdersExported, noExportDataMessage)
		return Succeeded(0, noExportDataMessage), nil
	}

	data, err := e.codec.Encode(ExportFields(), batch.Rows)
	if err != nil {
		telemetry.RecordError(span, err)
		return Outcome{}, edi.NewActionFailure(LogTitleExportFailed, fmt.Errorf("failed to encode export file: %w", err))
	}

	if err := e.upload(ctx, run.Action, data, logger); err != nil {
		telemetry.RecordError(span, err)
		return Outcome{}, edi.NewTransportFailure(LogTitleExportFailed, err)
	}

	e.archiveFile(ctx, archiveKey(DirectionExport, e.Code(), run.Now, e.config.FileName), data)
	e.metrics.RecordExportedRows(ctx, len(batch.Rows))

	summary := "Processed Orders are : \n" + strings.Join(batch.Processed, "\n")
	run.Log.Write(ctx, LogTitleExportSucceeded, summary)

	logger.Info("Exported orders",
		zap.Int("orders", len(batch.Processed)),
		zap.Int("rows", len(batch.Rows)),
		zap.Int("excluded_orders", len(batch.Excluded)))
	telemetry.SetOK(span)

	return Succeeded(len(batch.Rows), summary), nil
}

func (e *SaleOrderExporter) upload(ctx context.Context, action *edi.SyncAction, data []byte, logger *zap.Logger) error {
	session, err := openActionDir(ctx, e.gateway, action)
	if err != nil {
		return err
	}
	defer closeSession(session, logger)

	return session.Put(e.config.FileName, data)
}
