package edisync

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erp/edisync/internal/domain/catalog"
	"github.com/erp/edisync/internal/domain/edi"
	"github.com/erp/edisync/internal/domain/shared"
	"github.com/erp/edisync/internal/domain/trade"
	"github.com/erp/edisync/internal/infrastructure/rowcodec"
	"github.com/erp/edisync/internal/infrastructure/telemetry"
)

// Import constants
const (
	LogTitleImportFailed     = "IMPORT Failed"
	LogTitleNoOrdersImported = "NO ORDERS IMPORTED"
	LogTitleImportSucceeded  = "Import Orders (Success)"

	noImportDataMessage = "There is no relatable data found to be imported!"
)

// importLabels are the header labels an import file must carry
var importLabels = []string{"reference", "sku", "status", "quantity", "order_number", "tracking_numbers"}

// ImportRow is one row of the status file
type ImportRow struct {
	Reference       string
	SKU             string
	Status          string
	Quantity        string
	OrderNumber     string
	TrackingNumbers string
}

// ImportRowFromRecord binds a decoded record by label
func ImportRowFromRecord(rec rowcodec.Record) ImportRow {
	return ImportRow{
		Reference:       rec["reference"],
		SKU:             rec["sku"],
		Status:          rec["status"],
		Quantity:        rec["quantity"],
		OrderNumber:     rec["order_number"],
		TrackingNumbers: rec["tracking_numbers"],
	}
}

// ImportGroup is every row of one reference, in file order
type ImportGroup struct {
	Reference string
	Rows      []ImportRow
}

// Head returns the authoritative row
func (g ImportGroup) Head() ImportRow {
	return g.Rows[0]
}

// ShipmentStatus returns the order header fields carried by the first row
func (g ImportGroup) ShipmentStatus() trade.ShipmentStatus {
	head := g.Head()
	return trade.ShipmentStatus{
		RemoteStatus:    head.Status,
		RemoteReference: head.OrderNumber,
		TrackAndTrace:   head.TrackingNumbers,
	}
}

// IsCompleted reports whether the authoritative status is "completed"
func (g ImportGroup) IsCompleted() bool {
	return g.Head().Status == trade.RemoteStatusCompleted
}

// GroupImportRows partitions rows by reference. Groups keep the order in
// which each reference first appears.
func GroupImportRows(rows []ImportRow) []ImportGroup {
	index := make(map[string]int)
	var groups []ImportGroup
	for _, row := range rows {
		i, ok := index[row.Reference]
		if !ok {
			i = len(groups)
			index[row.Reference] = i
			groups = append(groups, ImportGroup{Reference: row.Reference})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}
	return groups
}

// LineMatch is the result of comparing order lines with import rows
type LineMatch int

const (
	LineMatchOK LineMatch = iota
	LineMatchCountMismatch
	LineMatchQuantityMismatch
)

// MatchLines compares the non-ignored order lines with the group's rows.
// Counts must be equal; then every line needs a row with the same matching
// key and an equal quantity. The walk stops at the first failing line.
func MatchLines(lines []trade.SalesOrderLine, rows []ImportRow) LineMatch {
	if len(lines) != len(rows) {
		return LineMatchCountMismatch
	}
	for _, line := range lines {
		if !lineHasMatchingRow(line, rows) {
			return LineMatchQuantityMismatch
		}
	}
	return LineMatchOK
}

func lineHasMatchingRow(line trade.SalesOrderLine, rows []ImportRow) bool {
	key := line.Product.MatchingKey()
	if key == "" {
		return false
	}
	for _, row := range rows {
		if strings.TrimSpace(row.SKU) != key {
			continue
		}
		qty, err := decimal.NewFromString(strings.TrimSpace(row.Quantity))
		return err == nil && qty.Equal(line.Quantity)
	}
	return false
}

// SaleOrderImporter applies the remote status file to local orders and
// confirms the pickings of fully shipped orders
type SaleOrderImporter struct {
	handlerDeps
	gateway edi.TransportGateway
	codec   *rowcodec.Codec
}

// Ensure SaleOrderImporter implements DocumentHandler
var _ DocumentHandler = (*SaleOrderImporter)(nil)

// NewSaleOrderImporter creates the import handler
func NewSaleOrderImporter(gateway edi.TransportGateway, codec *rowcodec.Codec, opts ...HandlerOption) *SaleOrderImporter {
	deps := defaultHandlerDeps()
	for _, opt := range opts {
		opt(&deps)
	}
	return &SaleOrderImporter{handlerDeps: deps, gateway: gateway, codec: codec}
}

// Code returns the document code
func (i *SaleOrderImporter) Code() edi.DocumentCode {
	return edi.DocumentCodeImportSaleOrder
}

// Direction returns DirectionImport
func (i *SaleOrderImporter) Direction() Direction {
	return DirectionImport
}

// Handle downloads the status files of the action, reconciles them and, for
// in-mv actions, moves each processed file into the move directory
func (i *SaleOrderImporter) Handle(ctx context.Context, run *ActionRun) (Outcome, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "SaleOrderImporter", "Handle")
	defer span.End()

	action := run.Action
	logger := i.logger.With(zap.String("action_id", action.ID.String()))

	session, err := openActionDir(ctx, i.gateway, action)
	if err != nil {
		telemetry.RecordError(span, err)
		return Outcome{}, edi.NewTransportFailure(LogTitleImportFailed, err)
	}
	defer closeSession(session, logger)

	names, err := i.selectFiles(session, action)
	if err != nil {
		telemetry.RecordError(span, err)
		return Outcome{}, edi.NewTransportFailure(LogTitleImportFailed, err)
	}
	if len(names) == 0 {
		logger.Info("No import file matched", zap.String("file_expr", action.FilePattern()))
		run.Log.Write(ctx, LogTitleNoOrdersImported, noImportDataMessage)
		return Succeeded(0, noImportDataMessage), nil
	}

	categories, err := run.Repos.CategoryRepo().FindAll(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to load categories: %w", err)
	}
	ignored := catalog.IgnoredCategories(categories)

	groups := 0
	var summaries []string
	for _, name := range names {
		data, err := session.Get(name)
		if err != nil {
			telemetry.RecordError(span, err)
			return Outcome{}, edi.NewTransportFailure(LogTitleImportFailed, err)
		}
		i.archiveFile(ctx, archiveKey(DirectionImport, i.Code(), run.Now, name), data)

		n, summary, err := i.importFile(ctx, run, name, data, ignored)
		if err != nil {
			telemetry.RecordError(span, err)
			return Outcome{}, err
		}
		groups += n
		summaries = append(summaries, summary)

		if action.OpType() == edi.OpTypeImportMove {
			target := path.Join(action.Config.Endpoint().ResolveDir(action.MoveDirPath), name)
			if err := session.Rename(name, target); err != nil {
				telemetry.RecordError(span, err)
				return Outcome{}, edi.NewTransportFailure(LogTitleImportFailed, err)
			}
			logger.Debug("Moved imported file", zap.String("file", name), zap.String("target", target))
		}
	}

	telemetry.SetAttributes(span, "files", len(names), "groups", groups)
	telemetry.SetOK(span)
	i.metrics.RecordImportedGroups(ctx, groups)

	return Succeeded(groups, strings.Join(summaries, "\n\n")), nil
}

// selectFiles resolves FileExpr: a literal names the file directly, a glob is
// matched against the directory listing up to MaxFiles
func (i *SaleOrderImporter) selectFiles(session edi.TransportSession, action *edi.SyncAction) ([]string, error) {
	if !action.IsGlob() {
		return []string{action.FilePattern()}, nil
	}
	listing, err := session.List()
	if err != nil {
		return nil, err
	}
	return action.MatchFiles(listing), nil
}

// importFile decodes and reconciles one file, writing its log entry
func (i *SaleOrderImporter) importFile(ctx context.Context, run *ActionRun, name string, data []byte, ignored catalog.CategorySet) (int, string, error) {
	table, err := i.codec.Decode(data)
	if errors.Is(err, rowcodec.ErrEmptyFile) || (err == nil && len(table.Rows) == 0) {
		run.Log.Write(ctx, LogTitleNoOrdersImported, noImportDataMessage)
		return 0, noImportDataMessage, nil
	}
	if err != nil {
		return 0, "", edi.NewActionFailure(LogTitleImportFailed, fmt.Errorf("failed to decode %s: %w", name, err))
	}
	if err := table.RequireLabels(importLabels...); err != nil {
		return 0, "", edi.NewActionFailure(LogTitleImportFailed, fmt.Errorf("failed to decode %s: %w", name, err))
	}

	records, err := rowcodec.PrepareImportableData(table)
	if err != nil {
		return 0, "", edi.NewActionFailure(LogTitleImportFailed, fmt.Errorf("failed to decode %s: %w", name, err))
	}
	rows := make([]ImportRow, len(records))
	for j, rec := range records {
		rows[j] = ImportRowFromRecord(rec)
	}

	groups := GroupImportRows(rows)
	report := ImportReport{Results: make([]OrderImportResult, 0, len(groups))}
	for _, group := range groups {
		res, err := i.reconcile(ctx, run, group, ignored)
		if err != nil {
			return 0, "", err
		}
		report.Results = append(report.Results, res)
	}

	body := report.Format()
	run.Log.Write(ctx, LogTitleImportSucceeded, body)
	i.metrics.RecordValidatedPickings(ctx, report.ValidatedCount())

	i.logger.Info("Imported order status file",
		zap.String("action_id", run.Action.ID.String()),
		zap.String("file", name),
		zap.Int("rows", len(rows)),
		zap.Int("groups", len(groups)),
		zap.Int("validated_pickings", report.ValidatedCount()))

	return len(groups), body, nil
}

// reconcile applies one reference group to its order
func (i *SaleOrderImporter) reconcile(ctx context.Context, run *ActionRun, group ImportGroup, ignored catalog.CategorySet) (OrderImportResult, error) {
	res := OrderImportResult{Reference: group.Reference}

	order, err := run.Repos.OrderRepo().FindByName(ctx, group.Reference)
	if errors.Is(err, shared.ErrNotFound) {
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("failed to load order %s: %w", group.Reference, err)
	}
	res.Found = true

	status := group.ShipmentStatus()
	if err := run.Repos.OrderRepo().UpdateShipmentStatus(ctx, order.ID, status); err != nil {
		return res, fmt.Errorf("failed to update order %s: %w", order.Name, err)
	}
	order.ApplyShipmentStatus(status)

	if !group.IsCompleted() {
		return res, nil
	}
	res.Completed = true

	switch MatchLines(order.ActiveLines(ignored), group.Rows) {
	case LineMatchCountMismatch:
		res.Issues = append(res.Issues, order.Name+" : Lines/Qty mismatch")
		return res, nil
	case LineMatchQuantityMismatch:
		res.Issues = append(res.Issues, order.Name+" : Lines matched, but quantity for lines are invalid!")
		i.logger.Warn("Import quantities do not match order lines", zap.String("order", order.Name))
		return res, nil
	}

	pickings, err := run.Repos.PickingRepo().FindByOrder(ctx, order.ID)
	if err != nil {
		return res, fmt.Errorf("failed to load pickings of %s: %w", order.Name, err)
	}
	for j := range pickings {
		picking := &pickings[j]
		if !picking.IsReady() {
			res.Issues = append(res.Issues, fmt.Sprintf("%s is in state : %s", picking.Name, picking.State))
			continue
		}
		if err := i.confirmPicking(ctx, run, picking); err != nil {
			i.logger.Error("Failed to validate picking",
				zap.String("order", order.Name),
				zap.String("picking", picking.Name),
				zap.Error(err))
			res.Issues = append(res.Issues, fmt.Sprintf("%s: %v", picking.Name, err))
			continue
		}
		res.Validated = append(res.Validated, picking.Name)
	}
	return res, nil
}

// confirmPicking marks every move line done and validates the picking.
// Nothing is persisted unless validation succeeds.
func (i *SaleOrderImporter) confirmPicking(ctx context.Context, run *ActionRun, picking *trade.Picking) error {
	picking.FillDoneQuantities()
	if err := picking.Validate(run.Now); err != nil {
		return err
	}
	return run.Repos.PickingRepo().Save(ctx, picking)
}
