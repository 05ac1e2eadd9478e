// Package syncmetrics records EDI sync counters on an OpenTelemetry meter.
package syncmetrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/erp/edisync/internal/application/edisync"
	"github.com/erp/edisync/internal/domain/edi"
)

// Ensure Recorder implements edisync.MetricsRecorder
var _ edisync.MetricsRecorder = (*Recorder)(nil)

// Attribute keys
const (
	AttrDocCode = attribute.Key("edi.doc_code")
	AttrStatus  = attribute.Key("edi.status")
)

// Recorder exports action outcomes and document volumes
type Recorder struct {
	actions   metric.Int64Counter
	duration  metric.Float64Histogram
	rows      metric.Int64Counter
	groups    metric.Int64Counter
	validated metric.Int64Counter
}

// New creates the instruments on meter
func New(meter metric.Meter) (*Recorder, error) {
	r := &Recorder{}
	var err error

	if r.actions, err = meter.Int64Counter("edi.sync.actions",
		metric.WithDescription("Sync actions run, by document code and terminal status"),
		metric.WithUnit("{action}"),
	); err != nil {
		return nil, fmt.Errorf("create actions counter: %w", err)
	}
	if r.duration, err = meter.Float64Histogram("edi.sync.action.duration",
		metric.WithDescription("Duration of one sync action"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300),
	); err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}
	if r.rows, err = meter.Int64Counter("edi.export.rows",
		metric.WithDescription("Order lines written to export files"),
		metric.WithUnit("{row}"),
	); err != nil {
		return nil, fmt.Errorf("create rows counter: %w", err)
	}
	if r.groups, err = meter.Int64Counter("edi.import.groups",
		metric.WithDescription("Order groups read from import files"),
		metric.WithUnit("{order}"),
	); err != nil {
		return nil, fmt.Errorf("create groups counter: %w", err)
	}
	if r.validated, err = meter.Int64Counter("edi.import.pickings_validated",
		metric.WithDescription("Pickings validated after a completed shipment"),
		metric.WithUnit("{picking}"),
	); err != nil {
		return nil, fmt.Errorf("create pickings counter: %w", err)
	}
	return r, nil
}

// RecordAction counts one action and its duration
func (r *Recorder) RecordAction(ctx context.Context, code edi.DocumentCode, status edisync.ActionStatus, duration time.Duration) {
	attrs := metric.WithAttributes(AttrDocCode.String(string(code)), AttrStatus.String(string(status)))
	r.actions.Add(ctx, 1, attrs)
	r.duration.Record(ctx, duration.Seconds(), attrs)
}

// RecordExportedRows counts exported lines
func (r *Recorder) RecordExportedRows(ctx context.Context, rows int) {
	if rows > 0 {
		r.rows.Add(ctx, int64(rows))
	}
}

// RecordImportedGroups counts imported order groups
func (r *Recorder) RecordImportedGroups(ctx context.Context, groups int) {
	if groups > 0 {
		r.groups.Add(ctx, int64(groups))
	}
}

// RecordValidatedPickings counts validated pickings
func (r *Recorder) RecordValidatedPickings(ctx context.Context, pickings int) {
	if pickings > 0 {
		r.validated.Add(ctx, int64(pickings))
	}
}
