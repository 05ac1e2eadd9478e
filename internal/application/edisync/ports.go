package edisync

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/erp/edisync/internal/domain/edi"
)

// Archive keeps a copy of every exchanged file. Failures are logged, never fatal.
type Archive interface {
	Store(ctx context.Context, key string, data []byte) error
}

// MetricsRecorder receives sync counters
type MetricsRecorder interface {
	RecordAction(ctx context.Context, code edi.DocumentCode, status ActionStatus, duration time.Duration)
	RecordExportedRows(ctx context.Context, rows int)
	RecordImportedGroups(ctx context.Context, groups int)
	RecordValidatedPickings(ctx context.Context, pickings int)
}

type nopArchive struct{}

func (nopArchive) Store(context.Context, string, []byte) error { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordAction(context.Context, edi.DocumentCode, ActionStatus, time.Duration) {}
func (nopMetrics) RecordExportedRows(context.Context, int)                                   {}
func (nopMetrics) RecordImportedGroups(context.Context, int)                                 {}
func (nopMetrics) RecordValidatedPickings(context.Context, int)                              {}

// handlerDeps holds the collaborators shared by the document handlers
type handlerDeps struct {
	archive Archive
	metrics MetricsRecorder
	logger  *zap.Logger
}

func defaultHandlerDeps() handlerDeps {
	return handlerDeps{archive: nopArchive{}, metrics: nopMetrics{}, logger: zap.NewNop()}
}

// HandlerOption configures a document handler
type HandlerOption func(*handlerDeps)

// WithArchive sets the file archive
func WithArchive(a Archive) HandlerOption {
	return func(d *handlerDeps) {
		if a != nil {
			d.archive = a
		}
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m MetricsRecorder) HandlerOption {
	return func(d *handlerDeps) {
		if m != nil {
			d.metrics = m
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) HandlerOption {
	return func(d *handlerDeps) {
		if l != nil {
			d.logger = l
		}
	}
}

// archiveKey names an archived file: <direction>/<code>/<timestamp>-<file>
func archiveKey(dir Direction, code edi.DocumentCode, at time.Time, fileName string) string {
	return string(dir) + "/" + string(code) + "/" + at.UTC().Format("20060102T150405Z") + "-" + fileName
}

// archiveFile stores data best-effort
func (d handlerDeps) archiveFile(ctx context.Context, key string, data []byte) {
	if err := d.archive.Store(ctx, key, data); err != nil {
		d.logger.Warn("Failed to archive exchanged file", zap.String("key", key), zap.Error(err))
	}
}
