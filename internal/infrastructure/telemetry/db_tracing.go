package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // Include query variables in spans (dev only)
	SlowQueryThresh time.Duration // Queries slower than this get a slow_query event
	DBName          string
}

// DefaultDBTracingConfig returns the database tracing defaults
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBName:          "postgresql",
	}
}

type queryStartKey struct{}

type gormRegister interface {
	Register(name string, fn func(*gorm.DB)) error
}

// RegisterDBTracing installs the otelgorm plugin plus callbacks that flag
// statements slower than the configured threshold on their span
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	// The slow query hook runs between the statement and otelgorm's
	// after-hook, while the statement span is still open
	markSlow := func(tx *gorm.DB) { markSlowQuery(tx, cfg.SlowQueryThresh) }
	cb := db.Callback()
	hooks := []struct {
		callback gormRegister
		hook     func(*gorm.DB)
		name     string
	}{
		{cb.Create().Before("gorm:create"), markQueryStart, "before:create"},
		{cb.Create().After("gorm:create").Before("otel:after:create"), markSlow, "after:create"},
		{cb.Query().Before("gorm:query"), markQueryStart, "before:select"},
		{cb.Query().After("gorm:query").Before("otel:after:select"), markSlow, "after:select"},
		{cb.Delete().Before("gorm:delete"), markQueryStart, "before:delete"},
		{cb.Delete().After("gorm:delete").Before("otel:after:delete"), markSlow, "after:delete"},
		{cb.Update().Before("gorm:update"), markQueryStart, "before:update"},
		{cb.Update().After("gorm:update").Before("otel:after:update"), markSlow, "after:update"},
		{cb.Row().Before("gorm:row"), markQueryStart, "before:row"},
		{cb.Row().After("gorm:row").Before("otel:after:row"), markSlow, "after:row"},
		{cb.Raw().Before("gorm:raw"), markQueryStart, "before:raw"},
		{cb.Raw().After("gorm:raw").Before("otel:after:raw"), markSlow, "after:raw"},
	}
	for _, h := range hooks {
		if err := h.callback.Register("edisync_slow:"+h.name, h.hook); err != nil {
			return fmt.Errorf("register %s callback: %w", h.name, err)
		}
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func markQueryStart(tx *gorm.DB) {
	if tx.Statement.Context != nil {
		tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
	}
}

func markSlowQuery(tx *gorm.DB, slowThresh time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil || slowThresh <= 0 {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > slowThresh {
		span.SetAttributes(attribute.Bool("db.slow_query", true))
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", slowThresh.Milliseconds()),
		))
	}
}
