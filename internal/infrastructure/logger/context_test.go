package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	t.Run("returns attached logger", func(t *testing.T) {
		l := zap.NewExample()
		assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
	})

	t.Run("returns no-op logger when missing", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
	})
}

func TestEnrichment(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx, l := WithRequestID(context.Background(), base, "req-1")
	ctx, l = WithConfigID(ctx, l, "cfg-1")
	ctx, l = WithActionID(ctx, l, "act-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "cfg-1", GetConfigID(ctx))
	assert.Equal(t, "act-1", GetActionID(ctx))
	assert.Same(t, l, FromContext(ctx))

	l.Info("running")
	logs := recorded.All()
	require.Len(t, logs, 1)
	fields := fieldMap(logs[0])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "cfg-1", fields["config_id"])
	assert.Equal(t, "act-1", fields["action_id"])
}

func TestGetters_Missing(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetActionID(ctx))
	assert.Empty(t, GetConfigID(ctx))
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, ContextFields(ctx))
}

func spanContext(t *testing.T) trace.SpanContext {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
}

func TestTraceCorrelation(t *testing.T) {
	ctx := trace.ContextWithSpanContext(context.Background(), spanContext(t))

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", GetTraceID(ctx))

	core, recorded := observer.New(zapcore.InfoLevel)
	WithTraceContext(ctx, zap.New(core)).Info("traced")
	fields := fieldMap(recorded.All()[0])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])

	ctx, _ = WithActionID(ctx, zap.NewNop(), "act-9")
	keys := make([]string, 0)
	for _, f := range ContextFields(ctx) {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"trace_id", "span_id", "action_id"}, keys)
}

func TestWithTraceContext_NoSpan(t *testing.T) {
	l := zap.NewNop()
	assert.Same(t, l, WithTraceContext(context.Background(), l))
}
