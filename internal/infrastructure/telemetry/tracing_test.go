package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/erp/edisync/internal/infrastructure/telemetry"
)

// setupTestTracer installs an in-memory span recorder as the global provider
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrMap(span sdktrace.ReadOnlySpan) map[string]any {
	out := map[string]any{}
	for _, kv := range span.Attributes() {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func TestStartClientSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartClientSpan(context.Background(), "transport.connect", "sftp", "files.example.com:22")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "transport.connect", spans[0].Name())
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind())
	attrs := attrMap(spans[0])
	assert.Equal(t, "sftp", attrs["network.protocol.name"])
	assert.Equal(t, "files.example.com:22", attrs["server.address"])
	assert.Equal(t, telemetry.TracerName, spans[0].InstrumentationScope().Name)
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "Dispatcher", "RunAction",
		"doc_code", "export_sale_order_document")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "Dispatcher.RunAction", spans[0].Name())
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())
	assert.Equal(t, "export_sale_order_document", attrMap(spans[0])["doc_code"])
}

func TestSetAttributes(t *testing.T) {
	sr := setupTestTracer(t)

	id := uuid.New()
	_, span := telemetry.StartServiceSpan(context.Background(), "Test", "Op")
	telemetry.SetAttributes(span,
		"action_id", id,
		"rows", 3,
		"forced", true,
		42, "skipped: non-string key",
		"dangling",
	)
	span.End()

	attrs := attrMap(sr.Ended()[0])
	assert.Equal(t, id.String(), attrs["action_id"])
	assert.Equal(t, int64(3), attrs["rows"])
	assert.Equal(t, true, attrs["forced"])
	assert.Len(t, attrs, 3)
}

func TestRecordErrorAndSetOK(t *testing.T) {
	sr := setupTestTracer(t)

	_, failed := telemetry.StartServiceSpan(context.Background(), "Test", "Failed")
	telemetry.RecordError(failed, errors.New("connection refused"))
	failed.End()

	_, ok := telemetry.StartServiceSpan(context.Background(), "Test", "OK")
	telemetry.RecordError(ok, nil)
	telemetry.SetOK(ok)
	ok.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "connection refused", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, codes.Ok, spans[1].Status().Code)
	assert.Empty(t, spans[1].Events())
}

func TestHelpers_NilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "k", "v")
		telemetry.RecordError(nil, errors.New("x"))
		telemetry.SetOK(nil)
	})
}
