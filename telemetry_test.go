package ygggo_db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func spanAttr(span tracetest.SpanStub, key string) (string, bool) {
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			return attr.Value.Emit(), true
		}
	}
	return "", false
}

func TestTelemetry_QuerySpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(trace.WithSyncer(exporter))

	a := &Accessor{}
	a.SetTracerProvider(tp)
	require.NoError(t, a.Setup(context.Background(), Config{
		Driver:    DriverSQLite,
		Name:      ":memory:",
		Telemetry: TelemetryConfig{Enabled: true},
	}))
	defer a.Close()
	exporter.Reset()

	_, err := a.QuerySelect(context.Background(), "SELECT 1 AS one")
	require.NoError(t, err)

	var found *tracetest.SpanStub
	spans := exporter.GetSpans()
	for i := range spans {
		if spans[i].Name == "ygggo_db.query_select" {
			found = &spans[i]
		}
	}
	require.NotNil(t, found, "accessor span missing among %d spans", len(spans))
	assert.Equal(t, codes.Ok, found.Status.Code)

	expectedAttrs := map[string]string{
		"db.system":    "sqlite",
		"db.operation": "query_select",
		"db.statement": "SELECT 1 AS one",
	}
	for key, expected := range expectedAttrs {
		got, ok := spanAttr(*found, key)
		if !ok || got != expected { t.Fatalf("attribute %s=%q want %q", key, got, expected) }
	}

	// otelsql adds driver spans as children of the accessor span
	children := 0
	for _, s := range spans {
		if s.Parent.SpanID() == found.SpanContext.SpanID() {
			children++
		}
	}
	assert.Greater(t, children, 0)
}

func TestTelemetry_ErrorSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(trace.WithSyncer(exporter))

	a := newSQLiteAccessor(t, Config{})
	a.SetTracerProvider(tp)
	a.EnableTelemetry(true)

	_, err := a.QueryInsert(context.Background(), "INSERT INTO missing(x) VALUES(?)", 1)
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "ygggo_db.query_insert", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.NotEmpty(t, spans[0].Events)
}

func TestTelemetry_NoRowsIsNotAnErrorSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(trace.WithSyncer(exporter))

	a := newSQLiteAccessor(t, Config{})
	a.SetTracerProvider(tp)
	a.EnableTelemetry(true)

	_, err := a.QuerySelectSingle(context.Background(), "SELECT 1 WHERE 1=0")
	require.ErrorIs(t, err, ErrNoRows)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	v, ok := spanAttr(spans[0], "db.empty_result")
	assert.True(t, ok)
	assert.Equal(t, "true", v)
}

func TestTelemetry_DisabledRecordsNothing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(trace.WithSyncer(exporter))

	a := newSQLiteAccessor(t, Config{})
	a.SetTracerProvider(tp)

	_, err := a.QuerySelect(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Empty(t, exporter.GetSpans())
}
