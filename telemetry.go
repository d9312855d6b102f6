package ygggo_db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName    = "github.com/yggai/ygggo_db"
	instrumentationVersion = "v0.1.0"
)

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	// Enabled adds an accessor-level span per call and driver-level spans
	// from otelsql for connections opened by Setup.
	Enabled bool `mapstructure:"enabled"`
}

// EnableTelemetry enables or disables OpenTelemetry tracing for this accessor
func (a *Accessor) EnableTelemetry(enabled bool) {
	if a == nil { return }
	a.telemetryEnabled = enabled
}

// SetTracerProvider sets the provider spans are created from. Without one the
// global provider is used.
func (a *Accessor) SetTracerProvider(tp trace.TracerProvider) {
	if a == nil { return }
	a.tracerProvider = tp
}

func (a *Accessor) otelTracerProvider() trace.TracerProvider {
	if a.tracerProvider != nil {
		return a.tracerProvider
	}
	return otel.GetTracerProvider()
}

// startSpan creates a new span with common database attributes
func (a *Accessor) startSpan(ctx context.Context, operation string, query string) (context.Context, trace.Span) {
	if a == nil || !a.telemetryEnabled {
		return ctx, trace.SpanFromContext(ctx)
	}

	tracer := a.otelTracerProvider().Tracer(instrumentationName, trace.WithInstrumentationVersion(instrumentationVersion))
	ctx, span := tracer.Start(ctx, fmt.Sprintf("ygggo_db.%s", operation), trace.WithSpanKind(trace.SpanKindClient))

	span.SetAttributes(
		attribute.String("db.system", a.cfg.driverName()),
		attribute.String("db.operation", operation),
	)
	if a.cfg.Name != "" {
		span.SetAttributes(attribute.String("db.name", a.cfg.Name))
	}
	if query != "" {
		span.SetAttributes(attribute.String("db.statement", query))
	}
	return ctx, span
}

// finishSpan completes a span with error handling
func (a *Accessor) finishSpan(span trace.Span, err error) {
	if a == nil || !a.telemetryEnabled {
		return
	}

	if err != nil {
		if kind, _ := KindOf(err); kind == KindNoRows {
			span.SetStatus(codes.Ok, "")
			span.SetAttributes(attribute.Bool("db.empty_result", true))
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// openInstrumented opens the database through otelsql so every driver call
// gets its own span under the accessor span.
func (a *Accessor) openInstrumented(driverName, dsn string) (*sql.DB, error) {
	return otelsql.Open(driverName, dsn,
		otelsql.WithTracerProvider(a.otelTracerProvider()),
		otelsql.WithAttributes(attribute.String("db.system", driverName)),
	)
}
