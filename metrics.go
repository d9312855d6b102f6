package ygggo_db

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricsInstrumentationName = "github.com/yggai/ygggo_db"
)

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Metrics holds all the metric instruments
type Metrics struct {
	connectsTotal   metric.Int64Counter
	connectDuration metric.Float64Histogram

	queriesTotal  metric.Int64Counter
	queryDuration metric.Float64Histogram
}

// EnableMetrics enables or disables metrics collection for this accessor
func (a *Accessor) EnableMetrics(enabled bool) {
	if a == nil { return }
	a.metricsEnabled = enabled
	if enabled && a.metrics == nil {
		a.initMetrics()
	}
}

// SetMeterProvider sets a custom meter provider for metrics
func (a *Accessor) SetMeterProvider(provider metric.MeterProvider) {
	if a == nil { return }
	a.meterProvider = provider
	if a.metricsEnabled {
		a.initMetrics()
	}
}

// initMetrics initializes all metric instruments
func (a *Accessor) initMetrics() {
	if a == nil { return }

	var meter metric.Meter
	if a.meterProvider != nil {
		meter = a.meterProvider.Meter(metricsInstrumentationName)
	} else {
		meter = otel.Meter(metricsInstrumentationName)
	}

	a.metrics = &Metrics{}

	a.metrics.connectsTotal, _ = meter.Int64Counter(
		"ygggo_db_connects_total",
		metric.WithDescription("Total number of Setup connect attempts"),
	)

	a.metrics.connectDuration, _ = meter.Float64Histogram(
		"ygggo_db_connect_duration_seconds",
		metric.WithDescription("Duration of Setup connect attempts"),
		metric.WithUnit("s"),
	)

	a.metrics.queriesTotal, _ = meter.Int64Counter(
		"ygggo_db_queries_total",
		metric.WithDescription("Total number of accessor query calls"),
	)

	a.metrics.queryDuration, _ = meter.Float64Histogram(
		"ygggo_db_query_duration_seconds",
		metric.WithDescription("Duration of accessor query calls"),
		metric.WithUnit("s"),
	)
}

func metricStatus(err error) string {
	if err == nil {
		return "success"
	}
	if kind, ok := KindOf(err); ok {
		return kind.String()
	}
	return "error"
}

// recordConnect records a Setup connect attempt
func (a *Accessor) recordConnect(ctx context.Context, duration time.Duration, err error) {
	if a == nil || !a.metricsEnabled || a.metrics == nil { return }

	attrs := metric.WithAttributes(
		attribute.String("driver", a.cfg.driverName()),
		attribute.String("status", metricStatus(err)),
	)
	a.metrics.connectsTotal.Add(ctx, 1, attrs)
	a.metrics.connectDuration.Record(ctx, duration.Seconds(), attrs)
}

// recordQuery records query execution metrics
func (a *Accessor) recordQuery(ctx context.Context, operation string, duration time.Duration, err error) {
	if a == nil || !a.metricsEnabled || a.metrics == nil { return }

	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", metricStatus(err)),
	)
	a.metrics.queriesTotal.Add(ctx, 1, attrs)
	a.metrics.queryDuration.Record(ctx, duration.Seconds(), attrs)
}
