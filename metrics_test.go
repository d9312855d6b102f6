package ygggo_db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *metric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	rm := metricdata.ResourceMetrics{}
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMetrics_SQLite_QueriesAndConnects(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))

	a := &Accessor{}
	a.SetMeterProvider(provider)
	require.NoError(t, a.Setup(context.Background(), Config{
		Driver:  DriverSQLite,
		Name:    ":memory:",
		Metrics: MetricsConfig{Enabled: true},
	}))
	defer a.Close()

	ctx := context.Background()
	_, err := a.QuerySelect(ctx, "SELECT 1 AS one")
	require.NoError(t, err)
	_, err = a.QuerySelectSingle(ctx, "SELECT 1 WHERE 1=0")
	require.ErrorIs(t, err, ErrNoRows)
	_, err = a.QueryInsert(ctx, "INSERT INTO missing(x) VALUES(1)")
	require.Error(t, err)

	metrics := collect(t, reader)
	for _, name := range []string{
		"ygggo_db_connects_total",
		"ygggo_db_connect_duration_seconds",
		"ygggo_db_queries_total",
		"ygggo_db_query_duration_seconds",
	} {
		if _, ok := metrics[name]; !ok { t.Fatalf("metric %s not found", name) }
	}

	sum, ok := metrics["ygggo_db_queries_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	byStatus := map[string]int64{}
	for _, dp := range sum.DataPoints {
		st, _ := dp.Attributes.Value(attribute.Key("status"))
		byStatus[st.AsString()] += dp.Value
	}
	assert.Equal(t, int64(1), byStatus["success"])
	assert.Equal(t, int64(1), byStatus["no_rows"])
	assert.Equal(t, int64(1), byStatus["execution"])
}

func TestMetrics_DisabledByDefault(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))

	a := newSQLiteAccessor(t, Config{})
	a.SetMeterProvider(provider)
	_, err := a.QuerySelect(context.Background(), "SELECT 1")
	require.NoError(t, err)

	assert.Empty(t, collect(t, reader))
}
