package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumFor(t *testing.T, m metricdata.Metrics, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	want := attribute.NewSet(attrs...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}
	return 0
}

func TestSyncMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := NewSyncMetrics(provider.Meter(TracerName))
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordSync(ctx, "mews", "bookings", "partial", 4, 1, 2*time.Second)
	metrics.RecordSync(ctx, "mews", "bookings", "success", 2, 0, time.Second)
	metrics.RecordWebhook(ctx, "mews", "duplicate")

	got := collect(t, reader)
	base := []attribute.KeyValue{AttrProvider.String("mews"), AttrEntity.String("bookings")}

	runs := got["pms.sync.runs"]
	assert.EqualValues(t, 1, sumFor(t, runs, append(base, AttrOutcome.String("partial"))...))
	assert.EqualValues(t, 1, sumFor(t, runs, append(base, AttrOutcome.String("success"))...))

	records := got["pms.sync.records"]
	assert.EqualValues(t, 6, sumFor(t, records, append(base, AttrResult.String("succeeded"))...))
	assert.EqualValues(t, 1, sumFor(t, records, append(base, AttrResult.String("failed"))...))

	hist, ok := got["pms.sync.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.EqualValues(t, 2, hist.DataPoints[0].Count)
	assert.InDelta(t, 3.0, hist.DataPoints[0].Sum, 0.0001)

	assert.EqualValues(t, 1, sumFor(t, got["pms.webhook.events"], AttrProvider.String("mews"), AttrResult.String("duplicate")))
}

func TestSyncMetrics_NilIsNoop(t *testing.T) {
	var m *SyncMetrics
	assert.NotPanics(t, func() {
		m.RecordSync(context.Background(), "mews", "rooms", "failed", 0, 0, 0)
		m.RecordWebhook(context.Background(), "mews", "rejected")
	})
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), MetricsConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, mp.Meter(TracerName))
	assert.NoError(t, mp.Shutdown(context.Background()))
}
