package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/custodia-labs/boardsync/internal/core/domain"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewMetrics(provider, "ws-1")
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumFor(t *testing.T, data metricdata.Aggregation, key, value string) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum, got %T", data)

	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func TestNewMetrics_GlobalProvider(t *testing.T) {
	m, err := NewMetrics(nil, "ws-1")
	require.NoError(t, err)

	// The global no-op provider accepts recordings silently.
	m.RecordEnqueue(context.Background(), domain.OpUpdate, false)
	m.RecordQueueDepth(context.Background(), 3)
}

func TestMetrics_RecordEnqueue(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordEnqueue(ctx, domain.OpUpdate, false)
	m.RecordEnqueue(ctx, domain.OpUpdate, true)
	m.RecordEnqueue(ctx, domain.OpCreate, false)

	data := collect(t, reader)
	assert.Equal(t, int64(1), sumFor(t, data["boardsync_operations_enqueued_total"], "kind", "update"))
	assert.Equal(t, int64(1), sumFor(t, data["boardsync_operations_enqueued_total"], "kind", "create"))
	assert.Equal(t, int64(1), sumFor(t, data["boardsync_operations_replaced_total"], "kind", "update"))
	assert.Equal(t, int64(3), sumFor(t, data["boardsync_operations_enqueued_total"], "scope", "ws-1")+
		sumFor(t, data["boardsync_operations_replaced_total"], "scope", "ws-1"))
}

func TestMetrics_RecordPass(t *testing.T) {
	m, reader := newTestMetrics(t)
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	m.RecordPass(context.Background(), domain.PassResult{
		Trigger:   domain.TriggerPeriodic,
		StartedAt: start,
		EndedAt:   start.Add(250 * time.Millisecond),
		Attempted: 4,
		Succeeded: 2,
		Failed:    1,
		Dropped:   1,
		Error:     "boom",
	})

	data := collect(t, reader)
	assert.Equal(t, int64(1), sumFor(t, data["boardsync_passes_total"], "trigger", "periodic"))
	assert.Equal(t, int64(2), sumFor(t, data["boardsync_operation_outcomes_total"], "result", "succeeded"))
	assert.Equal(t, int64(1), sumFor(t, data["boardsync_operation_outcomes_total"], "result", "failed"))
	assert.Equal(t, int64(1), sumFor(t, data["boardsync_operation_outcomes_total"], "result", "dropped"))
	assert.Zero(t, sumFor(t, data["boardsync_operation_outcomes_total"], "result", "skipped"))

	passes := data["boardsync_passes_total"].(metricdata.Sum[int64])
	require.Len(t, passes.DataPoints, 1)
	success, ok := passes.DataPoints[0].Attributes.Value("success")
	require.True(t, ok)
	assert.False(t, success.AsBool())

	hist, ok := data["boardsync_pass_duration"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.InDelta(t, 0.25, hist.DataPoints[0].Sum, 1e-9)
}

func TestMetrics_RecordQueueDepth(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordQueueDepth(ctx, 5)
	m.RecordQueueDepth(ctx, 2)

	gauge, ok := collect(t, reader)["boardsync_queue_depth"].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(2), gauge.DataPoints[0].Value, "gauge keeps the last value")
}
