// Package observability records engine metrics through OpenTelemetry.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/custodia-labs/boardsync/internal/core/domain"
	"github.com/custodia-labs/boardsync/internal/core/ports/driven"
)

// MeterName is the instrumentation scope of every engine instrument.
const MeterName = "github.com/custodia-labs/boardsync"

// Metrics holds the engine's instruments.
type Metrics struct {
	OperationsEnqueued metric.Int64Counter
	OperationsReplaced metric.Int64Counter
	OperationOutcomes  metric.Int64Counter
	PassesTotal        metric.Int64Counter
	PassDuration       metric.Float64Histogram
	QueueDepth         metric.Int64Gauge

	scope attribute.KeyValue
}

var _ driven.SyncMetrics = (*Metrics)(nil)

// NewMetrics creates the instruments on provider. A nil provider uses the
// global one, which is a no-op until the host installs an SDK.
func NewMetrics(provider metric.MeterProvider, scope string) (*Metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(MeterName)

	enqueued, err := meter.Int64Counter(
		"boardsync_operations_enqueued_total",
		metric.WithDescription("Operations appended to the operation log"),
	)
	if err != nil {
		return nil, err
	}

	replaced, err := meter.Int64Counter(
		"boardsync_operations_replaced_total",
		metric.WithDescription("Operations that replaced a queued operation of the same board and kind"),
	)
	if err != nil {
		return nil, err
	}

	outcomes, err := meter.Int64Counter(
		"boardsync_operation_outcomes_total",
		metric.WithDescription("Per-operation pass outcomes by result"),
	)
	if err != nil {
		return nil, err
	}

	passes, err := meter.Int64Counter(
		"boardsync_passes_total",
		metric.WithDescription("Drain passes by trigger and success"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"boardsync_pass_duration",
		metric.WithDescription("Drain pass duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	depth, err := meter.Int64Gauge(
		"boardsync_queue_depth",
		metric.WithDescription("Operations waiting in the operation log"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		OperationsEnqueued: enqueued,
		OperationsReplaced: replaced,
		OperationOutcomes:  outcomes,
		PassesTotal:        passes,
		PassDuration:       duration,
		QueueDepth:         depth,
		scope:              attribute.String("scope", scope),
	}, nil
}

// RecordEnqueue counts an operation entering the log.
func (m *Metrics) RecordEnqueue(ctx context.Context, kind domain.OperationKind, replaced bool) {
	attrs := metric.WithAttributes(m.scope, attribute.String("kind", string(kind)))
	if replaced {
		m.OperationsReplaced.Add(ctx, 1, attrs)
		return
	}
	m.OperationsEnqueued.Add(ctx, 1, attrs)
}

// RecordPass records the counters and duration of a drain pass.
func (m *Metrics) RecordPass(ctx context.Context, result domain.PassResult) {
	trigger := attribute.String("trigger", string(result.Trigger))

	m.PassesTotal.Add(ctx, 1, metric.WithAttributes(m.scope, trigger, attribute.Bool("success", result.Success())))
	m.PassDuration.Record(ctx, result.Duration().Seconds(), metric.WithAttributes(m.scope, trigger))

	for _, outcome := range []struct {
		name  string
		count int
	}{
		{"succeeded", result.Succeeded},
		{"failed", result.Failed},
		{"dropped", result.Dropped},
		{"skipped", result.Skipped},
	} {
		if outcome.count == 0 {
			continue
		}
		m.OperationOutcomes.Add(ctx, int64(outcome.count),
			metric.WithAttributes(m.scope, attribute.String("result", outcome.name)))
	}
}

// RecordQueueDepth reports the current operation log length.
func (m *Metrics) RecordQueueDepth(ctx context.Context, depth int) {
	m.QueueDepth.Record(ctx, int64(depth), metric.WithAttributes(m.scope))
}
