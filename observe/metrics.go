package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records resource load metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordLoad records one fetch with its duration and outcome.
	RecordLoad(ctx context.Context, meta ResourceMeta, duration time.Duration, err error)

	// RecordJoin records a caller that joined an in-flight fetch.
	RecordJoin(ctx context.Context, meta ResourceMeta)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	joinCount    metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates a Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"resource.load.total",
		metric.WithDescription("Total number of resource fetches"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"resource.load.errors",
		metric.WithDescription("Total number of failed resource fetches"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	joinCount, err := meter.Int64Counter(
		"resource.load.joined",
		metric.WithDescription("Callers served by an already running fetch"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"resource.load.duration_ms",
		metric.WithDescription("Resource fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		joinCount:    joinCount,
		durationHist: durationHist,
	}, nil
}

func metaAttributes(meta ResourceMeta) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("resource.name", meta.Resource),
		attribute.String("resource.operation", meta.operation()),
	)
}

func (m *metricsImpl) RecordLoad(ctx context.Context, meta ResourceMeta, duration time.Duration, err error) {
	opt := metaAttributes(meta)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil && !isCancellation(err) {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordJoin(ctx context.Context, meta ResourceMeta) {
	m.joinCount.Add(ctx, 1, metaAttributes(meta))
}

type noopMetrics struct{}

// NewNoopMetrics creates a Metrics that records nothing.
func NewNoopMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) RecordLoad(context.Context, ResourceMeta, time.Duration, error) {}
func (noopMetrics) RecordJoin(context.Context, ResourceMeta)                      {}
