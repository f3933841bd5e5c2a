package observe

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LoadFunc is the signature of a resource fetch.
type LoadFunc func(ctx context.Context, meta ResourceMeta) error

// Middleware wraps resource fetches with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe LoadFunc.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
// Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NewNoopTracer()
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// Wrap wraps a LoadFunc with tracing, metrics, and logging.
func (m *Middleware) Wrap(fn LoadFunc) LoadFunc {
	return func(ctx context.Context, meta ResourceMeta) error {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		logger := m.logger.WithResource(meta)
		loadID := uuid.NewString()

		logger.Debug(ctx, "resource fetch started", Field{Key: "load.id", Value: loadID})

		start := time.Now()
		err := fn(ctx, meta)
		duration := time.Since(start)

		m.tracer.EndSpan(span, err)
		m.metrics.RecordLoad(ctx, meta, duration, err)

		fields := []Field{
			{Key: "load.id", Value: loadID},
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}

		switch {
		case err == nil:
			logger.Debug(ctx, "resource fetch completed", fields...)
		case isCancellation(err):
			logger.Debug(ctx, "resource fetch cancelled", fields...)
		default:
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			logger.Error(ctx, "resource fetch failed", fields...)
		}

		return err
	}
}

// Joined records a caller that was served by an in-flight fetch.
func (m *Middleware) Joined(ctx context.Context, meta ResourceMeta) {
	m.metrics.RecordJoin(ctx, meta)
	m.logger.WithResource(meta).Debug(ctx, "joined in-flight fetch")
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
