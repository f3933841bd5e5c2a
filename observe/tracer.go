package observe

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/resourcecache/deferred"
)

// Operation names used in ResourceMeta.
const (
	OperationLoad    = "load"
	OperationRefresh = "refresh"
	OperationUpdate  = "update"
)

// ResourceMeta describes one resource operation for telemetry purposes.
type ResourceMeta struct {
	Resource  string   // Resource name (required)
	Operation string   // load|refresh|update; empty means load
	Key       string   // Textual form of the key being fetched
	Includes  []string // Requested include flags (optional)
}

func (m ResourceMeta) operation() string {
	if m.Operation == "" {
		return OperationLoad
	}
	return m.Operation
}

// SpanName returns the deterministic span name for this operation.
// Format: resource.<operation>.<resource>
func (m ResourceMeta) SpanName() string {
	return "resource." + m.operation() + "." + m.Resource
}

// Validate checks the required fields.
func (m ResourceMeta) Validate() error {
	if m.Resource == "" {
		return ErrMissingResourceName
	}
	return nil
}

// Tracer wraps OpenTelemetry tracing with resource-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a resource operation.
	StartSpan(ctx context.Context, meta ResourceMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta ResourceMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("resource.name", meta.Resource),
		attribute.String("resource.operation", meta.operation()),
		attribute.Bool("resource.error", false),
	}
	if meta.Key != "" {
		attrs = append(attrs, attribute.String("resource.key", meta.Key))
	}
	if len(meta.Includes) > 0 {
		attrs = append(attrs, attribute.StringSlice("resource.includes", meta.Includes))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan ends the span. Cancellations are recorded as an event, not an error.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case isCancellation(err):
		span.AddEvent("cancelled")
	default:
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("resource.error", true))
		span.RecordError(err)
	}
	span.End()
}

func isCancellation(err error) bool {
	return deferred.IsCancelled(err) || errors.Is(err, context.Canceled)
}

type noopTracer struct {
	noop trace.Tracer
}

// NewNoopTracer creates a Tracer that records nothing.
func NewNoopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta ResourceMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ error) {
	span.End()
}
