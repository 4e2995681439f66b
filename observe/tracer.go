package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Tracer wraps OpenTelemetry tracing with store-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan is best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a span for a store operation.
	StartSpan(ctx context.Context, meta Meta) (context.Context, trace.Span)

	// EndSpan ends the span, recording err if non-nil.
	EndSpan(span trace.Span, err error)
}

type otelTracer struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &otelTracer{tracer: t}
}

// NopTracer returns a tracer whose spans are never recorded.
func NopTracer() Tracer {
	return NewTracer(tracenoop.NewTracerProvider().Tracer("noop"))
}

func (t *otelTracer) StartSpan(ctx context.Context, meta Meta) (context.Context, trace.Span) {
	attrs := meta.attributes()
	if meta.Key != "" {
		attrs = append(attrs, attribute.String("query.hash", meta.Key))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func (t *otelTracer) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
