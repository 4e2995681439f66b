package observe

import (
	"context"
	"time"
)

// Middleware instruments remote fetches with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Run is safe for concurrent use.
//   - Context: the span context is passed to fn.
//   - Errors: errors from fn are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NopTracer()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// MiddlewareFromObserver builds a Middleware from an Observer.
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

// Run executes fn inside a span and records its outcome.
func (m *Middleware) Run(ctx context.Context, meta Meta, fn func(context.Context) error) error {
	ctx, span := m.tracer.StartSpan(ctx, meta)
	start := time.Now()

	err := fn(ctx)

	duration := time.Since(start)
	m.tracer.EndSpan(span, err)
	m.metrics.RecordFetch(ctx, meta, duration, err)

	log := m.logger.WithStore(meta)
	fields := []Field{F("duration_ms", float64(duration.Milliseconds()))}
	if err != nil {
		log.Error(ctx, "fetch failed", append(fields, F("error", err))...)
	} else {
		log.Debug(ctx, "fetch completed", fields...)
	}

	return err
}
