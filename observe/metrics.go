package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics records store and fetch activity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordLookup records a cache read and whether it hit.
	RecordLookup(ctx context.Context, meta Meta, hit bool)

	// RecordMutation records a save, load or reset on a store.
	RecordMutation(ctx context.Context, meta Meta)

	// RecordTruncation records how many items were dropped from an oversized load.
	RecordTruncation(ctx context.Context, meta Meta, dropped int)

	// RecordFetch records a remote fetch with duration and error status.
	RecordFetch(ctx context.Context, meta Meta, duration time.Duration, err error)
}

type otelMetrics struct {
	lookups    metric.Int64Counter
	mutations  metric.Int64Counter
	truncated  metric.Int64Counter
	fetchTotal metric.Int64Counter
	fetchErrs  metric.Int64Counter
	fetchDur   metric.Float64Histogram
}

// NewMetrics creates Metrics backed by the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	m := &otelMetrics{}
	var err error

	if m.lookups, err = meter.Int64Counter(
		"liststore.cache.lookups",
		metric.WithDescription("Cache lookups, labelled by hit"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return nil, err
	}
	if m.mutations, err = meter.Int64Counter(
		"liststore.store.mutations",
		metric.WithDescription("Store mutations (save, load, reset)"),
		metric.WithUnit("{mutation}"),
	); err != nil {
		return nil, err
	}
	if m.truncated, err = meter.Int64Counter(
		"liststore.tags.truncated",
		metric.WithDescription("Items dropped because a load exceeded the store limit"),
		metric.WithUnit("{item}"),
	); err != nil {
		return nil, err
	}
	if m.fetchTotal, err = meter.Int64Counter(
		"liststore.fetch.total",
		metric.WithDescription("Remote list fetches"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}
	if m.fetchErrs, err = meter.Int64Counter(
		"liststore.fetch.errors",
		metric.WithDescription("Failed remote list fetches"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}
	if m.fetchDur, err = meter.Float64Histogram(
		"liststore.fetch.duration_ms",
		metric.WithDescription("Remote list fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// NopMetrics returns Metrics that record nothing.
func NopMetrics() Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter("noop"))
	return m
}

func (m *otelMetrics) RecordLookup(ctx context.Context, meta Meta, hit bool) {
	attrs := append(meta.attributes(), attribute.Bool("cache.hit", hit))
	m.lookups.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *otelMetrics) RecordMutation(ctx context.Context, meta Meta) {
	m.mutations.Add(ctx, 1, metric.WithAttributes(meta.attributes()...))
}

func (m *otelMetrics) RecordTruncation(ctx context.Context, meta Meta, dropped int) {
	if dropped <= 0 {
		return
	}
	m.truncated.Add(ctx, int64(dropped), metric.WithAttributes(meta.attributes()...))
}

func (m *otelMetrics) RecordFetch(ctx context.Context, meta Meta, duration time.Duration, err error) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.fetchTotal.Add(ctx, 1, opt)
	if err != nil {
		m.fetchErrs.Add(ctx, 1, opt)
	}
	m.fetchDur.Record(ctx, float64(duration.Milliseconds()), opt)
}
