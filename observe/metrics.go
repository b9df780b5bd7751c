package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records query cache and fetch metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordFetch records one collaborator round trip (all documents of a request).
	RecordFetch(ctx context.Context, meta QueryMeta, duration time.Duration, err error)

	// RecordLookup records a store lookup outcome.
	RecordLookup(ctx context.Context, meta QueryMeta, hit bool)
}

type metricsImpl struct {
	fetchTotal    metric.Int64Counter
	fetchErrors   metric.Int64Counter
	fetchDuration metric.Float64Histogram
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
}

// NewMetrics creates the query instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	m, err := newMetrics(meter)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	m := &metricsImpl{}
	var err error

	if m.fetchTotal, err = meter.Int64Counter(
		"query.fetch.total",
		metric.WithDescription("Total number of storefront fetches"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}

	if m.fetchErrors, err = meter.Int64Counter(
		"query.fetch.errors",
		metric.WithDescription("Total number of failed storefront fetches"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}

	if m.fetchDuration, err = meter.Float64Histogram(
		"query.fetch.duration_ms",
		metric.WithDescription("Storefront fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.cacheHits, err = meter.Int64Counter(
		"query.cache.hits",
		metric.WithDescription("Queries answered from the store"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return nil, err
	}

	if m.cacheMisses, err = meter.Int64Counter(
		"query.cache.misses",
		metric.WithDescription("Queries that required a fetch"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metricsImpl) RecordFetch(ctx context.Context, meta QueryMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(
		attribute.String("query.name", meta.Label()),
		attribute.Bool("query.forced", meta.Forced),
	)

	m.fetchTotal.Add(ctx, 1, opt)
	if err != nil {
		m.fetchErrors.Add(ctx, 1, opt)
	}
	m.fetchDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordLookup(ctx context.Context, meta QueryMeta, hit bool) {
	opt := metric.WithAttributes(attribute.String("query.name", meta.Label()))
	if hit {
		m.cacheHits.Add(ctx, 1, opt)
		return
	}
	m.cacheMisses.Add(ctx, 1, opt)
}

type noopMetrics struct{}

func (noopMetrics) RecordFetch(context.Context, QueryMeta, time.Duration, error) {}
func (noopMetrics) RecordLookup(context.Context, QueryMeta, bool)                {}
