package observe

import (
	"context"
	"time"
)

// FetchFunc is the signature of one collaborator round trip as seen by the
// query client.
type FetchFunc func(ctx context.Context, meta QueryMeta) (any, error)

// Middleware wraps fetches with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap returns a FetchFunc safe for concurrent use.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = noopMetrics{}
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

// NopMiddleware returns a Middleware that records nothing.
func NopMiddleware() *Middleware {
	return NewMiddleware(nil, nil, nil)
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// Wrap wraps fn with a span, fetch metrics and a completion log line.
func (m *Middleware) Wrap(fn FetchFunc) FetchFunc {
	return func(ctx context.Context, meta QueryMeta) (any, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		result, err := fn(ctx, meta)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordFetch(ctx, meta, duration, err)

		fields := []Field{{Key: "duration_ms", Value: float64(duration.Milliseconds())}}
		logger := m.logger.WithQuery(meta)
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			logger.Error(ctx, "query fetch failed", fields...)
		} else {
			logger.Debug(ctx, "query fetch completed", fields...)
		}

		return result, err
	}
}

// RecordLookup reports a store lookup.
func (m *Middleware) RecordLookup(ctx context.Context, meta QueryMeta, hit bool) {
	m.metrics.RecordLookup(ctx, meta, hit)
	m.logger.WithQuery(meta).Debug(ctx, "query cache lookup", Field{Key: "hit", Value: hit})
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
