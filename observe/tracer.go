package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// QueryMeta describes one collaborator call for telemetry purposes.
type QueryMeta struct {
	Name      string // logical query name, usually the first key element
	Key       string // canonical store key
	Documents int    // number of documents in the request
	Forced    bool   // true for an explicit refetch
}

// Label returns Name, or "anonymous" when the query has no name.
func (m QueryMeta) Label() string {
	if m.Name == "" {
		return "anonymous"
	}
	return m.Name
}

// SpanName returns the deterministic span name for this query.
// Format: query.fetch.<name>
func (m QueryMeta) SpanName() string {
	return "query.fetch." + m.Label()
}

// Tracer wraps OpenTelemetry tracing with query-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	StartSpan(ctx context.Context, meta QueryMeta) (context.Context, trace.Span)
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a client span with the query metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta QueryMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("query.name", meta.Label()),
		attribute.Int("query.documents", meta.Documents),
		attribute.Bool("query.forced", meta.Forced),
		attribute.Bool("query.error", false),
	}
	if meta.Key != "" {
		attrs = append(attrs, attribute.String("query.key", meta.Key))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("query.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta QueryMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ error) {
	span.End()
}
