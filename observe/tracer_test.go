package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newRecordingTracer(t *testing.T) (Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return NewTracer(tp.Tracer("test")), recorder
}

func TestQueryMeta_SpanName(t *testing.T) {
	tests := []struct {
		meta QueryMeta
		want string
	}{
		{QueryMeta{Name: "productVariants"}, "query.fetch.productVariants"},
		{QueryMeta{Name: "video"}, "query.fetch.video"},
		{QueryMeta{}, "query.fetch.anonymous"},
	}
	for _, tt := range tests {
		if got := tt.meta.SpanName(); got != tt.want {
			t.Errorf("SpanName() = %q, want %q", got, tt.want)
		}
	}
}

func TestTracer_SpanAttributes(t *testing.T) {
	tracer, recorder := newRecordingTracer(t)

	_, span := tracer.StartSpan(context.Background(), QueryMeta{
		Name:      "metaobjects",
		Key:       "query:metaobjects:0011",
		Documents: 3,
		Forced:    true,
	})
	tracer.EndSpan(span, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]

	if s.Name() != "query.fetch.metaobjects" {
		t.Errorf("span name = %q", s.Name())
	}
	if s.SpanKind() != trace.SpanKindClient {
		t.Errorf("span kind = %v, want client", s.SpanKind())
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", s.Status().Code)
	}

	attrs := map[string]any{}
	for _, kv := range s.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	want := map[string]any{
		"query.name":      "metaobjects",
		"query.key":       "query:metaobjects:0011",
		"query.documents": int64(3),
		"query.forced":    true,
		"query.error":     false,
	}
	for k, v := range want {
		if attrs[k] != v {
			t.Errorf("attribute %s = %v, want %v", k, attrs[k], v)
		}
	}
}

func TestTracer_EndSpanWithError(t *testing.T) {
	tracer, recorder := newRecordingTracer(t)

	_, span := tracer.StartSpan(context.Background(), QueryMeta{Name: "product"})
	tracer.EndSpan(span, errors.New("storefront unavailable"))

	s := recorder.Ended()[0]
	if s.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", s.Status().Code)
	}
	if s.Status().Description != "storefront unavailable" {
		t.Errorf("status description = %q", s.Status().Description)
	}
	if len(s.Events()) == 0 {
		t.Error("expected a recorded error event")
	}

	var errAttr bool
	for _, kv := range s.Attributes() {
		if kv.Key == "query.error" {
			errAttr = kv.Value.AsBool()
		}
	}
	if !errAttr {
		t.Error("query.error should be true after a failed fetch")
	}
}

func TestNoopTracer(t *testing.T) {
	tracer := newNoopTracer()
	ctx, span := tracer.StartSpan(context.Background(), QueryMeta{Name: "x"})
	if ctx == nil || span == nil {
		t.Fatal("noop tracer returned nil")
	}
	tracer.EndSpan(span, errors.New("ignored"))
}

func spanContextValid(ctx context.Context) bool {
	return trace.SpanContextFromContext(ctx).IsValid()
}
