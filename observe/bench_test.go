package observe

import (
	"context"
	"io"
	"testing"
)

func BenchmarkMiddleware_WrapNop(b *testing.B) {
	fn := NopMiddleware().Wrap(func(context.Context, QueryMeta) (any, error) { return nil, nil })
	ctx := context.Background()
	meta := QueryMeta{Name: "product", Documents: 1}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = fn(ctx, meta)
	}
}

func BenchmarkLogger_WithQuery(b *testing.B) {
	logger := NewLoggerWithWriter("info", io.Discard)
	ctx := context.Background()
	meta := QueryMeta{Name: "product", Key: "query:product:abcdef", Documents: 1}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.WithQuery(meta).Info(ctx, "lookup", Field{Key: "hit", Value: true})
	}
}
