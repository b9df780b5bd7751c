package query

import (
	"context"
	"testing"
)

func BenchmarkQuery_CacheHit(b *testing.B) {
	f := newFakeFetcher().respond("doc", map[string]any{"title": "Widget"})
	c, _ := NewClient(f)
	ctx := context.Background()
	key := Key{"product", map[string]any{"id": "123", "first": 20}}

	h := c.Query(ctx, key, Single("doc"))
	if _, err := h.Wait(ctx); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Query(ctx, key, Single("doc"))
	}
}

func BenchmarkQuery_Refetch(b *testing.B) {
	f := newFakeFetcher().respond("doc", 1)
	c, _ := NewClient(f)
	ctx := context.Background()
	h := c.Query(ctx, Key{"product", "1"}, Single("doc"))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.Refetch()
		if _, err := h.Wait(ctx); err != nil {
			b.Fatal(err)
		}
	}
}
