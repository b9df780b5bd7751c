package cache

import (
	"context"
	"fmt"
	"testing"
)

func BenchmarkMemoryStore_Get_Hit(b *testing.B) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.Set(ctx, "query:key", "value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Get(ctx, "query:key")
	}
}

func BenchmarkMemoryStore_Set(b *testing.B) {
	s := NewMemoryStore()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Set(ctx, fmt.Sprintf("query:%d", i), i)
	}
}

func BenchmarkKeyer_Key(b *testing.B) {
	keyer := NewDefaultKeyer()
	parts := []any{
		"productVariants",
		"gid://shopify/Product/123",
		map[string]any{
			"includeProductMetafields": true,
			"productFields":            []any{"id", "title", "handle"},
			"variantFields":            []any{"id", "sku", "price"},
		},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = keyer.Key(parts)
	}
}
