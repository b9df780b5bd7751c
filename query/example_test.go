package query_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/sfquery/cache"
	"github.com/jonwraymond/sfquery/query"
)

func ExampleClient_Query() {
	calls := 0
	fetcher := query.FetcherFunc(func(ctx context.Context, doc query.Document) (query.Raw, error) {
		calls++
		return map[string]any{"title": "Widget"}, nil
	})

	client, err := query.NewClient(fetcher, query.WithStore(cache.NewMemoryStore()))
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	ctx := context.Background()
	first := client.Query(ctx, query.Key{"product", "123"}, query.Single("doc-A"))
	state, _ := first.Wait(ctx)
	fmt.Println(state.Data)

	// a second call site is answered from the store
	second := client.Query(ctx, query.Key{"product", "123"}, query.Single("doc-A"))
	fmt.Println(second.State().Data, second.State().IsLoading, calls)
	// Output:
	// map[title:Widget]
	// map[title:Widget] false 1
}

func ExampleHandle_Refetch() {
	version := 0
	fetcher := query.FetcherFunc(func(ctx context.Context, doc query.Document) (query.Raw, error) {
		version++
		return version, nil
	})
	client, _ := query.NewClient(fetcher)
	ctx := context.Background()

	h := client.Query(ctx, query.Key{"shop"}, query.Single("shop { name }"))
	s, _ := h.Wait(ctx)
	fmt.Println(s.Data)

	h.Refetch()
	s, _ = h.Wait(ctx)
	fmt.Println(s.Data)
	// Output:
	// 1
	// 2
}

func ExampleBatch() {
	fetcher := query.FetcherFunc(func(ctx context.Context, doc query.Document) (query.Raw, error) {
		return "result of " + string(doc), nil
	})
	client, _ := query.NewClient(fetcher)
	ctx := context.Background()

	h := client.Query(ctx, query.Key{"metaobjects", "holster"}, query.Batch("a", "b"))
	s, _ := h.Wait(ctx)
	fmt.Println(s.Data)
	// Output: [result of a result of b]
}

func ExampleWithEnabled() {
	fetcher := query.FetcherFunc(func(ctx context.Context, doc query.Document) (query.Raw, error) {
		panic("never called")
	})
	client, _ := query.NewClient(fetcher)

	h := client.Query(context.Background(), query.Key{"video"}, query.Single("doc"), query.WithEnabled(false))
	fmt.Printf("%+v\n", h.State())
	// Output: {IsLoading:false IsError:false Err:<nil> Data:<nil>}
}
