package query

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/jonwraymond/sfquery/cache"
)

func TestRefetch_ExactlyOneFetchAndOverwrite(t *testing.T) {
	f := newFakeFetcher().respond("doc", "v1")
	store := cache.NewMemoryStore()
	c := newTestClient(t, f, WithStore(store))
	ctx := context.Background()
	key := Key{"product", "1"}

	h := c.Query(ctx, key, Single("doc"))
	waitState(t, h)

	f.respond("doc", "v2")
	h.Refetch()
	if s := h.State(); !s.IsLoading || s.Data != "v1" {
		t.Fatalf("state during refetch = %+v, want loading with previous data", s)
	}

	s := waitState(t, h)
	if s.Data != "v2" {
		t.Fatalf("data = %v, want v2", s.Data)
	}
	if n := f.count("doc"); n != 2 {
		t.Fatalf("fetcher called %d times, want 2", n)
	}
	if entry, ok := store.Get(ctx, h.Key()); !ok || entry.Value != "v2" {
		t.Fatalf("store entry = %+v, want v2", entry)
	}
}

func TestRefetch_OtherHandlesKeepTheirState(t *testing.T) {
	f := newFakeFetcher().respond("doc", "v1")
	c := newTestClient(t, f)
	ctx := context.Background()
	key := Key{"product", "1"}

	a := c.Query(ctx, key, Single("doc"))
	waitState(t, a)
	b := c.Query(ctx, key, Single("doc"))

	f.respond("doc", "v2")
	a.Refetch()
	waitState(t, a)

	if s := b.State(); s.Data != "v1" {
		t.Fatalf("other handle data = %v, want v1 until re-evaluated", s.Data)
	}

	// a fresh evaluation at another call site picks up the new entry
	if s := c.Query(ctx, key, Single("doc")).State(); s.Data != "v2" {
		t.Fatalf("new handle data = %v, want v2", s.Data)
	}
}

func TestRefetch_BypassesInFlight(t *testing.T) {
	f := newFakeFetcher().respond("doc", "v")
	gate := f.gate("doc")
	c := newTestClient(t, f)
	ctx := context.Background()

	h := c.Query(ctx, Key{"product", "1"}, Single("doc"))
	waitCalls(t, f, "doc", 1)

	h.Refetch()
	waitCalls(t, f, "doc", 2)
	close(gate)

	if s := waitState(t, h); s.Data != "v" {
		t.Fatalf("state = %+v", s)
	}
}

func TestRefetch_FailureKeepsCacheEntry(t *testing.T) {
	f := newFakeFetcher().respond("doc", "v1")
	store := cache.NewMemoryStore()
	c := newTestClient(t, f, WithStore(store))
	ctx := context.Background()

	h := c.Query(ctx, Key{"product", "1"}, Single("doc"))
	waitState(t, h)

	f.fail("doc", errors.New("down"))
	h.Refetch()
	s := waitState(t, h)
	if !s.IsError || s.Data != nil {
		t.Fatalf("state = %+v, want error without data", s)
	}
	if entry, ok := store.Get(ctx, h.Key()); !ok || entry.Value != "v1" {
		t.Fatalf("store entry = %+v, want previous value kept", entry)
	}
}

func TestUpdate_StaleResponseSuppressed(t *testing.T) {
	f := newFakeFetcher().respond("old", "old-data").respond("new", "new-data")
	oldGate := f.gate("old")
	newGate := f.gate("new")
	store := cache.NewMemoryStore()
	logOpt, logs := withDebugLog()
	c := newTestClient(t, f, WithStore(store), logOpt)
	ctx := context.Background()

	h := c.Query(ctx, Key{"product", "old"}, Single("old"))
	oldKey := h.Key()
	waitCalls(t, f, "old", 1)

	h.Update(Key{"product", "new"}, Single("new"))
	waitCalls(t, f, "new", 1)

	close(newGate)
	if s := waitState(t, h); s.Data != "new-data" {
		t.Fatalf("state = %+v, want new-data", s)
	}

	close(oldGate)
	waitDiscarded(t, logs, 1)

	if s := h.State(); s.Data != "new-data" || s.IsLoading {
		t.Fatalf("final state = %+v, stale result leaked", s)
	}
	if _, ok := store.Get(ctx, oldKey); ok {
		t.Fatal("stale result must not be written to the store")
	}
}

func TestUpdate_StaleErrorSuppressed(t *testing.T) {
	f := newFakeFetcher().fail("old", errors.New("late failure")).respond("new", "ok")
	oldGate := f.gate("old")
	logOpt, logs := withDebugLog()
	c := newTestClient(t, f, logOpt)

	h := c.Query(context.Background(), Key{"product", "old"}, Single("old"))
	waitCalls(t, f, "old", 1)
	h.Update(Key{"product", "new"}, Single("new"))
	waitState(t, h)

	close(oldGate)
	waitDiscarded(t, logs, 1)

	if s := h.State(); s.IsError || s.Data != "ok" {
		t.Fatalf("state = %+v, stale error leaked", s)
	}
}

func TestUpdate_UnchangedKeyIsNoop(t *testing.T) {
	f := newFakeFetcher().respond("doc", "v")
	c := newTestClient(t, f)

	h := c.Query(context.Background(), Key{"product", map[string]any{"a": 1, "b": 2}}, Single("doc"))
	waitState(t, h)
	changed := h.Changed()

	h.Update(Key{"product", map[string]any{"b": 2, "a": 1}}, Single("doc"))

	select {
	case <-changed:
		t.Fatal("unchanged key should not re-evaluate")
	default:
	}
	if n := f.count("doc"); n != 1 {
		t.Fatalf("fetcher called %d times, want 1", n)
	}
}

func TestUpdate_RequestChangeAloneIsIgnored(t *testing.T) {
	f := newFakeFetcher().respond("doc-A", "a").respond("doc-B", "b")
	c := newTestClient(t, f)

	h := c.Query(context.Background(), Key{"product", "1"}, Single("doc-A"))
	waitState(t, h)

	h.Update(Key{"product", "1"}, Single("doc-B"))
	if s := h.State(); s.Data != "a" {
		t.Fatalf("state = %+v, want unchanged", s)
	}

	// the new request is used by the next forced evaluation
	h.Refetch()
	if s := waitState(t, h); s.Data != "b" {
		t.Fatalf("state after refetch = %+v, want b", s)
	}
}

func TestUpdate_EnableAndDisable(t *testing.T) {
	f := newFakeFetcher().respond("doc", "v")
	c := newTestClient(t, f)
	key := Key{"video", "v1"}

	h := c.Query(context.Background(), key, Single("doc"), WithEnabled(false))
	if s := h.State(); s != (State{}) {
		t.Fatalf("disabled state = %+v", s)
	}

	h.Update(key, Single("doc"))
	if s := waitState(t, h); s.Data != "v" {
		t.Fatalf("enabled state = %+v", s)
	}

	h.Update(key, Single("doc"), WithEnabled(false))
	if s := h.State(); s != (State{}) {
		t.Fatalf("re-disabled state = %+v, want zero", s)
	}
	if n := f.count("doc"); n != 1 {
		t.Fatalf("fetcher called %d times, want 1", n)
	}
}

func TestUpdate_DisableDiscardsInFlight(t *testing.T) {
	f := newFakeFetcher().respond("doc", "v")
	gate := f.gate("doc")
	logOpt, logs := withDebugLog()
	c := newTestClient(t, f, logOpt)
	key := Key{"video", "v1"}

	h := c.Query(context.Background(), key, Single("doc"))
	waitCalls(t, f, "doc", 1)
	h.Update(key, Single("doc"), WithEnabled(false))

	close(gate)
	waitDiscarded(t, logs, 1)

	if s := h.State(); s != (State{}) {
		t.Fatalf("state = %+v, want zero", s)
	}
}

func TestClose_DiscardsLateResult(t *testing.T) {
	f := newFakeFetcher().respond("doc", "v")
	gate := f.gate("doc")
	store := cache.NewMemoryStore()
	logOpt, logs := withDebugLog()
	c := newTestClient(t, f, WithStore(store), logOpt)
	ctx := context.Background()

	h := c.Query(ctx, Key{"product", "1"}, Single("doc"))
	waitCalls(t, f, "doc", 1)
	h.Close()

	select {
	case <-h.Changed():
	default:
		t.Fatal("Close should release waiters")
	}
	if _, err := h.Wait(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("Wait() after Close = %v, want ErrClosed", err)
	}

	close(gate)
	waitDiscarded(t, logs, 1)

	if s := h.State(); !s.IsLoading || s.Data != nil {
		t.Fatalf("state = %+v, closed handle must not be updated", s)
	}
	if store.Len() != 0 {
		t.Fatal("late result of a closed handle must not be stored")
	}

	h.Refetch()
	h.Update(Key{"product", "2"}, Single("doc"))
	h.Close()
	if n := f.count("doc"); n != 1 {
		t.Fatalf("fetcher called %d times after Close, want 1", n)
	}
}

func TestBatch_PositionalResults(t *testing.T) {
	f := newFakeFetcher().respond("a", "A").respond("b", "B").respond("c", "C")
	// resolve out of order
	gateA := f.gate("a")
	c := newTestClient(t, f)

	h := c.Query(context.Background(), Key{"metaobjects"}, Batch("a", "b", "c"))
	waitCalls(t, f, "b", 1)
	waitCalls(t, f, "c", 1)
	close(gateA)

	s := waitState(t, h)
	want := []any{"A", "B", "C"}
	if !reflect.DeepEqual(s.Data, want) {
		t.Fatalf("data = %v, want %v", s.Data, want)
	}
}

func TestBatch_AllOrNothing(t *testing.T) {
	f := newFakeFetcher().respond("a", "A").fail("b", errors.New("b failed")).respond("c", "C")
	store := cache.NewMemoryStore()
	c := newTestClient(t, f, WithStore(store))

	h := c.Query(context.Background(), Key{"metaobjects"}, Batch("a", "b", "c"))
	s := waitState(t, h)

	if !s.IsError || s.Data != nil {
		t.Fatalf("state = %+v, want error without data", s)
	}
	var te *TransportError
	if !errors.As(s.Err, &te) || te.Index != 1 {
		t.Fatalf("error = %v, want transport error at index 1", s.Err)
	}
	if store.Len() != 0 {
		t.Fatal("partial batch must not be cached")
	}
}

func TestBatch_ShapeErrorIndex(t *testing.T) {
	f := newFakeFetcher().respond("a", "ok").respond("b", "bad")
	shaper := ShaperFunc(func(raw Raw) (any, error) {
		if raw == "bad" {
			return nil, errors.New("bad payload")
		}
		return raw, nil
	})
	c := newTestClient(t, f, WithShaper(shaper))

	s := waitState(t, c.Query(context.Background(), Key{"x"}, Batch("a", "b")))
	var se *ShapeError
	if !errors.As(s.Err, &se) || se.Index != 1 {
		t.Fatalf("error = %v, want shape error at index 1", s.Err)
	}
}

func TestBatch_Empty(t *testing.T) {
	f := newFakeFetcher()
	c := newTestClient(t, f)

	s := waitState(t, c.Query(context.Background(), Key{"empty"}, Batch()))
	if got, ok := s.Data.([]any); !ok || len(got) != 0 {
		t.Fatalf("data = %#v, want empty slice", s.Data)
	}
	if n := f.total.Load(); n != 0 {
		t.Fatalf("fetcher called %d times, want 0", n)
	}
}

func TestBatch_Limit(t *testing.T) {
	var active, peak int
	sem := make(chan struct{}, 1)
	sem <- struct{}{}
	fetcher := FetcherFunc(func(ctx context.Context, doc Document) (Raw, error) {
		<-sem
		active++
		if active > peak {
			peak = active
		}
		sem <- struct{}{}

		time.Sleep(5 * time.Millisecond)

		<-sem
		active--
		sem <- struct{}{}
		return string(doc), nil
	})
	c := newTestClient(t, fetcher, WithBatchLimit(2))

	s := waitState(t, c.Query(context.Background(), Key{"x"}, Batch("a", "b", "c", "d", "e")))
	if len(s.Data.([]any)) != 5 {
		t.Fatalf("data = %v", s.Data)
	}
	if peak > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestWait_ContextCanceled(t *testing.T) {
	f := newFakeFetcher().respond("doc", "v")
	gate := f.gate("doc")
	defer close(gate)
	c := newTestClient(t, f)

	h := c.Query(context.Background(), Key{"product", "1"}, Single("doc"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	s, err := h.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) || !s.IsLoading {
		t.Fatalf("Wait() = (%+v, %v), want loading and deadline exceeded", s, err)
	}
}

func TestHandleContext_CancelsFetch(t *testing.T) {
	f := newFakeFetcher().respond("doc", "v")
	f.gate("doc")
	c := newTestClient(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	h := c.Query(ctx, Key{"product", "1"}, Single("doc"))
	waitCalls(t, f, "doc", 1)
	cancel()

	s := waitState(t, h)
	if !s.IsError || !errors.Is(s.Err, context.Canceled) || !errors.Is(s.Err, ErrTransport) {
		t.Fatalf("state = %+v, want canceled transport error", s)
	}
	waitCanceled(t, f, 1)
}
