package query

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/sfquery/observe"
)

// fakeFetcher answers documents from a table and counts calls per document.
// A document listed in gates blocks until its gate channel is closed.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[Document]Raw
	failures  map[Document]error
	gates     map[Document]chan struct{}
	calls     map[Document]int
	total     atomic.Int64
	canceled  atomic.Int64
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		responses: make(map[Document]Raw),
		failures:  make(map[Document]error),
		gates:     make(map[Document]chan struct{}),
		calls:     make(map[Document]int),
	}
}

func (f *fakeFetcher) respond(doc Document, raw Raw) *fakeFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[doc] = raw
	delete(f.failures, doc)
	return f
}

func (f *fakeFetcher) fail(doc Document, err error) *fakeFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[doc] = err
	return f
}

func (f *fakeFetcher) gate(doc Document) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[doc] = ch
	return ch
}

func (f *fakeFetcher) Fetch(ctx context.Context, doc Document) (Raw, error) {
	f.total.Add(1)

	f.mu.Lock()
	f.calls[doc]++
	gate := f.gates[doc]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			f.canceled.Add(1)
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failures[doc]; ok {
		return nil, err
	}
	raw, ok := f.responses[doc]
	if !ok {
		return nil, errors.New("unknown document " + string(doc))
	}
	return raw, nil
}

func (f *fakeFetcher) count(doc Document) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[doc]
}

func newTestClient(t *testing.T, f Fetcher, opts ...Option) *Client {
	t.Helper()
	c, err := NewClient(f, opts...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func waitState(t *testing.T, h *Handle) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := h.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	return s
}

// waitCalls polls until doc has been fetched n times.
func waitCalls(t *testing.T, f *fakeFetcher, doc Document, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for f.count(doc) < n {
		if time.Now().After(deadline) {
			t.Fatalf("document %q fetched %d times, want %d", doc, f.count(doc), n)
		}
		time.Sleep(time.Millisecond)
	}
}

// logBuffer is a log sink safe for concurrent writes.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) count(msg string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Count(b.buf.String(), msg)
}

// withDebugLog returns an option that logs the client at debug level into
// the returned buffer.
func withDebugLog() (Option, *logBuffer) {
	lb := &logBuffer{}
	logger := observe.NewLoggerWithWriter("debug", lb)
	return WithMiddleware(observe.NewMiddleware(nil, nil, logger)), lb
}

// waitDiscarded polls until n stale results have been dropped.
func waitDiscarded(t *testing.T, lb *logBuffer, n int) {
	t.Helper()
	const msg = "discarding stale query result"
	deadline := time.Now().Add(2 * time.Second)
	for lb.count(msg) < n {
		if time.Now().After(deadline) {
			t.Fatalf("discarded %d results, want %d", lb.count(msg), n)
		}
		time.Sleep(time.Millisecond)
	}
}

// waitCanceled polls until n fetches have observed cancellation.
func waitCanceled(t *testing.T, f *fakeFetcher, n int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for f.canceled.Load() < n {
		if time.Now().After(deadline) {
			t.Fatalf("canceled fetches = %d, want %d", f.canceled.Load(), n)
		}
		time.Sleep(time.Millisecond)
	}
}
