package query

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/sfquery/cache"
	"github.com/jonwraymond/sfquery/observe"
)

// Client deduplicates and caches query results.
//
// Contract:
//   - Concurrency: safe for concurrent use; handles may be created and
//     driven from any goroutine.
//   - Ownership: the store is shared, not owned. Entries never expire.
type Client struct {
	fetcher    Fetcher
	shaper     Shaper
	store      cache.Store
	keyer      cache.Keyer
	mw         *observe.Middleware
	batchLimit int

	flights singleflight.Group

	mu     sync.Mutex
	active map[string]*flight
}

// flight is the context one shared fetch runs on. It belongs to no single
// handle and is canceled once every handle waiting on the fetch has left.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewClient creates a Client that fetches through fetcher.
func NewClient(fetcher Fetcher, opts ...Option) (*Client, error) {
	if fetcher == nil {
		return nil, ErrNilFetcher
	}

	c := &Client{
		fetcher: fetcher,
		shaper:  Identity,
		keyer:   cache.NewDefaultKeyer(),
		mw:      observe.NopMiddleware(),
		active:  make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = cache.NewMemoryStore()
	}
	return c, nil
}

// Query starts evaluating key/req and returns its live handle.
//
// The initial state is set before Query returns: a disabled query is idle, a
// cached key already carries its data, and a miss is loading. ctx bounds the
// handle's lifetime and is passed to the Fetcher.
func (c *Client) Query(ctx context.Context, key Key, req Request, opts ...QueryOption) *Handle {
	h := &Handle{
		client:  c,
		ctx:     ctx,
		changed: make(chan struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.assignLocked(key, req, resolveEnabled(req, opts))
	h.evaluateLocked(false)
	return h
}

// Cached returns the stored value for key, if any. It never fetches.
func (c *Client) Cached(ctx context.Context, key Key) (any, bool, error) {
	hash, err := c.hash(key)
	if err != nil {
		return nil, false, err
	}
	entry, ok := c.store.Get(ctx, hash)
	if !ok {
		return nil, false, nil
	}
	return entry.Value, true, nil
}

func (c *Client) hash(key Key) (string, error) {
	hash, err := c.keyer.Key([]any(key))
	if err != nil {
		return "", &keyError{err: err}
	}
	return hash, nil
}

// lookup reports the cached value for hash and records the outcome.
func (c *Client) lookup(ctx context.Context, meta observe.QueryMeta) (any, bool) {
	entry, ok := c.store.Get(ctx, meta.Key)
	c.mw.RecordLookup(ctx, meta, ok)
	if !ok {
		return nil, false
	}
	return entry.Value, true
}

// load resolves req. Non-forced loads for the same key share one flight;
// forced loads always call the Fetcher on ctx.
//
// A shared fetch keeps running while any handle still waits on it. A handle
// whose ctx ends stops waiting and gets a TransportError wrapping ctx.Err().
func (c *Client) load(ctx context.Context, req Request, meta observe.QueryMeta) (any, error) {
	if meta.Forced {
		return c.fetch(ctx, req, meta)
	}

	fl := c.join(ctx, meta.Key)
	defer c.leave(meta.Key, fl)

	ch := c.flights.DoChan(meta.Key, func() (any, error) {
		return c.fetch(fl.ctx, req, meta)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, &TransportError{Err: ctx.Err()}
	}
}

// join registers a waiter on the flight for key, creating it on first use.
// The flight context keeps the values of the first waiter's ctx (trace
// spans) but not its cancellation.
func (c *Client) join(ctx context.Context, key string) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()

	fl, ok := c.active[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		fl = &flight{ctx: fctx, cancel: cancel}
		c.active[key] = fl
	}
	fl.waiters++
	return fl
}

// leave drops a waiter. The last one out cancels the flight and forgets the
// in-flight call, so a later miss starts a fresh fetch instead of joining a
// canceled one.
func (c *Client) leave(key string, fl *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fl.waiters--
	if fl.waiters > 0 {
		return
	}
	fl.cancel()
	if c.active[key] == fl {
		delete(c.active, key)
		c.flights.Forget(key)
	}
}

func (c *Client) fetch(ctx context.Context, req Request, meta observe.QueryMeta) (any, error) {
	return c.mw.Wrap(func(ctx context.Context, _ observe.QueryMeta) (any, error) {
		if !req.batch {
			return c.one(ctx, 0, req.docs[0])
		}
		return c.batch(ctx, req.docs)
	})(ctx, meta)
}

func (c *Client) one(ctx context.Context, index int, doc Document) (any, error) {
	raw, err := c.fetcher.Fetch(ctx, doc)
	if err != nil {
		return nil, &TransportError{Index: index, Err: err}
	}
	return c.shape(index, raw)
}

func (c *Client) shape(index int, raw Raw) (any, error) {
	v, err := c.shaper.Shape(raw)
	if err != nil {
		return nil, &ShapeError{Index: index, Err: err}
	}
	return v, nil
}

// batch fetches every document concurrently. All fetches settle before it
// returns; any failure fails the whole batch.
func (c *Client) batch(ctx context.Context, docs []Document) (any, error) {
	raws := make([]Raw, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	if c.batchLimit > 0 {
		g.SetLimit(c.batchLimit)
	}
	for i, doc := range docs {
		g.Go(func() error {
			raw, err := c.fetcher.Fetch(gctx, doc)
			if err != nil {
				return &TransportError{Index: i, Err: err}
			}
			raws[i] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]any, len(raws))
	for i, raw := range raws {
		v, err := c.shape(i, raw)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// keyError wraps a canonicalization failure so it matches both
// ErrInvalidKey and the underlying cache error.
type keyError struct {
	err error
}

func (e *keyError) Error() string {
	return ErrInvalidKey.Error() + ": " + e.err.Error()
}

func (e *keyError) Unwrap() []error { return []error{ErrInvalidKey, e.err} }
