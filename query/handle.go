package query

import (
	"context"
	"sync"

	"github.com/jonwraymond/sfquery/observe"
)

// State is a snapshot of a handle.
//
// A disabled or idle handle is the zero State. Loading keeps the previous
// Data visible. A failure clears Data.
type State struct {
	IsLoading bool
	IsError   bool
	Err       error
	Data      any
}

// Handle is the live result of one call site.
type Handle struct {
	client *Client
	ctx    context.Context

	mu      sync.Mutex
	state   State
	changed chan struct{}

	key     Key
	req     Request
	enabled bool
	hash    string
	keyErr  error

	token  uint64
	closed bool
}

// State returns the current snapshot.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Key returns the canonical store key of the current query, or "" when the
// key is invalid.
func (h *Handle) Key() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hash
}

// Changed returns a channel that is closed on the next state change.
// Call it again after each wake-up.
func (h *Handle) Changed() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.changed
}

// Wait blocks until the handle is no longer loading and returns that state.
func (h *Handle) Wait(ctx context.Context) (State, error) {
	for {
		h.mu.Lock()
		s, ch, closed := h.state, h.changed, h.closed
		h.mu.Unlock()

		if !s.IsLoading {
			return s, nil
		}
		if closed {
			return s, ErrClosed
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return s, ctx.Err()
		}
	}
}

// Update re-invokes the query from the same call site. The handle is
// re-evaluated only when the canonical key or the enabled flag changed.
// The new request is remembered either way and used by later evaluations.
func (h *Handle) Update(key Key, req Request, opts ...QueryOption) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	prevHash, prevEnabled, prevErr := h.hash, h.enabled, h.keyErr
	h.assignLocked(key, req, resolveEnabled(req, opts))

	// two invalid keys never compare equal
	if h.keyErr == nil && prevErr == nil && h.hash == prevHash && h.enabled == prevEnabled {
		return
	}
	h.evaluateLocked(false)
}

// Refetch forces one fresh fetch for the current key, bypassing the store
// and any in-flight fetch, and overwrites the stored entry on success.
// Other handles sharing the key see the new value on their own next
// evaluation. It is a no-op on a disabled or closed handle.
func (h *Handle) Refetch() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || !h.enabled {
		return
	}
	h.evaluateLocked(true)
}

// Close tears the call site down. Results still in flight are discarded and
// waiters are released.
func (h *Handle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.token++
	close(h.changed)
}

func (h *Handle) assignLocked(key Key, req Request, enabled bool) {
	h.key = key
	h.req = req
	h.enabled = enabled && !req.IsZero()
	h.hash, h.keyErr = h.client.hash(key)
}

func (h *Handle) meta(forced bool) observe.QueryMeta {
	return observe.QueryMeta{
		Name:      h.key.Name(),
		Key:       h.hash,
		Documents: len(h.req.docs),
		Forced:    forced,
	}
}

// evaluateLocked supersedes any in-flight fetch and starts a new evaluation.
func (h *Handle) evaluateLocked(force bool) {
	h.token++

	if !h.enabled {
		h.setLocked(State{})
		return
	}
	if h.keyErr != nil {
		h.setLocked(State{IsError: true, Err: h.keyErr})
		return
	}

	meta := h.meta(force)
	if !force {
		if v, ok := h.client.lookup(h.ctx, meta); ok {
			h.setLocked(State{Data: v})
			return
		}
	}

	h.setLocked(State{IsLoading: true, Data: h.state.Data})

	token, req := h.token, h.req
	go func() {
		data, err := h.client.load(h.ctx, req, meta)
		h.settle(token, meta, data, err)
	}()
}

func (h *Handle) settle(token uint64, meta observe.QueryMeta, data any, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || token != h.token {
		h.client.mw.Logger().WithQuery(meta).Debug(h.ctx, "discarding stale query result",
			observe.Field{Key: "closed", Value: h.closed})
		return
	}

	if err != nil {
		h.setLocked(State{IsError: true, Err: err})
		return
	}

	if serr := h.client.store.Set(h.ctx, meta.Key, data); serr != nil {
		h.client.mw.Logger().WithQuery(meta).Warn(h.ctx, "query result not cached",
			observe.Field{Key: "error", Value: serr.Error()})
	}
	h.setLocked(State{Data: data})
}

func (h *Handle) setLocked(s State) {
	h.state = s
	close(h.changed)
	h.changed = make(chan struct{})
}
