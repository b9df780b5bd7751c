package query

import (
	"github.com/jonwraymond/sfquery/cache"
	"github.com/jonwraymond/sfquery/observe"
)

// Option configures a Client.
type Option func(*Client)

// WithStore sets the store results are cached in. Share one store between
// clients to share cached results. Default: a new cache.MemoryStore.
func WithStore(s cache.Store) Option {
	return func(c *Client) {
		if s != nil {
			c.store = s
		}
	}
}

// WithKeyer sets the key canonicalizer. Default: cache.NewDefaultKeyer().
func WithKeyer(k cache.Keyer) Option {
	return func(c *Client) {
		if k != nil {
			c.keyer = k
		}
	}
}

// WithShaper sets the response shaper. Default: Identity.
func WithShaper(s Shaper) Option {
	return func(c *Client) {
		if s != nil {
			c.shaper = s
		}
	}
}

// WithMiddleware sets the telemetry middleware wrapped around every fetch.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(c *Client) {
		if mw != nil {
			c.mw = mw
		}
	}
}

// WithBatchLimit caps how many documents of one batch are fetched at once.
// Zero or negative means no limit.
func WithBatchLimit(n int) Option {
	return func(c *Client) {
		c.batchLimit = n
	}
}

// QueryOption configures a single Query or Update call.
type QueryOption func(*queryOptions)

type queryOptions struct {
	enabled *bool
}

// WithEnabled overrides whether the query runs. By default a query is
// enabled iff its request is non-zero.
func WithEnabled(enabled bool) QueryOption {
	return func(o *queryOptions) {
		o.enabled = &enabled
	}
}

func resolveEnabled(req Request, opts []QueryOption) bool {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.enabled != nil {
		return *o.enabled
	}
	return !req.IsZero()
}
