package resilience

import (
	"context"
	"time"
)

// Guard composes a Limiter, a Breaker and a Timeout around a call.
// Any of them may be absent. A nil or zero-option Guard just calls through.
type Guard struct {
	limiter *Limiter
	breaker *Breaker
	timeout *Timeout
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// NewGuard creates a Guard.
func NewGuard(opts ...GuardOption) *Guard {
	g := &Guard{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithLimiter paces calls through l.
func WithLimiter(l *Limiter) GuardOption {
	return func(g *Guard) {
		g.limiter = l
	}
}

// WithBreaker rejects calls while b is open.
func WithBreaker(b *Breaker) GuardOption {
	return func(g *Guard) {
		g.breaker = b
	}
}

// WithTimeout bounds each call by d.
func WithTimeout(d time.Duration) GuardOption {
	return func(g *Guard) {
		g.timeout = NewTimeout(d)
	}
}

// Breaker returns the configured breaker, or nil.
func (g *Guard) Breaker() *Breaker {
	if g == nil {
		return nil
	}
	return g.breaker
}

// Do runs op through the configured patterns. Order, outermost first:
// limiter, breaker, timeout. A rate-limited call never reaches the breaker,
// and a timed-out call counts as a breaker failure.
func (g *Guard) Do(ctx context.Context, op func(context.Context) error) error {
	if g == nil {
		return op(ctx)
	}
	call := op

	if g.timeout != nil {
		inner := call
		call = func(ctx context.Context) error {
			return g.timeout.Do(ctx, inner)
		}
	}

	if g.breaker != nil {
		inner := call
		call = func(ctx context.Context) error {
			return g.breaker.Do(ctx, inner)
		}
	}

	if g.limiter != nil {
		inner := call
		call = func(ctx context.Context) error {
			return g.limiter.Do(ctx, inner)
		}
	}

	return call(ctx)
}

// Call runs fn through g and returns its value.
func Call[T any](ctx context.Context, g *Guard, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := g.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
