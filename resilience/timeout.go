package resilience

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout is used when a non-positive timeout is configured.
const DefaultTimeout = 30 * time.Second

// Timeout bounds the duration of one call.
type Timeout struct {
	d time.Duration
}

// NewTimeout creates a Timeout of d.
func NewTimeout(d time.Duration) *Timeout {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &Timeout{d: d}
}

// Duration returns the configured budget.
func (t *Timeout) Duration() time.Duration {
	return t.d
}

// Do runs op with a deadline. op must honor ctx; when the budget is spent
// the result is ErrTimeout, unless the parent context ended first.
func (t *Timeout) Do(ctx context.Context, op func(context.Context) error) error {
	tctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	err := op(tctx)
	if err != nil && ctx.Err() == nil && errors.Is(tctx.Err(), context.DeadlineExceeded) {
		return errors.Join(ErrTimeout, err)
	}
	return err
}
