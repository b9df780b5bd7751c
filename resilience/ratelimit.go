package resilience

import (
	"context"
	"sync"
	"time"
)

// LimiterConfig configures a Limiter.
type LimiterConfig struct {
	// Rate is the number of calls allowed per second.
	// Default: 4
	Rate float64

	// Burst is the bucket capacity.
	// Default: 8
	Burst int

	// MaxWait bounds how long Wait blocks for a token. Zero rejects
	// immediately when the bucket is empty.
	MaxWait time.Duration
}

// Limiter is a token bucket.
type Limiter struct {
	config LimiterConfig
	now    func() time.Time

	mu          sync.Mutex
	tokens      float64
	lastRefresh time.Time
}

// NewLimiter creates a full bucket.
func NewLimiter(config LimiterConfig) *Limiter {
	if config.Rate <= 0 {
		config.Rate = 4
	}
	if config.Burst <= 0 {
		config.Burst = 8
	}
	if config.MaxWait < 0 {
		config.MaxWait = 0
	}

	return &Limiter{
		config:      config,
		now:         time.Now,
		tokens:      float64(config.Burst),
		lastRefresh: time.Now(),
	}
}

// Allow takes a token if one is available.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillLocked()
	if l.tokens >= 1 {
		l.tokens--
		return true
	}
	return false
}

// Wait takes a token, blocking up to MaxWait for one to become available.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.Allow() {
		return nil
	}

	l.mu.Lock()
	delay := time.Duration((1 - l.tokens) / l.config.Rate * float64(time.Second))
	l.mu.Unlock()

	if delay > l.config.MaxWait {
		return ErrRateLimited
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		if l.Allow() {
			return nil
		}
		return ErrRateLimited
	}
}

// Do runs op once a token has been taken.
func (l *Limiter) Do(ctx context.Context, op func(context.Context) error) error {
	if err := l.Wait(ctx); err != nil {
		return err
	}
	return op(ctx)
}

// Tokens returns the number of available tokens.
func (l *Limiter) Tokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refillLocked()
	return l.tokens
}

func (l *Limiter) refillLocked() {
	now := l.now()
	elapsed := now.Sub(l.lastRefresh)
	l.lastRefresh = now

	l.tokens += elapsed.Seconds() * l.config.Rate
	if l.tokens > float64(l.config.Burst) {
		l.tokens = float64(l.config.Burst)
	}
}
