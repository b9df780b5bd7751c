package resilience

import (
	"context"
	"sync"
	"time"
)

// State represents the breaker state.
type State int

const (
	// StateClosed means calls flow normally.
	StateClosed State = iota
	// StateOpen means calls are rejected.
	StateOpen
	// StateHalfOpen means a limited number of probe calls are let through.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the
	// circuit.
	// Default: 5
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before probing.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// HalfOpenMaxRequests is the number of concurrent probes allowed.
	// Default: 1
	HalfOpenMaxRequests int

	// OnStateChange is called with the breaker lock held; it must not call
	// back into the breaker.
	OnStateChange func(from, to State)

	// IsFailure decides whether an error counts against the upstream.
	// Default: all non-nil errors are failures.
	IsFailure func(err error) bool
}

// Breaker implements the circuit breaker pattern.
type Breaker struct {
	config BreakerConfig
	now    func() time.Time

	mu            sync.Mutex
	state         State
	failures      int
	rejected      int
	openedAt      time.Time
	halfOpenCount int
}

// NewBreaker creates a closed Breaker.
func NewBreaker(config BreakerConfig) *Breaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxRequests <= 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}

	return &Breaker{
		config: config,
		now:    time.Now,
		state:  StateClosed,
	}
}

// Do runs op unless the circuit is open.
func (b *Breaker) Do(ctx context.Context, op func(context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}

	err := op(ctx)
	b.record(err)
	return err
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

// Reset closes the circuit and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.halfOpenCount = 0
	b.transitionLocked(StateClosed)
}

// Stats returns a snapshot of the breaker counters.
func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BreakerStats{
		State:    b.stateLocked(),
		Failures: b.failures,
		Rejected: b.rejected,
		OpenedAt: b.openedAt,
	}
}

// BreakerStats is a point-in-time view of a Breaker.
type BreakerStats struct {
	State    State
	Failures int       // consecutive failures while closed
	Rejected int       // calls rejected since creation
	OpenedAt time.Time // zero if the circuit never opened
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.stateLocked() {
	case StateOpen:
		b.rejected++
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.halfOpenCount >= b.config.HalfOpenMaxRequests {
			b.rejected++
			return ErrCircuitOpen
		}
		b.halfOpenCount++
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	failed := b.config.IsFailure(err)

	switch b.state {
	case StateClosed:
		if !failed {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.config.MaxFailures {
			b.openedAt = b.now()
			b.transitionLocked(StateOpen)
		}

	case StateHalfOpen:
		if failed {
			b.openedAt = b.now()
			b.transitionLocked(StateOpen)
			return
		}
		b.failures = 0
		b.transitionLocked(StateClosed)
	}
}

func (b *Breaker) stateLocked() State {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.config.ResetTimeout {
		b.transitionLocked(StateHalfOpen)
	}
	return b.state
}

func (b *Breaker) transitionLocked(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if to == StateHalfOpen {
		b.halfOpenCount = 0
	}
	if b.config.OnStateChange != nil {
		b.config.OnStateChange(from, to)
	}
}
