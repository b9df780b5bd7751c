package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/sfquery/resilience"
)

// Status represents the health status of a component.
type Status int

const (
	// StatusHealthy indicates the component is functioning normally.
	StatusHealthy Status = iota
	// StatusDegraded indicates the component is functioning but with issues.
	StatusDegraded
	// StatusUnhealthy indicates the component is not functioning properly.
	StatusUnhealthy
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Result contains the outcome of a health check.
type Result struct {
	Status    Status
	Message   string
	Details   map[string]any
	Duration  time.Duration
	Timestamp time.Time
	Error     error
}

// Healthy creates a healthy result.
func Healthy(message string) Result {
	return Result{Status: StatusHealthy, Message: message, Timestamp: time.Now()}
}

// Degraded creates a degraded result.
func Degraded(message string) Result {
	return Result{Status: StatusDegraded, Message: message, Timestamp: time.Now()}
}

// Unhealthy creates an unhealthy result.
func Unhealthy(message string, err error) Result {
	return Result{Status: StatusUnhealthy, Message: message, Error: err, Timestamp: time.Now()}
}

// WithDetails adds details to a result.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// Checker is the interface for health checks.
type Checker interface {
	// Name returns the name this checker is registered under.
	Name() string

	// Check performs the health check and returns the result.
	Check(ctx context.Context) Result
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc creates a new CheckerFunc.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

func (f *CheckerFunc) Name() string { return f.name }

func (f *CheckerFunc) Check(ctx context.Context) Result { return f.fn(ctx) }

// Pinger is a component that can prove it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker reports Unhealthy when Ping fails. A ping rejected by a
// resilience guard (open circuit, rate limit) is reported as Degraded,
// since the upstream was not actually contacted.
type PingChecker struct {
	name   string
	pinger Pinger
}

// NewPingChecker creates a PingChecker.
func NewPingChecker(name string, p Pinger) *PingChecker {
	return &PingChecker{name: name, pinger: p}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) Result {
	err := c.pinger.Ping(ctx)
	switch {
	case err == nil:
		return Healthy("reachable")
	case resilience.IsRejection(err):
		return Degraded(fmt.Sprintf("ping not attempted: %v", err))
	default:
		return Unhealthy("ping failed", fmt.Errorf("%w: %w", ErrCheckFailed, err))
	}
}

// BreakerChecker maps a circuit breaker state to a status: closed is
// Healthy, half-open is Degraded, open is Unhealthy.
type BreakerChecker struct {
	name    string
	breaker *resilience.Breaker
}

// NewBreakerChecker creates a BreakerChecker. A nil breaker always reports
// Healthy.
func NewBreakerChecker(name string, b *resilience.Breaker) *BreakerChecker {
	return &BreakerChecker{name: name, breaker: b}
}

func (c *BreakerChecker) Name() string { return c.name }

func (c *BreakerChecker) Check(context.Context) Result {
	if c.breaker == nil {
		return Healthy("no circuit breaker configured")
	}

	stats := c.breaker.Stats()
	details := map[string]any{
		"state":    stats.State.String(),
		"failures": stats.Failures,
		"rejected": stats.Rejected,
	}
	if !stats.OpenedAt.IsZero() {
		details["opened_at"] = stats.OpenedAt.UTC().Format(time.RFC3339)
	}

	switch stats.State {
	case resilience.StateOpen:
		return Unhealthy("circuit open", resilience.ErrCircuitOpen).WithDetails(details)
	case resilience.StateHalfOpen:
		return Degraded("circuit half-open").WithDetails(details)
	default:
		return Healthy("circuit closed").WithDetails(details)
	}
}
