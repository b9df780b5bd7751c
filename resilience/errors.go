package resilience

import "errors"

// Sentinel errors for guarded calls.
var (
	// ErrCircuitOpen is returned when the breaker rejects a call.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrRateLimited is returned when no token became available in time.
	ErrRateLimited = errors.New("resilience: rate limit exceeded")

	// ErrTimeout is returned when a call exceeds its time budget.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// IsRejection reports whether err was produced by the guard itself rather
// than by the guarded call.
func IsRejection(err error) bool {
	return errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrRateLimited)
}
