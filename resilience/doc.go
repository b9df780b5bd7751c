// Package resilience guards outbound storefront calls.
//
// Three patterns are provided and composed by a Guard:
//
//   - Breaker: stops calling a failing upstream after a run of failures and
//     probes it again once a reset timeout has elapsed.
//
//   - Limiter: a token bucket that paces calls, waiting up to a bounded
//     time for a token.
//
//   - Timeout: bounds the duration of a single call.
//
// There is deliberately no retry pattern. Failed queries are surfaced to the
// caller, which decides whether to refetch.
//
// # Usage
//
//	guard := resilience.NewGuard(
//	    resilience.WithLimiter(resilience.NewLimiter(resilience.LimiterConfig{Rate: 4, Burst: 8})),
//	    resilience.WithBreaker(resilience.NewBreaker(resilience.BreakerConfig{MaxFailures: 5})),
//	    resilience.WithTimeout(10*time.Second),
//	)
//
//	err := guard.Do(ctx, func(ctx context.Context) error {
//	    return postDocument(ctx)
//	})
package resilience
