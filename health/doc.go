// Package health reports whether the query service can serve.
//
// A Checker reports one component as Healthy, Degraded or Unhealthy. The
// Aggregator runs registered checkers in parallel under a shared deadline
// and folds their results into an overall status, which the HTTP handlers
// expose as liveness, readiness and detailed probes:
//
//	agg := health.NewAggregator()
//	agg.Register(health.NewPingChecker("storefront", sfClient))
//	agg.Register(health.NewBreakerChecker("storefront-circuit", guard.Breaker()))
//	agg.Register(health.NewStoreChecker(store, health.StoreCheckerConfig{WarnEntries: 10000}))
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
package health
