// Package observe provides observability primitives for storefront queries.
//
// It is a pure instrumentation library: no fetching, no caching, no I/O beyond
// exporter setup. The query client wraps every collaborator call with the
// Middleware and reports cache lookups through it.
package observe
