// Package query provides a deduplicating, caching data-fetch layer for
// read-only GraphQL documents.
//
// A Client maps a canonical query key to the last successful result of its
// request. Query returns a live Handle whose State moves from loading to
// either data or error. Once a key has resolved, every other Query with an
// equivalent key is answered synchronously from the store without touching
// the Fetcher, until a handle explicitly calls Refetch.
//
// Key equivalence is structural: maps are compared after sorting their keys,
// slices positionally, primitives by value. See cache.Keyer.
//
// Each Handle carries a monotonically increasing request token and a closed
// flag. A result that arrives for a superseded token, or after Close, is
// dropped without touching the handle or the shared store.
//
// Failures are never retried automatically. A failed key stays absent from
// the store and is fetched again on the next evaluation.
package query
