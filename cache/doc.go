// Package cache provides the process-wide result store for storefront queries.
//
// It provides a Store interface with a never-expiring memory implementation and
// a Keyer that derives a stable, field-order-independent index from a query key.
package cache
