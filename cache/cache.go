package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilStore   = errors.New("cache: store is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Entry is one stored query result.
type Entry struct {
	// Key is the canonical hash produced by a Keyer.
	Key string

	// Value is the shaped response.
	Value any

	// CreatedAt is when the entry was last written.
	CreatedAt time.Time
}

// Store holds query results for the lifetime of the process.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Expiry: entries never expire implicitly; Set overwrites, Delete removes.
// - Errors: Get should never error; it returns (Entry{}, false) on miss.
type Store interface {
	// Get retrieves an entry. Returns (Entry{}, false) on miss.
	Get(ctx context.Context, key string) (Entry, bool)

	// Set stores value under key, replacing any previous entry.
	Set(ctx context.Context, key string, value any) error

	// Delete removes an entry. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error

	// Len reports the number of stored entries.
	Len() int
}

// ValidateKey checks if a key is valid for storing.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
