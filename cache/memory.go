package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store without eviction.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// Get retrieves an entry. Returns (Entry{}, false) on miss.
func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	return entry, ok
}

// Set stores value under key. Last write wins.
func (s *MemoryStore) Set(_ context.Context, key string, value any) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	s.entries[key] = Entry{
		Key:       key,
		Value:     value,
		CreatedAt: s.now(),
	}
	s.mu.Unlock()

	return nil
}

// Delete removes an entry. Idempotent - no error on miss.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Keys returns the stored keys in no particular order.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
