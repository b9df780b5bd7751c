package health

import (
	"context"
	"fmt"
	"runtime"
)

// Sizer reports the number of entries held by a store.
type Sizer interface {
	Len() int
}

// StoreCheckerConfig configures a StoreChecker. Zero thresholds disable the
// corresponding level.
type StoreCheckerConfig struct {
	// WarnEntries reports Degraded at or above this many entries.
	WarnEntries int

	// MaxEntries reports Unhealthy at or above this many entries.
	MaxEntries int
}

// StoreChecker watches a query store that never evicts. It grows by one entry
// per distinct key for the life of the process, so its size is the signal.
type StoreChecker struct {
	store  Sizer
	config StoreCheckerConfig
}

// NewStoreChecker creates a StoreChecker.
func NewStoreChecker(store Sizer, config StoreCheckerConfig) *StoreChecker {
	if config.WarnEntries < 0 {
		config.WarnEntries = 0
	}
	if config.MaxEntries > 0 && config.WarnEntries > config.MaxEntries {
		config.WarnEntries = config.MaxEntries
	}
	return &StoreChecker{store: store, config: config}
}

func (c *StoreChecker) Name() string { return "store" }

func (c *StoreChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	entries := c.store.Len()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	details := map[string]any{
		"entries":       entries,
		"heap_alloc_mb": float64(mem.HeapAlloc) / (1024 * 1024),
		"heap_objects":  mem.HeapObjects,
		"goroutines":    runtime.NumGoroutine(),
	}
	if c.config.WarnEntries > 0 {
		details["warn_entries"] = c.config.WarnEntries
	}
	if c.config.MaxEntries > 0 {
		details["max_entries"] = c.config.MaxEntries
	}

	switch {
	case c.config.MaxEntries > 0 && entries >= c.config.MaxEntries:
		return Unhealthy(fmt.Sprintf("store holds %d entries", entries), ErrCheckFailed).WithDetails(details)
	case c.config.WarnEntries > 0 && entries >= c.config.WarnEntries:
		return Degraded(fmt.Sprintf("store holds %d entries", entries)).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("store holds %d entries", entries)).WithDetails(details)
	}
}
