package health

import (
	"context"
	"testing"
)

type fixedSize int

func (n fixedSize) Len() int { return int(n) }

func TestStoreChecker(t *testing.T) {
	tests := []struct {
		name    string
		entries int
		config  StoreCheckerConfig
		want    Status
	}{
		{name: "no thresholds", entries: 1_000_000, want: StatusHealthy},
		{name: "below warn", entries: 9, config: StoreCheckerConfig{WarnEntries: 10, MaxEntries: 20}, want: StatusHealthy},
		{name: "at warn", entries: 10, config: StoreCheckerConfig{WarnEntries: 10, MaxEntries: 20}, want: StatusDegraded},
		{name: "at max", entries: 20, config: StoreCheckerConfig{WarnEntries: 10, MaxEntries: 20}, want: StatusUnhealthy},
		{name: "warn clamped to max", entries: 5, config: StoreCheckerConfig{WarnEntries: 50, MaxEntries: 5}, want: StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewStoreChecker(fixedSize(tt.entries), tt.config)
			r := c.Check(context.Background())
			if r.Status != tt.want {
				t.Fatalf("Status = %v, want %v (%s)", r.Status, tt.want, r.Message)
			}
			if r.Details["entries"] != tt.entries {
				t.Fatalf("entries detail = %v", r.Details["entries"])
			}
		})
	}
}

func TestStoreChecker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if r := NewStoreChecker(fixedSize(0), StoreCheckerConfig{}).Check(ctx); r.Status != StatusUnhealthy {
		t.Fatalf("Status = %v, want unhealthy", r.Status)
	}
}
