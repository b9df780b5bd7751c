package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewTimeout_Default(t *testing.T) {
	if d := NewTimeout(0).Duration(); d != DefaultTimeout {
		t.Fatalf("Duration() = %v, want %v", d, DefaultTimeout)
	}
}

func TestTimeout_Do(t *testing.T) {
	slow := func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	}

	tests := []struct {
		name    string
		timeout time.Duration
		op      func(context.Context) error
		check   func(error) bool
	}{
		{
			name:    "fast op",
			timeout: time.Second,
			op:      succeed,
			check:   func(err error) bool { return err == nil },
		},
		{
			name:    "slow op",
			timeout: 10 * time.Millisecond,
			op:      slow,
			check: func(err error) bool {
				return errors.Is(err, ErrTimeout) && errors.Is(err, context.DeadlineExceeded)
			},
		},
		{
			name:    "op error passes through",
			timeout: time.Second,
			op:      fail,
			check:   func(err error) bool { return errors.Is(err, errUpstream) && !errors.Is(err, ErrTimeout) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewTimeout(tt.timeout).Do(context.Background(), tt.op)
			if !tt.check(err) {
				t.Fatalf("Do() = %v", err)
			}
		})
	}
}

func TestTimeout_ParentCancelIsNotTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewTimeout(time.Second).Do(ctx, func(ctx context.Context) error { return ctx.Err() })
	if errors.Is(err, ErrTimeout) || !errors.Is(err, context.Canceled) {
		t.Fatalf("Do() = %v, want plain cancellation", err)
	}
}
