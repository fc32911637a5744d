package indexer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithRetryEventuallySucceeds(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts mismatch: %d", attempts)
	}
}

func TestWithRetryGivesUp(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), 2, time.Millisecond, func(context.Context) error {
		attempts++
		return errors.New("down")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if attempts != 3 {
		t.Fatalf("attempts mismatch: %d", attempts)
	}
}

func TestWithRetryStopsOnContextError(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), 5, time.Millisecond, func(context.Context) error {
		attempts++
		return context.Canceled
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts mismatch: %d", attempts)
	}
}

func TestWithRetryStopsOnPermanent(t *testing.T) {
	attempts := 0
	bad := errors.New("bad total_count")
	err := withRetry(context.Background(), 5, time.Millisecond, func(context.Context) error {
		attempts++
		return permanent(bad)
	})
	if err != bad {
		t.Fatalf("expected unwrapped error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts mismatch: %d", attempts)
	}
}

func TestBackoffCapped(t *testing.T) {
	b := newBackoff(10 * time.Second)
	want := []time.Duration{10 * time.Second, 20 * time.Second, 30 * time.Second, 30 * time.Second}
	for i, w := range want {
		if got := b.delay(); got != w {
			t.Fatalf("delay %d = %s, want %s", i, got, w)
		}
	}
}
