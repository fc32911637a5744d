package indexer

import (
	"context"
	"errors"
	"time"
)

const maxRetryDelay = 30 * time.Second

// permanentError marks an RPC failure that retrying cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// permanent stops withRetry after the current attempt.
func permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// backoff yields delays doubling from base up to maxRetryDelay.
type backoff struct {
	next time.Duration
}

func newBackoff(base time.Duration) *backoff {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	return &backoff{next: base}
}

func (b *backoff) delay() time.Duration {
	d := b.next
	b.next *= 2
	if b.next > maxRetryDelay {
		b.next = maxRetryDelay
	}
	return d
}

// withRetry calls fn up to maxRetries+1 times. Context cancellation and permanent errors end
// the loop at once; the permanent wrapper is removed from the returned error.
func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	wait := newBackoff(baseDelay)

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		var stop *permanentError
		if errors.As(err, &stop) {
			return stop.err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(wait.delay())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
