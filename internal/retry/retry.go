// Package retry provides the doubling-backoff retry used for startup
// infrastructure connects (store, downstream RPC dials) and for C4's
// per-interval trade fetch.
package retry

import (
	"context"
	"time"
)

const maxDelay = 30 * time.Second

// WithBackoff retries fn up to maxAttempts times with a delay that doubles
// from initial on each failure, capped at 30s. It returns fn's last error
// if every attempt fails, or ctx.Err() if ctx is cancelled while waiting.
func WithBackoff(ctx context.Context, initial time.Duration, maxAttempts int, fn func() error) error {
	delay := initial
	var err error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return err
}
