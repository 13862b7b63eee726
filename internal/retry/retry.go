package retry

import (
	"context"
	"fmt"
	"time"
)

// Do runs fn up to attempts times with exponential backoff between tries.
// It stops early when the context is cancelled and returns the last error.
// The outbound API clients are wrapped with this at the usecase boundary so
// business logic stays retry-free.
func Do(ctx context.Context, attempts int, baseDelay time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	delay := baseDelay
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
