package pipeline

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/dgallion1/weeklyreport/internal/generate"
)

const maxLLMRetries = 3

// isRetryable checks if an error is worth retrying.
func isRetryable(err error) bool {
	var retryErr *generate.RetryableError
	return errors.As(err, &retryErr)
}

// backoff returns a duration for attempt n (0-indexed) with jitter.
func backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}

// withLLMRetry runs fn, retrying transient model-API failures with
// exponential backoff. Non-retryable errors return immediately. delay
// is normally backoff; tests shrink it.
func withLLMRetry(ctx context.Context, delay func(int) time.Duration, fn func() (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxLLMRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay(attempt - 1)):
			}
		}
		out, err := fn()
		if err == nil {
			return out, nil
		}
		if !isRetryable(err) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}
