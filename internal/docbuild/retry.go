package docbuild

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/dgallion1/weeklyreport/internal/gdocs"
)

// Retry wraps remote mutations in backoff for rate-limit-class errors.
// Any other error class fails immediately: auth or malformed-request
// failures won't fix themselves by waiting.
type Retry struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Log         *slog.Logger
}

// NewRetry returns the default policy: 3 attempts, 2s base delay.
func NewRetry(log *slog.Logger) *Retry {
	return &Retry{MaxAttempts: 3, BaseDelay: 2 * time.Second, Log: log}
}

// Do runs fn, retrying with exponential backoff while it returns a
// rate-limit error. The final error is returned once attempts are
// exhausted; non-retryable errors are returned on first occurrence.
func (r *Retry) Do(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < r.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil || !isRateLimited(lastErr) {
			return lastErr
		}
		if attempt == r.MaxAttempts-1 {
			break
		}
		delay := r.backoff(attempt)
		r.Log.Warn("rate limited, backing off", "op", op, "attempt", attempt, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func (r *Retry) backoff(attempt int) time.Duration {
	base := r.BaseDelay << uint(attempt)
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}

func isRateLimited(err error) bool {
	var rle *gdocs.RateLimitError
	return errors.As(err, &rle)
}
