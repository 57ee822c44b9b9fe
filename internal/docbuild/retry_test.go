package docbuild

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dgallion1/weeklyreport/internal/gdocs"
)

func fastRetry() *Retry {
	return &Retry{MaxAttempts: 3, BaseDelay: time.Millisecond, Log: testLogger()}
}

func TestRetry_RateLimitRetriedUntilSuccess(t *testing.T) {
	calls := 0
	err := fastRetry().Do(context.Background(), "op", func() error {
		calls++
		if calls < 3 {
			return &gdocs.RateLimitError{StatusCode: 429, Message: "quota"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_ExhaustionReturnsLastError(t *testing.T) {
	calls := 0
	err := fastRetry().Do(context.Background(), "op", func() error {
		calls++
		return &gdocs.RateLimitError{StatusCode: 429, Message: "quota"}
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	var rle *gdocs.RateLimitError
	if !errors.As(err, &rle) {
		t.Errorf("expected rate-limit error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestRetry_NonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	err := fastRetry().Do(context.Background(), "op", func() error {
		calls++
		return fmt.Errorf("invalid request")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("non-retryable error retried: %d calls", calls)
	}
}

func TestRetry_WrappedRateLimitDetected(t *testing.T) {
	calls := 0
	err := fastRetry().Do(context.Background(), "op", func() error {
		calls++
		if calls == 1 {
			return fmt.Errorf("batch update: %w", &gdocs.RateLimitError{StatusCode: 503})
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected wrapped rate-limit error to retry, got %d calls", calls)
	}
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Retry{MaxAttempts: 3, BaseDelay: time.Minute, Log: testLogger()}
	cancel()
	err := r.Do(ctx, "op", func() error {
		return &gdocs.RateLimitError{StatusCode: 429}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
