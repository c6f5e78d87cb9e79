package exchange

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(), func() error {
		calls++
		if calls < 3 {
			return NewAPIError("test", 503, "", "unavailable", KindTransient)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(), func() error {
		calls++
		return NewAPIError("test", 400, "", "bad request", KindPermanent)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("permanent error should not be retried, got %d calls", calls)
	}
}

func TestRetryDoesNotRetryAuthErrors(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(), func() error {
		calls++
		return NewAPIError("test", 401, "", "invalid signature", KindAuth)
	})
	if !IsAuthError(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("auth error should not be retried, got %d calls", calls)
	}
}

func TestRetryExhaustsBudget(t *testing.T) {
	calls := 0
	cfg := fastRetryConfig()
	err := Retry(context.Background(), cfg, func() error {
		calls++
		return NewAPIError("test", 429, "", "rate limited", KindTransient)
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != cfg.MaxRetries+1 {
		t.Errorf("expected %d calls, got %d", cfg.MaxRetries+1, calls)
	}
}

func TestRetryHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, fastRetryConfig(), func() error {
		t.Fatal("op should not run with cancelled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestErrorClassifiers(t *testing.T) {
	if !IsTransient(NewAPIError("x", 500, "", "oops", KindTransient)) {
		t.Error("5xx should be transient")
	}
	if IsTransient(context.Canceled) {
		t.Error("cancellation is not transient")
	}
	if !IsInsufficientFunds(NewAPIError("x", 400, "110007", "balance too low", KindInsufficientFunds)) {
		t.Error("expected insufficient funds classification")
	}
	if !IsClockSkew(NewAPIError("x", 400, "10005", "timestamp expired", KindClockSkew)) {
		t.Error("expected clock skew classification")
	}
	if ClassifyHTTPStatus(429) != KindTransient || ClassifyHTTPStatus(401) != KindAuth {
		t.Error("HTTP status classification mismatch")
	}
}
