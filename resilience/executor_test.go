package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestExecutor_Empty(t *testing.T) {
	e := NewExecutor()
	if err := e.Execute(context.Background(), fail); !errors.Is(err, errBackend) {
		t.Errorf("Execute() = %v, want errBackend", err)
	}
	if e.CircuitBreaker() != nil {
		t.Error("CircuitBreaker() should be nil")
	}
}

func TestExecutor_RetryThroughBreaker(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 2, ResetTimeout: time.Hour})
	e := NewExecutor(
		WithCircuitBreaker(cb),
		WithRetry(NewRetry(RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond})),
	)

	calls := 0
	err := e.Execute(context.Background(), func(context.Context) error {
		calls++
		return errBackend
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() = %v, want ErrCircuitOpen", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestExecutor_TimeoutPerAttempt(t *testing.T) {
	e := NewExecutor(
		WithRetry(NewRetry(RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond})),
		WithTimeout(10*time.Millisecond),
	)

	var calls atomic.Int32
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		if calls.Add(1) == 1 {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	})
	if err != nil {
		t.Errorf("Execute() = %v, want nil after retrying the timed out attempt", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestNewPolicy(t *testing.T) {
	e := NewPolicy(PolicyConfig{
		Retry:          RetryPolicy{MaxAttempts: 3, Backoff: "constant"},
		Timeout:        time.Second,
		CircuitBreaker: CircuitBreakerPolicy{MaxFailures: 4},
		RateLimit:      RateLimitPolicy{Rate: 50, Burst: 5},
		MaxConcurrent:  2,
	})

	if e.retry == nil || e.retry.Config().Strategy != BackoffConstant {
		t.Errorf("retry = %+v, want constant backoff", e.retry)
	}
	if e.timeout == nil || e.timeout.Duration() != time.Second {
		t.Error("timeout not configured")
	}
	if e.CircuitBreaker() == nil || e.rateLimiter == nil || e.concurrency == nil {
		t.Error("breaker, limiter and concurrency limit should be configured")
	}

	empty := NewPolicy(PolicyConfig{Retry: RetryPolicy{MaxAttempts: 1}})
	if empty.retry != nil {
		t.Error("MaxAttempts 1 should not configure retries")
	}
}

func TestNewPolicy_Hooks(t *testing.T) {
	var retried int
	var opened bool
	e := NewPolicy(PolicyConfig{
		Retry:          RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond},
		CircuitBreaker: CircuitBreakerPolicy{MaxFailures: 10},
	}, PolicyHooks{
		OnRetry: func(int, error, time.Duration) { retried++ },
		OnStateChange: func(_, to State) {
			if to == StateOpen {
				opened = true
			}
		},
	})

	_ = e.Execute(context.Background(), fail)
	if retried != 2 {
		t.Errorf("OnRetry calls = %d, want 2", retried)
	}
	if opened {
		t.Error("circuit should not open below MaxFailures")
	}
}

func TestPolicyConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  PolicyConfig
		wantErr bool
	}{
		{"zero", PolicyConfig{}, false},
		{"valid", PolicyConfig{Retry: RetryPolicy{MaxAttempts: 3, Backoff: "linear"}, Timeout: time.Second}, false},
		{"bad backoff", PolicyConfig{Retry: RetryPolicy{Backoff: "random"}}, true},
		{"negative attempts", PolicyConfig{Retry: RetryPolicy{MaxAttempts: -1}}, true},
		{"negative timeout", PolicyConfig{Timeout: -time.Second}, true},
		{"negative rate", PolicyConfig{RateLimit: RateLimitPolicy{Rate: -1}}, true},
		{"negative concurrency", PolicyConfig{MaxConcurrent: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
	if !(PolicyConfig{}).IsZero() {
		t.Error("IsZero() = false for the zero policy")
	}
}

func TestIsCancellation(t *testing.T) {
	if !IsCancellation(context.Canceled) {
		t.Error("context.Canceled should be a cancellation")
	}
	if IsCancellation(context.DeadlineExceeded) {
		t.Error("a deadline is a failure, not a cancellation")
	}
	if IsCancellation(errBackend) {
		t.Error("errBackend is not a cancellation")
	}
}
