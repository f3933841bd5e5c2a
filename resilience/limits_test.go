package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTimeout(t *testing.T) {
	to := NewTimeout(10 * time.Millisecond)

	if err := to.Execute(context.Background(), succeed); err != nil {
		t.Errorf("fast op error = %v", err)
	}

	err := to.Execute(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("slow op error = %v, want ErrTimeout", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = to.Execute(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled op error = %v, want context.Canceled", err)
	}

	if NewTimeout(0).Duration() != 30*time.Second {
		t.Errorf("default Duration() = %v, want 30s", NewTimeout(0).Duration())
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 2})

	if !rl.Allow() || !rl.Allow() {
		t.Fatal("burst of 2 should be allowed")
	}
	if rl.Allow() {
		t.Error("third request allowed, want rejected")
	}
	if err := rl.Execute(context.Background(), succeed); !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("Execute() = %v, want ErrRateLimitExceeded", err)
	}
}

func TestRateLimiter_Waits(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 100, Burst: 1, MaxWait: time.Second})
	ctx := context.Background()

	if err := rl.Execute(ctx, succeed); err != nil {
		t.Fatalf("first Execute() = %v", err)
	}
	start := time.Now()
	if err := rl.Execute(ctx, succeed); err != nil {
		t.Fatalf("second Execute() = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
		t.Errorf("second Execute() waited %v, want about 10ms", elapsed)
	}
}

func TestRateLimiter_WaitCancelled(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1, MaxWait: time.Hour})
	rl.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); err == nil || errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("Wait() = %v, want a context error", err)
	}
}

func TestConcurrencyLimit(t *testing.T) {
	l := NewConcurrencyLimit(1, 0)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- l.Execute(ctx, func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	if l.Active() != 1 || l.Available() != 0 {
		t.Errorf("Active/Available = %d/%d, want 1/0", l.Active(), l.Available())
	}
	if err := l.Execute(ctx, succeed); !errors.Is(err, ErrConcurrencyLimit) {
		t.Errorf("Execute() while full = %v, want ErrConcurrencyLimit", err)
	}
	if l.Rejected() != 1 {
		t.Errorf("Rejected() = %d, want 1", l.Rejected())
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if err := l.Execute(ctx, succeed); err != nil {
		t.Errorf("Execute() after release = %v", err)
	}
}

func TestConcurrencyLimit_WaitsForSlot(t *testing.T) {
	l := NewConcurrencyLimit(1, time.Second)
	ctx := context.Background()

	started := make(chan struct{})
	go func() {
		_ = l.Execute(ctx, func(context.Context) error {
			close(started)
			time.Sleep(10 * time.Millisecond)
			return nil
		})
	}()
	<-started

	if err := l.Execute(ctx, succeed); err != nil {
		t.Errorf("Execute() = %v, want nil after waiting", err)
	}
}
