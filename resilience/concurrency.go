package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ConcurrencyLimit caps the number of fetches running against a backend.
type ConcurrencyLimit struct {
	sem     *semaphore.Weighted
	max     int64
	maxWait time.Duration

	active   atomic.Int64
	rejected atomic.Int64
}

// NewConcurrencyLimit allows up to maxConcurrent fetches at once. A fetch
// waits up to maxWait for a slot; zero rejects at once.
func NewConcurrencyLimit(maxConcurrent int, maxWait time.Duration) *ConcurrencyLimit {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	return &ConcurrencyLimit{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		max:     int64(maxConcurrent),
		maxWait: maxWait,
	}
}

// Execute runs op in a slot.
func (l *ConcurrencyLimit) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := l.acquire(ctx); err != nil {
		return err
	}
	l.active.Add(1)
	defer func() {
		l.active.Add(-1)
		l.sem.Release(1)
	}()
	return op(ctx)
}

func (l *ConcurrencyLimit) acquire(ctx context.Context) error {
	if l.sem.TryAcquire(1) {
		return nil
	}
	if l.maxWait <= 0 {
		l.rejected.Add(1)
		return ErrConcurrencyLimit
	}

	wctx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()
	if err := l.sem.Acquire(wctx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			l.rejected.Add(1)
			return ErrConcurrencyLimit
		}
		return err
	}
	return nil
}

// Active returns the number of fetches holding a slot.
func (l *ConcurrencyLimit) Active() int { return int(l.active.Load()) }

// Available returns the number of free slots.
func (l *ConcurrencyLimit) Available() int { return int(l.max - l.active.Load()) }

// Rejected returns how many fetches gave up waiting for a slot.
func (l *ConcurrencyLimit) Rejected() int64 { return l.rejected.Load() }
