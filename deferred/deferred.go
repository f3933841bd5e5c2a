// Package deferred provides cancellable deferred values.
//
// A Deferred settles exactly once: resolved with a value, rejected with an
// error, or cancelled. Cancellation rejects with ErrCancelled so callers can
// tell a voluntary stop apart from a real failure and keep it out of
// user-facing error reporting.
package deferred

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCancelled is the rejection reason of a cancelled Deferred.
var ErrCancelled = errors.New("deferred: cancelled")

// IsCancelled reports whether err is, or wraps, ErrCancelled.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// State is the settlement state of a Deferred.
type State int

const (
	// StatePending means the Deferred has not settled.
	StatePending State = iota
	// StateResolved means the Deferred settled with a value.
	StateResolved
	// StateRejected means the Deferred settled with an error.
	StateRejected
	// StateCancelled means the Deferred was cancelled before settling.
	StateCancelled
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateRejected:
		return "rejected"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Deferred is a value that becomes available later.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Settlement: the first of resolve/reject/Cancel wins; later calls are no-ops.
type Deferred[T any] struct {
	mu     sync.Mutex
	done   chan struct{}
	state  State
	value  T
	err    error
	cancel context.CancelFunc
}

func newDeferred[T any]() *Deferred[T] {
	return &Deferred[T]{done: make(chan struct{})}
}

// Go runs fn on its own goroutine and settles with its result. Cancel
// cancels the context passed to fn. An error wrapping ErrCancelled settles
// the Deferred as cancelled.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Deferred[T] {
	d := newDeferred[T]()
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go func() {
		defer cancel()
		v, err := fn(ctx)
		switch {
		case IsCancelled(err):
			d.settle(StateCancelled, v, err)
			return
		case err != nil:
			d.settle(StateRejected, v, err)
			return
		}
		d.settle(StateResolved, v, nil)
	}()
	return d
}

// Resolved returns a Deferred already resolved with v.
func Resolved[T any](v T) *Deferred[T] {
	d := newDeferred[T]()
	d.settle(StateResolved, v, nil)
	return d
}

// Rejected returns a Deferred already rejected with err.
func Rejected[T any](err error) *Deferred[T] {
	d := newDeferred[T]()
	var zero T
	d.settle(StateRejected, zero, err)
	return d
}

// Delay returns a Deferred that resolves after d unless cancelled first.
// When ctx ends first it is cancelled with ErrCancelled wrapping the cause.
func Delay(ctx context.Context, d time.Duration) *Deferred[struct{}] {
	return Go(ctx, func(ctx context.Context) (struct{}, error) {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			return struct{}{}, nil
		case <-ctx.Done():
			return struct{}{}, fmt.Errorf("%w: %w", ErrCancelled, context.Cause(ctx))
		}
	})
}

func (d *Deferred[T]) settle(state State, v T, err error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StatePending {
		return false
	}
	d.state = state
	d.value = v
	d.err = err
	close(d.done)
	return true
}

// Cancel rejects a pending Deferred with ErrCancelled. It reports whether
// the call cancelled it.
func (d *Deferred[T]) Cancel() bool {
	var zero T
	if !d.settle(StateCancelled, zero, ErrCancelled) {
		return false
	}
	if d.cancel != nil {
		d.cancel()
	}
	return true
}

// Done is closed once the Deferred settles.
func (d *Deferred[T]) Done() <-chan struct{} {
	return d.done
}

// State returns the current settlement state.
func (d *Deferred[T]) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Result returns the settled value and error. It does not block; a pending
// Deferred returns the zero value and a nil error.
func (d *Deferred[T]) Result() (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value, d.err
}

// Wait blocks until the Deferred settles or ctx ends. Ending ctx stops the
// wait only; it does not cancel the Deferred.
func (d *Deferred[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-d.done:
		return d.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
