package resilience

import (
	"context"
	"errors"

	"github.com/jonwraymond/resourcecache/deferred"
)

// Sentinel errors for resilience operations.
var (
	// ErrCircuitOpen is returned while the circuit breaker rejects fetches.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrRateLimitExceeded is returned when no token became available in time.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrConcurrencyLimit is returned when no fetch slot became available in time.
	ErrConcurrencyLimit = errors.New("resilience: concurrency limit reached")

	// ErrTimeout is returned when an attempt exceeds its timeout.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// IsCancellation reports whether err only says the caller stopped waiting.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || deferred.IsCancelled(err)
}

func isFailure(err error) bool {
	return err != nil && !IsCancellation(err)
}
