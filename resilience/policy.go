package resilience

import (
	"errors"
	"fmt"
	"time"
)

// PolicyConfig is the declarative form of an Executor, as read from a
// configuration file. Zero sections are left out of the executor.
type PolicyConfig struct {
	Retry          RetryPolicy          `toml:"retry"`
	Timeout        time.Duration        `toml:"timeout"`
	CircuitBreaker CircuitBreakerPolicy `toml:"circuit_breaker"`
	RateLimit      RateLimitPolicy      `toml:"rate_limit"`
	MaxConcurrent  int                  `toml:"max_concurrent"`
	MaxWait        time.Duration        `toml:"max_wait"`
}

// RetryPolicy configures retries. MaxAttempts below 2 disables them.
type RetryPolicy struct {
	MaxAttempts  int           `toml:"max_attempts"`
	InitialDelay time.Duration `toml:"initial_delay"`
	MaxDelay     time.Duration `toml:"max_delay"`
	Backoff      string        `toml:"backoff"`
	Jitter       bool          `toml:"jitter"`
}

// CircuitBreakerPolicy configures the breaker. MaxFailures of zero
// disables it.
type CircuitBreakerPolicy struct {
	MaxFailures  int           `toml:"max_failures"`
	ResetTimeout time.Duration `toml:"reset_timeout"`
}

// RateLimitPolicy configures the limiter. A zero Rate disables it.
type RateLimitPolicy struct {
	Rate  float64 `toml:"rate"`
	Burst int     `toml:"burst"`
}

// Validate checks the policy for values that cannot be honored.
func (c PolicyConfig) Validate() error {
	var errs []error
	if _, ok := ParseBackoffStrategy(c.Retry.Backoff); !ok {
		errs = append(errs, fmt.Errorf("retry.backoff: unknown strategy %q", c.Retry.Backoff))
	}
	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("retry.max_attempts must not be negative"))
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	if c.CircuitBreaker.MaxFailures < 0 {
		errs = append(errs, errors.New("circuit_breaker.max_failures must not be negative"))
	}
	if c.RateLimit.Rate < 0 {
		errs = append(errs, errors.New("rate_limit.rate must not be negative"))
	}
	if c.MaxConcurrent < 0 {
		errs = append(errs, errors.New("max_concurrent must not be negative"))
	}
	return errors.Join(errs...)
}

// IsZero reports whether the policy configures nothing.
func (c PolicyConfig) IsZero() bool {
	return c == PolicyConfig{}
}

// PolicyHooks receives notifications from the patterns built by NewPolicy.
type PolicyHooks struct {
	OnRetry       func(attempt int, err error, delay time.Duration)
	OnStateChange func(from, to State)
}

// NewPolicy builds an executor from c. Call Validate first; invalid
// values fall back to defaults.
func NewPolicy(c PolicyConfig, hooks ...PolicyHooks) *Executor {
	var h PolicyHooks
	if len(hooks) > 0 {
		h = hooks[0]
	}

	var opts []ExecutorOption
	if c.RateLimit.Rate > 0 {
		opts = append(opts, WithRateLimiter(NewRateLimiter(RateLimiterConfig{
			Rate:    c.RateLimit.Rate,
			Burst:   c.RateLimit.Burst,
			MaxWait: c.MaxWait,
		})))
	}
	if c.MaxConcurrent > 0 {
		opts = append(opts, WithConcurrencyLimit(NewConcurrencyLimit(c.MaxConcurrent, c.MaxWait)))
	}
	if c.CircuitBreaker.MaxFailures > 0 {
		opts = append(opts, WithCircuitBreaker(NewCircuitBreaker(CircuitBreakerConfig{
			MaxFailures:   c.CircuitBreaker.MaxFailures,
			ResetTimeout:  c.CircuitBreaker.ResetTimeout,
			OnStateChange: h.OnStateChange,
		})))
	}
	if c.Retry.MaxAttempts > 1 {
		strategy, _ := ParseBackoffStrategy(c.Retry.Backoff)
		opts = append(opts, WithRetry(NewRetry(RetryConfig{
			MaxAttempts:  c.Retry.MaxAttempts,
			InitialDelay: c.Retry.InitialDelay,
			MaxDelay:     c.Retry.MaxDelay,
			Strategy:     strategy,
			Jitter:       c.Retry.Jitter,
			OnRetry:      h.OnRetry,
		})))
	}
	if c.Timeout > 0 {
		opts = append(opts, WithTimeout(c.Timeout))
	}
	return NewExecutor(opts...)
}
