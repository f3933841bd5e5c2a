// Package resilience wraps resource loaders with backend protection.
//
// An Executor composes the patterns a loader may need when its backend is
// slow or failing:
//
//   - Rate Limiter: caps how often the backend is asked for data.
//   - Concurrency Limit: caps how many fetches run against it at once.
//   - Circuit Breaker: stops fetching after repeated failures so cached
//     data keeps being served without hammering the backend.
//   - Retry: retries a failed fetch with exponential, linear or constant
//     backoff.
//   - Timeout: bounds a single attempt.
//
// Cancellation is never a failure: a cancelled fetch is neither retried
// nor counted by the circuit breaker.
//
// Executors are usually built from a PolicyConfig:
//
//	policy := resilience.NewPolicy(resilience.PolicyConfig{
//	    Retry:   resilience.RetryPolicy{MaxAttempts: 3},
//	    Timeout: 5 * time.Second,
//	})
//	users := resource.NewMapResource("users", keyOf, loader,
//	    resource.WithLoaderPolicy(policy))
package resilience
