// Package executor provides an ordered, composable handler pipeline.
//
// An Executor runs its handlers in registration order against a payload and
// a shared Contexts value. Other executors can be chained before or after it,
// handler sets can be shared through a Collection, and any handler may stop
// the pipeline without failing it by returning ErrInterrupt.
//
// Handlers run to completion on the caller's goroutine in call order. The
// executor is not a scheduler: there is no fairness, priority, or timeout.
//
// # Order
//
// Execute runs, in order:
//
//  1. chains registered with Before
//  2. the executor's own handlers
//  3. handlers of added collections
//  4. post-handlers (own, then collections'), also after an interruption
//  5. chains registered with Next
package executor
