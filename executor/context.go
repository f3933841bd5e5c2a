package executor

import (
	"sync"
	"sync/atomic"
)

// Contexts carries typed values between handlers of one execution and
// records interruption.
type Contexts struct {
	mu          sync.Mutex
	values      map[any]any
	interrupted atomic.Bool
}

// NewContexts creates an empty Contexts.
func NewContexts() *Contexts {
	return &Contexts{values: make(map[any]any)}
}

// Interrupt marks the execution as interrupted.
func (c *Contexts) Interrupt() {
	c.interrupted.Store(true)
}

// Interrupted reports whether a handler interrupted the execution.
func (c *Contexts) Interrupted() bool {
	return c.interrupted.Load()
}

// ContextKey identifies a typed value on Contexts. Keys compare by identity.
type ContextKey[V any] struct {
	name    string
	factory func() V
}

// NewContextKey creates a key. factory builds the value on first access and
// may be nil, in which case the zero value is used.
func NewContextKey[V any](name string, factory func() V) *ContextKey[V] {
	return &ContextKey[V]{name: name, factory: factory}
}

// Name returns the key name.
func (k *ContextKey[V]) Name() string { return k.name }

// GetContext returns the value for key, creating it on first access.
func GetContext[V any](c *Contexts, key *ContextKey[V]) V {
	c.mu.Lock()
	if v, ok := c.values[key]; ok {
		c.mu.Unlock()
		out, _ := v.(V)
		return out
	}
	c.mu.Unlock()

	var v V
	if key.factory != nil {
		v = key.factory()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.values[key]; ok {
		out, _ := existing.(V)
		return out
	}
	c.values[key] = v
	return v
}

// SetContext stores value for key.
func SetContext[V any](c *Contexts, key *ContextKey[V], value V) {
	c.mu.Lock()
	c.values[key] = value
	c.mu.Unlock()
}

// LookupContext returns the value for key without creating it.
func LookupContext[V any](c *Contexts, key *ContextKey[V]) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		var zero V
		return zero, false
	}
	out, _ := v.(V)
	return out, true
}
