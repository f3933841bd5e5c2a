package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrInterrupt stops a pipeline without failing it. Handlers return it (or
// call Contexts.Interrupt) to skip the remaining handlers.
var ErrInterrupt = errors.New("executor: interrupted")

// Handler processes a payload. Returning ErrInterrupt stops the pipeline;
// any other error aborts it and is returned by Execute.
type Handler[T any] func(ctx context.Context, data T, c *Contexts) error

// HandlerID identifies a registered handler for removal.
type HandlerID uint64

var handlerSeq atomic.Uint64

// Chain is anything that can run as part of another executor's pipeline.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: ErrInterrupt must not escape; it is recorded on Contexts.
type Chain[T any] interface {
	ExecuteWith(ctx context.Context, data T, c *Contexts) error
}

// ChainFunc adapts a function to Chain.
type ChainFunc[T any] func(ctx context.Context, data T, c *Contexts) error

// ExecuteWith calls f.
func (f ChainFunc[T]) ExecuteWith(ctx context.Context, data T, c *Contexts) error {
	return f(ctx, data, c)
}

type registered[T any] struct {
	id HandlerID
	fn Handler[T]
}

// handlerSet is the shared storage behind Executor and Collection.
type handlerSet[T any] struct {
	mu       sync.RWMutex
	handlers []registered[T]
	post     []registered[T]
}

func (s *handlerSet[T]) add(fn Handler[T], post bool) HandlerID {
	id := HandlerID(handlerSeq.Add(1))
	s.mu.Lock()
	defer s.mu.Unlock()
	if post {
		s.post = append(s.post, registered[T]{id: id, fn: fn})
	} else {
		s.handlers = append(s.handlers, registered[T]{id: id, fn: fn})
	}
	return id
}

func (s *handlerSet[T]) remove(id HandlerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, h := range s.handlers {
		if h.id == id {
			s.handlers = append(s.handlers[:i:i], s.handlers[i+1:]...)
			return true
		}
	}
	for i, h := range s.post {
		if h.id == id {
			s.post = append(s.post[:i:i], s.post[i+1:]...)
			return true
		}
	}
	return false
}

func (s *handlerSet[T]) snapshot() (handlers, post []Handler[T]) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handlers = make([]Handler[T], len(s.handlers))
	for i, h := range s.handlers {
		handlers[i] = h.fn
	}
	post = make([]Handler[T], len(s.post))
	for i, h := range s.post {
		post[i] = h.fn
	}
	return handlers, post
}

func (s *handlerSet[T]) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handlers) + len(s.post)
}

// Collection is a set of handlers that can be attached to several executors.
type Collection[T any] struct {
	set handlerSet[T]
}

// NewCollection creates an empty collection.
func NewCollection[T any]() *Collection[T] {
	return &Collection[T]{}
}

// AddHandler registers a main handler.
func (c *Collection[T]) AddHandler(fn Handler[T]) HandlerID {
	return c.set.add(fn, false)
}

// AddPostHandler registers a post-handler.
func (c *Collection[T]) AddPostHandler(fn Handler[T]) HandlerID {
	return c.set.add(fn, true)
}

// RemoveHandler unregisters a handler. It reports whether it was found.
func (c *Collection[T]) RemoveHandler(id HandlerID) bool {
	return c.set.remove(id)
}

// Executor is an ordered handler pipeline.
//
// Contract:
//   - Concurrency: registration and Execute are safe for concurrent use;
//     Execute works on a snapshot taken when it starts.
//   - Errors: the first handler error aborts the pipeline and is returned
//     unchanged; post-handlers do not run after an error.
type Executor[T any] struct {
	set handlerSet[T]

	mu          sync.RWMutex
	before      []Chain[T]
	next        []Chain[T]
	collections []*Collection[T]
}

// New creates an empty executor.
func New[T any]() *Executor[T] {
	return &Executor[T]{}
}

// AddHandler registers a main handler.
func (e *Executor[T]) AddHandler(fn Handler[T]) HandlerID {
	return e.set.add(fn, false)
}

// AddPostHandler registers a handler that runs after the main handlers,
// including when the pipeline was interrupted.
func (e *Executor[T]) AddPostHandler(fn Handler[T]) HandlerID {
	return e.set.add(fn, true)
}

// RemoveHandler unregisters a handler. It reports whether it was found.
func (e *Executor[T]) RemoveHandler(id HandlerID) bool {
	return e.set.remove(id)
}

// Before runs chain ahead of this executor's handlers.
func (e *Executor[T]) Before(chain Chain[T]) *Executor[T] {
	e.mu.Lock()
	e.before = append(e.before, chain)
	e.mu.Unlock()
	return e
}

// Next runs chain after this executor's handlers unless interrupted.
func (e *Executor[T]) Next(chain Chain[T]) *Executor[T] {
	e.mu.Lock()
	e.next = append(e.next, chain)
	e.mu.Unlock()
	return e
}

// AddCollection attaches a shared handler collection.
func (e *Executor[T]) AddCollection(c *Collection[T]) *Executor[T] {
	e.mu.Lock()
	e.collections = append(e.collections, c)
	e.mu.Unlock()
	return e
}

// Len returns the number of handlers registered directly on e.
func (e *Executor[T]) Len() int {
	return e.set.len()
}

// Execute runs the pipeline with fresh Contexts and returns them so the
// caller can read values attached by handlers.
func (e *Executor[T]) Execute(ctx context.Context, data T) (*Contexts, error) {
	c := NewContexts()
	err := e.ExecuteWith(ctx, data, c)
	return c, err
}

// ExecuteWith runs the pipeline with the given Contexts.
func (e *Executor[T]) ExecuteWith(ctx context.Context, data T, c *Contexts) error {
	if c == nil {
		c = NewContexts()
	}

	e.mu.RLock()
	before := append([]Chain[T](nil), e.before...)
	next := append([]Chain[T](nil), e.next...)
	collections := append([]*Collection[T](nil), e.collections...)
	e.mu.RUnlock()

	for _, chain := range before {
		if c.Interrupted() {
			break
		}
		if err := runChain(ctx, chain, data, c); err != nil {
			return err
		}
	}

	handlers, post := e.set.snapshot()
	for _, col := range collections {
		h, p := col.set.snapshot()
		handlers = append(handlers, h...)
		post = append(post, p...)
	}

	if err := runHandlers(ctx, handlers, data, c); err != nil {
		return err
	}
	if err := runPost(ctx, post, data, c); err != nil {
		return err
	}

	for _, chain := range next {
		if c.Interrupted() {
			break
		}
		if err := runChain(ctx, chain, data, c); err != nil {
			return err
		}
	}
	return nil
}

func runChain[T any](ctx context.Context, chain Chain[T], data T, c *Contexts) error {
	err := chain.ExecuteWith(ctx, data, c)
	if errors.Is(err, ErrInterrupt) {
		c.Interrupt()
		return nil
	}
	return err
}

func runHandlers[T any](ctx context.Context, handlers []Handler[T], data T, c *Contexts) error {
	for _, h := range handlers {
		if c.Interrupted() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h(ctx, data, c); err != nil {
			if errors.Is(err, ErrInterrupt) {
				c.Interrupt()
				return nil
			}
			return err
		}
	}
	return nil
}

// runPost ignores interruption: post-handlers always see the outcome.
func runPost[T any](ctx context.Context, handlers []Handler[T], data T, c *Contexts) error {
	for _, h := range handlers {
		if err := h(ctx, data, c); err != nil && !errors.Is(err, ErrInterrupt) {
			return err
		}
	}
	return nil
}

// Map adapts a chain over U so it can run in a pipeline over T.
func Map[T, U any](target Chain[U], fn func(T) U) Chain[T] {
	return ChainFunc[T](func(ctx context.Context, data T, c *Contexts) error {
		return target.ExecuteWith(ctx, fn(data), c)
	})
}

// Filter runs target only for payloads accepted by pred.
func Filter[T any](target Chain[T], pred func(T) bool) Chain[T] {
	return ChainFunc[T](func(ctx context.Context, data T, c *Contexts) error {
		if !pred(data) {
			return nil
		}
		return target.ExecuteWith(ctx, data, c)
	})
}

// Ensure Executor implements Chain
var _ Chain[struct{}] = (*Executor[struct{}])(nil)
