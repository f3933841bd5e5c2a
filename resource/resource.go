package resource

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/resourcecache/collection"
	"github.com/jonwraymond/resourcecache/executor"
	"github.com/jonwraymond/resourcecache/key"
	"github.com/jonwraymond/resourcecache/observe"
)

// Request is what a loader receives.
type Request[K comparable] struct {
	// Key is a single key, a key list, AliasAll, or a registered alias.
	Key key.Key[K]

	// Includes lists the optional parts of the entity the caller needs.
	Includes []string

	// Refresh is set when the fetch was forced.
	Refresh bool
}

// GateFunc reports whether the resource may load in ctx.
type GateFunc func(ctx context.Context) bool

// keyState is the per-key (or per-alias) bookkeeping.
type keyState struct {
	outdated bool
	loading  int
	version  uint64
	includes []string
	absent   bool
	err      error
}

// fetchFunc performs the remote call. The returned commit stores the result
// and reports keys that disappeared; it runs with the resource lock held.
type fetchFunc[K comparable] func(ctx context.Context, req Request[K]) (commitFunc[K], error)

type commitFunc[K comparable] func(start uint64) (removed []K)

// core is the state machine shared by MapResource and DataResource.
type core[K comparable] struct {
	name   string
	opts   options
	logger observe.Logger

	mu        sync.RWMutex
	meta      *collection.MetadataMap[K, *keyState]
	scopes    *collection.MetadataMap[key.Alias, *keyState]
	aliases   map[string]struct{}
	gates     []GateFunc
	clock     uint64
	clearedAt uint64

	// Set by the specialization. size and present are called with mu held.
	fetch   fetchFunc[K]
	size    func() int
	present func(K) bool

	flights singleflight.Group
	sched   *scheduler[K]

	preloads       *executor.Executor[key.Key[K]]
	beforeLoad     *executor.Executor[key.Key[K]]
	onDataOutdated *executor.Executor[key.Key[K]]
	onDataUpdate   *executor.Executor[key.Key[K]]
	onItemDelete   *executor.Executor[key.Key[K]]
	onDataError    *executor.Executor[*LoadError[K]]
}

func newCore[K comparable](name string, opts []Option) *core[K] {
	o := buildOptions(opts)
	c := &core[K]{
		name:   name,
		opts:   o,
		logger: o.logger,
		meta: collection.NewMetadataMap[K, *keyState](func(K, *collection.MetadataMap[K, *keyState]) *keyState {
			return &keyState{outdated: true}
		}),
		scopes: collection.NewMetadataMap[key.Alias, *keyState](func(key.Alias, *collection.MetadataMap[key.Alias, *keyState]) *keyState {
			return &keyState{outdated: true}
		}),
		aliases:        make(map[string]struct{}),
		sched:          newScheduler[K](),
		preloads:       executor.New[key.Key[K]](),
		beforeLoad:     executor.New[key.Key[K]](),
		onDataOutdated: executor.New[key.Key[K]](),
		onDataUpdate:   executor.New[key.Key[K]](),
		onItemDelete:   executor.New[key.Key[K]](),
		onDataError:    executor.New[*LoadError[K]](),
	}
	c.size = func() int { return 0 }
	c.present = func(K) bool { return true }
	c.beforeLoad.AddHandler(c.checkGates)
	return c
}

// Name returns the resource name used in logs, spans and flight names.
func (c *core[K]) Name() string { return c.name }

// BeforeLoad runs before every fetch. A handler may interrupt to skip the
// fetch or return an error to fail the load.
func (c *core[K]) BeforeLoad() *executor.Executor[key.Key[K]] { return c.beforeLoad }

// OnDataOutdated runs after keys are marked outdated.
func (c *core[K]) OnDataOutdated() *executor.Executor[key.Key[K]] { return c.onDataOutdated }

// OnDataUpdate runs after data changes through a load, set, delete or clear.
func (c *core[K]) OnDataUpdate() *executor.Executor[key.Key[K]] { return c.onDataUpdate }

// OnItemDelete runs when entries are removed, before OnDataUpdate.
func (c *core[K]) OnItemDelete() *executor.Executor[key.Key[K]] { return c.onItemDelete }

// OnDataError runs after a fetch fails.
func (c *core[K]) OnDataError() *executor.Executor[*LoadError[K]] { return c.onDataError }

func (c *core[K]) base() *core[K] { return c }

// Require adds permission gates. While any gate fails, loads return nil
// without fetching and keys stay outdated.
func (c *core[K]) Require(gates ...GateFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gates = append(c.gates, gates...)
}

// IsLoadable reports whether every gate passes in ctx.
func (c *core[K]) IsLoadable(ctx context.Context) bool {
	c.mu.RLock()
	gates := slices.Clone(c.gates)
	c.mu.RUnlock()

	for _, gate := range gates {
		if !gate(ctx) {
			return false
		}
	}
	return true
}

func (c *core[K]) checkGates(ctx context.Context, _ key.Key[K], _ *executor.Contexts) error {
	if !c.IsLoadable(ctx) {
		return executor.ErrInterrupt
	}
	return nil
}

func (c *core[K]) registerAlias(name string) error {
	if name == key.AliasAll.Name {
		return fmt.Errorf("%w: %s", ErrReservedAlias, name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aliases[name] = struct{}{}
	return nil
}

func (c *core[K]) checkAlias(k key.Key[K]) error {
	a, ok := k.Alias()
	if !ok || k.IsAll() {
		return nil
	}
	c.mu.RLock()
	_, registered := c.aliases[a.Name]
	c.mu.RUnlock()
	if !registered {
		return fmt.Errorf("%w: %s", ErrAliasNotSupported, a)
	}
	return nil
}

// load brings k up to date. Concurrent calls with the same key, includes
// and mode share one flight. The flight runs detached from ctx; ctx only
// bounds how long this caller waits.
func (c *core[K]) load(ctx context.Context, k key.Key[K], includes []string, refresh bool) error {
	if k.IsEmpty() {
		return nil
	}
	if err := c.checkAlias(k); err != nil {
		return err
	}
	includes = normalizeIncludes(includes)
	if !refresh && !c.isOutdated(k, includes) {
		return nil
	}
	if err := c.preload(ctx, k); err != nil {
		return err
	}

	meta := observe.ResourceMeta{
		Resource:  c.name,
		Operation: observe.OperationLoad,
		Key:       k.String(),
		Includes:  includes,
	}
	if refresh {
		meta.Operation = observe.OperationRefresh
	}

	flight, err := c.opts.keyer.Key(c.name, meta.Operation+":"+meta.Key, map[string]any{
		"includes": includes,
	})
	if err != nil {
		return err
	}

	leader := false
	ch := c.flights.DoChan(flight, func() (any, error) {
		leader = true
		return nil, c.run(context.WithoutCancel(ctx), k, includes, refresh, meta)
	})

	select {
	case res := <-ch:
		if !leader && c.opts.middleware != nil {
			c.opts.middleware.Joined(ctx, meta)
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// preload loads linked sources before a fetch of k. It runs on the
// caller's goroutine before joining a flight, so a flight never waits on
// another resource's flight and mutually preloading resources cannot
// deadlock.
func (c *core[K]) preload(ctx context.Context, k key.Key[K]) error {
	if c.preloads.Len() == 0 || !c.IsLoadable(ctx) {
		return nil
	}
	_, err := c.preloads.Execute(withVisited(ctx, c), k)
	return err
}

func (c *core[K]) run(ctx context.Context, k key.Key[K], includes []string, refresh bool, meta observe.ResourceMeta) error {
	release, err := c.sched.acquire(ctx, k)
	if err != nil {
		return err
	}
	defer release()

	// Another flight may have loaded k while this one waited.
	if !refresh && !c.isOutdated(k, includes) {
		return nil
	}

	ctx = withVisited(ctx, c)
	contexts, err := c.beforeLoad.Execute(ctx, k)
	if err != nil {
		return err
	}
	if contexts.Interrupted() {
		c.logger.Debug(ctx, "resource load skipped",
			observe.Field{Key: "resource.name", Value: c.name},
			observe.Field{Key: "resource.key", Value: meta.Key},
		)
		return nil
	}

	c.mu.Lock()
	start := c.clock
	c.forStatesLocked(k, true, func(st *keyState) { st.loading++ })
	c.mu.Unlock()

	commit, err := c.fetchObserved(ctx, meta, Request[K]{Key: k, Includes: includes, Refresh: refresh})

	var removed []K
	c.mu.Lock()
	c.forStatesLocked(k, false, func(st *keyState) {
		if st.loading > 0 {
			st.loading--
		}
	})
	var loadErr *LoadError[K]
	switch {
	case err != nil:
		loadErr = &LoadError[K]{Resource: c.name, Key: k, Err: err}
		c.forStatesLocked(k, true, func(st *keyState) {
			st.outdated = true
			st.err = loadErr
		})
	case c.clearedAt > start:
		// Cleared while loading; the result belongs to a previous session.
	default:
		removed = commit(start)
	}
	c.mu.Unlock()
	release()

	if loadErr != nil {
		if _, herr := c.onDataError.Execute(ctx, loadErr); herr != nil {
			c.logHandlerError(ctx, "data error", herr)
		}
		return err
	}

	if len(removed) > 0 {
		c.notify(ctx, c.onItemDelete, key.List(removed...), "item delete")
	}
	c.notify(ctx, c.onDataUpdate, k, "data update")
	return nil
}

// fetchObserved calls the specialization's fetch through the loader policy
// and the observer middleware, whichever are configured.
func (c *core[K]) fetchObserved(ctx context.Context, meta observe.ResourceMeta, req Request[K]) (commitFunc[K], error) {
	var (
		mu     sync.Mutex
		commit commitFunc[K]
	)
	op := func(ctx context.Context) error {
		fn, err := c.fetch(ctx, req)
		if err != nil {
			return err
		}
		mu.Lock()
		commit = fn
		mu.Unlock()
		return nil
	}

	if policy := c.opts.policy; policy != nil {
		inner := op
		op = func(ctx context.Context) error {
			return policy.Execute(ctx, inner)
		}
	}

	var err error
	if mw := c.opts.middleware; mw != nil {
		err = mw.Wrap(func(ctx context.Context, _ observe.ResourceMeta) error {
			return op(ctx)
		})(ctx, meta)
	} else {
		err = op(ctx)
	}
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	return commit, nil
}

// forStatesLocked calls fn for the states that track k. Concrete keys
// without state are created when create is set and skipped otherwise.
func (c *core[K]) forStatesLocked(k key.Key[K], create bool, fn func(*keyState)) {
	if a, ok := k.Alias(); ok {
		if create {
			fn(c.scopes.Get(a))
		} else if st, ok := c.scopes.Lookup(a); ok {
			fn(st)
		}
		return
	}
	key.ForEach(k, func(v K) {
		if create {
			fn(c.meta.Get(v))
		} else if st, ok := c.meta.Lookup(v); ok {
			fn(st)
		}
	})
}

func (c *core[K]) isOutdated(k key.Key[K], includes []string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isOutdatedLocked(k, includes)
}

func (c *core[K]) isOutdatedLocked(k key.Key[K], includes []string) bool {
	if a, ok := k.Alias(); ok {
		st, ok := c.scopes.Lookup(a)
		if !ok || st.outdated || !covers(st.includes, includes) {
			return true
		}
		if !k.IsAll() {
			return false
		}
		// Only cached entries belong to the whole collection; absent or
		// failed keys outside it do not outdate it.
		outdated := false
		c.meta.Range(func(k K, st *keyState) bool {
			outdated = st.outdated && c.present(k)
			return !outdated
		})
		return outdated
	}

	for _, v := range k.Keys() {
		st, ok := c.meta.Lookup(v)
		if !ok || st.outdated || !covers(st.includes, includes) {
			return true
		}
	}
	return false
}

func (c *core[K]) isLoading(k key.Key[K]) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	loading := false
	c.forStatesLocked(k, false, func(st *keyState) {
		if st.loading > 0 {
			loading = true
		}
	})
	return loading
}

func (c *core[K]) lastError(k key.Key[K]) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var err error
	c.forStatesLocked(k, false, func(st *keyState) {
		if err == nil && st.err != nil {
			err = st.err
		}
	})
	return err
}

// markOutdated invalidates k without fetching. A load already in flight
// completes but does not mark k fresh.
func (c *core[K]) markOutdated(ctx context.Context, k key.Key[K]) error {
	if err := c.checkAlias(k); err != nil {
		return err
	}

	c.mu.Lock()
	c.clock++
	version := c.clock
	mark := func(st *keyState) {
		st.outdated = true
		st.version = version
	}
	if k.IsAll() {
		c.scopes.Get(key.AliasAll)
		c.scopes.Range(func(_ key.Alias, st *keyState) bool {
			mark(st)
			return true
		})
		c.meta.Range(func(_ K, st *keyState) bool {
			mark(st)
			return true
		})
	} else {
		// Unseen keys are already outdated.
		c.forStatesLocked(k, false, mark)
	}
	c.mu.Unlock()

	c.notify(ctx, c.onDataOutdated, k, "data outdated")
	return nil
}

// markUpdated marks k fresh without fetching. Loaded includes are kept.
func (c *core[K]) markUpdated(k key.Key[K]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markUpdatedLocked(k)
}

func (c *core[K]) markUpdatedLocked(k key.Key[K]) {
	fresh := func(st *keyState) {
		st.outdated = false
		st.err = nil
	}
	if k.IsAll() {
		fresh(c.scopes.Get(key.AliasAll))
		c.meta.Range(func(_ K, st *keyState) bool {
			fresh(st)
			return true
		})
		return
	}
	c.forStatesLocked(k, true, fresh)
}

// markFreshLocked records a successful fetch of keys started at start.
// Keys invalidated after start stay outdated.
func (c *core[K]) markFreshLocked(keys []K, includes []string, start uint64) {
	for _, k := range keys {
		st := c.meta.Get(k)
		st.absent = false
		if st.version > start {
			continue
		}
		st.outdated = false
		st.includes = includes
		st.err = nil
	}
}

// markAbsentLocked records that a fetch of k found nothing.
func (c *core[K]) markAbsentLocked(k K, includes []string, start uint64) {
	st := c.meta.Get(k)
	if st.version > start {
		return
	}
	st.absent = true
	st.outdated = false
	st.includes = includes
	st.err = nil
}

func (c *core[K]) markScopeFreshLocked(a key.Alias, includes []string, start uint64) {
	st := c.scopes.Get(a)
	if st.version > start {
		return
	}
	st.outdated = false
	st.includes = includes
	st.err = nil
}

// resetLocked drops all bookkeeping. Loads in flight finish without
// committing.
func (c *core[K]) resetLocked() {
	c.meta.Clear()
	c.scopes.Clear()
	c.clock++
	c.clearedAt = c.clock
}

// perform runs fn while holding the scheduler slot for k, so it never
// interleaves with a fetch of an intersecting key. fn must not load keys
// intersecting k.
func (c *core[K]) perform(ctx context.Context, k key.Key[K], fn func(ctx context.Context) error) error {
	release, err := c.sched.acquire(ctx, k)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}

func (c *core[K]) notify(ctx context.Context, exec *executor.Executor[key.Key[K]], k key.Key[K], event string) {
	ctx = withVisited(ctx, c)
	if _, err := exec.Execute(ctx, k); err != nil {
		c.logHandlerError(ctx, event, err)
	}
}

func (c *core[K]) logHandlerError(ctx context.Context, event string, err error) {
	c.logger.Warn(ctx, "resource handler failed",
		observe.Field{Key: "resource.name", Value: c.name},
		observe.Field{Key: "event", Value: event},
		observe.Field{Key: "error", Value: err.Error()},
	)
}

// normalizeIncludes sorts and deduplicates include flags. Empty input
// yields nil.
func normalizeIncludes(includes []string) []string {
	if len(includes) == 0 {
		return nil
	}
	out := slices.Clone(includes)
	slices.Sort(out)
	return slices.Compact(out)
}

// covers reports whether every requested include was loaded.
func covers(loaded, requested []string) bool {
	for _, inc := range requested {
		if _, found := slices.BinarySearch(loaded, inc); !found {
			return false
		}
	}
	return true
}

type visitedKey struct{}

// withVisited records node as part of the current propagation chain.
func withVisited(ctx context.Context, node any) context.Context {
	prev, _ := ctx.Value(visitedKey{}).([]any)
	if slices.Contains(prev, node) {
		return ctx
	}
	next := append(slices.Clip(prev), node)
	return context.WithValue(ctx, visitedKey{}, next)
}

// visited reports whether node already took part in the propagation chain
// carried by ctx.
func visited(ctx context.Context, node any) bool {
	prev, _ := ctx.Value(visitedKey{}).([]any)
	return slices.Contains(prev, node)
}
