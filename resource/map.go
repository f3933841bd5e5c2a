package resource

import (
	"context"
	"fmt"

	"github.com/jonwraymond/resourcecache/collection"
	"github.com/jonwraymond/resourcecache/deferred"
	"github.com/jonwraymond/resourcecache/key"
)

// Loader fetches the entities addressed by req.Key. For a key list it may
// return fewer values than requested; missing keys are cached as known to
// be absent.
type Loader[K comparable, V any] func(ctx context.Context, req Request[K]) ([]V, error)

// AliasMatcher reports whether v belongs to the scope named by a.
type AliasMatcher[V any] func(a key.Alias, v V) bool

// MapResource caches a keyed collection of entities.
//
// Contract:
//   - Concurrency: all methods are safe for concurrent use.
//   - Ordering: values keep the order in which they were first stored unless
//     Sort is called; a load of AliasAll replaces the order wholesale.
//   - Notifications: OnDataUpdate fires before Load, Set, Delete or Clear
//     returns.
type MapResource[K comparable, V any] struct {
	*core[K]

	keyOf    func(V) K
	loader   Loader[K, V]
	store    *collection.OrderedMap[K, V]
	matchers map[string]AliasMatcher[V]
}

// NewMapResource creates a map resource. It panics if keyOf or loader is nil.
func NewMapResource[K comparable, V any](name string, keyOf func(V) K, loader Loader[K, V], opts ...Option) *MapResource[K, V] {
	if keyOf == nil {
		panic(ErrNilKeyFunc)
	}
	if loader == nil {
		panic(ErrNilLoader)
	}

	m := &MapResource[K, V]{
		core:     newCore[K](name, opts),
		keyOf:    keyOf,
		loader:   loader,
		store:    collection.NewOrderedMap(keyOf),
		matchers: make(map[string]AliasMatcher[V]),
	}
	m.fetch = m.fetchValues
	m.size = m.store.Len
	m.present = m.store.Has
	return m
}

// RegisterAlias makes alias name loadable. The loader receives the alias
// key unchanged; match selects the cached values belonging to it.
func (m *MapResource[K, V]) RegisterAlias(name string, match AliasMatcher[V]) error {
	if err := m.registerAlias(name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchers[name] = match
	return nil
}

// Load makes k fresh, fetching only when it is outdated or the requested
// includes were not loaded before.
func (m *MapResource[K, V]) Load(ctx context.Context, k key.Key[K], includes ...string) error {
	return m.load(ctx, k, includes, false)
}

// Refresh fetches k regardless of its state.
func (m *MapResource[K, V]) Refresh(ctx context.Context, k key.Key[K], includes ...string) error {
	return m.load(ctx, k, includes, true)
}

// LoadAsync starts a load and returns the values addressed by k once it
// completes. Cancelling the deferred only stops waiting.
func (m *MapResource[K, V]) LoadAsync(ctx context.Context, k key.Key[K], includes ...string) *deferred.Deferred[[]V] {
	return deferred.Go(ctx, func(ctx context.Context) ([]V, error) {
		if err := m.Load(ctx, k, includes...); err != nil {
			return nil, err
		}
		return m.GetMany(k), nil
	})
}

// LoadValue loads a single entity.
func (m *MapResource[K, V]) LoadValue(ctx context.Context, k K, includes ...string) (V, error) {
	if err := m.Load(ctx, key.One(k), includes...); err != nil {
		var zero V
		return zero, err
	}
	v, ok := m.Get(k)
	if !ok {
		return v, fmt.Errorf("%w: %s %v", ErrNotFound, m.name, k)
	}
	return v, nil
}

// LoadAll loads the whole collection and returns it.
func (m *MapResource[K, V]) LoadAll(ctx context.Context, includes ...string) ([]V, error) {
	if err := m.Load(ctx, key.All[K](), includes...); err != nil {
		return nil, err
	}
	return m.Values(), nil
}

// MarkOutdated invalidates k without fetching.
func (m *MapResource[K, V]) MarkOutdated(ctx context.Context, k key.Key[K]) error {
	return m.markOutdated(ctx, k)
}

// MarkUpdated marks k fresh without fetching.
func (m *MapResource[K, V]) MarkUpdated(k key.Key[K]) {
	m.markUpdated(k)
}

// IsOutdated reports whether Load(k, includes...) would fetch.
func (m *MapResource[K, V]) IsOutdated(k key.Key[K], includes ...string) bool {
	return m.isOutdated(k, normalizeIncludes(includes))
}

// IsLoading reports whether a fetch touching k is in flight.
func (m *MapResource[K, V]) IsLoading(k key.Key[K]) bool {
	return m.isLoading(k)
}

// LastError returns the failure recorded for k, if its last fetch failed.
func (m *MapResource[K, V]) LastError(k key.Key[K]) error {
	return m.lastError(k)
}

// Get returns the cached value for k.
func (m *MapResource[K, V]) Get(k K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store.Get(k)
}

// GetMany returns the cached values addressed by k, in key order.
// Absent keys are skipped.
func (m *MapResource[K, V]) GetMany(k key.Key[K]) []V {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if a, ok := k.Alias(); ok {
		if k.IsAll() {
			return m.store.Values()
		}
		match := m.matchers[a.Name]
		if match == nil {
			return nil
		}
		var out []V
		for _, v := range m.store.Values() {
			if match(a, v) {
				out = append(out, v)
			}
		}
		return out
	}

	out := make([]V, 0, k.Len())
	key.ForEach(k, func(v K) {
		if value, ok := m.store.Get(v); ok {
			out = append(out, value)
		}
	})
	return out
}

// Values returns every cached value in order.
func (m *MapResource[K, V]) Values() []V {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store.Values()
}

// Keys returns every cached key in order.
func (m *MapResource[K, V]) Keys() []K {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store.Keys()
}

// Len returns the number of cached entries.
func (m *MapResource[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store.Len()
}

// Has reports whether k has a cached value.
func (m *MapResource[K, V]) Has(k K) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store.Has(k)
}

// IsLoaded reports whether k is settled: either cached, or fetched and
// known not to exist while that fact is fresh.
func (m *MapResource[K, V]) IsLoaded(k K) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.store.Has(k) {
		return true
	}
	st, ok := m.meta.Lookup(k)
	return ok && st.absent && !st.outdated
}

// Set stores v under its key and marks the key fresh.
func (m *MapResource[K, V]) Set(ctx context.Context, v V) {
	m.SetMany(ctx, v)
}

// SetMany stores values and marks their keys fresh.
func (m *MapResource[K, V]) SetMany(ctx context.Context, values ...V) {
	if len(values) == 0 {
		return
	}

	keys := make([]K, 0, len(values))
	m.mu.Lock()
	for _, v := range values {
		k := m.keyOf(v)
		m.store.Set(k, v)
		m.meta.Get(k).absent = false
		keys = append(keys, k)
	}
	updated := key.List(keys...)
	m.markUpdatedLocked(updated)
	m.mu.Unlock()

	m.notify(ctx, m.onDataUpdate, updated, "data update")
}

// Delete removes the entries addressed by k together with their
// bookkeeping, so the next Load of those keys fetches again.
func (m *MapResource[K, V]) Delete(ctx context.Context, k key.Key[K]) error {
	if err := m.checkAlias(k); err != nil {
		return err
	}

	m.mu.Lock()
	var keys []K
	switch a, isAlias := k.Alias(); {
	case k.IsAll():
		keys = m.store.Keys()
	case isAlias:
		if match := m.matchers[a.Name]; match != nil {
			for _, v := range m.store.Values() {
				if match(a, v) {
					keys = append(keys, m.keyOf(v))
				}
			}
		}
	default:
		keys = k.Keys()
	}

	var removed []K
	for _, v := range keys {
		if m.store.Remove(v) {
			removed = append(removed, v)
		}
		m.meta.Delete(v)
	}
	m.mu.Unlock()

	if len(removed) == 0 {
		return nil
	}
	deleted := key.List(removed...)
	m.notify(ctx, m.onItemDelete, deleted, "item delete")
	m.notify(ctx, m.onDataUpdate, deleted, "data update")
	return nil
}

// PerformUpdate runs fn excluded from any fetch of a key intersecting k.
// fn typically calls the remote service and then Set or Delete. It must
// not Load keys intersecting k.
func (m *MapResource[K, V]) PerformUpdate(ctx context.Context, k key.Key[K], fn func(ctx context.Context) error) error {
	if err := m.checkAlias(k); err != nil {
		return err
	}
	return m.perform(ctx, k, fn)
}

// Sort reorders the cached values.
func (m *MapResource[K, V]) Sort(less func(a, b V) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store.Sort(less)
}

// Clear drops all data and bookkeeping. Fetches in flight complete without
// storing their results.
func (m *MapResource[K, V]) Clear(ctx context.Context) {
	m.mu.Lock()
	m.store.RemoveAll()
	m.resetLocked()
	m.mu.Unlock()

	m.notify(ctx, m.onDataUpdate, key.All[K](), "data update")
}

func (m *MapResource[K, V]) fetchValues(ctx context.Context, req Request[K]) (commitFunc[K], error) {
	values, err := m.loader(ctx, req)
	if err != nil {
		return nil, err
	}
	return func(start uint64) []K {
		return m.commitLocked(req, values, start)
	}, nil
}

func (m *MapResource[K, V]) commitLocked(req Request[K], values []V, start uint64) []K {
	if req.Key.IsAll() {
		previous := m.store.Keys()
		_ = m.store.BulkRewrite(values)

		var removed []K
		for _, k := range previous {
			if !m.store.Has(k) {
				removed = append(removed, k)
				m.meta.Delete(k)
			}
		}
		// Keys tracked outside the store (known absent, or failed) are
		// now known not to exist.
		var absent []K
		m.meta.Range(func(k K, _ *keyState) bool {
			if !m.store.Has(k) {
				absent = append(absent, k)
			}
			return true
		})
		for _, k := range absent {
			m.markAbsentLocked(k, req.Includes, start)
		}
		m.markFreshLocked(m.store.Keys(), req.Includes, start)
		m.markScopeFreshLocked(key.AliasAll, req.Includes, start)
		return removed
	}

	returned := make([]K, 0, len(values))
	for _, v := range values {
		k := m.keyOf(v)
		m.store.Set(k, v)
		returned = append(returned, k)
	}
	m.markFreshLocked(returned, req.Includes, start)

	if a, ok := req.Key.Alias(); ok {
		m.markScopeFreshLocked(a, req.Includes, start)
		return nil
	}

	var removed []K
	key.ForEach(key.Exclude(req.Key, key.List(returned...)), func(k K) {
		if m.store.Remove(k) {
			removed = append(removed, k)
		}
		m.markAbsentLocked(k, req.Includes, start)
	})
	return removed
}
