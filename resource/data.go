package resource

import (
	"context"

	"github.com/jonwraymond/resourcecache/deferred"
	"github.com/jonwraymond/resourcecache/key"
)

// Unit is the single implicit key of a DataResource.
type Unit struct{}

var unitKey = key.One(Unit{})

// DataLoader fetches the value of a DataResource.
type DataLoader[V any] func(ctx context.Context, req Request[Unit]) (V, error)

// DataResource caches one unkeyed value, such as server configuration or
// the current session. Every operation serializes on the implicit key.
type DataResource[V any] struct {
	*core[Unit]

	loader  DataLoader[V]
	data    V
	present bool
}

// NewDataResource creates a data resource. It panics if loader is nil.
func NewDataResource[V any](name string, loader DataLoader[V], opts ...Option) *DataResource[V] {
	if loader == nil {
		panic(ErrNilLoader)
	}

	d := &DataResource[V]{
		core:   newCore[Unit](name, opts),
		loader: loader,
	}
	d.fetch = d.fetchValue
	d.size = func() int {
		if d.present {
			return 1
		}
		return 0
	}
	return d
}

// Load makes the value fresh, fetching when it is outdated.
func (d *DataResource[V]) Load(ctx context.Context, includes ...string) error {
	return d.load(ctx, unitKey, includes, false)
}

// Refresh fetches the value regardless of its state.
func (d *DataResource[V]) Refresh(ctx context.Context, includes ...string) error {
	return d.load(ctx, unitKey, includes, true)
}

// LoadData loads and returns the value.
func (d *DataResource[V]) LoadData(ctx context.Context, includes ...string) (V, error) {
	if err := d.Load(ctx, includes...); err != nil {
		var zero V
		return zero, err
	}
	v, _ := d.Data()
	return v, nil
}

// LoadAsync starts a load. Cancelling the deferred only stops waiting.
func (d *DataResource[V]) LoadAsync(ctx context.Context, includes ...string) *deferred.Deferred[V] {
	return deferred.Go(ctx, func(ctx context.Context) (V, error) {
		return d.LoadData(ctx, includes...)
	})
}

// Data returns the cached value and whether one was ever stored.
func (d *DataResource[V]) Data() (V, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.data, d.present
}

// Set stores v and marks it fresh.
func (d *DataResource[V]) Set(ctx context.Context, v V) {
	d.mu.Lock()
	d.data = v
	d.present = true
	d.markUpdatedLocked(unitKey)
	d.mu.Unlock()

	d.notify(ctx, d.onDataUpdate, unitKey, "data update")
}

// MarkOutdated invalidates the value without fetching.
func (d *DataResource[V]) MarkOutdated(ctx context.Context) {
	// The unit key is never an alias, so markOutdated cannot fail.
	_ = d.markOutdated(ctx, unitKey)
}

// MarkUpdated marks the value fresh without fetching.
func (d *DataResource[V]) MarkUpdated() {
	d.markUpdated(unitKey)
}

// IsOutdated reports whether Load(includes...) would fetch.
func (d *DataResource[V]) IsOutdated(includes ...string) bool {
	return d.isOutdated(unitKey, normalizeIncludes(includes))
}

// IsLoading reports whether a fetch is in flight.
func (d *DataResource[V]) IsLoading() bool {
	return d.isLoading(unitKey)
}

// IsLoaded reports whether a value is cached.
func (d *DataResource[V]) IsLoaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.present
}

// LastError returns the failure of the last fetch, if it failed.
func (d *DataResource[V]) LastError() error {
	return d.lastError(unitKey)
}

// PerformUpdate runs fn excluded from any fetch. fn must not call Load.
func (d *DataResource[V]) PerformUpdate(ctx context.Context, fn func(ctx context.Context) error) error {
	return d.perform(ctx, unitKey, fn)
}

// Clear drops the value and its bookkeeping.
func (d *DataResource[V]) Clear(ctx context.Context) {
	d.mu.Lock()
	var zero V
	d.data = zero
	d.present = false
	d.resetLocked()
	d.mu.Unlock()

	d.notify(ctx, d.onDataUpdate, unitKey, "data update")
}

func (d *DataResource[V]) fetchValue(ctx context.Context, req Request[Unit]) (commitFunc[Unit], error) {
	v, err := d.loader(ctx, req)
	if err != nil {
		return nil, err
	}
	return func(start uint64) []Unit {
		d.data = v
		d.present = true
		d.markFreshLocked([]Unit{{}}, req.Includes, start)
		return nil
	}, nil
}
