package resource

import (
	"context"

	"github.com/jonwraymond/resourcecache/executor"
	"github.com/jonwraymond/resourcecache/key"
)

// Linkable is implemented by MapResource and DataResource.
type Linkable[K comparable] interface {
	base() *core[K]
}

// KeyMapper translates keys of one resource into keys of another. A nil
// KeyMapper maps every key to AliasAll.
type KeyMapper[S, D comparable] func(key.Key[S]) key.Key[D]

func (f KeyMapper[S, D]) apply(k key.Key[S]) key.Key[D] {
	if f == nil {
		return key.All[D]()
	}
	return f(k)
}

// OutdateOn marks the mapped keys of dst outdated whenever src is updated,
// outdated, or loses entries.
func OutdateOn[S, D comparable](src Linkable[S], dst Linkable[D], mapKey KeyMapper[S, D]) {
	s, d := src.base(), dst.base()
	handler := func(ctx context.Context, k key.Key[S], _ *executor.Contexts) error {
		if visited(ctx, d) {
			return nil
		}
		return d.markOutdated(ctx, mapKey.apply(k))
	}
	s.onDataUpdate.AddHandler(handler)
	s.onDataOutdated.AddHandler(handler)
	s.onItemDelete.AddHandler(handler)
}

// UpdateOn re-announces updates of src as updates of the mapped keys of dst.
func UpdateOn[S, D comparable](src Linkable[S], dst Linkable[D], mapKey KeyMapper[S, D]) {
	s, d := src.base(), dst.base()
	s.onDataUpdate.AddHandler(func(ctx context.Context, k key.Key[S], _ *executor.Contexts) error {
		if visited(ctx, d) {
			return nil
		}
		d.notify(ctx, d.onDataUpdate, mapKey.apply(k), "data update")
		return nil
	})
}

// Preload loads the mapped keys of src before every fetch of dst. A failed
// preload fails the dst load. Cycles are allowed: within one chain each
// resource is preloaded once.
func Preload[D, S comparable](dst Linkable[D], src Linkable[S], mapKey KeyMapper[D, S]) {
	d, s := dst.base(), src.base()
	d.preloads.AddHandler(func(ctx context.Context, k key.Key[D], _ *executor.Contexts) error {
		if visited(ctx, s) {
			return nil
		}
		return s.load(ctx, mapKey.apply(k), nil, false)
	})
}

// Sync keeps dst consistent with src: src is preloaded before dst fetches,
// and changes to src outdate dst.
func Sync[D, S comparable](dst Linkable[D], src Linkable[S], toSrc KeyMapper[D, S], toDst KeyMapper[S, D]) {
	Preload(dst, src, toSrc)
	OutdateOn(src, dst, toDst)
}
