// Package resource provides key-addressed caches of remotely loaded data.
//
// A resource tracks, per key, whether its cached data is fresh, outdated, or
// currently loading, and guarantees that concurrent callers asking for the
// same key share a single fetch. Two specializations are provided:
//
//   - MapResource: a keyed collection backed by an ordered map
//   - DataResource: a single unkeyed value
//
// Loads run detached from the caller's cancellation. A caller whose context
// ends stops waiting; the fetch itself completes and its result is cached.
//
// Resources announce changes through executor chains (BeforeLoad,
// OnDataOutdated, OnDataUpdate, OnItemDelete, OnDataError). Notifications fire
// synchronously before the triggering call returns. Links between resources
// (OutdateOn, UpdateOn, Preload, Sync) are built on these chains; a
// propagation chain visits each resource at most once. Preloads run on the
// caller's goroutine before a fetch is shared, so resources that preload each
// other can load concurrently.
package resource
