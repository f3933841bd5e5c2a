package collection

// DefaultFunc builds the value for a key seen for the first time. It receives
// the owning map so defaults can be derived from other entries.
type DefaultFunc[K comparable, V any] func(key K, m *MetadataMap[K, V]) V

// MetadataMap is a map whose entries are created on first access.
type MetadataMap[K comparable, V any] struct {
	data     map[K]V
	order    index[K]
	defaultV DefaultFunc[K, V]
}

// NewMetadataMap creates a map using defaultFn for missing keys.
// A nil defaultFn yields zero values.
func NewMetadataMap[K comparable, V any](defaultFn DefaultFunc[K, V]) *MetadataMap[K, V] {
	return &MetadataMap[K, V]{
		data:     make(map[K]V),
		order:    newIndex[K](),
		defaultV: defaultFn,
	}
}

// Get returns the value for key, creating it with the default factory when
// absent. The factory runs at most once per key until the key is deleted.
func (m *MetadataMap[K, V]) Get(key K) V {
	if v, ok := m.data[key]; ok {
		return v
	}
	var v V
	if m.defaultV != nil {
		v = m.defaultV(key, m)
	}
	m.store(key, v)
	return v
}

// Lookup returns the value for key without creating it.
func (m *MetadataMap[K, V]) Lookup(key K) (V, bool) {
	v, ok := m.data[key]
	return v, ok
}

// Set stores value for key.
func (m *MetadataMap[K, V]) Set(key K, value V) {
	m.store(key, value)
}

func (m *MetadataMap[K, V]) store(key K, value V) {
	m.order.add(key)
	m.data[key] = value
}

// Has reports whether key has an entry.
func (m *MetadataMap[K, V]) Has(key K) bool {
	_, ok := m.data[key]
	return ok
}

// Delete removes key. Deleting a missing key is a no-op.
func (m *MetadataMap[K, V]) Delete(key K) {
	if m.order.remove(key) {
		delete(m.data, key)
	}
}

// Clear removes every entry.
func (m *MetadataMap[K, V]) Clear() {
	m.data = make(map[K]V)
	m.order.reset()
}

// Len returns the number of entries.
func (m *MetadataMap[K, V]) Len() int {
	return m.order.len()
}

// Keys returns the keys in insertion order.
func (m *MetadataMap[K, V]) Keys() []K {
	return m.order.snapshot()
}

// Range calls fn for each entry in insertion order until fn returns false.
// fn must not add or delete entries; it may modify values in place.
func (m *MetadataMap[K, V]) Range(fn func(key K, value V) bool) {
	m.order.each(func(k K) bool {
		return fn(k, m.data[k])
	})
}
