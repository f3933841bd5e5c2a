package collection

import "errors"

// ErrNoKeyFunc is returned by AddValue when the map has no key function.
var ErrNoKeyFunc = errors.New("collection: key function is not configured")

// OrderedMap keeps values addressable by key in an explicit order.
//
// Contract:
//   - Keys and Values are parallel: same length, same positions.
//   - Add never overwrites: the first registration of a key wins.
type OrderedMap[K comparable, V any] struct {
	keys   index[K]
	values map[K]V
	keyOf  func(V) K
}

// NewOrderedMap creates an ordered map. keyOf extracts keys for AddValue,
// BulkUpdate and BulkRewrite and may be nil.
func NewOrderedMap[K comparable, V any](keyOf func(V) K) *OrderedMap[K, V] {
	return &OrderedMap[K, V]{
		keys:   newIndex[K](),
		values: make(map[K]V),
		keyOf:  keyOf,
	}
}

// Add appends value under key unless key already exists.
// It reports whether the value was added.
func (m *OrderedMap[K, V]) Add(key K, value V) bool {
	if !m.keys.add(key) {
		return false
	}
	m.values[key] = value
	return true
}

// AddValue adds value under the key extracted by the key function.
func (m *OrderedMap[K, V]) AddValue(value V) (bool, error) {
	if m.keyOf == nil {
		return false, ErrNoKeyFunc
	}
	return m.Add(m.keyOf(value), value), nil
}

// Set stores value under key, keeping the position of an existing key and
// appending a new one.
func (m *OrderedMap[K, V]) Set(key K, value V) {
	m.keys.add(key)
	m.values[key] = value
}

// Get returns the value for key.
func (m *OrderedMap[K, V]) Get(key K) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *OrderedMap[K, V]) Has(key K) bool {
	_, ok := m.values[key]
	return ok
}

// Remove deletes key. It reports whether the key was present.
func (m *OrderedMap[K, V]) Remove(key K) bool {
	if !m.keys.remove(key) {
		return false
	}
	delete(m.values, key)
	return true
}

// RemoveAll deletes every entry.
func (m *OrderedMap[K, V]) RemoveAll() {
	m.keys.reset()
	m.values = make(map[K]V)
}

// BulkUpdate adds each value that is not already present.
func (m *OrderedMap[K, V]) BulkUpdate(values []V) error {
	if m.keyOf == nil {
		return ErrNoKeyFunc
	}
	for _, v := range values {
		m.Add(m.keyOf(v), v)
	}
	return nil
}

// BulkRewrite replaces the whole content with values, in order.
func (m *OrderedMap[K, V]) BulkRewrite(values []V) error {
	if m.keyOf == nil {
		return ErrNoKeyFunc
	}
	m.RemoveAll()
	return m.BulkUpdate(values)
}

// Sort reorders the key index. Values are not touched.
func (m *OrderedMap[K, V]) Sort(less func(a, b V) bool) {
	m.keys.sort(func(a, b K) bool {
		return less(m.values[a], m.values[b])
	})
}

// Keys returns the keys in order.
func (m *OrderedMap[K, V]) Keys() []K {
	return m.keys.snapshot()
}

// Values returns the values in key order.
func (m *OrderedMap[K, V]) Values() []V {
	out := make([]V, 0, m.keys.len())
	m.keys.each(func(k K) bool {
		out = append(out, m.values[k])
		return true
	})
	return out
}

// Len returns the number of entries.
func (m *OrderedMap[K, V]) Len() int {
	return m.keys.len()
}
