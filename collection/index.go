package collection

import "sort"

// index keeps keys in insertion order with constant-time removal. Removed
// keys leave holes that are compacted once they make up half the slice.
type index[K comparable] struct {
	keys  []K
	pos   map[K]int
	holes int
}

func newIndex[K comparable]() index[K] {
	return index[K]{pos: make(map[K]int)}
}

// add appends k unless it is already indexed.
func (x *index[K]) add(k K) bool {
	if _, ok := x.pos[k]; ok {
		return false
	}
	x.pos[k] = len(x.keys)
	x.keys = append(x.keys, k)
	return true
}

func (x *index[K]) remove(k K) bool {
	i, ok := x.pos[k]
	if !ok {
		return false
	}
	delete(x.pos, k)
	var zero K
	x.keys[i] = zero
	x.holes++
	if x.holes*2 > len(x.keys) {
		x.compact()
	}
	return true
}

// live reports whether slot i holds an indexed key rather than a hole.
func (x *index[K]) live(i int) bool {
	p, ok := x.pos[x.keys[i]]
	return ok && p == i
}

func (x *index[K]) compact() {
	n := 0
	for i, k := range x.keys {
		if !x.live(i) {
			continue
		}
		x.keys[n] = k
		x.pos[k] = n
		n++
	}
	clear(x.keys[n:])
	x.keys = x.keys[:n]
	x.holes = 0
}

func (x *index[K]) reset() {
	x.keys = nil
	x.pos = make(map[K]int)
	x.holes = 0
}

func (x *index[K]) len() int {
	return len(x.pos)
}

// each calls fn for each key in order until fn returns false. fn must not
// add or remove keys.
func (x *index[K]) each(fn func(K) bool) {
	for i, k := range x.keys {
		if x.holes > 0 && !x.live(i) {
			continue
		}
		if !fn(k) {
			return
		}
	}
}

func (x *index[K]) snapshot() []K {
	out := make([]K, 0, x.len())
	x.each(func(k K) bool {
		out = append(out, k)
		return true
	})
	return out
}

// sort reorders the keys stably by less.
func (x *index[K]) sort(less func(a, b K) bool) {
	x.compact()
	sort.SliceStable(x.keys, func(i, j int) bool {
		return less(x.keys[i], x.keys[j])
	})
	for i, k := range x.keys {
		x.pos[k] = i
	}
}
