package key

// ForEach calls fn for every concrete key of k. Aliases are skipped.
func ForEach[K comparable](k Key[K], fn func(K)) {
	switch k.kind {
	case KindSingle:
		fn(k.single)
	case KindList:
		for _, v := range k.list {
			fn(v)
		}
	}
}

// Map applies fn to every concrete key of k.
func Map[K comparable, R any](k Key[K], fn func(K) R) []R {
	out := make([]R, 0, k.Len())
	ForEach(k, func(v K) {
		out = append(out, fn(v))
	})
	return out
}

// Convert maps k into another key space. The variant is preserved and
// aliases pass through unchanged.
func Convert[K, R comparable](k Key[K], fn func(K) R) Key[R] {
	switch k.kind {
	case KindSingle:
		return One(fn(k.single))
	case KindAlias:
		return FromAlias[R](k.alias)
	default:
		return List(Map(k, fn)...)
	}
}

// First returns the first concrete key of k.
func First[K comparable](k Key[K]) (K, bool) {
	switch k.kind {
	case KindSingle:
		return k.single, true
	case KindList:
		if len(k.list) > 0 {
			return k.list[0], true
		}
	}
	var zero K
	return zero, false
}

// Contains reports whether the concrete keys of k include v.
func Contains[K comparable](k Key[K], v K) bool {
	switch k.kind {
	case KindSingle:
		return k.single == v
	case KindList:
		for _, x := range k.list {
			if x == v {
				return true
			}
		}
	}
	return false
}

// Includes reports whether a covers every key addressed by b.
// AliasAll covers everything; any other alias only covers itself.
func Includes[K comparable](a, b Key[K]) bool {
	if a.IsAll() {
		return true
	}
	if b.kind == KindAlias {
		return a.kind == KindAlias && a.alias == b.alias
	}
	if a.kind == KindAlias {
		return false
	}
	covered := true
	ForEach(b, func(v K) {
		if covered && !Contains(a, v) {
			covered = false
		}
	})
	return covered
}

// Intersects reports whether a and b may address a common entry.
// Aliases are treated conservatively: an alias intersects any non-empty key.
func Intersects[K comparable](a, b Key[K]) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return false
	}
	if a.kind == KindAlias || b.kind == KindAlias {
		return true
	}
	found := false
	ForEach(a, func(v K) {
		if !found && Contains(b, v) {
			found = true
		}
	})
	return found
}

// Join returns the union of keys in first-seen order. If any input is
// AliasAll the result is AliasAll. Other aliases must be resolved by the
// caller first; they contribute no keys.
func Join[K comparable](keys ...Key[K]) Key[K] {
	var all []K
	for _, k := range keys {
		if k.IsAll() {
			return All[K]()
		}
		all = append(all, k.Keys()...)
	}
	return List(all...)
}

// Exclude returns the keys of a that are not addressed by b.
// An alias a is returned unchanged.
func Exclude[K comparable](a, b Key[K]) Key[K] {
	if a.kind == KindAlias {
		return a
	}
	if b.IsAll() {
		return List[K]()
	}
	var rest []K
	ForEach(a, func(v K) {
		if !Contains(b, v) {
			rest = append(rest, v)
		}
	})
	return List(rest...)
}

// Equal reports whether a and b address the same entries. Lists compare
// as sets; a single key equals a one-element list.
func Equal[K comparable](a, b Key[K]) bool {
	if a.kind == KindAlias || b.kind == KindAlias {
		return a.kind == b.kind && a.alias == b.alias
	}
	return a.Len() == b.Len() && Includes(a, b) && Includes(b, a)
}
