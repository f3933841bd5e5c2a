package key

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnresolvedAlias is returned when an alias has no built-in resolution rule.
var ErrUnresolvedAlias = errors.New("key: alias cannot be resolved")

// Kind identifies the variant held by a Key.
type Kind int

const (
	// KindList is an ordered list of keys. The zero Key is an empty list.
	KindList Kind = iota
	// KindSingle is exactly one key.
	KindSingle
	// KindAlias is a symbolic key resolved against the known key set.
	KindAlias
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindSingle:
		return "single"
	case KindAlias:
		return "alias"
	default:
		return "unknown"
	}
}

// Alias is a named symbolic key. Params distinguishes parameterized
// aliases of the same name (for example a page or a filter).
type Alias struct {
	Name   string
	Params string
}

// AliasAll expands to every key currently known to a resource.
var AliasAll = Alias{Name: "all"}

// String returns "@name" or "@name(params)".
func (a Alias) String() string {
	if a.Params == "" {
		return "@" + a.Name
	}
	return "@" + a.Name + "(" + a.Params + ")"
}

// Key addresses one or more resource entries.
type Key[K comparable] struct {
	kind   Kind
	single K
	list   []K
	alias  Alias
}

// One returns a single-key Key.
func One[K comparable](k K) Key[K] {
	return Key[K]{kind: KindSingle, single: k}
}

// List returns a list Key. Order is kept and duplicates are dropped after
// their first occurrence.
func List[K comparable](keys ...K) Key[K] {
	seen := make(map[K]struct{}, len(keys))
	list := make([]K, 0, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		list = append(list, k)
	}
	return Key[K]{kind: KindList, list: list}
}

// All returns the AliasAll key.
func All[K comparable]() Key[K] {
	return FromAlias[K](AliasAll)
}

// FromAlias returns an alias Key.
func FromAlias[K comparable](a Alias) Key[K] {
	return Key[K]{kind: KindAlias, alias: a}
}

// Kind returns the variant of k.
func (k Key[K]) Kind() Kind { return k.kind }

// IsSingle reports whether k holds exactly one key.
func (k Key[K]) IsSingle() bool { return k.kind == KindSingle }

// IsList reports whether k is a key list.
func (k Key[K]) IsList() bool { return k.kind == KindList }

// IsAlias reports whether k is an alias.
func (k Key[K]) IsAlias() bool { return k.kind == KindAlias }

// IsAll reports whether k is AliasAll.
func (k Key[K]) IsAll() bool {
	return k.kind == KindAlias && k.alias == AliasAll
}

// Is reports whether k is the given alias.
func (k Key[K]) Is(a Alias) bool {
	return k.kind == KindAlias && k.alias == a
}

// Alias returns the alias held by k.
func (k Key[K]) Alias() (Alias, bool) {
	if k.kind != KindAlias {
		return Alias{}, false
	}
	return k.alias, true
}

// Single returns the key held by a single-key Key.
func (k Key[K]) Single() (K, bool) {
	if k.kind != KindSingle {
		var zero K
		return zero, false
	}
	return k.single, true
}

// Keys returns the concrete keys of k. Aliases have no concrete keys
// until resolved and return nil.
func (k Key[K]) Keys() []K {
	switch k.kind {
	case KindSingle:
		return []K{k.single}
	case KindList:
		out := make([]K, len(k.list))
		copy(out, k.list)
		return out
	default:
		return nil
	}
}

// Len returns the number of concrete keys. Aliases report 0.
func (k Key[K]) Len() int {
	switch k.kind {
	case KindSingle:
		return 1
	case KindList:
		return len(k.list)
	default:
		return 0
	}
}

// IsEmpty reports whether k addresses nothing: an empty list.
func (k Key[K]) IsEmpty() bool {
	return k.kind == KindList && len(k.list) == 0
}

// Resolve expands k against the known key set. AliasAll yields known in
// the given order; other aliases return ErrUnresolvedAlias.
func (k Key[K]) Resolve(known []K) ([]K, error) {
	if k.kind != KindAlias {
		return k.Keys(), nil
	}
	if k.alias != AliasAll {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedAlias, k.alias)
	}
	out := make([]K, len(known))
	copy(out, known)
	return out, nil
}

// String returns a stable textual form used in logs and flight names.
func (k Key[K]) String() string {
	switch k.kind {
	case KindSingle:
		return fmt.Sprint(k.single)
	case KindAlias:
		return k.alias.String()
	default:
		parts := make([]string, len(k.list))
		for i, v := range k.list {
			parts[i] = fmt.Sprint(v)
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
}
