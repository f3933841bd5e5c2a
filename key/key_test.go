package key

import (
	"errors"
	"reflect"
	"testing"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindList, "list"},
		{KindSingle, "single"},
		{KindAlias, "alias"},
		{Kind(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestKey_Variants(t *testing.T) {
	single := One("alice")
	if !single.IsSingle() || single.IsList() || single.IsAlias() {
		t.Errorf("One() kind = %v, want single", single.Kind())
	}
	if v, ok := single.Single(); !ok || v != "alice" {
		t.Errorf("Single() = (%q, %v), want (alice, true)", v, ok)
	}

	list := List("a", "b", "a", "c")
	if !list.IsList() {
		t.Errorf("List() kind = %v, want list", list.Kind())
	}
	if got, want := list.Keys(), []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("List().Keys() = %v, want %v", got, want)
	}
	if _, ok := list.Single(); ok {
		t.Error("Single() on list should return ok=false")
	}

	all := All[string]()
	if !all.IsAlias() || !all.IsAll() {
		t.Error("All() should be the all alias")
	}
	if all.Keys() != nil {
		t.Errorf("All().Keys() = %v, want nil", all.Keys())
	}
	if a, ok := all.Alias(); !ok || a != AliasAll {
		t.Errorf("Alias() = (%v, %v), want (%v, true)", a, ok, AliasAll)
	}
}

func TestKey_ZeroValueIsEmptyList(t *testing.T) {
	var k Key[int]
	if !k.IsList() || !k.IsEmpty() {
		t.Errorf("zero Key should be an empty list, got kind %v len %d", k.Kind(), k.Len())
	}
}

func TestKey_KeysReturnsCopy(t *testing.T) {
	list := List(1, 2, 3)
	keys := list.Keys()
	keys[0] = 42

	if first, _ := First(list); first != 1 {
		t.Errorf("mutating Keys() result changed key, first = %d", first)
	}
}

func TestKey_Resolve(t *testing.T) {
	known := []string{"alice", "bob"}

	tests := []struct {
		name    string
		key     Key[string]
		want    []string
		wantErr error
	}{
		{"single", One("carol"), []string{"carol"}, nil},
		{"list", List("x", "y"), []string{"x", "y"}, nil},
		{"all", All[string](), []string{"alice", "bob"}, nil},
		{"custom alias", FromAlias[string](Alias{Name: "page", Params: "1"}), nil, ErrUnresolvedAlias},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.key.Resolve(known)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKey_ResolveIsDeterministic(t *testing.T) {
	known := []int{3, 1, 2}
	first, _ := All[int]().Resolve(known)
	second, _ := All[int]().Resolve(known)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Resolve() not deterministic: %v vs %v", first, second)
	}
	known[0] = 9
	if first[0] != 3 {
		t.Error("Resolve() result aliases the known slice")
	}
}

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key[string]
		want string
	}{
		{"single", One("a"), "a"},
		{"list", List("a", "b"), "[a,b]"},
		{"empty", List[string](), "[]"},
		{"all", All[string](), "@all"},
		{"params", FromAlias[string](Alias{Name: "page", Params: "2"}), "@page(2)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
