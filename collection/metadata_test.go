package collection

import (
	"reflect"
	"testing"
)

func TestMetadataMap_GetInvokesFactoryOnce(t *testing.T) {
	calls := 0
	m := NewMetadataMap[string, int](func(key string, _ *MetadataMap[string, int]) int {
		calls++
		return len(key)
	})

	if got := m.Get("alice"); got != 5 {
		t.Errorf("Get() = %d, want 5", got)
	}
	if got := m.Get("alice"); got != 5 {
		t.Errorf("second Get() = %d, want 5", got)
	}
	if calls != 1 {
		t.Errorf("factory called %d times, want 1", calls)
	}
	if !m.Has("alice") {
		t.Error("Get should store the default value")
	}
}

func TestMetadataMap_FactoryReceivesMap(t *testing.T) {
	m := NewMetadataMap[string, string](func(key string, self *MetadataMap[string, string]) string {
		if key == "child" {
			return self.Get("parent") + "/child"
		}
		return key
	})

	if got := m.Get("child"); got != "parent/child" {
		t.Errorf("Get(child) = %q, want %q", got, "parent/child")
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
}

func TestMetadataMap_NilFactoryYieldsZero(t *testing.T) {
	m := NewMetadataMap[int, *struct{}](nil)
	if got := m.Get(1); got != nil {
		t.Errorf("Get() = %v, want nil", got)
	}
}

func TestMetadataMap_SetDeleteClear(t *testing.T) {
	m := NewMetadataMap[string, int](nil)
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("a", 3)

	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
	if v, ok := m.Lookup("a"); !ok || v != 3 {
		t.Errorf("Lookup(a) = (%d, %v), want (3, true)", v, ok)
	}
	if got, want := m.Keys(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}

	m.Delete("a")
	m.Delete("missing")
	if m.Has("a") {
		t.Error("Delete should remove the key")
	}
	if m.Len() != 1 {
		t.Errorf("Len() after Delete = %d, want 1", m.Len())
	}

	m.Clear()
	if m.Len() != 0 || len(m.Keys()) != 0 {
		t.Errorf("Clear left %d entries", m.Len())
	}
}

func TestMetadataMap_Range(t *testing.T) {
	m := NewMetadataMap[string, int](nil)
	m.Set("x", 1)
	m.Set("y", 2)
	m.Set("z", 3)

	var visited []string
	m.Range(func(k string, _ int) bool {
		visited = append(visited, k)
		return k != "y"
	})

	if want := []string{"x", "y"}; !reflect.DeepEqual(visited, want) {
		t.Errorf("Range visited %v, want %v", visited, want)
	}
}

func TestMetadataMap_DeleteKeepsOrder(t *testing.T) {
	m := NewMetadataMap[int, string](nil)
	for i := 0; i < 10; i++ {
		m.Set(i, "v")
	}
	for i := 0; i < 10; i += 2 {
		m.Delete(i)
	}
	m.Delete(3)
	m.Set(0, "again")

	if got, want := m.Keys(), []int{1, 5, 7, 9, 0}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if m.Len() != 5 {
		t.Errorf("Len() = %d, want 5", m.Len())
	}

	var visited []int
	m.Range(func(k int, _ string) bool {
		visited = append(visited, k)
		return true
	})
	if !reflect.DeepEqual(visited, m.Keys()) {
		t.Errorf("Range visited %v, want %v", visited, m.Keys())
	}
}

func TestMetadataMap_ZeroKeySurvivesHoles(t *testing.T) {
	m := NewMetadataMap[int, int](nil)
	m.Set(1, 1)
	m.Set(2, 2)
	m.Set(0, 0)
	m.Set(3, 3)
	m.Delete(1)

	if got, want := m.Keys(), []int{2, 0, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	m.Delete(0)
	if got, want := m.Keys(), []int{2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() after Delete(0) = %v, want %v", got, want)
	}
}

func BenchmarkMetadataMap_DeleteAll(b *testing.B) {
	const n = 10000
	for i := 0; i < b.N; i++ {
		m := NewMetadataMap[int, int](nil)
		for k := 0; k < n; k++ {
			m.Set(k, k)
		}
		for _, k := range m.Keys() {
			m.Delete(k)
		}
	}
}

func BenchmarkMetadataMap_Range(b *testing.B) {
	m := NewMetadataMap[int, int](nil)
	for k := 0; k < 1000; k++ {
		m.Set(k, k)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Range(func(int, int) bool { return true })
	}
}
