package collection

import (
	"errors"
	"reflect"
	"testing"
)

type menuItem struct {
	ID    string
	Order int
}

func itemID(i menuItem) string { return i.ID }

func TestOrderedMap_AddIsFirstWriteWins(t *testing.T) {
	m := NewOrderedMap[string, int](nil)

	if !m.Add("k", 1) {
		t.Error("first Add should report true")
	}
	if m.Add("k", 2) {
		t.Error("second Add should report false")
	}

	if v, _ := m.Get("k"); v != 1 {
		t.Errorf("Get(k) = %d, want 1", v)
	}
	if m.Len() != 1 || len(m.Keys()) != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestOrderedMap_AddValueRequiresKeyFunc(t *testing.T) {
	m := NewOrderedMap[string, menuItem](nil)
	if _, err := m.AddValue(menuItem{ID: "a"}); !errors.Is(err, ErrNoKeyFunc) {
		t.Errorf("AddValue() error = %v, want ErrNoKeyFunc", err)
	}
	if err := m.BulkRewrite([]menuItem{{ID: "a"}}); !errors.Is(err, ErrNoKeyFunc) {
		t.Errorf("BulkRewrite() error = %v, want ErrNoKeyFunc", err)
	}

	keyed := NewOrderedMap(itemID)
	added, err := keyed.AddValue(menuItem{ID: "a"})
	if err != nil || !added {
		t.Errorf("AddValue() = (%v, %v), want (true, nil)", added, err)
	}
}

func TestOrderedMap_BulkUpdate(t *testing.T) {
	m := NewOrderedMap(itemID)
	_, _ = m.AddValue(menuItem{ID: "a", Order: 1})

	if err := m.BulkUpdate([]menuItem{{ID: "a", Order: 9}, {ID: "b", Order: 2}}); err != nil {
		t.Fatalf("BulkUpdate() error = %v", err)
	}

	if v, _ := m.Get("a"); v.Order != 1 {
		t.Errorf("BulkUpdate overwrote a, Order = %d", v.Order)
	}
	if got, want := m.Keys(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

func TestOrderedMap_BulkRewrite(t *testing.T) {
	m := NewOrderedMap(itemID)
	_ = m.BulkUpdate([]menuItem{{ID: "old"}, {ID: "b"}})

	values := []menuItem{{ID: "a"}, {ID: "b", Order: 5}, {ID: "c"}}
	if err := m.BulkRewrite(values); err != nil {
		t.Fatalf("BulkRewrite() error = %v", err)
	}

	if got, want := m.Keys(), []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if got := m.Values(); !reflect.DeepEqual(got, values) {
		t.Errorf("Values() = %v, want %v", got, values)
	}
	if m.Has("old") {
		t.Error("BulkRewrite should drop previous content")
	}
}

func TestOrderedMap_SetRemove(t *testing.T) {
	m := NewOrderedMap[string, int](nil)
	m.Add("a", 1)
	m.Add("b", 2)
	m.Set("a", 10)
	m.Set("c", 3)

	if got, want := m.Values(), []int{10, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("Values() = %v, want %v", got, want)
	}

	if !m.Remove("b") {
		t.Error("Remove(b) should report true")
	}
	if m.Remove("b") {
		t.Error("second Remove(b) should report false")
	}
	if got, want := m.Keys(), []string{"a", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}

	m.RemoveAll()
	if m.Len() != 0 {
		t.Errorf("Len() after RemoveAll = %d, want 0", m.Len())
	}
}

func TestOrderedMap_SortOnlyReordersKeys(t *testing.T) {
	m := NewOrderedMap(itemID)
	_ = m.BulkUpdate([]menuItem{{ID: "c", Order: 3}, {ID: "a", Order: 1}, {ID: "b", Order: 2}})

	m.Sort(func(x, y menuItem) bool { return x.Order < y.Order })

	if got, want := m.Keys(), []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() after Sort = %v, want %v", got, want)
	}
	if v, _ := m.Get("c"); v.Order != 3 {
		t.Errorf("Get(c).Order = %d, want 3", v.Order)
	}
	if len(m.Keys()) != len(m.Values()) {
		t.Error("Keys and Values must stay parallel")
	}
}

func TestOrderedMap_RemoveManyThenSort(t *testing.T) {
	m := NewOrderedMap(itemID)
	_ = m.BulkUpdate([]menuItem{
		{ID: "e", Order: 5}, {ID: "d", Order: 4}, {ID: "c", Order: 3},
		{ID: "b", Order: 2}, {ID: "a", Order: 1},
	})
	m.Remove("d")
	m.Remove("b")
	m.Remove("e")

	if got, want := m.Keys(), []string{"c", "a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}

	m.Add("b", menuItem{ID: "b", Order: 2})
	m.Sort(func(x, y menuItem) bool { return x.Order < y.Order })

	if got, want := m.Keys(), []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() after Sort = %v, want %v", got, want)
	}
	if got := m.Values(); len(got) != 3 || got[1].ID != "b" {
		t.Errorf("Values() = %v, want a, b, c", got)
	}
}
