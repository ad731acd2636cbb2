package cache

import (
	"slices"
	"testing"
)

func TestLRUEvictsLeastRecent(t *testing.T) {
	var evicted []string
	c := New[string, int](2, func(k string, _ int) { evicted = append(evicted, k) })

	c.Add("a", 1)
	c.Add("b", 2)
	if _, ok := c.Get("a"); !ok { // a becomes MRU
		t.Fatal("a missing")
	}
	c.Add("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if !slices.Equal(evicted, []string{"b"}) {
		t.Fatalf("evicted = %v", evicted)
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d", c.Len())
	}
}

func TestLRUUpdateKeepsSize(t *testing.T) {
	c := New[string, int](2, nil)
	c.Add("a", 1)
	c.Add("a", 10)
	if v, _ := c.Get("a"); v != 10 {
		t.Fatalf("a = %d", v)
	}
	if c.Len() != 1 {
		t.Fatalf("len = %d", c.Len())
	}
}

func TestLRURemoveAndPurge(t *testing.T) {
	calls := 0
	c := New[string, int](3, func(string, int) { calls++ })
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	if v, ok := c.Remove("b"); !ok || v != 2 {
		t.Fatalf("Remove = %d, %v", v, ok)
	}
	if _, ok := c.Remove("b"); ok {
		t.Fatal("second Remove succeeded")
	}
	if got := c.Purge(); !slices.Equal(got, []int{3, 1}) {
		t.Fatalf("Purge = %v", got)
	}
	if c.Len() != 0 || calls != 0 {
		t.Fatalf("len = %d, evict calls = %d", c.Len(), calls)
	}
}

func TestLRUPanicsOnZeroCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("want panic")
		}
	}()
	New[string, int](0, nil)
}
