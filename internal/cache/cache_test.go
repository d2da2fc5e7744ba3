package cache

import (
	"testing"
	"time"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRU[int](2, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("a", 1)
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v; want 1, true", v, ok)
	}
}

func TestLRUEvictsOldest(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // refresh recency
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should have survived as most recently used")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRU[string](10, -time.Second)
	c.Set("a", "stale")

	if _, ok := c.Get("a"); ok {
		t.Error("expired entry should not be returned")
	}
	c.Set("b", "stale")
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired() = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Errorf("Size() after sweep = %d, want 0", c.Size())
	}
}

func TestLRUDelete(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	c.Set("a", 1)
	c.Delete("a")
	c.Delete("a") // deleting a missing key is a no-op
	if _, ok := c.Get("a"); ok {
		t.Error("deleted entry should be gone")
	}
}
