package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get() on empty cache should miss")
	}

	c.Set("k", "v")
	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Errorf("Get() = %q, %v, want \"v\", true", got, ok)
	}
}

func TestTTLExpiry(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)
	c.Set("k", 1)

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("Get() should miss after TTL")
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0 after expired read", c.Size())
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](3, time.Minute)
	for i := 1; i <= 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}

	// Touch k1 so k2 becomes the eviction candidate.
	c.Get("k1")
	c.Set("k4", 4)

	if _, ok := c.Get("k2"); ok {
		t.Error("k2 should have been evicted")
	}
	for _, k := range []string{"k1", "k3", "k4"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
}

func TestInvalidatePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("report:1:week", 1)
	c.Set("report:1:month", 2)
	c.Set("report:2:week", 3)

	if n := c.InvalidatePrefix("report:1:"); n != 2 {
		t.Errorf("InvalidatePrefix() = %d, want 2", n)
	}
	if _, ok := c.Get("report:2:week"); !ok {
		t.Error("other user's entries should survive")
	}
}

func TestCleanExpired(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)
	c.Set("a", 1)
	c.Set("b", 2)

	time.Sleep(20 * time.Millisecond)
	c.Set("c", 3)

	if n := c.CleanExpired(); n != 2 {
		t.Errorf("CleanExpired() = %d, want 2", n)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}
