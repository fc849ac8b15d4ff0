package admission

import (
	"fmt"
	"testing"
	"time"
)

func newTestCache(t *testing.T, maxSize int, ttl time.Duration) (*Cache[string], *fakeClock) {
	t.Helper()

	c, err := NewCache[string](maxSize, ttl)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	clk := newFakeClock()
	c.now = clk.Now
	return c, clk
}

func TestNewCache(t *testing.T) {
	t.Parallel()

	t.Run("rejects non-positive max size", func(t *testing.T) {
		t.Parallel()

		for _, size := range []int{0, -1} {
			if _, err := NewCache[int](size, time.Minute); err == nil {
				t.Errorf("NewCache(%d, 1m) should fail", size)
			}
		}
	})

	t.Run("rejects non-positive ttl", func(t *testing.T) {
		t.Parallel()

		for _, ttl := range []time.Duration{0, -time.Second} {
			if _, err := NewCache[int](10, ttl); err == nil {
				t.Errorf("NewCache(10, %v) should fail", ttl)
			}
		}
	})

	t.Run("accepts valid configuration", func(t *testing.T) {
		t.Parallel()

		c, err := NewCache[int](512, 10*time.Minute)
		if err != nil {
			t.Fatalf("NewCache() error = %v", err)
		}
		if c.MaxSize() != 512 {
			t.Errorf("MaxSize() = %d, want 512", c.MaxSize())
		}
		if c.TTL() != 10*time.Minute {
			t.Errorf("TTL() = %v, want 10m", c.TTL())
		}
	})
}

func TestCache_GetPut(t *testing.T) {
	t.Parallel()

	t.Run("miss on empty cache", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestCache(t, 4, time.Minute)
		if _, ok := c.Get("absent"); ok {
			t.Error("Get() on empty cache should miss")
		}
	})

	t.Run("hit after put", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestCache(t, 4, time.Minute)
		c.Put("k", "v")

		got, ok := c.Get("k")
		if !ok {
			t.Fatal("Get() should hit after Put()")
		}
		if got != "v" {
			t.Errorf("Get() = %q, want %q", got, "v")
		}
	})

	t.Run("replacement returns latest value", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestCache(t, 4, time.Minute)
		c.Put("k", "v1")
		c.Put("k", "v2")

		if got, _ := c.Get("k"); got != "v2" {
			t.Errorf("Get() = %q, want %q", got, "v2")
		}
		if c.Size() != 1 {
			t.Errorf("Size() = %d, want 1 after replacing same key", c.Size())
		}
	})
}

func TestCache_TTLExpiry(t *testing.T) {
	t.Parallel()

	t.Run("entry survives until ttl", func(t *testing.T) {
		t.Parallel()

		c, clk := newTestCache(t, 4, 10*time.Minute)
		c.Put("k", "v")

		clk.Advance(10*time.Minute - time.Second)
		if _, ok := c.Get("k"); !ok {
			t.Error("Get() just before ttl should hit")
		}
	})

	t.Run("entry expires after ttl", func(t *testing.T) {
		t.Parallel()

		c, clk := newTestCache(t, 4, 10*time.Minute)
		c.Put("k", "v")

		clk.Advance(10*time.Minute + time.Second)
		if _, ok := c.Get("k"); ok {
			t.Error("Get() past ttl should miss")
		}
		if c.Size() != 0 {
			t.Errorf("Size() = %d, want 0 after expired entry removed on read", c.Size())
		}
	})

	t.Run("expiry is insertion-relative, not access-relative", func(t *testing.T) {
		t.Parallel()

		c, clk := newTestCache(t, 4, 10*time.Minute)
		c.Put("k", "v")

		// Repeated reads must not extend the entry's life.
		for i := 0; i < 3; i++ {
			clk.Advance(3 * time.Minute)
			c.Get("k")
		}
		clk.Advance(2 * time.Minute)
		if _, ok := c.Get("k"); ok {
			t.Error("entry read frequently should still expire ttl after insertion")
		}
	})

	t.Run("replacement restarts the ttl clock", func(t *testing.T) {
		t.Parallel()

		c, clk := newTestCache(t, 4, 10*time.Minute)
		c.Put("k", "v1")

		clk.Advance(9 * time.Minute)
		c.Put("k", "v2")

		clk.Advance(9 * time.Minute)
		got, ok := c.Get("k")
		if !ok {
			t.Fatal("entry re-put 9m ago with 10m ttl should be live")
		}
		if got != "v2" {
			t.Errorf("Get() = %q, want %q", got, "v2")
		}
	})

	t.Run("expired but unread entries still count toward size", func(t *testing.T) {
		t.Parallel()

		c, clk := newTestCache(t, 4, time.Minute)
		c.Put("a", "1")
		c.Put("b", "2")

		clk.Advance(2 * time.Minute)
		if c.Size() != 2 {
			t.Errorf("Size() = %d, want 2 before lazy sweep", c.Size())
		}
	})
}

func TestCache_SizeBound(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t, 8, time.Minute)
	for i := 0; i < 100; i++ {
		c.Put(fmt.Sprintf("key-%d", i), "v")
		if got := c.Size(); got > 8 {
			t.Fatalf("Size() = %d after put %d, want <= 8", got, i)
		}
	}
	if c.Size() != 8 {
		t.Errorf("Size() = %d, want exactly 8 after overfill", c.Size())
	}
}

func TestCache_LRUEviction(t *testing.T) {
	t.Parallel()

	t.Run("evicts least recently used, not oldest inserted", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestCache(t, 2, time.Minute)
		c.Put("a", "1")
		c.Put("b", "2")

		// Promote a; b becomes the eviction candidate.
		if _, ok := c.Get("a"); !ok {
			t.Fatal("Get(a) should hit")
		}
		c.Put("c", "3")

		if _, ok := c.Get("b"); ok {
			t.Error("b should have been evicted")
		}
		if _, ok := c.Get("a"); !ok {
			t.Error("a should have survived eviction")
		}
		if _, ok := c.Get("c"); !ok {
			t.Error("c should be present")
		}
	})

	t.Run("replacement promotes to most recently used", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestCache(t, 2, time.Minute)
		c.Put("a", "1")
		c.Put("b", "2")
		c.Put("a", "1b") // a is now MRU; b is LRU
		c.Put("c", "3")

		if _, ok := c.Get("b"); ok {
			t.Error("b should have been evicted")
		}
		if got, _ := c.Get("a"); got != "1b" {
			t.Errorf("Get(a) = %q, want %q", got, "1b")
		}
	})
}

func TestCache_Clear(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t, 4, time.Minute)

	// Clearing an empty cache is a no-op.
	c.Clear()
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0 after clearing empty cache", c.Size())
	}

	c.Put("a", "1")
	c.Put("b", "2")
	c.Clear()
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0 after Clear()", c.Size())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Get() should miss after Clear()")
	}

	// The cache stays usable after a clear.
	c.Put("c", "3")
	if _, ok := c.Get("c"); !ok {
		t.Error("Get() should hit for entry added after Clear()")
	}
}
