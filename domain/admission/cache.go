package admission

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// entry is a cached value together with its insertion time. The insertion
// time drives TTL expiry and is not refreshed on access; recency for
// eviction is tracked separately by the list position.
type entry[V any] struct {
	key        string
	value      V
	insertedAt time.Time
}

// Cache is a bounded key/value store with TTL expiry and LRU eviction.
//
// Entries expire a fixed duration after insertion. Expiry is detected lazily
// on Get; there is no background sweeper, so an expired entry that is never
// read occupies a slot until capacity eviction or Clear removes it. Size is
// bounded by maxSize, so the memory cost of unswept entries is bounded too.
//
// All operations lock the whole structure for their duration, making each
// call atomic with respect to every other call on the same instance.
type Cache[V any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	order   *list.List // front is most recently used

	now func() time.Time
}

// NewCache creates a cache holding at most maxSize entries, each live for
// ttl after its insertion. Both values must be positive.
func NewCache[V any](maxSize int, ttl time.Duration) (*Cache[V], error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("cache max size must be positive, got %d", maxSize)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %v", ttl)
	}
	return &Cache[V]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}, nil
}

// Get returns the value stored under key. A present, unexpired entry is
// promoted to most recently used. An expired entry is removed and reported
// as absent; absence is a normal outcome, never an error.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return zero, false
	}

	ent := el.Value.(*entry[V])
	if c.now().Sub(ent.insertedAt) > c.ttl {
		c.order.Remove(el)
		delete(c.items, key)
		return zero, false
	}

	c.order.MoveToFront(el)
	return ent.value, true
}

// Put stores value under key, replacing any previous entry. The entry's TTL
// clock restarts from now and it becomes most recently used. If the store
// exceeds its capacity the least recently used entries are evicted.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		ent := el.Value.(*entry[V])
		ent.value = value
		ent.insertedAt = c.now()
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&entry[V]{
		key:        key,
		value:      value,
		insertedAt: c.now(),
	})

	for len(c.items) > c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*entry[V]).key)
	}
}

// Clear removes all entries. It is atomic with respect to concurrent Get and
// Put calls and is a no-op on an empty cache.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// Size returns the current entry count. Entries that are logically expired
// but not yet swept by a Get are included.
func (c *Cache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// MaxSize returns the configured capacity.
func (c *Cache[V]) MaxSize() int { return c.maxSize }

// TTL returns the configured time-to-live.
func (c *Cache[V]) TTL() time.Duration { return c.ttl }
