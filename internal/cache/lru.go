// internal/cache/lru.go
//
// Tiny LRU cache used to hold open form sessions.  Safe for concurrent use;
// good for a few thousand entries.
package cache

import (
	"container/list"
	"sync"
)

// LRU is a least‑recently‑used cache with an optional eviction callback.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	cap     int
	ll      *list.List
	dict    map[K]*list.Element
	onEvict func(K, V)
}

type pair[K comparable, V any] struct {
	key K
	val V
}

// New returns an LRU with the given capacity.  Panics on cap < 1.  onEvict,
// when non-nil, runs for every entry pushed out by Add, outside the lock.
func New[K comparable, V any](capacity int, onEvict func(K, V)) *LRU[K, V] {
	if capacity < 1 {
		panic("cache: capacity must be ≥1")
	}
	return &LRU[K, V]{
		cap:     capacity,
		ll:      list.New(),
		dict:    make(map[K]*list.Element, capacity),
		onEvict: onEvict,
	}
}

// Get retrieves a value and marks it MRU.
func (c *LRU[K, V]) Get(key K) (val V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, hit := c.dict[key]; hit {
		c.ll.MoveToFront(ele)
		return ele.Value.(pair[K, V]).val, true
	}
	return val, false
}

// Add inserts or updates a value.
func (c *LRU[K, V]) Add(key K, val V) {
	c.mu.Lock()
	if ele, hit := c.dict[key]; hit {
		ele.Value = pair[K, V]{key, val}
		c.ll.MoveToFront(ele)
		c.mu.Unlock()
		return
	}
	ele := c.ll.PushFront(pair[K, V]{key, val})
	c.dict[key] = ele

	var evicted []pair[K, V]
	for c.ll.Len() > c.cap {
		last := c.ll.Back()
		c.ll.Remove(last)
		p := last.Value.(pair[K, V])
		delete(c.dict, p.key)
		evicted = append(evicted, p)
	}
	c.mu.Unlock()

	if c.onEvict != nil {
		for _, p := range evicted {
			c.onEvict(p.key, p.val)
		}
	}
}

// Remove deletes key and returns its value.  The eviction callback is not
// called.
func (c *LRU[K, V]) Remove(key K) (val V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ele, hit := c.dict[key]
	if !hit {
		return val, false
	}
	c.ll.Remove(ele)
	delete(c.dict, key)
	return ele.Value.(pair[K, V]).val, true
}

// Purge empties the cache and returns the values, MRU first.
func (c *LRU[K, V]) Purge() []V {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]V, 0, c.ll.Len())
	for ele := c.ll.Front(); ele != nil; ele = ele.Next() {
		out = append(out, ele.Value.(pair[K, V]).val)
	}
	c.ll.Init()
	clear(c.dict)
	return out
}

// Len reports current size.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
