// Package cache provides a thread-safe LRU cache for translated artifacts.
//
// Translating an expression (normalize, generate, hash) is pure and
// deterministic, and the same conversion expression text recurs across many
// metadata fields. Caching by expression text avoids re-running the pipeline
// for every occurrence.
//
// # Example
//
//	c := cache.New(1024)
//	art, err := c.GetOrTranslate("$val / 256", translate)
package cache

import (
	"container/list"
	"sync"

	"github.com/photostructure/convgen/pkg/types"
)

// entry is a cache entry stored in the doubly-linked list.
type entry struct {
	key string
	art *types.Artifact
}

// Cache is a thread-safe LRU cache for translated artifacts, keyed by
// expression text. Once the capacity is reached, the least recently accessed
// entry is evicted.
//
// Safe for concurrent use by multiple goroutines.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

// New creates a new LRU cache with the given capacity.
// capacity must be > 0; if <= 0, a default of 256 is used.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 256
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Get retrieves a translated artifact from the cache.
// Returns (art, true) if found and moves the entry to front (MRU).
// Returns (nil, false) if not present.
func (c *Cache) Get(key string) (*types.Artifact, bool) {
	c.mu.RLock()
	el, ok := c.items[key]
	// if the element is already at the front, skip the write lock entirely
	alreadyFront := ok && c.ll.Front() == el
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !alreadyFront {
		// Promote to front under write lock; re-check in case of concurrent eviction.
		c.mu.Lock()
		el, ok = c.items[key]
		if ok {
			c.ll.MoveToFront(el)
		}
		c.mu.Unlock()

		if !ok {
			return nil, false
		}
	}
	return el.Value.(*entry).art, true
}

// Set inserts or replaces an artifact in the cache.
// If at capacity, the least recently used entry is evicted first.
func (c *Cache) Set(key string, art *types.Artifact) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry).art = art
		c.ll.MoveToFront(el)
		return
	}

	if c.ll.Len() >= c.capacity {
		c.evictLocked()
	}

	el := c.ll.PushFront(&entry{key: key, art: art})
	c.items[key] = el
}

// GetOrTranslate retrieves the artifact for key from cache, or calls
// translate() to create it, caches the result, and returns it.
// translate is called at most once per key (no negative caching of errors).
func (c *Cache) GetOrTranslate(key string, translate func() (*types.Artifact, error)) (*types.Artifact, error) {
	if art, ok := c.Get(key); ok {
		return art, nil
	}
	art, err := translate()
	if err != nil {
		return nil, err
	}
	c.Set(key, art)
	return art, nil
}

// Len returns the number of entries currently in the cache.
func (c *Cache) Len() int {
	c.mu.RLock()
	n := len(c.items)
	c.mu.RUnlock()
	return n
}

// evictLocked removes the least recently used entry. Caller holds the write
// lock.
func (c *Cache) evictLocked() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}
