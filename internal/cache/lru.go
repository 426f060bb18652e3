package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/lexseg/internal/resource"
)

// LRU is a byte-bounded least-recently-used cache of immutable byte slices.
type LRU[K comparable] struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[K]*list.Element
	evictList *list.List
	rc        *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

type entry[K comparable] struct {
	key   K
	value []byte
}

// NewLRU creates an LRU holding at most capacity bytes. If rc is not nil,
// cached bytes are also reserved against its memory limit.
func NewLRU[K comparable](capacity int64, rc *resource.Controller) *LRU[K] {
	return &LRU[K]{
		capacity:  capacity,
		items:     make(map[K]*list.Element),
		evictList: list.New(),
		rc:        rc,
	}
}

// Get returns the cached value of key.
func (c *LRU[K]) Get(key K) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(e)
		return e.Value.(*entry[K]).value, true
	}
	c.misses.Add(1)
	return nil, false
}

// Set caches b under key. Values larger than the capacity, or that the
// resource controller refuses, are not cached.
func (c *LRU[K]) Set(key K, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	newSize := int64(len(b))
	if e, ok := c.items[key]; ok {
		kv := e.Value.(*entry[K])
		oldSize := int64(len(kv.value))
		if newSize > oldSize && !c.rc.TryAcquireMemory(newSize-oldSize) {
			return
		}
		if newSize < oldSize {
			c.rc.ReleaseMemory(oldSize - newSize)
		}
		c.size += newSize - oldSize
		kv.value = b
		c.evictList.MoveToFront(e)
		c.evict()
		return
	}

	if newSize > c.capacity {
		return
	}
	// evict first so released memory can be reacquired
	for c.size+newSize > c.capacity && c.evictList.Len() > 0 {
		c.removeElement(c.evictList.Back())
	}
	if !c.rc.TryAcquireMemory(newSize) {
		return
	}

	c.items[key] = c.evictList.PushFront(&entry[K]{key: key, value: b})
	c.size += newSize
}

// Invalidate removes the entries whose key matches predicate.
func (c *LRU[K]) Invalidate(predicate func(key K) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []*list.Element
	for key, e := range c.items {
		if predicate(key) {
			toRemove = append(toRemove, e)
		}
	}
	for _, e := range toRemove {
		c.removeElement(e)
	}
}

func (c *LRU[K]) evict() {
	for c.size > c.capacity && c.evictList.Len() > 0 {
		c.removeElement(c.evictList.Back())
	}
}

func (c *LRU[K]) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	kv := e.Value.(*entry[K])
	delete(c.items, kv.key)
	n := int64(len(kv.value))
	c.size -= n
	c.rc.ReleaseMemory(n)
}

// Stats returns the hit and miss counts.
func (c *LRU[K]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Size returns the number of cached bytes.
func (c *LRU[K]) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of cached entries.
func (c *LRU[K]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
