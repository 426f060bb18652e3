package termdict

import (
	"github.com/hupe1980/lexseg/internal/cache"
)

// BlockKey identifies a decompressed block of a dictionary.
type BlockKey struct {
	// Dictionary names the dictionary; it must be unique per encoded
	// dictionary, e.g. segment id and field.
	Dictionary string
	Block      int
}

// BlockCache caches decompressed dictionary blocks. Cached blocks are
// shared between streams and must not be modified.
type BlockCache interface {
	Get(key BlockKey) ([]byte, bool)
	Set(key BlockKey, data []byte)
}

// LRUBlockCache is a sharded, byte-bounded LRU BlockCache.
type LRUBlockCache struct {
	lru *cache.Sharded[BlockKey]
}

var _ BlockCache = (*LRUBlockCache)(nil)

// NewLRUBlockCache creates a block cache holding at most capacity bytes.
func NewLRUBlockCache(capacity int64) *LRUBlockCache {
	return &LRUBlockCache{lru: cache.NewSharded[BlockKey](capacity, nil)}
}

// Get returns a cached block.
func (c *LRUBlockCache) Get(key BlockKey) ([]byte, bool) { return c.lru.Get(key) }

// Set caches a block.
func (c *LRUBlockCache) Set(key BlockKey, data []byte) { c.lru.Set(key, data) }

// Evict drops every cached block of dictionary.
func (c *LRUBlockCache) Evict(dictionary string) {
	c.lru.Invalidate(func(k BlockKey) bool { return k.Dictionary == dictionary })
}

// Stats returns the hit and miss counts.
func (c *LRUBlockCache) Stats() (hits, misses int64) { return c.lru.Stats() }

// Size returns the number of cached bytes.
func (c *LRUBlockCache) Size() int64 { return c.lru.Size() }

// OpenOption configures Open.
type OpenOption func(*Dictionary)

// WithBlockCache caches the decompressed blocks of the dictionary in c under
// name. Uncompressed dictionaries are read in place and never cached.
func WithBlockCache(c BlockCache, name string) OpenOption {
	return func(d *Dictionary) {
		d.cache = c
		d.name = name
	}
}
