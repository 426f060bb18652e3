package cache

import (
	"hash/maphash"

	"github.com/hupe1980/lexseg/internal/resource"
)

const numShards = 64

// Sharded spreads entries over 64 LRU shards to reduce lock contention.
// The capacity is divided evenly across the shards.
type Sharded[K comparable] struct {
	shards [numShards]*LRU[K]
	seed   maphash.Seed
}

// NewSharded creates a sharded LRU holding at most capacity bytes.
func NewSharded[K comparable](capacity int64, rc *resource.Controller) *Sharded[K] {
	shardCapacity := max(capacity/numShards, 1)

	s := &Sharded[K]{seed: maphash.MakeSeed()}
	for i := range numShards {
		s.shards[i] = NewLRU[K](shardCapacity, rc)
	}
	return s
}

func (s *Sharded[K]) shard(key K) *LRU[K] {
	return s.shards[maphash.Comparable(s.seed, key)%numShards]
}

// Get returns the cached value of key.
func (s *Sharded[K]) Get(key K) ([]byte, bool) {
	return s.shard(key).Get(key)
}

// Set caches b under key.
func (s *Sharded[K]) Set(key K, b []byte) {
	s.shard(key).Set(key, b)
}

// Invalidate removes the entries whose key matches predicate.
func (s *Sharded[K]) Invalidate(predicate func(key K) bool) {
	for _, shard := range s.shards {
		shard.Invalidate(predicate)
	}
}

// Stats returns the hit and miss counts summed over all shards.
func (s *Sharded[K]) Stats() (hits, misses int64) {
	for _, shard := range s.shards {
		h, m := shard.Stats()
		hits += h
		misses += m
	}
	return hits, misses
}

// Size returns the number of cached bytes across all shards.
func (s *Sharded[K]) Size() int64 {
	var total int64
	for _, shard := range s.shards {
		total += shard.Size()
	}
	return total
}
