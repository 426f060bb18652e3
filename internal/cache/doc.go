// Package cache provides byte-bounded LRU caches for immutable blocks.
//
// LRU is a single mutex-guarded list. Sharded spreads keys over 64 LRUs by
// hash for concurrent readers. Both can reserve their bytes against a
// resource.Controller so cached blocks count toward a process memory limit.
package cache
