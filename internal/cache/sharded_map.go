package cache

import (
	"hash/maphash"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

const numShards = 64

type shard[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
	_  cpu.CacheLinePad
}

// ShardedMap is a concurrent hash map for high-concurrency workloads.
// It distributes entries across 64 shards to reduce lock contention.
// Reads take a per-shard read lock, inserts a per-shard write lock, so
// lookups and inserts on different keys rarely block each other.
type ShardedMap[K comparable, V any] struct {
	shards [numShards]shard[K, V]
	seed   maphash.Seed
	size   atomic.Int64
}

// NewShardedMap creates a new, empty sharded map.
func NewShardedMap[K comparable, V any]() *ShardedMap[K, V] {
	s := &ShardedMap[K, V]{
		seed: maphash.MakeSeed(),
	}
	for i := range numShards {
		s.shards[i].m = make(map[K]V)
	}
	return s
}

// shard returns the shard for a given key.
func (s *ShardedMap[K, V]) shard(key K) *shard[K, V] {
	idx := maphash.Comparable(s.seed, key) % numShards
	return &s.shards[idx]
}

// Load returns the value stored for key.
func (s *ShardedMap[K, V]) Load(key K) (V, bool) {
	sh := s.shard(key)
	sh.mu.RLock()
	v, ok := sh.m[key]
	sh.mu.RUnlock()
	return v, ok
}

// GetOrCreate returns the value stored for key, storing create() first if
// the key is absent. created reports whether this call stored the value.
//
// The existence probe runs under the shard's read lock; only a miss
// escalates to the write lock, where the probe is repeated.
func (s *ShardedMap[K, V]) GetOrCreate(key K, create func() V) (v V, created bool) {
	sh := s.shard(key)

	sh.mu.RLock()
	v, ok := sh.m[key]
	sh.mu.RUnlock()
	if ok {
		return v, false
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if v, ok = sh.m[key]; ok {
		return v, false
	}

	v = create()
	sh.m[key] = v
	s.size.Add(1)

	return v, true
}

// Store sets the value for key.
func (s *ShardedMap[K, V]) Store(key K, v V) {
	sh := s.shard(key)
	sh.mu.Lock()
	if _, ok := sh.m[key]; !ok {
		s.size.Add(1)
	}
	sh.m[key] = v
	sh.mu.Unlock()
}

// Delete removes key from the map.
func (s *ShardedMap[K, V]) Delete(key K) {
	sh := s.shard(key)
	sh.mu.Lock()
	if _, ok := sh.m[key]; ok {
		delete(sh.m, key)
		s.size.Add(-1)
	}
	sh.mu.Unlock()
}

// Len returns the number of entries.
func (s *ShardedMap[K, V]) Len() int {
	return int(s.size.Load())
}

// Range calls fn for every entry until fn returns false.
//
// Each shard is copied under its read lock and fn runs outside of it, so fn
// may safely call back into the map. Entries inserted concurrently may or may
// not be observed.
func (s *ShardedMap[K, V]) Range(fn func(key K, v V) bool) {
	type kv struct {
		k K
		v V
	}

	var buf []kv
	for i := range numShards {
		sh := &s.shards[i]

		buf = buf[:0]
		sh.mu.RLock()
		for k, v := range sh.m {
			buf = append(buf, kv{k, v})
		}
		sh.mu.RUnlock()

		for _, e := range buf {
			if !fn(e.k, e.v) {
				return
			}
		}
	}
}

// Clear removes all entries and releases the shard maps.
func (s *ShardedMap[K, V]) Clear() {
	for i := range numShards {
		sh := &s.shards[i]
		sh.mu.Lock()
		sh.m = make(map[K]V)
		sh.mu.Unlock()
	}
	s.size.Store(0)
}

// ShardLens returns the number of entries per shard, for debugging skew.
func (s *ShardedMap[K, V]) ShardLens() []int {
	lens := make([]int, numShards)
	for i := range numShards {
		sh := &s.shards[i]
		sh.mu.RLock()
		lens[i] = len(sh.m)
		sh.mu.RUnlock()
	}
	return lens
}
