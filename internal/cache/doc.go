// Package cache provides the concurrent associative container used for the
// bucket cache and the union-find's sparse index.
//
// # ShardedMap
//
// ShardedMap splits its key space over 64 shards selected with hash/maphash.
// Each shard is a plain Go map behind its own sync.RWMutex, padded to a cache
// line so neighbouring shard locks do not share one.
//
// Key features:
//   - Double-checked GetOrCreate (read-locked probe, write-locked insert-if-absent)
//   - Range snapshots one shard at a time, so callbacks may re-enter the map
//   - Clear releases the backing maps instead of only emptying them
package cache
