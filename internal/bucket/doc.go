// Package bucket implements the bucket cache: the elements of a union-find,
// grouped by class representative, materialized lazily for enumeration.
//
// # Staleness
//
// The union-find is the source of truth. Every mutation bumps the cache's
// epoch once its unions are done; a rebuild reads the epoch before scanning
// and publishes it as the built epoch when done. The cache is fresh iff the
// two are equal, so a mutation that races a rebuild always forces another.
//
// # Rebuild
//
// Regenerate checks freshness with two atomic loads and takes the exclusive
// lock only when stale. Dense slots are scanned in parallel; every slot is
// filed under its representative in a ShardedMap with insert-if-absent.
// The buckets are then frozen into an immutable View ordered by
// representative. Iterators hold on to the View they started with.
//
// # Per-class materialization
//
// Materialize answers a single-class lookup on a stale cache by scanning the
// slots once for that class only. Results are tagged with the epoch they were
// computed at and never make the cache look fresh.
package bucket
