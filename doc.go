// Package eqrel provides a concurrent equivalence relation store.
//
// An equivalence relation is kept as a partition of its elements into
// classes rather than as a set of pairs. A class of n elements stands for all
// n² ordered pairs between its members, reflexive ones included, at O(n)
// space. This is the storage behind "eqrel" relations of Datalog engines,
// where rules need concurrent inserts, point queries, full enumeration, and
// a parallel split of the pair space.
//
// # Quick Start
//
//	rel := eqrel.New()
//	rel.Insert(1, 2)
//	rel.Insert(2, 3)
//
//	rel.Contains(1, 3) // true
//	rel.Size()         // 9
//
//	for p := range rel.All().All() {
//	    fmt.Println(p)
//	}
//
// # Queries
//
// Boundaries selects pairs by prefix, the way a rule evaluator probes an
// index:
//
//	all, _ := rel.Boundaries(eqrel.Pair{}, 0)        // every pair
//	row, _ := rel.Boundaries(eqrel.Pair{1, 0}, 1)    // (1, x) for x in class of 1
//	one, _ := rel.Boundaries(eqrel.Pair{1, 3}, 2)    // (1, 3) if related
//
// Levels above 2 return ErrInvalidArgument.
//
// # Parallel Enumeration
//
// Partition splits the pairs into ranges that workers can walk
// independently. Small classes stay whole; a class larger than the per-range
// target is split by first element.
//
//	var g errgroup.Group
//	for _, rg := range rel.Partition(runtime.GOMAXPROCS(0)) {
//	    g.Go(func() error {
//	        for p := range rg.All() {
//	            emit(p)
//	        }
//	        return nil
//	    })
//	}
//	_ = g.Wait()
//
// # Merging Relations
//
// InsertAll adopts every class of another relation. Extend only imports
// classes of the other relation that share an element with this one.
//
// # Concurrency
//
// Insert, InsertAll, Extend and every query are safe for concurrent use.
// Inserts go straight to a lock-free union-find. Enumeration and Size read a
// bucket cache that groups elements by class; any mutation marks it stale
// and the first reader afterwards rebuilds it in parallel. Iterators keep
// the snapshot they started on. Clear and Clone need exclusive access.
//
// While the cache is stale, single-class lookups (Anterior, Closure) scan
// for that class alone, up to WithLazyMaterialization times per mutation
// epoch, before a full rebuild is forced.
//
// # Observability
//
//	rel := eqrel.New(
//	    eqrel.WithName("same_as"),
//	    eqrel.WithLogger(eqrel.NewJSONLogger(slog.LevelDebug)),
//	    eqrel.WithMetricsCollector(&eqrel.BasicMetricsCollector{}),
//	)
//
// # Resource Limits
//
// A ResourceController shared between relations bounds their combined
// worker goroutines and the memory retained by their bucket caches.
package eqrel
