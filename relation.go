package eqrel

import (
	"fmt"
	"sort"
	"time"

	"github.com/hupe1980/eqrel/internal/bucket"
	"github.com/hupe1980/eqrel/internal/parallel"
	"github.com/hupe1980/eqrel/internal/unionfind"
)

// Pair is an ordered pair of elements.
type Pair [2]int32

func (p Pair) String() string {
	return fmt.Sprintf("(%d, %d)", p[0], p[1])
}

// Relation is a binary equivalence relation stored as a partition of its
// elements into classes. A class of n elements holds all n² pairs between
// them (including the reflexive ones) in O(n) space.
//
// All methods are safe for concurrent use, with two exceptions: Clear and
// Clone must not overlap any other call on the same relation.
//
// Query methods look read-only but may rebuild the internal bucket cache.
type Relation struct {
	uf    *unionfind.SparseDisjointSet
	cache *bucket.Cache
	exec  *parallel.Executor

	opts    options
	logger  *Logger
	metrics MetricsCollector
}

// New creates an empty Relation.
func New(optFns ...Option) *Relation {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return newRelation(unionfind.NewSparseDisjointSet(), opts)
}

func newRelation(uf *unionfind.SparseDisjointSet, opts options) *Relation {
	logger := opts.logger
	if opts.name != "" {
		logger = logger.WithRelation(opts.name)
	}

	r := &Relation{
		uf:      uf,
		exec:    parallel.New(opts.parallelism, opts.rc),
		opts:    opts,
		logger:  logger,
		metrics: opts.metricsCollector,
	}

	r.cache = bucket.New(uf, func(o *bucket.Options) {
		o.Executor = r.exec
		o.Controller = opts.rc
		o.MaxPartial = opts.lazyClasses
		if opts.grain > 0 {
			o.Grain = opts.grain
		}
		o.OnRegenerate = func(s bucket.Stats) {
			r.logger.LogRegenerate(s)
			r.metrics.RecordRegenerate(s.Buckets, s.Elements, s.Duration)
		}
	})

	return r
}

// Name returns the relation name (may be empty).
func (r *Relation) Name() string {
	return r.opts.name
}

// Insert relates x and y, merging their classes.
// It reports whether the pair was not already in the relation.
func (r *Relation) Insert(x, y int32) bool {
	// Unknown elements are simply unrelated; no special case for them.
	wasRelated := r.uf.Contains(x, y)
	r.uf.Union(x, y)
	r.cache.Invalidate()

	r.metrics.RecordInsert(!wasRelated)

	return !wasRelated
}

// InsertAll adopts every class of other: afterwards each pair of other is
// also in r.
func (r *Relation) InsertAll(other *Relation) {
	start := time.Now()

	// Iterate an immutable snapshot; unions below may move r's
	// representatives, and when other == r, other's too.
	view := other.cache.View()

	r.forEachMember(view, func(rep, member int32) {
		r.uf.Union(rep, member)
	})
	r.cache.Invalidate()

	r.logger.LogMerge(MergeInsertAll, view.Len(), view.Len(), time.Since(start))
	r.metrics.RecordMerge(MergeInsertAll, view.Len(), view.Len(), time.Since(start))
}

// forEachMember calls fn for every (representative, member) of view, spread
// over the executor by member rather than by class so one huge class does
// not end up on a single worker.
func (r *Relation) forEachMember(view *bucket.View, fn func(rep, member int32)) {
	n := view.Len()
	if n == 0 {
		return
	}

	// offsets[i] is the flat index of the first member of entry i.
	offsets := make([]int, n+1)
	for i := 0; i < n; i++ {
		offsets[i+1] = offsets[i] + view.Entry(i).Bucket.Len()
	}

	r.exec.For(offsets[n], r.grain(), func(lo, hi int) {
		i := sort.SearchInts(offsets, lo+1) - 1
		for pos := lo; pos < hi; {
			e := view.Entry(i)
			members := e.Bucket.Members()
			from := pos - offsets[i]
			to := min(hi-offsets[i], len(members))
			for _, m := range members[from:to] {
				fn(e.Rep, m)
			}
			pos = offsets[i] + to
			i++
		}
	})
}

func (r *Relation) grain() int {
	if r.opts.grain > 0 {
		return r.opts.grain
	}
	return parallel.DefaultGrain
}

// Extend imports the classes of other that overlap r: for every class C of
// r that shares an element e with other, e's whole class in other is merged
// into C. Classes of other disjoint from r are not imported.
func (r *Relation) Extend(other *Relation) {
	start := time.Now()

	view := r.cache.View()
	otherView := other.cache.View()

	// Resolve every target class before the first union, so no lookup runs
	// against a partition this call is changing.
	shared := make([]int32, view.Len())
	targets := make([]*bucket.Bucket, view.Len())
	r.exec.Each(view.Len(), 1, func(i int) {
		for _, c := range view.Entry(i).Bucket.Members() {
			// Once merged, every other shared element's class is already
			// connected to this one, so the first hit is enough.
			rep, ok := other.uf.Find(c)
			if !ok {
				continue
			}
			shared[i] = c
			if b, ok := otherView.Lookup(rep); ok {
				targets[i] = b
			} else {
				targets[i] = missingBucket
			}
			return
		}
	})

	// other was mutated concurrently; rebuild it here rather than inside a
	// worker.
	merged := 0
	for i, b := range targets {
		if b == missingBucket {
			targets[i] = other.cache.Bucket(shared[i])
		}
		if targets[i] != nil {
			merged++
		}
	}

	r.exec.Each(len(targets), 1, func(i int) {
		if targets[i] == nil {
			return
		}
		for _, m := range targets[i].Members() {
			r.uf.Union(shared[i], m)
		}
	})
	r.cache.Invalidate()

	r.logger.LogMerge(MergeExtend, view.Len(), merged, time.Since(start))
	r.metrics.RecordMerge(MergeExtend, view.Len(), merged, time.Since(start))
}

// missingBucket marks a class whose bucket must be resolved after the
// parallel scan.
var missingBucket = new(bucket.Bucket)

// Contains reports whether x and y are related.
func (r *Relation) Contains(x, y int32) bool {
	return r.uf.Contains(x, y)
}

// ContainsElement reports whether e appears in any pair.
func (r *Relation) ContainsElement(e int32) bool {
	return r.uf.Exists(e)
}

// Size returns the number of pairs: the sum of |C|² over all classes C.
func (r *Relation) Size() int {
	return r.cache.Size()
}

// Empty reports whether the relation holds no pairs.
func (r *Relation) Empty() bool {
	return r.uf.Len() == 0
}

// Classes returns the number of equivalence classes.
func (r *Relation) Classes() int {
	return r.cache.View().Len()
}

// Clear removes every pair and releases the bucket cache.
func (r *Relation) Clear() {
	elements := r.uf.Len()
	r.cache.Clear()
	r.logger.LogClear(elements)
}

// Clone returns an independent copy of r with the same options.
func (r *Relation) Clone() *Relation {
	c := newRelation(r.uf.Clone(), r.opts)
	c.cache.Invalidate()
	return c
}

// Close releases the bucket cache memory accounted with the resource
// controller. The relation stays usable; the next read rebuilds the cache.
func (r *Relation) Close() error {
	if r == nil {
		return nil
	}
	r.cache.Close()
	return nil
}

// Stats is a point-in-time description of a relation.
type Stats struct {
	Elements int    // elements in the domain
	Classes  int    // classes in the cached view (may lag if Stale)
	Pairs    int    // pairs in the cached view (may lag if Stale)
	Stale    bool   // a mutation happened since the last rebuild
	Epoch    uint64 // mutation epoch
	Partials int    // retained single-class materializations
}

// Stats reports the relation's state without rebuilding the cache.
func (r *Relation) Stats() Stats {
	view := r.cache.Current()
	return Stats{
		Elements: r.uf.Len(),
		Classes:  view.Len(),
		Pairs:    view.Pairs(),
		Stale:    r.cache.Stale(),
		Epoch:    r.cache.Epoch(),
		Partials: r.cache.Partials(),
	}
}
