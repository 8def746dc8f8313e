package bucket

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/eqrel/internal/cache"
	"github.com/hupe1980/eqrel/internal/parallel"
	"github.com/hupe1980/eqrel/internal/resource"
	"github.com/hupe1980/eqrel/internal/unionfind"
)

// ErrInconsistent is the panic value (wrapped) for states that can only be
// reached through a defect.
var ErrInconsistent = errors.New("internal consistency failure")

// lookupAttempts bounds how often Bucket retries a lookup that lost a race
// with a concurrent mutation.
const lookupAttempts = 4

// Stats describes one full rebuild.
type Stats struct {
	Epoch    uint64
	Slots    int
	Buckets  int
	Elements int
	Pairs    int
	Bytes    int64
	Duration time.Duration
}

// Options configures a Cache.
type Options struct {
	// Executor runs the parallel slot scan. Defaults to GOMAXPROCS workers.
	Executor *parallel.Executor

	// Controller accounts view memory and limits retained partial buckets.
	Controller *resource.Controller

	// MaxPartial is the number of single-class materializations allowed per
	// mutation epoch before Materialize falls back to a full rebuild.
	// 0 disables per-key materialization.
	MaxPartial int

	// Grain is the minimum number of dense slots scanned per worker.
	Grain int

	// OnRegenerate is called (under the exclusive lock) after every rebuild.
	OnRegenerate func(Stats)
}

type partialEntry struct {
	epoch  uint64
	bucket *Bucket
	bytes  int64 // accounted with the controller; 0 if not retained
}

// Cache groups the elements of a union-find by representative.
//
// The cache is derived state: mutations of the union-find only bump the
// epoch, and the next reader rebuilds. The cache is fresh while the epoch
// the current view was built from equals the mutation epoch.
type Cache struct {
	uf   *unionfind.SparseDisjointSet
	opts Options

	mu sync.RWMutex // exclusive: rebuild, materialize, clear. shared: size.

	epoch atomic.Uint64 // bumped after every mutation
	built atomic.Uint64 // epoch the published view reflects

	view    atomic.Pointer[View]
	buckets *cache.ShardedMap[int32, *Bucket]      // rebuild scratch
	partial *cache.ShardedMap[int32, partialEntry] // per-key materializations

	partialCount atomic.Int64 // materializations in the current epoch
	partialEpoch atomic.Uint64
}

// New creates a Cache over uf.
func New(uf *unionfind.SparseDisjointSet, optFns ...func(o *Options)) *Cache {
	opts := Options{
		Grain: parallel.DefaultGrain,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Executor == nil {
		opts.Executor = parallel.New(0, opts.Controller)
	}

	c := &Cache{
		uf:      uf,
		opts:    opts,
		buckets: cache.NewShardedMap[int32, *Bucket](),
		partial: cache.NewShardedMap[int32, partialEntry](),
	}
	c.view.Store(Empty())

	return c
}

// Invalidate marks the cache stale. Call it after the mutation completed.
func (c *Cache) Invalidate() {
	c.epoch.Add(1)
}

// Stale reports whether a mutation happened since the last rebuild.
func (c *Cache) Stale() bool {
	return c.built.Load() != c.epoch.Load()
}

// Epoch returns the mutation epoch.
func (c *Cache) Epoch() uint64 {
	return c.epoch.Load()
}

// Regenerate rebuilds the cache if it is stale.
func (c *Cache) Regenerate() {
	if !c.Stale() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.regenerateLocked()
}

func (c *Cache) regenerateLocked() {
	// Read the epoch before scanning: mutations landing during the scan bump
	// it again and force the next reader to rebuild.
	epoch := c.epoch.Load()
	if c.built.Load() == epoch {
		return
	}

	start := time.Now()

	c.buckets.Clear()

	slots := c.uf.Len()
	c.opts.Executor.For(slots, c.opts.Grain, func(lo, hi int) {
		// Group locally first so a huge class is appended once per chunk
		// instead of contending on its bucket lock for every slot.
		local := make(map[int32][]int32)
		for i := lo; i < hi; i++ {
			d := uint32(i)
			rep := c.uf.ToSparse(c.uf.FindDense(d))
			local[rep] = append(local[rep], c.uf.ToSparse(d))
		}
		for rep, members := range local {
			b, _ := c.buckets.GetOrCreate(rep, newBucket)
			b.appendAll(members)
		}
	})

	entries := make([]Entry, 0, c.buckets.Len())
	c.buckets.Range(func(rep int32, b *Bucket) bool {
		entries = append(entries, Entry{Rep: rep, Bucket: b})
		return true
	})
	c.buckets.Clear()

	c.opts.Executor.Each(len(entries), 64, func(i int) {
		entries[i].Bucket.sort()
	})

	view := newView(entries)
	c.publish(view)
	c.dropPartials()

	c.built.Store(epoch)

	if c.opts.OnRegenerate != nil {
		c.opts.OnRegenerate(Stats{
			Epoch:    epoch,
			Slots:    slots,
			Buckets:  view.Len(),
			Elements: view.Elements(),
			Pairs:    view.Pairs(),
			Bytes:    view.Bytes(),
			Duration: time.Since(start),
		})
	}
}

// publish swaps in view and moves the memory accounting over.
func (c *Cache) publish(view *View) {
	old := c.view.Swap(view)
	c.opts.Controller.ReleaseForced(old.Bytes())
	c.opts.Controller.ForceMemory(view.Bytes())
}

func (c *Cache) dropPartials() {
	c.partial.Range(func(_ int32, p partialEntry) bool {
		c.opts.Controller.ReleaseMemory(p.bytes)
		return true
	})
	c.partial.Clear()
	c.partialCount.Store(0)
}

// View returns the current view, rebuilding first if stale.
func (c *Cache) View() *View {
	c.Regenerate()
	return c.view.Load()
}

// Current returns the published view without rebuilding. It may lag behind
// the union-find while the cache is stale.
func (c *Cache) Current() *View {
	return c.view.Load()
}

// Size returns the number of pairs over all classes.
func (c *Cache) Size() int {
	c.Regenerate()

	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.view.Load().Pairs()
}

// Bucket returns the bucket of key's class, rebuilding first if stale.
//
// It panics with ErrInconsistent if key is not in the domain, or if its
// representative is missing from a freshly rebuilt view.
func (c *Cache) Bucket(key int32) *Bucket {
	if !c.uf.Exists(key) {
		panic(fmt.Errorf("%w: element %d is not in the domain", ErrInconsistent, key))
	}

	for attempt := 0; ; attempt++ {
		c.Regenerate()
		view := c.view.Load()

		rep, _ := c.uf.Find(key)
		if b, ok := view.Lookup(rep); ok {
			return b
		}

		// A concurrent union can move the representative before its epoch
		// bump becomes visible; give it a chance to land.
		if attempt+1 >= lookupAttempts && !c.Stale() {
			panic(fmt.Errorf("%w: representative %d of element %d missing after rebuild", ErrInconsistent, rep, key))
		}
		runtime.Gosched()
	}
}

// Materialize returns the bucket of key's class.
//
// When the cache is stale it computes just that class with one scan of the
// dense slots, instead of rebuilding every class. The result is reused until
// the next mutation; the cache itself stays stale. After MaxPartial such
// scans in one epoch it falls back to a full rebuild.
func (c *Cache) Materialize(key int32) *Bucket {
	if !c.Stale() || c.opts.MaxPartial <= 0 {
		return c.Bucket(key)
	}

	dkey, ok := c.uf.ToDense(key)
	if !ok {
		panic(fmt.Errorf("%w: element %d is not in the domain", ErrInconsistent, key))
	}

	if b := c.materialize(dkey); b != nil {
		return b
	}
	return c.Bucket(key)
}

// materialize returns nil if the caller should use the full view instead.
func (c *Cache) materialize(dkey uint32) *Bucket {
	epoch := c.epoch.Load()
	rep := c.uf.ToSparse(c.uf.FindDense(dkey))
	if p, ok := c.partial.Load(rep); ok && p.epoch == epoch {
		return p.bucket
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.Stale() {
		// Someone rebuilt while we waited.
		return nil
	}

	if p, ok := c.partial.Load(rep); ok && p.epoch == epoch {
		return p.bucket
	}

	if c.partialEpoch.Swap(epoch) != epoch {
		c.partialCount.Store(0)
	}
	if c.partialCount.Add(1) > int64(c.opts.MaxPartial) {
		c.regenerateLocked()
		return nil
	}

	b := c.scanClass(dkey)

	p := partialEntry{epoch: epoch, bucket: b}
	if err := c.opts.Controller.AcquireMemory(b.bytes()); err == nil {
		p.bytes = b.bytes()
		if old, ok := c.partial.Load(rep); ok {
			c.opts.Controller.ReleaseMemory(old.bytes)
		}
		c.partial.Store(rep, p)
	}

	return b
}

// Partials returns the number of retained single-class materializations.
func (c *Cache) Partials() int {
	return c.partial.Len()
}

// scanClass collects every member of dkey's class. Each worker marks its
// matches in a private bitmap; the bitmaps are merged once at the end.
func (c *Cache) scanClass(dkey uint32) *Bucket {
	root := c.uf.FindDense(dkey)
	slots := c.uf.Len()

	var (
		mu   sync.Mutex
		maps []*roaring.Bitmap
	)
	c.opts.Executor.For(slots, c.opts.Grain, func(lo, hi int) {
		bm := roaring.New()
		for i := lo; i < hi; i++ {
			if c.uf.FindDense(uint32(i)) == root {
				bm.Add(uint32(i))
			}
		}
		mu.Lock()
		maps = append(maps, bm)
		mu.Unlock()
	})

	dense := roaring.FastOr(maps...)

	members := make([]int32, 0, dense.GetCardinality())
	it := dense.Iterator()
	for it.HasNext() {
		members = append(members, c.uf.ToSparse(it.Next()))
	}
	slices.Sort(members)

	return FromMembers(members)
}

// Clear resets the union-find and drops the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.uf.Clear()
	c.buckets.Clear()
	c.dropPartials()
	c.publish(Empty())
	c.built.Store(c.epoch.Load())
}

// Close releases the memory accounted for the cache.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dropPartials()
	c.publish(Empty())
	// Any value the epoch will never reach again forces a rebuild on reuse.
	c.built.Store(c.epoch.Load() - 1)
}
