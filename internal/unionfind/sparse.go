package unionfind

import (
	"sync"
	"sync/atomic"

	"github.com/hupe1980/eqrel/internal/cache"
	"github.com/hupe1980/eqrel/internal/container"
)

// SparseDisjointSet is a union-find over arbitrary int32 values.
//
// Values are mapped to dense indices on first use. All methods are safe for
// concurrent use, except Clear and Clone which must not overlap any other
// call.
type SparseDisjointSet struct {
	ds *DisjointSet

	sparseToDense *cache.ShardedMap[int32, uint32]
	denseToSparse *container.SegmentedArray[int32]

	// size publishes nodes: every dense slot below size is fully initialized
	// in ds and denseToSparse.
	size atomic.Uint32

	mu sync.Mutex // serializes node creation
}

// NewSparseDisjointSet creates an empty SparseDisjointSet.
func NewSparseDisjointSet() *SparseDisjointSet {
	return &SparseDisjointSet{
		ds:            NewDisjointSet(),
		sparseToDense: cache.NewShardedMap[int32, uint32](),
		denseToSparse: container.NewSegmentedArray[int32](),
	}
}

// Len returns the number of dense slots.
func (s *SparseDisjointSet) Len() int {
	return int(s.size.Load())
}

// ToDense returns the dense index of v.
func (s *SparseDisjointSet) ToDense(v int32) (uint32, bool) {
	return s.sparseToDense.Load(v)
}

// ToSparse returns the value stored at dense index i.
// i must be below Len().
func (s *SparseDisjointSet) ToSparse(i uint32) int32 {
	return *s.denseToSparse.At(i)
}

// denseOrCreate returns the dense index of v, creating a singleton if needed.
func (s *SparseDisjointSet) denseOrCreate(v int32) uint32 {
	if d, ok := s.sparseToDense.Load(v); ok {
		return d
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.sparseToDense.Load(v); ok {
		return d
	}

	d := s.ds.MakeNode()
	*s.denseToSparse.Grow(d) = v
	s.size.Store(d + 1)

	// Publish the mapping last, so anyone who can see v can also see its node.
	s.sparseToDense.Store(v, d)

	return d
}

// Union merges the classes of x and y, creating either if unknown.
// It reports whether two previously distinct classes were merged.
func (s *SparseDisjointSet) Union(x, y int32) bool {
	dx := s.denseOrCreate(x)
	dy := s.denseOrCreate(y)
	return s.ds.Union(dx, dy)
}

// Exists reports whether v is part of the domain.
func (s *SparseDisjointSet) Exists(v int32) bool {
	_, ok := s.sparseToDense.Load(v)
	return ok
}

// Contains reports whether x and y are in the same class.
// It is false if either value is unknown.
func (s *SparseDisjointSet) Contains(x, y int32) bool {
	dx, ok := s.sparseToDense.Load(x)
	if !ok {
		return false
	}
	dy, ok := s.sparseToDense.Load(y)
	if !ok {
		return false
	}
	return s.ds.SameSet(dx, dy)
}

// SameSet is Contains for values known to exist.
func (s *SparseDisjointSet) SameSet(x, y int32) bool {
	return s.Contains(x, y)
}

// Find returns the representative value of v's class.
func (s *SparseDisjointSet) Find(v int32) (int32, bool) {
	d, ok := s.sparseToDense.Load(v)
	if !ok {
		return 0, false
	}
	return s.ToSparse(s.ds.Find(d)), true
}

// FindDense returns the dense root of dense index i.
func (s *SparseDisjointSet) FindDense(i uint32) uint32 {
	return s.ds.Find(i)
}

// Clear removes every value.
func (s *SparseDisjointSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.size.Store(0)
	s.sparseToDense.Clear()
	s.denseToSparse.Reset()
	s.ds.Reset()
}

// Clone returns an independent copy with identical dense numbering.
func (s *SparseDisjointSet) Clone() *SparseDisjointSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.Len()

	c := NewSparseDisjointSet()
	c.ds = s.ds.clone(n)
	for i := uint32(0); int(i) < n; i++ {
		v := s.ToSparse(i)
		*c.denseToSparse.Grow(i) = v
		c.sparseToDense.Store(v, i)
	}
	c.size.Store(uint32(n))

	return c
}
