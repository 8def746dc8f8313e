package unionfind

import (
	"sync/atomic"

	"github.com/hupe1980/eqrel/internal/container"
)

// A block packs a node's parent (high 32 bits) and rank (low 32 bits) into
// one word so both can be swapped with a single CAS.
type block = uint64

func pack(parent, rank uint32) block { return block(parent)<<32 | block(rank) }
func parentOf(b block) uint32      { return uint32(b >> 32) }
func rankOf(b block) uint32        { return uint32(b) }

// DisjointSet is a lock-free union-find over dense indices [0, Len()).
//
// Union and Find may run concurrently with each other. MakeNode must be
// serialized by the caller.
type DisjointSet struct {
	blocks *container.SegmentedArray[atomic.Uint64]
	size   atomic.Uint32
}

// NewDisjointSet creates an empty DisjointSet.
func NewDisjointSet() *DisjointSet {
	return &DisjointSet{
		blocks: container.NewSegmentedArray[atomic.Uint64](),
	}
}

// Len returns the number of nodes.
func (d *DisjointSet) Len() int {
	return int(d.size.Load())
}

// MakeNode appends a singleton node and returns its index.
func (d *DisjointSet) MakeNode() uint32 {
	idx := d.size.Load()
	d.blocks.Grow(idx).Store(pack(idx, 0))
	d.size.Store(idx + 1)
	return idx
}

func (d *DisjointSet) get(x uint32) *atomic.Uint64 {
	return d.blocks.At(x)
}

// Find returns the root of x, halving the path on the way.
func (d *DisjointSet) Find(x uint32) uint32 {
	for {
		xb := d.get(x).Load()
		parent := parentOf(xb)
		if parent == x {
			return x
		}

		grandparent := parentOf(d.get(parent).Load())
		if grandparent != parent {
			// Losing this race is fine: someone else shortened the path.
			d.get(x).CompareAndSwap(xb, pack(grandparent, rankOf(xb)))
		}
		x = grandparent
	}
}

// SameSet reports whether x and y are in the same set.
func (d *DisjointSet) SameSet(x, y uint32) bool {
	for {
		x = d.Find(x)
		y = d.Find(y)
		if x == y {
			return true
		}
		// If x is still a root, the sets were disjoint when y's root was read.
		if parentOf(d.get(x).Load()) == x {
			return false
		}
	}
}

// Union merges the sets of x and y. It reports whether a merge happened.
func (d *DisjointSet) Union(x, y uint32) bool {
	for {
		x = d.Find(x)
		y = d.Find(y)
		if x == y {
			return false
		}

		xr := rankOf(d.get(x).Load())
		yr := rankOf(d.get(y).Load())

		// Link the lower-ranked root under the higher-ranked one. Ties link the
		// smaller index under the larger so concurrent unions cannot form a cycle.
		if xr > yr || (xr == yr && x > y) {
			x, y = y, x
			xr, yr = yr, xr
		}

		if !d.get(x).CompareAndSwap(pack(x, xr), pack(y, xr)) {
			continue
		}

		if xr == yr {
			d.get(y).CompareAndSwap(pack(y, yr), pack(y, yr+1))
		}
		return true
	}
}

// Reset drops every node.
// Callers must guarantee that no concurrent access is in flight.
func (d *DisjointSet) Reset() {
	d.blocks.Reset()
	d.size.Store(0)
}

// clone copies the first n nodes into a new DisjointSet.
func (d *DisjointSet) clone(n int) *DisjointSet {
	c := NewDisjointSet()
	for i := uint32(0); int(i) < n; i++ {
		c.blocks.Grow(i).Store(d.get(i).Load())
	}
	c.size.Store(uint32(n))
	return c
}
