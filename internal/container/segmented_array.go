// Package container implements container data structures.
package container

import (
	"sync"
	"sync/atomic"
)

const (
	// segmentBits determines the size of each segment.
	// 12 bits = 4096 items per segment.
	segmentBits = 12
	segmentSize = 1 << segmentBits
	segmentMask = segmentSize - 1
)

// SegmentedArray is a thread-safe, segmented array with stable element addresses.
// Segments are never moved once allocated, so a pointer returned by At stays
// valid (and may be used with sync/atomic) for the lifetime of the array.
type SegmentedArray[T any] struct {
	segments atomic.Pointer[[]*Segment[T]]
	mu       sync.Mutex // Protects growth
}

// Segment is a fixed-size array of items.
type Segment[T any] struct {
	items [segmentSize]T
}

// NewSegmentedArray creates a new SegmentedArray.
func NewSegmentedArray[T any]() *SegmentedArray[T] {
	sa := &SegmentedArray[T]{}
	segments := make([]*Segment[T], 0)
	sa.segments.Store(&segments)
	return sa
}

// At returns a pointer to the item at the given index.
// Returns nil if the segment holding index has not been allocated.
func (sa *SegmentedArray[T]) At(index uint32) *T {
	segments := sa.segments.Load()
	segIdx := int(index >> segmentBits)
	if segments == nil || segIdx >= len(*segments) {
		return nil
	}
	seg := (*segments)[segIdx]
	if seg == nil {
		return nil
	}
	return &seg.items[index&segmentMask]
}

// Grow makes sure index is addressable and returns a pointer to its item.
func (sa *SegmentedArray[T]) Grow(index uint32) *T {
	if p := sa.At(index); p != nil {
		return p
	}

	// Slow path: grow
	sa.mu.Lock()
	defer sa.mu.Unlock()

	segIdx := int(index >> segmentBits)

	// Reload under lock
	var current []*Segment[T]
	if segments := sa.segments.Load(); segments != nil {
		current = *segments
	}

	if segIdx < len(current) && current[segIdx] != nil {
		return &current[segIdx].items[index&segmentMask]
	}

	next := current
	if segIdx >= len(next) {
		grown := make([]*Segment[T], segIdx+1)
		copy(grown, next)
		next = grown
	} else {
		// Never mutate a published slice in place.
		next = append([]*Segment[T](nil), current...)
	}

	if next[segIdx] == nil {
		next[segIdx] = &Segment[T]{}
	}

	sa.segments.Store(&next)

	return &next[segIdx].items[index&segmentMask]
}

// Reset drops all segments.
// Callers must guarantee that no concurrent access is in flight.
func (sa *SegmentedArray[T]) Reset() {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	segments := make([]*Segment[T], 0)
	sa.segments.Store(&segments)
}
