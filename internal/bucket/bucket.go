package bucket

import (
	"slices"
	"sync"
)

// Bucket holds every member of one equivalence class.
//
// A Bucket is filled while its cache is rebuilt and is read-only once the
// view containing it has been published.
type Bucket struct {
	mu    sync.Mutex // guards items during population only
	items []int32
}

func newBucket() *Bucket {
	return &Bucket{items: make([]int32, 0, 1)}
}

// FromMembers creates a read-only bucket holding members.
func FromMembers(members []int32) *Bucket {
	return &Bucket{items: members}
}

func (b *Bucket) appendAll(vs []int32) {
	b.mu.Lock()
	b.items = append(b.items, vs...)
	b.mu.Unlock()
}

// Len returns the number of members.
func (b *Bucket) Len() int {
	return len(b.items)
}

// At returns the i-th member.
func (b *Bucket) At(i int) int32 {
	return b.items[i]
}

// Members returns the members. The slice must not be modified.
func (b *Bucket) Members() []int32 {
	return b.items
}

// Pairs returns the number of ordered pairs the class implies.
func (b *Bucket) Pairs() int {
	n := len(b.items)
	return n * n
}

func (b *Bucket) sort() {
	slices.Sort(b.items)
}

func (b *Bucket) bytes() int64 {
	return int64(cap(b.items))*4 + bucketOverhead
}

// Entry pairs a representative with its bucket.
type Entry struct {
	Rep    int32
	Bucket *Bucket
}

// View is an immutable snapshot of the cache: every class, ordered by
// representative. Views are shared with iterators and stay valid after the
// cache moves on to a newer one.
type View struct {
	entries  []Entry
	index    map[int32]int
	elements int
	pairs    int
	bytes    int64
}

var emptyView = &View{index: map[int32]int{}}

// Empty returns the view of an empty relation.
func Empty() *View {
	return emptyView
}

// Len returns the number of buckets.
func (v *View) Len() int {
	return len(v.entries)
}

// Entry returns the i-th bucket in representative order.
func (v *View) Entry(i int) Entry {
	return v.entries[i]
}

// Lookup returns the bucket of representative rep.
func (v *View) Lookup(rep int32) (*Bucket, bool) {
	i, ok := v.index[rep]
	if !ok {
		return nil, false
	}
	return v.entries[i].Bucket, true
}

// Elements returns the number of elements over all buckets.
func (v *View) Elements() int {
	return v.elements
}

// Pairs returns the sum of |bucket|² over all buckets.
func (v *View) Pairs() int {
	return v.pairs
}

// Bytes returns the approximate memory held by the view.
func (v *View) Bytes() int64 {
	return v.bytes
}

const (
	bucketOverhead = 48 // Bucket header + slice header
	entryOverhead  = 32 // Entry + index slot
)

func newView(entries []Entry) *View {
	slices.SortFunc(entries, func(a, b Entry) int {
		switch {
		case a.Rep < b.Rep:
			return -1
		case a.Rep > b.Rep:
			return 1
		default:
			return 0
		}
	})

	v := &View{
		entries: entries,
		index:   make(map[int32]int, len(entries)),
	}
	for i, e := range entries {
		v.index[e.Rep] = i
		n := e.Bucket.Len()
		v.elements += n
		v.pairs += n * n
		v.bytes += e.Bucket.bytes() + entryOverhead
	}
	return v
}
