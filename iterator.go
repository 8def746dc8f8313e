package eqrel

import (
	"fmt"

	"github.com/hupe1980/eqrel/internal/bucket"
)

type iterMode uint8

const (
	// modeAll walks every class of a view, each as a full cross product.
	modeAll iterMode = iota
	// modeAnterior fixes the first element and walks its class.
	modeAnterior
	// modeAntPost yields one known pair.
	modeAntPost
	// modeWithin walks the cross product of a single class.
	modeWithin
)

// Iterator walks pairs of a Relation.
//
// An Iterator is a value: copying it copies its position. It is either at
// its end or positioned on a pair. Iterators keep the bucket snapshot they
// started on, so they stay valid (but do not observe) later mutations.
//
//	for it := rel.Begin(); !it.AtEnd(); it.Next() {
//	    p := it.Pair()
//	}
type Iterator struct {
	rel  *Relation
	end  bool
	mode iterMode
	pair Pair

	view   *bucket.View   // modeAll
	entry  int            // modeAll: position in view
	bucket *bucket.Bucket // current class

	anterior  int
	posterior int
}

func endIterator(r *Relation) Iterator {
	return Iterator{rel: r, end: true}
}

func newAllIterator(r *Relation, view *bucket.View) Iterator {
	if view.Len() == 0 {
		return endIterator(r)
	}

	b := view.Entry(0).Bucket
	if b.Len() == 0 {
		panic(fmt.Errorf("%w: empty bucket for representative %d", ErrInconsistent, view.Entry(0).Rep))
	}

	return Iterator{
		rel:    r,
		mode:   modeAll,
		view:   view,
		bucket: b,
		pair:   Pair{b.At(0), b.At(0)},
	}
}

func newWithinIterator(r *Relation, b *bucket.Bucket) Iterator {
	if b.Len() == 0 {
		return endIterator(r)
	}
	return Iterator{
		rel:    r,
		mode:   modeWithin,
		bucket: b,
		pair:   Pair{b.At(0), b.At(0)},
	}
}

func newAnteriorIterator(r *Relation, a int32, b *bucket.Bucket) Iterator {
	if b.Len() == 0 {
		return endIterator(r)
	}
	return Iterator{
		rel:    r,
		mode:   modeAnterior,
		bucket: b,
		pair:   Pair{a, b.At(0)},
	}
}

func newAntPostIterator(r *Relation, a, b int32) Iterator {
	return Iterator{
		rel:  r,
		mode: modeAntPost,
		pair: Pair{a, b},
	}
}

// AtEnd reports whether the iterator is past its last pair.
func (it *Iterator) AtEnd() bool {
	return it.end
}

// Pair returns the current pair. It panics if the iterator is at its end.
func (it *Iterator) Pair() Pair {
	if it.end {
		panic(fmt.Errorf("%w: dereferencing an iterator at its end", ErrInvalidUsage))
	}
	return it.pair
}

// Next advances to the next pair. It panics if the iterator is already at
// its end.
func (it *Iterator) Next() {
	if it.end {
		panic(fmt.Errorf("%w: advancing an iterator past its end", ErrInvalidUsage))
	}

	switch it.mode {
	case modeAll, modeWithin:
		n := it.bucket.Len()

		it.posterior++
		if it.posterior == n {
			it.posterior = 0
			it.anterior++

			if it.anterior == n {
				if it.mode == modeWithin || !it.nextEntry() {
					it.end = true
					return
				}
			}
			it.pair[0] = it.bucket.At(it.anterior)
		}
		it.pair[1] = it.bucket.At(it.posterior)

	case modeAnterior:
		it.posterior++
		if it.posterior == it.bucket.Len() {
			it.end = true
			return
		}
		it.pair[1] = it.bucket.At(it.posterior)

	case modeAntPost:
		it.end = true
	}
}

// nextEntry moves an ALL iterator to the first pair of the next class.
func (it *Iterator) nextEntry() bool {
	it.entry++
	if it.entry == it.view.Len() {
		return false
	}

	e := it.view.Entry(it.entry)
	if e.Bucket.Len() == 0 {
		panic(fmt.Errorf("%w: empty bucket for representative %d", ErrInconsistent, e.Rep))
	}

	it.bucket = e.Bucket
	it.anterior = 0
	it.posterior = 0

	return true
}

// Equal reports whether two iterators are at the same position: both at the
// end of the same relation, or both on equal pairs.
func (it Iterator) Equal(other Iterator) bool {
	if it.end && other.end {
		return it.rel == other.rel
	}
	return it.end == other.end && it.pair == other.pair
}
