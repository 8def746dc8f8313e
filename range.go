package eqrel

import "iter"

// Range is a half-open span [Begin, End) of pairs.
type Range struct {
	Begin Iterator
	End   Iterator
}

// Empty reports whether the range yields no pairs.
func (rg Range) Empty() bool {
	return rg.Begin.Equal(rg.End)
}

// All returns an iterator over the pairs of the range.
//
//	for p := range rel.Closure(1).All() {
//	    fmt.Println(p)
//	}
func (rg Range) All() iter.Seq[Pair] {
	return func(yield func(Pair) bool) {
		for it := rg.Begin; !it.Equal(rg.End); it.Next() {
			if !yield(it.pair) {
				return
			}
		}
	}
}

// Collect returns every pair of the range.
func (rg Range) Collect() []Pair {
	var pairs []Pair
	for p := range rg.All() {
		pairs = append(pairs, p)
	}
	return pairs
}

// Count returns the number of pairs in the range by walking it.
func (rg Range) Count() int {
	n := 0
	for range rg.All() {
		n++
	}
	return n
}
