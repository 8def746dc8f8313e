package eqrel

import "fmt"

// Begin returns an iterator on the first pair of the relation, rebuilding
// the bucket cache if stale. Pairs are grouped by class, classes ordered by
// representative.
func (r *Relation) Begin() Iterator {
	return newAllIterator(r, r.cache.View())
}

// End returns the past-the-end iterator of the relation.
func (r *Relation) End() Iterator {
	return endIterator(r)
}

// All returns every pair of the relation.
func (r *Relation) All() Range {
	return Range{Begin: r.Begin(), End: r.End()}
}

// Anterior returns the pairs whose first element is a: (a, m) for every m in
// a's class. The range is empty if a is not in the domain.
func (r *Relation) Anterior(a int32) Range {
	if !r.uf.Exists(a) {
		return r.emptyRange()
	}
	return Range{
		Begin: newAnteriorIterator(r, a, r.cache.Materialize(a)),
		End:   r.End(),
	}
}

// AntPost returns the single pair (a, b) if it is in the relation, and an
// empty range otherwise.
func (r *Relation) AntPost(a, b int32) Range {
	if !r.uf.Contains(a, b) {
		return r.emptyRange()
	}
	return Range{Begin: newAntPostIterator(r, a, b), End: r.End()}
}

// Closure returns every pair of e's class. The range is empty if e is not in
// the domain.
func (r *Relation) Closure(e int32) Range {
	if !r.uf.Exists(e) {
		return r.emptyRange()
	}
	return Range{
		Begin: newWithinIterator(r, r.cache.Materialize(e)),
		End:   r.End(),
	}
}

// Boundaries returns the pairs matching the first levels coordinates of
// pattern:
//
//	0: every pair
//	1: pairs whose first element is pattern[0]
//	2: the pair pattern itself, if present
//
// Any other level returns ErrInvalidArgument.
func (r *Relation) Boundaries(pattern Pair, levels int) (Range, error) {
	switch levels {
	case 0:
		return r.All(), nil
	case 1:
		return r.Anterior(pattern[0]), nil
	case 2:
		return r.AntPost(pattern[0], pattern[1]), nil
	default:
		return Range{}, fmt.Errorf("%w: boundaries level %d out of range [0, 2]", ErrInvalidArgument, levels)
	}
}

func (r *Relation) emptyRange() Range {
	return Range{Begin: r.End(), End: r.End()}
}
