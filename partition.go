package eqrel

// Partition splits the pairs of the relation into ranges that can be walked
// independently, aiming for about k ranges of similar size. Every pair
// belongs to exactly one returned range.
//
// Classes are never merged into one range, so more than k ranges may be
// returned. A class whose pair count exceeds the per-range target is split
// into one range per member.
func (r *Relation) Partition(k int) []Range {
	view := r.cache.View()
	total := view.Pairs()

	var ranges []Range

	switch {
	case total == 0:
	case total == 1 || k <= 1:
		ranges = []Range{{Begin: newAllIterator(r, view), End: r.End()}}
	case view.Len() >= k:
		ranges = make([]Range, 0, view.Len())
		for i := 0; i < view.Len(); i++ {
			ranges = append(ranges, Range{
				Begin: newWithinIterator(r, view.Entry(i).Bucket),
				End:   r.End(),
			})
		}
	default:
		perChunk := total / k
		for i := 0; i < view.Len(); i++ {
			b := view.Entry(i).Bucket
			if b.Pairs() <= perChunk {
				ranges = append(ranges, Range{Begin: newWithinIterator(r, b), End: r.End()})
				continue
			}
			for _, a := range b.Members() {
				ranges = append(ranges, Range{Begin: newAnteriorIterator(r, a, b), End: r.End()})
			}
		}
	}

	r.logger.LogPartition(k, len(ranges), total)
	r.metrics.RecordPartition(k, len(ranges))

	return ranges
}
