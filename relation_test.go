package eqrel

import (
	"sync"
	"testing"

	"github.com/hupe1980/eqrel/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// classesOf returns the classes of r, normalized for comparison with
// testutil.Reference.
func classesOf(r *Relation) [][]int32 {
	view := r.cache.View()
	classes := make([][]int32, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		classes = append(classes, view.Entry(i).Bucket.Members())
	}
	return testutil.NormalizeClasses(classes)
}

func sortedPairs(pairs []Pair) []Pair {
	testutil.SortPairs(pairs)
	return pairs
}

func TestRelation(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		r := New()

		assert.True(t, r.Empty())
		assert.Equal(t, 0, r.Size())
		assert.Equal(t, 0, r.Classes())
		assert.False(t, r.Contains(1, 1))
		assert.True(t, r.Begin().Equal(r.End()))
	})

	t.Run("TransitiveClosure", func(t *testing.T) {
		r := New()

		assert.True(t, r.Insert(1, 2))
		assert.True(t, r.Insert(2, 3))

		assert.True(t, r.Contains(1, 3))
		assert.True(t, r.Contains(3, 1))
		assert.True(t, r.Contains(2, 2))
		assert.False(t, r.Contains(1, 4))
		assert.Equal(t, 9, r.Size())
		assert.Equal(t, 1, r.Classes())
	})

	t.Run("Reflexive", func(t *testing.T) {
		r := New()

		assert.True(t, r.Insert(5, 5))
		assert.False(t, r.Insert(5, 5))

		assert.True(t, r.ContainsElement(5))
		assert.Equal(t, 1, r.Size())
	})

	t.Run("Idempotent", func(t *testing.T) {
		r := New()

		assert.True(t, r.Insert(1, 2))
		size := r.Size()

		assert.False(t, r.Insert(1, 2))
		assert.False(t, r.Insert(2, 1))
		assert.Equal(t, size, r.Size())
	})

	t.Run("NegativeElements", func(t *testing.T) {
		r := New()

		r.Insert(-7, 3)
		r.Insert(3, -1)

		assert.True(t, r.Contains(-7, -1))
		assert.Equal(t, [][]int32{{-7, -1, 3}}, classesOf(r))
	})

	t.Run("EnumerationMatchesSize", func(t *testing.T) {
		rng := testutil.NewRNG(4711)
		pairs := rng.Pairs(500, 200)
		ref := testutil.BuildReference(pairs)

		r := New(WithGrain(16))
		for _, p := range pairs {
			r.Insert(p[0], p[1])
		}

		got := r.All().Collect()
		assert.Len(t, got, r.Size())
		assert.Equal(t, ref.Size(), r.Size())
		for _, p := range got {
			assert.True(t, r.Contains(p[0], p[1]), "pair %v", p)
		}

		want := ref.Pairs()
		require.Len(t, got, len(want))
		got = sortedPairs(got)
		for i := range want {
			assert.Equal(t, Pair(want[i]), got[i])
		}
	})

	t.Run("MutationAfterRead", func(t *testing.T) {
		r := New()

		r.Insert(1, 2)
		assert.Equal(t, 4, r.Size())

		r.Insert(3, 4)
		assert.Equal(t, 8, r.Size())

		r.Insert(2, 3)
		assert.Equal(t, 16, r.Size())
		assert.Equal(t, 1, r.Classes())
	})
}

func TestInsertAll(t *testing.T) {
	t.Run("IntoEmpty", func(t *testing.T) {
		a := New()
		b := New()
		b.Insert(1, 2) // b
		b.Insert(2, 3) // c, d
		b.Insert(10, 11)

		a.InsertAll(b)

		assert.Equal(t, classesOf(b), classesOf(a))
		assert.Equal(t, b.Size(), a.Size())
	})

	t.Run("MergesAcrossClasses", func(t *testing.T) {
		a := New()
		a.Insert(1, 100)

		b := New()
		b.Insert(1, 2)
		b.Insert(100, 200)

		a.InsertAll(b)

		assert.True(t, a.Contains(2, 200))
		assert.False(t, b.Contains(2, 200))
		assert.Equal(t, [][]int32{{1, 2, 100, 200}}, classesOf(a))
	})

	t.Run("Self", func(t *testing.T) {
		a := New()
		a.Insert(1, 2)
		a.Insert(3, 4)

		a.InsertAll(a)

		assert.Equal(t, [][]int32{{1, 2}, {3, 4}}, classesOf(a))
	})

	t.Run("LargeParallel", func(t *testing.T) {
		rng := testutil.NewRNG(42)
		pairs := rng.ClusteredPairs(40, 50)

		b := New(WithParallelism(4), WithGrain(8))
		for _, p := range pairs {
			b.Insert(p[0], p[1])
		}

		a := New(WithParallelism(4), WithGrain(8))
		a.InsertAll(b)

		assert.Equal(t, testutil.BuildReference(pairs).Classes(), classesOf(a))
	})
}

func TestExtend(t *testing.T) {
	t.Run("ImportsOverlappingClasses", func(t *testing.T) {
		const (
			a, b, c, d = 1, 2, 3, 4
			x, y       = 10, 11
		)

		ra := New()
		ra.Insert(a, b)

		rb := New()
		rb.Insert(b, c)
		rb.Insert(c, d)
		rb.Insert(x, y)

		ra.Extend(rb)

		assert.Equal(t, [][]int32{{a, b, c, d}}, classesOf(ra))
		assert.False(t, ra.ContainsElement(x))
		assert.False(t, ra.ContainsElement(y))
		assert.True(t, rb.Contains(x, y))
	})

	t.Run("Disjoint", func(t *testing.T) {
		ra := New()
		ra.Insert(1, 2)

		rb := New()
		rb.Insert(3, 4)

		ra.Extend(rb)

		assert.Equal(t, [][]int32{{1, 2}}, classesOf(ra))
	})

	t.Run("BridgesTwoClasses", func(t *testing.T) {
		ra := New()
		ra.Insert(1, 2)
		ra.Insert(3, 4)

		rb := New()
		rb.Insert(2, 3)

		ra.Extend(rb)

		assert.Equal(t, [][]int32{{1, 2, 3, 4}}, classesOf(ra))
	})

	t.Run("WeakerThanInsertAll", func(t *testing.T) {
		rng := testutil.NewRNG(7)
		pairs := rng.Pairs(200, 300)

		other := New()
		for _, p := range pairs {
			other.Insert(p[0], p[1])
		}

		extended := New()
		extended.Insert(pairs[0][0], pairs[0][0])
		extended.Extend(other)

		merged := New()
		merged.Insert(pairs[0][0], pairs[0][0])
		merged.InsertAll(other)

		assert.LessOrEqual(t, extended.Size(), merged.Size())
		for p := range extended.All().All() {
			assert.True(t, merged.Contains(p[0], p[1]))
		}
	})
}

func TestConcurrentInsert(t *testing.T) {
	rng := testutil.NewRNG(4711)
	pairs := rng.Pairs(4000, 1500)
	ref := testutil.BuildReference(pairs)

	r := New(WithParallelism(4), WithGrain(64))

	const workers = 8
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < len(pairs); i += workers {
				r.Insert(pairs[i][0], pairs[i][1])
				if i%97 == 0 {
					// Interleave readers with the writers.
					_ = r.Size()
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, ref.Classes(), classesOf(r))
	assert.Equal(t, ref.Size(), r.Size())
}

func TestConcurrentReaders(t *testing.T) {
	rng := testutil.NewRNG(99)
	pairs := rng.ClusteredPairs(20, 30)

	r := New(WithParallelism(4), WithGrain(32))
	for _, p := range pairs {
		r.Insert(p[0], p[1])
	}

	want := 20 * 30 * 30

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, r.Size())
			assert.Equal(t, want, r.All().Count())
		}()
	}
	wg.Wait()
}

func TestClearAndClone(t *testing.T) {
	t.Run("Clear", func(t *testing.T) {
		r := New()
		r.Insert(1, 2)
		require.Equal(t, 4, r.Size())

		r.Clear()

		assert.True(t, r.Empty())
		assert.Equal(t, 0, r.Size())
		assert.False(t, r.Contains(1, 2))

		r.Insert(3, 4)
		assert.Equal(t, 4, r.Size())
		assert.Equal(t, [][]int32{{3, 4}}, classesOf(r))
	})

	t.Run("Clone", func(t *testing.T) {
		r := New(WithName("orig"))
		r.Insert(1, 2)
		r.Insert(2, 3)

		c := r.Clone()
		c.Insert(3, 4)
		r.Insert(7, 8)

		assert.Equal(t, "orig", c.Name())
		assert.Equal(t, [][]int32{{1, 2, 3}, {7, 8}}, classesOf(r))
		assert.Equal(t, [][]int32{{1, 2, 3, 4}}, classesOf(c))
	})

	t.Run("Close", func(t *testing.T) {
		rc := NewResourceController(ResourceConfig{MemoryLimitBytes: 1 << 20})
		r := New(WithResourceController(rc))
		r.Insert(1, 2)
		require.Equal(t, 4, r.Size())
		assert.Positive(t, rc.MemoryUsage())

		require.NoError(t, r.Close())
		assert.Zero(t, rc.MemoryUsage())

		// Still usable.
		assert.Equal(t, 4, r.Size())

		var nilRel *Relation
		assert.NoError(t, nilRel.Close())
	})
}

func TestStats(t *testing.T) {
	r := New()
	r.Insert(1, 2)
	r.Insert(3, 3)

	s := r.Stats()
	assert.Equal(t, 3, s.Elements)
	assert.True(t, s.Stale)

	_ = r.Size()
	s = r.Stats()
	assert.False(t, s.Stale)
	assert.Equal(t, 2, s.Classes)
	assert.Equal(t, 5, s.Pairs)
	assert.Equal(t, uint64(2), s.Epoch)
}
