package benchmark_test

import (
	"fmt"
	"runtime"
	"sync"
	"testing"

	"github.com/hupe1980/eqrel"
	"github.com/hupe1980/eqrel/testutil"
)

func load(pairs [][2]int32, opts ...eqrel.Option) *eqrel.Relation {
	r := eqrel.New(opts...)
	for _, p := range pairs {
		r.Insert(p[0], p[1])
	}
	return r
}

// BenchmarkInsert measures the union path with and without contention.
func BenchmarkInsert(b *testing.B) {
	pairs := testutil.NewRNG(1).Pairs(1<<16, 1<<18)

	b.Run("Sequential", func(b *testing.B) {
		r := eqrel.New()
		b.ResetTimer()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			p := pairs[i%len(pairs)]
			r.Insert(p[0], p[1])
		}
	})

	b.Run("Parallel", func(b *testing.B) {
		r := eqrel.New()
		b.ResetTimer()
		b.ReportAllocs()
		b.RunParallel(func(pb *testing.PB) {
			i := 0
			for pb.Next() {
				p := pairs[i%len(pairs)]
				r.Insert(p[0], p[1])
				i++
			}
		})
	})
}

// BenchmarkRegenerate measures a full bucket cache rebuild after one
// mutation, by domain size and parallelism.
func BenchmarkRegenerate(b *testing.B) {
	for _, n := range []int{10_000, 100_000} {
		pairs := testutil.NewRNG(2).Pairs(n, n)

		for _, workers := range []int{1, runtime.GOMAXPROCS(0)} {
			b.Run(fmt.Sprintf("n=%d/workers=%d", n, workers), func(b *testing.B) {
				r := load(pairs, eqrel.WithParallelism(workers))
				b.ResetTimer()
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					r.Insert(pairs[0][0], pairs[0][1])
					_ = r.Size()
				}
			})
		}
	}
}

// BenchmarkAnteriorStale compares a single-class lookup served by a scan for
// that class against a full rebuild.
func BenchmarkAnteriorStale(b *testing.B) {
	pairs := testutil.NewRNG(3).ClusteredPairs(1_000, 50)

	for _, lazy := range []int{0, 1} {
		b.Run(fmt.Sprintf("lazy=%d", lazy), func(b *testing.B) {
			r := load(pairs, eqrel.WithLazyMaterialization(lazy))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				r.Insert(0, 1)
				_ = r.Anterior(int32(i % 50)).Count()
			}
		})
	}
}

// BenchmarkPartition measures enumerating every pair through Partition
// ranges walked concurrently.
func BenchmarkPartition(b *testing.B) {
	workloads := map[string][][2]int32{
		"clustered": testutil.NewRNG(4).ClusteredPairs(2_000, 20),
		"skewed":    testutil.NewRNG(5).SkewedPairs(20_000, 20_000, 1.5),
	}

	for name, pairs := range workloads {
		r := load(pairs)
		k := runtime.GOMAXPROCS(0)

		b.Run(name, func(b *testing.B) {
			b.ReportMetric(float64(r.Size()), "pairs")
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				var wg sync.WaitGroup
				for _, rg := range r.Partition(k) {
					wg.Add(1)
					go func() {
						defer wg.Done()
						_ = rg.Count()
					}()
				}
				wg.Wait()
			}
		})
	}
}

// BenchmarkMerge measures InsertAll and Extend of a relation into an empty
// and an overlapping target.
func BenchmarkMerge(b *testing.B) {
	pairs := testutil.NewRNG(6).ClusteredPairs(1_000, 20)
	src := load(pairs)

	b.Run("InsertAll", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			dst := eqrel.New()
			dst.InsertAll(src)
		}
	})

	b.Run("Extend", func(b *testing.B) {
		seed := pairs[:len(pairs)/10]
		for i := 0; i < b.N; i++ {
			dst := load(seed)
			dst.Extend(src)
		}
	})
}
