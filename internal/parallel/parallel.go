// Package parallel runs data-parallel loops over index ranges with a join
// barrier. There is no suspension or cancellation: every loop runs to
// completion before For returns.
package parallel

import (
	"context"
	"runtime"

	"github.com/hupe1980/eqrel/internal/resource"
	"golang.org/x/sync/errgroup"
)

// DefaultGrain is the smallest number of indices handed to one worker.
// Loops shorter than a single grain run on the calling goroutine.
const DefaultGrain = 1024

// Executor fans loops out over a bounded number of goroutines.
type Executor struct {
	workers int
	rc      *resource.Controller
}

// New creates an Executor running at most workers goroutines per loop.
// If workers <= 0, runtime.GOMAXPROCS(0) is used. If rc is non-nil every
// goroutine additionally holds one of its worker slots while running.
func New(workers int, rc *resource.Controller) *Executor {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Executor{workers: workers, rc: rc}
}

// Workers returns the per-loop goroutine limit.
func (e *Executor) Workers() int {
	return e.workers
}

// For calls fn on disjoint contiguous sub-ranges [lo, hi) covering [0, n)
// and waits for all of them. grain is the minimum sub-range length; if
// grain <= 0, DefaultGrain is used.
func (e *Executor) For(n, grain int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if grain <= 0 {
		grain = DefaultGrain
	}

	if e.workers == 1 || n <= grain {
		fn(0, n)
		return
	}

	// A few chunks per worker smooths out uneven per-index cost.
	chunks := min(e.workers*4, (n+grain-1)/grain)
	size := (n + chunks - 1) / chunks

	ctx := context.Background()

	var g errgroup.Group
	g.SetLimit(e.workers)

	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		g.Go(func() error {
			if err := e.rc.AcquireWorker(ctx); err != nil {
				return err
			}
			defer e.rc.ReleaseWorker()

			fn(lo, hi)
			return nil
		})
	}

	// Acquire only fails on a cancelled context, and ctx is never cancelled.
	_ = g.Wait()
}

// Each calls fn for every index in [0, n), fanned out like For.
func (e *Executor) Each(n, grain int, fn func(i int)) {
	e.For(n, grain, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			fn(i)
		}
	})
}
