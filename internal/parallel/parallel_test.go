package parallel

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/eqrel/internal/resource"
	"github.com/stretchr/testify/assert"
)

func TestFor_CoversRangeExactlyOnce(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		n       int
		grain   int
	}{
		{"empty", 4, 0, 8},
		{"inline", 4, 5, 8},
		{"single worker", 1, 10000, 8},
		{"many chunks", 8, 10000, 8},
		{"uneven", 3, 1001, 7},
		{"default grain", 4, 5000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(tt.workers, nil)

			hits := make([]atomic.Int32, tt.n)
			e.For(tt.n, tt.grain, func(lo, hi int) {
				assert.Less(t, lo, hi)
				for i := lo; i < hi; i++ {
					hits[i].Add(1)
				}
			})

			for i := range hits {
				assert.Equal(t, int32(1), hits[i].Load(), "index %d", i)
			}
		})
	}
}

func TestFor_RespectsControllerSlots(t *testing.T) {
	rc := resource.NewController(resource.Config{MaxWorkers: 2})
	e := New(8, rc)

	var running, peak atomic.Int32
	var mu sync.Mutex

	e.For(64, 1, func(lo, hi int) {
		cur := running.Add(1)
		mu.Lock()
		if cur > peak.Load() {
			peak.Store(cur)
		}
		mu.Unlock()

		for i := lo; i < hi; i++ {
			// busy work
			_ = i * i
		}

		running.Add(-1)
	})

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, int64(0), rc.MemoryUsage())
	assert.True(t, rc.TryAcquireWorker(), "all slots must be released")
}

func TestEach(t *testing.T) {
	e := New(4, nil)

	var sum atomic.Int64
	e.Each(1000, 10, func(i int) {
		sum.Add(int64(i))
	})

	assert.Equal(t, int64(999*1000/2), sum.Load())
}

func TestNew_DefaultWorkers(t *testing.T) {
	e := New(0, nil)
	assert.Positive(t, e.Workers())
}
