package container

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentedArray_GrowAndAt(t *testing.T) {
	sa := NewSegmentedArray[int]()

	assert.Nil(t, sa.At(0))

	*sa.Grow(3) = 42
	require.NotNil(t, sa.At(3))
	assert.Equal(t, 42, *sa.At(3))

	// Crosses a segment boundary.
	*sa.Grow(segmentSize + 1) = 7
	assert.Equal(t, 7, *sa.At(segmentSize + 1))
	assert.Equal(t, 42, *sa.At(3), "earlier segment must survive growth")
}

func TestSegmentedArray_StableAddresses(t *testing.T) {
	sa := NewSegmentedArray[atomic.Uint64]()

	p := sa.Grow(10)
	p.Store(99)

	for i := uint32(0); i < 4*segmentSize; i++ {
		sa.Grow(i)
	}

	assert.Same(t, p, sa.At(10))
	assert.Equal(t, uint64(99), sa.At(10).Load())
}

func TestSegmentedArray_ConcurrentGrow(t *testing.T) {
	sa := NewSegmentedArray[atomic.Uint64]()

	const workers = 8
	const perWorker = 2 * segmentSize

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				idx := uint32(i*workers + w)
				sa.Grow(idx).Store(uint64(idx) + 1)
			}
		}(w)
	}
	wg.Wait()

	for i := uint32(0); i < workers*perWorker; i++ {
		p := sa.At(i)
		require.NotNil(t, p)
		assert.Equal(t, uint64(i)+1, p.Load())
	}
}

func TestSegmentedArray_Reset(t *testing.T) {
	sa := NewSegmentedArray[int]()
	*sa.Grow(5) = 1

	sa.Reset()

	assert.Nil(t, sa.At(5))
}
