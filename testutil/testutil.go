package testutil

import (
	"math"
	"math/rand"
	"slices"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Pairs returns n pairs with both elements drawn uniformly from
// [0, domain).
func (r *RNG) Pairs(n, domain int) [][2]int32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	pairs := make([][2]int32, n)
	for i := range pairs {
		pairs[i] = [2]int32{int32(r.rand.Intn(domain)), int32(r.rand.Intn(domain))}
	}
	return pairs
}

// ClusteredPairs returns pairs that connect [0, classes*size) into exactly
// classes classes of size elements each, in random order. Class c holds
// the elements c*size .. c*size+size-1.
func (r *RNG) ClusteredPairs(classes, size int) [][2]int32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	pairs := make([][2]int32, 0, classes*size)
	for c := 0; c < classes; c++ {
		base := c * size
		for i := 0; i < size; i++ {
			// Link each element to a random earlier one (or itself).
			j := r.rand.Intn(i + 1)
			pairs = append(pairs, [2]int32{int32(base + i), int32(base + j)})
		}
	}

	r.rand.Shuffle(len(pairs), func(i, j int) {
		pairs[i], pairs[j] = pairs[j], pairs[i]
	})

	return pairs
}

// SkewedPairs returns n pairs over [0, domain) whose first element follows a
// Zipf distribution, so a few hub elements end up in one large class.
func (r *RNG) SkewedPairs(n, domain int, s float64) [][2]int32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	pairs := make([][2]int32, n)
	for i := range pairs {
		pairs[i] = [2]int32{int32(r.zipfLocked(domain, s)), int32(r.rand.Intn(domain))}
	}
	return pairs
}

// Zipf returns a Zipfian-distributed value in [0, n).
// Uses Zipf's law: P(k) ∝ 1/k^s where s is the skew parameter.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	// Inverse transform sampling.
	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// Reference is a sequential, map-based partition used as ground truth.
type Reference struct {
	parent map[int32]int32
}

// NewReference creates an empty Reference.
func NewReference() *Reference {
	return &Reference{parent: make(map[int32]int32)}
}

// BuildReference applies every pair to a fresh Reference.
func BuildReference(pairs [][2]int32) *Reference {
	ref := NewReference()
	for _, p := range pairs {
		ref.Union(p[0], p[1])
	}
	return ref
}

func (r *Reference) find(x int32) int32 {
	for {
		p := r.parent[x]
		if p == x {
			return x
		}
		x = p
	}
}

// Union relates x and y, adding them if missing.
func (r *Reference) Union(x, y int32) {
	for _, v := range [2]int32{x, y} {
		if _, ok := r.parent[v]; !ok {
			r.parent[v] = v
		}
	}

	rx, ry := r.find(x), r.find(y)
	if rx != ry {
		r.parent[rx] = ry
	}
}

// Contains reports whether x and y are in the same class.
func (r *Reference) Contains(x, y int32) bool {
	if _, ok := r.parent[x]; !ok {
		return false
	}
	if _, ok := r.parent[y]; !ok {
		return false
	}
	return r.find(x) == r.find(y)
}

// Classes returns every class with members sorted ascending, the classes
// ordered by their smallest member.
func (r *Reference) Classes() [][]int32 {
	byRoot := make(map[int32][]int32)
	for v := range r.parent {
		root := r.find(v)
		byRoot[root] = append(byRoot[root], v)
	}

	classes := make([][]int32, 0, len(byRoot))
	for _, members := range byRoot {
		slices.Sort(members)
		classes = append(classes, members)
	}
	slices.SortFunc(classes, func(a, b []int32) int {
		return int(a[0]) - int(b[0])
	})

	return classes
}

// Pairs returns every pair implied by the partition, sorted.
func (r *Reference) Pairs() [][2]int32 {
	var pairs [][2]int32
	for _, c := range r.Classes() {
		for _, a := range c {
			for _, b := range c {
				pairs = append(pairs, [2]int32{a, b})
			}
		}
	}
	SortPairs(pairs)
	return pairs
}

// Size returns the number of implied pairs.
func (r *Reference) Size() int {
	n := 0
	for _, c := range r.Classes() {
		n += len(c) * len(c)
	}
	return n
}

// SortPairs sorts pairs lexicographically in place.
func SortPairs[P ~[2]int32](pairs []P) {
	slices.SortFunc(pairs, func(a, b P) int {
		if a[0] != b[0] {
			return int(a[0]) - int(b[0])
		}
		return int(a[1]) - int(b[1])
	})
}

// NormalizeClasses sorts each class and orders the classes by smallest
// member, for comparison against Reference.Classes.
func NormalizeClasses(classes [][]int32) [][]int32 {
	out := make([][]int32, 0, len(classes))
	for _, c := range classes {
		c = slices.Clone(c)
		slices.Sort(c)
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b []int32) int {
		return int(a[0]) - int(b[0])
	})
	return out
}
