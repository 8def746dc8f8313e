// Package testutil provides testing utilities for eqrel.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded pair workloads and a sequential reference partition
// to check results against.
//
// # Workloads
//
//	rng := testutil.NewRNG(seed)
//	pairs := rng.Pairs(10_000, 1_000)        // uniform
//	pairs := rng.ClusteredPairs(50, 20)      // 50 classes of 20
//	pairs := rng.SkewedPairs(10_000, 1_000, 1.5)
//
// # Ground Truth
//
//	ref := testutil.BuildReference(pairs)
//	ref.Classes()
//	ref.Pairs()
package testutil
