// Package resource implements the Controller for limits shared between relations.
//
// The Controller manages two resource types:
//
//   - Memory: Track (and optionally limit) memory held by bucket caches
//   - Concurrency: Limit the number of parallel workers across all relations
//
// # Memory Management
//
// Memory tracking uses a weighted semaphore for hard limits and atomic counters
// for usage tracking. AcquireMemory is non-blocking and returns immediately
// with ErrMemoryLimitExceeded if the limit would be exceeded:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 64 << 20,
//	})
//
//	if err := rc.AcquireMemory(size); err != nil {
//	    // ErrMemoryLimitExceeded - skip the optional allocation
//	}
//	defer rc.ReleaseMemory(size)
//
// Memory the caller cannot do without is accounted with ForceMemory and
// returned with ReleaseForced; it may push usage past the limit.
//
// # Worker Limits
//
//	rc := resource.NewController(resource.Config{
//	    MaxWorkers: 4,
//	})
//
//	if err := rc.AcquireWorker(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseWorker()
//
// # Nil Safety
//
// All methods handle nil Controller gracefully - they become no-ops.
package resource
