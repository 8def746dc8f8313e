package eqrel

import (
	"log/slog"

	"github.com/hupe1980/eqrel/internal/bucket"
	"github.com/hupe1980/eqrel/internal/resource"
)

// ResourceController bounds worker goroutines and tracks bucket cache memory
// across every relation it is shared with.
type ResourceController = resource.Controller

// ResourceConfig holds the limits of a ResourceController.
type ResourceConfig = resource.Config

// RebuildStats describes one bucket cache rebuild.
type RebuildStats = bucket.Stats

// NewResourceController creates a ResourceController.
func NewResourceController(cfg ResourceConfig) *ResourceController {
	return resource.NewController(cfg)
}

const defaultLazyClasses = 4

type options struct {
	name             string
	logger           *Logger
	metricsCollector MetricsCollector
	parallelism      int
	rc               *ResourceController
	lazyClasses      int
	grain            int
}

func defaultOptions() options {
	return options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		lazyClasses:      defaultLazyClasses,
	}
}

// Option configures a Relation.
type Option func(*options)

// WithName sets the relation name used in log output.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := eqrel.NewJSONLogger(slog.LevelDebug)
//	rel := eqrel.New(eqrel.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &eqrel.BasicMetricsCollector{}
//	rel := eqrel.New(eqrel.WithMetricsCollector(metrics))
//	// ... use rel ...
//	stats := metrics.GetStats()
//	fmt.Printf("Rebuilds: %d, avg: %dns\n", stats.RegenerateCount, stats.RegenerateAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithParallelism sets the number of goroutines used by cache rebuilds and
// merges. n <= 0 means runtime.GOMAXPROCS(0); 1 runs everything on the
// calling goroutine.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithResourceController shares rc between relations, bounding their
// combined worker goroutines and accounting their bucket cache memory.
//
// Example:
//
//	rc := eqrel.NewResourceController(eqrel.ResourceConfig{
//	    MaxWorkers:       runtime.GOMAXPROCS(0),
//	    MemoryLimitBytes: 256 << 20,
//	})
//	a := eqrel.New(eqrel.WithResourceController(rc))
//	b := eqrel.New(eqrel.WithResourceController(rc))
func WithResourceController(rc *ResourceController) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithLazyMaterialization sets how many single-class lookups per mutation
// epoch may be answered by scanning for that class alone while the bucket
// cache is stale, before a full rebuild is done instead. 0 disables it.
//
// Default: 4.
func WithLazyMaterialization(maxClasses int) Option {
	return func(o *options) {
		o.lazyClasses = maxClasses
	}
}

// WithGrain sets the minimum number of elements handed to one worker during
// parallel scans. Mostly useful in tests.
func WithGrain(grain int) Option {
	return func(o *options) {
		o.grain = grain
	}
}
