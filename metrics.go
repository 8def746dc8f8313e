package eqrel

import (
	"sync/atomic"
	"time"
)

// MergeOp identifies a cross-relation merge.
type MergeOp uint8

const (
	// MergeInsertAll is Relation.InsertAll.
	MergeInsertAll MergeOp = iota
	// MergeExtend is Relation.Extend.
	MergeExtend
)

func (op MergeOp) String() string {
	switch op {
	case MergeInsertAll:
		return "insert_all"
	case MergeExtend:
		return "extend"
	default:
		return "unknown"
	}
}

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Implementations must be safe for concurrent use: Insert is typically
// called from many evaluation goroutines at once.
type MetricsCollector interface {
	// RecordInsert is called after each Insert. inserted reports whether the
	// pair was new.
	RecordInsert(inserted bool)

	// RecordMerge is called after each InsertAll or Extend. classes is the
	// number of classes scanned, merged the number that led to unions.
	RecordMerge(op MergeOp, classes, merged int, duration time.Duration)

	// RecordRegenerate is called after each bucket cache rebuild.
	RecordRegenerate(classes, elements int, duration time.Duration)

	// RecordPartition is called after each Partition.
	RecordPartition(requested, produced int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(bool)                            {}
func (NoopMetricsCollector) RecordMerge(MergeOp, int, int, time.Duration) {}
func (NoopMetricsCollector) RecordRegenerate(int, int, time.Duration)     {}
func (NoopMetricsCollector) RecordPartition(int, int)                     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount        atomic.Int64
	InsertNew          atomic.Int64
	InsertAllCount     atomic.Int64
	ExtendCount        atomic.Int64
	MergedClasses      atomic.Int64
	MergeTotalNanos    atomic.Int64
	RegenerateCount    atomic.Int64
	RegenerateNanos    atomic.Int64
	LastClasses        atomic.Int64
	LastElements       atomic.Int64
	PartitionCount     atomic.Int64
	PartitionRequested atomic.Int64
	PartitionProduced  atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(inserted bool) {
	b.InsertCount.Add(1)
	if inserted {
		b.InsertNew.Add(1)
	}
}

// RecordMerge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMerge(op MergeOp, classes, merged int, duration time.Duration) {
	switch op {
	case MergeInsertAll:
		b.InsertAllCount.Add(1)
	case MergeExtend:
		b.ExtendCount.Add(1)
	}
	b.MergedClasses.Add(int64(merged))
	b.MergeTotalNanos.Add(duration.Nanoseconds())
}

// RecordRegenerate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRegenerate(classes, elements int, duration time.Duration) {
	b.RegenerateCount.Add(1)
	b.RegenerateNanos.Add(duration.Nanoseconds())
	b.LastClasses.Store(int64(classes))
	b.LastElements.Store(int64(elements))
}

// RecordPartition implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPartition(requested, produced int) {
	b.PartitionCount.Add(1)
	b.PartitionRequested.Add(int64(requested))
	b.PartitionProduced.Add(int64(produced))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:        b.InsertCount.Load(),
		InsertNew:          b.InsertNew.Load(),
		InsertAllCount:     b.InsertAllCount.Load(),
		ExtendCount:        b.ExtendCount.Load(),
		MergedClasses:      b.MergedClasses.Load(),
		RegenerateCount:    b.RegenerateCount.Load(),
		RegenerateAvgNanos: b.getAvgRegenerateNanos(),
		LastClasses:        b.LastClasses.Load(),
		LastElements:       b.LastElements.Load(),
		PartitionCount:     b.PartitionCount.Load(),
		PartitionRequested: b.PartitionRequested.Load(),
		PartitionProduced:  b.PartitionProduced.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgRegenerateNanos() int64 {
	count := b.RegenerateCount.Load()
	if count == 0 {
		return 0
	}
	return b.RegenerateNanos.Load() / count
}

// BasicMetricsStats is a point-in-time snapshot of BasicMetricsCollector.
type BasicMetricsStats struct {
	InsertCount        int64
	InsertNew          int64
	InsertAllCount     int64
	ExtendCount        int64
	MergedClasses      int64
	RegenerateCount    int64
	RegenerateAvgNanos int64
	LastClasses        int64
	LastElements       int64
	PartitionCount     int64
	PartitionRequested int64
	PartitionProduced  int64
}
