package eqrel

import (
	"log/slog"
	"os"
	"time"

	"golang.org/x/time/rate"
)

// rebuildInfoInterval is the minimum gap between Info-level rebuild logs.
// Every rebuild is still logged at Debug level.
const rebuildInfoInterval = time.Second

// Logger wraps slog.Logger with eqrel-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger

	rebuilds *rate.Sometimes
}

func wrap(l *slog.Logger) *Logger {
	return &Logger{
		Logger:   l,
		rebuilds: &rate.Sometimes{Interval: rebuildInfoInterval},
	}
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return wrap(slog.New(handler))
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return wrap(slog.New(handler))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return wrap(slog.New(handler))
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return wrap(slog.New(handler))
}

// WithRelation adds a relation name field to the logger.
func (l *Logger) WithRelation(name string) *Logger {
	return &Logger{
		Logger:   l.Logger.With("relation", name),
		rebuilds: l.rebuilds,
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger:   l.Logger.With("count", count),
		rebuilds: l.rebuilds,
	}
}

// LogRegenerate logs a bucket cache rebuild.
func (l *Logger) LogRegenerate(s RebuildStats) {
	l.Debug("bucket cache rebuilt",
		"epoch", s.Epoch,
		"slots", s.Slots,
		"classes", s.Buckets,
		"pairs", s.Pairs,
		"bytes", s.Bytes,
		"duration", s.Duration,
	)

	l.rebuilds.Do(func() {
		l.Info("bucket cache rebuilt",
			"classes", s.Buckets,
			"elements", s.Elements,
			"duration", s.Duration,
		)
	})
}

// LogMerge logs an InsertAll or Extend.
func (l *Logger) LogMerge(op MergeOp, classes, merged int, duration time.Duration) {
	l.Debug("merge completed",
		"op", op.String(),
		"classes", classes,
		"merged", merged,
		"duration", duration,
	)
}

// LogPartition logs a Partition call.
func (l *Logger) LogPartition(requested, produced, pairs int) {
	l.Debug("partition completed",
		"requested", requested,
		"produced", produced,
		"pairs", pairs,
	)
}

// LogClear logs a Clear.
func (l *Logger) LogClear(elements int) {
	l.Info("relation cleared",
		"elements", elements,
	)
}
