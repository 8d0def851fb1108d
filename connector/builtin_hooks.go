package connector

import (
	"context"
	"sync/atomic"
	"time"
)

// LoggingHook logs round-trip execution with configurable detail.
type LoggingHook struct {
	logger       Logger
	logResults   bool
	logDurations bool
}

// NewLoggingHook creates a logging hook writing to the given logger.
func NewLoggingHook(logger Logger, logResults, logDurations bool) *LoggingHook {
	return &LoggingHook{
		logger:       logger,
		logResults:   logResults,
		logDurations: logDurations,
	}
}

func (h *LoggingHook) Name() string {
	return "logging"
}

func (h *LoggingHook) Before(ctx context.Context, hookCtx *HookContext) error {
	h.logger.Debug("posting chunk",
		String("trace_id", hookCtx.TraceID),
		Int("chunk", hookCtx.ChunkIndex),
		Int("statements", hookCtx.StatementCount))
	return nil
}

func (h *LoggingHook) After(ctx context.Context, hookCtx *HookContext) error {
	fields := []Field{
		String("trace_id", hookCtx.TraceID),
		Int("chunk", hookCtx.ChunkIndex),
	}

	if h.logDurations {
		fields = append(fields, Duration("duration", hookCtx.Duration))
	}

	if hookCtx.Error != nil {
		fields = append(fields, Error("error", hookCtx.Error))
		h.logger.Error("chunk failed", fields...)
		return nil
	}

	if h.logResults && hookCtx.Result != nil {
		fields = append(fields, Int("results", len(hookCtx.Result.Results)))
	}

	h.logger.Debug("chunk completed", fields...)
	return nil
}

// MetricsHook counts round trips, failures and cumulative duration.
type MetricsHook struct {
	rounds        atomic.Int64
	errors        atomic.Int64
	totalDuration atomic.Int64
}

// MetricsSnapshot is a point-in-time view of a MetricsHook's counters.
type MetricsSnapshot struct {
	Rounds        int64
	Errors        int64
	TotalDuration time.Duration
}

// NewMetricsHook creates a metrics-counting hook.
func NewMetricsHook() *MetricsHook {
	return &MetricsHook{}
}

func (h *MetricsHook) Name() string {
	return "metrics"
}

func (h *MetricsHook) Before(ctx context.Context, hookCtx *HookContext) error {
	return nil
}

func (h *MetricsHook) After(ctx context.Context, hookCtx *HookContext) error {
	h.rounds.Add(1)
	h.totalDuration.Add(int64(hookCtx.Duration))
	if hookCtx.Error != nil {
		h.errors.Add(1)
	}
	return nil
}

// Snapshot returns the current counter values.
func (h *MetricsHook) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Rounds:        h.rounds.Load(),
		Errors:        h.errors.Load(),
		TotalDuration: time.Duration(h.totalDuration.Load()),
	}
}
