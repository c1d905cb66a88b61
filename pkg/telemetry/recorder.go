package telemetry

import (
	"context"
	"log/slog"
)

// Recorder is the telemetry sink consumed by the resilient provider
// proxy. Implementations must be safe for concurrent use and should
// never fail a business operation because telemetry could not be
// written.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(ctx context.Context, e Entry) error

func (f RecorderFunc) Record(ctx context.Context, e Entry) error { return f(ctx, e) }

// NewLogRecorder records entries to the structured log only. The
// default sink for development and sandbox environments.
func NewLogRecorder(log *slog.Logger) Recorder {
	if log == nil {
		log = slog.Default()
	}
	return RecorderFunc(func(ctx context.Context, e Entry) error {
		level := slog.LevelInfo
		if e.Status == StatusFailure || e.Status == StatusCircuitOpen {
			level = slog.LevelWarn
		}
		log.LogAttrs(ctx, level, "provider call",
			slog.String("tenant_id", e.TenantID.String()),
			slog.String("provider", e.Provider),
			slog.String("action", e.Action),
			slog.String("status", string(e.Status)),
			slog.Int64("latency_ms", e.LatencyMS),
			slog.String("error", e.ErrorMessage),
		)
		return nil
	})
}

// NewNoopRecorder discards all entries.
func NewNoopRecorder() Recorder {
	return RecorderFunc(func(context.Context, Entry) error { return nil })
}
