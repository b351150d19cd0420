package edgemind

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with edgemind-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithModel adds a model name field to the logger.
func (l *Logger) WithModel(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("model", name),
	}
}

// WithLayer adds a layer ID field to the logger.
func (l *Logger) WithLayer(id uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("layer", id),
	}
}

// LogLoad logs a completed (or failed) model load.
func (l *Logger) LogLoad(ctx context.Context, modelName string, layers, flushes int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "model load failed",
			"model", modelName,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "model load completed",
			"model", modelName,
			"layers", layers,
			"flushes", flushes,
			"duration", duration,
		)
	}
}

// LogFlush logs a full arena flush.
func (l *Logger) LogFlush(freedBytes, layersDropped int) {
	l.Debug("arena flushed",
		"freed_bytes", freedBytes,
		"layers_dropped", layersDropped,
	)
}

// LogSample logs one telemetry sample from the monitor.
func (l *Logger) LogSample(rssBytes uint64, cpuPercent float64, managedBytes int) {
	l.Debug("telemetry sample",
		"rss_bytes", rssBytes,
		"cpu_percent", cpuPercent,
		"managed_bytes", managedBytes,
	)
}

// LogEviction logs an advisory eviction nomination.
func (l *Logger) LogEviction(victim uint64) {
	l.Debug("eviction nominated",
		"victim", victim,
	)
}
