package monitor

import (
	"context"
	"log/slog"
)

// SlogSink logs samples through a slog.Logger.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink backed by the given logger. A nil logger uses
// slog.Default().
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Observe(sample Sample) {
	s.logger.InfoContext(context.Background(), "resource sample",
		"rss_mb", float64(sample.RSSBytes)/1024/1024,
		"cpu_percent", sample.CPUPercent,
		"managed_bytes", sample.ManagedBytes,
	)
}
