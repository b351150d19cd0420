package scheduler

import (
	"context"
	"log/slog"
)

// Observer receives notifications at well-defined points of the scheduling
// logic. Implementations must be cheap and must not call back into the
// scheduler.
type Observer interface {
	// AllocationAttempted fires before every arena allocation.
	AllocationAttempted(layer LayerID, sizeBytes int)
	// AllocationFailed fires when an allocation did not fit.
	AllocationFailed(layer LayerID, requested, available int)
	// EvictionSuggested fires when a victim is nominated. Advisory only.
	EvictionSuggested(victim LayerID)
	// FlushPerformed fires after UnloadAll, with the bytes reclaimed and
	// the number of resident layers dropped.
	FlushPerformed(freedBytes, layersDropped int)
}

// NopObserver ignores all notifications.
type NopObserver struct{}

func (NopObserver) AllocationAttempted(LayerID, int)   {}
func (NopObserver) AllocationFailed(LayerID, int, int) {}
func (NopObserver) EvictionSuggested(LayerID)          {}
func (NopObserver) FlushPerformed(int, int)            {}

// SlogObserver logs scheduling events through a slog.Logger.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates an observer backed by the given logger.
// A nil logger uses slog.Default().
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) AllocationAttempted(layer LayerID, sizeBytes int) {
	o.logger.DebugContext(context.Background(), "load requested",
		"layer", uint64(layer),
		"size_bytes", sizeBytes,
	)
}

func (o *SlogObserver) AllocationFailed(layer LayerID, requested, available int) {
	o.logger.DebugContext(context.Background(), "arena full",
		"layer", uint64(layer),
		"requested", requested,
		"available", available,
	)
}

func (o *SlogObserver) EvictionSuggested(victim LayerID) {
	o.logger.InfoContext(context.Background(), "eviction suggested",
		"victim", uint64(victim),
	)
}

func (o *SlogObserver) FlushPerformed(freedBytes, layersDropped int) {
	o.logger.InfoContext(context.Background(), "arena flushed",
		"freed_bytes", freedBytes,
		"layers_dropped", layersDropped,
	)
}
