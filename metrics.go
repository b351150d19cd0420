package edgemind

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    loadCounter  prometheus.Counter
//	    flushCounter prometheus.Counter
//	}
//
//	func (p *PrometheusCollector) RecordLoad(duration time.Duration, err error) {
//	    p.loadCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordLoad is called after each model load operation.
	// duration is the total time taken, err is nil if successful.
	RecordLoad(duration time.Duration, err error)

	// RecordEviction is called each time the scheduler nominates an
	// eviction candidate.
	RecordEviction()

	// RecordFlush is called after each full arena flush.
	// freedBytes is the watermark released, layersDropped the number of
	// resident layers invalidated.
	RecordFlush(freedBytes, layersDropped int)

	// RecordFetch is called after each blob fetch.
	// bytes is the on-wire size of the fetched blob.
	RecordFetch(bytes int64, duration time.Duration)

	// RecordSample is called for each telemetry sample when the background
	// monitor is enabled.
	RecordSample(rssBytes int64, cpuPercent float64, managedBytes int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(time.Duration, error)  {}
func (NoopMetricsCollector) RecordEviction()                  {}
func (NoopMetricsCollector) RecordFlush(int, int)             {}
func (NoopMetricsCollector) RecordFetch(int64, time.Duration) {}
func (NoopMetricsCollector) RecordSample(int64, float64, int) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LoadCount       atomic.Int64
	LoadErrors      atomic.Int64
	LoadTotalNanos  atomic.Int64
	EvictionCount   atomic.Int64
	FlushCount      atomic.Int64
	FlushFreedBytes atomic.Int64
	FlushDropped    atomic.Int64
	FetchCount      atomic.Int64
	FetchBytes      atomic.Int64
	SampleCount     atomic.Int64
	LastRSSBytes    atomic.Int64
	LastManaged     atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// RecordEviction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEviction() {
	b.EvictionCount.Add(1)
}

// RecordFlush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFlush(freedBytes, layersDropped int) {
	b.FlushCount.Add(1)
	b.FlushFreedBytes.Add(int64(freedBytes))
	b.FlushDropped.Add(int64(layersDropped))
}

// RecordFetch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFetch(bytes int64, duration time.Duration) {
	b.FetchCount.Add(1)
	b.FetchBytes.Add(bytes)
}

// RecordSample implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSample(rssBytes int64, cpuPercent float64, managedBytes int) {
	b.SampleCount.Add(1)
	b.LastRSSBytes.Store(rssBytes)
	b.LastManaged.Store(int64(managedBytes))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadCount:       b.LoadCount.Load(),
		LoadErrors:      b.LoadErrors.Load(),
		LoadAvgNanos:    b.getAvgLoadNanos(),
		EvictionCount:   b.EvictionCount.Load(),
		FlushCount:      b.FlushCount.Load(),
		FlushFreedBytes: b.FlushFreedBytes.Load(),
		FlushDropped:    b.FlushDropped.Load(),
		FetchCount:      b.FetchCount.Load(),
		FetchBytes:      b.FetchBytes.Load(),
		SampleCount:     b.SampleCount.Load(),
		LastRSSBytes:    b.LastRSSBytes.Load(),
		LastManaged:     b.LastManaged.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgLoadNanos() int64 {
	count := b.LoadCount.Load()
	if count == 0 {
		return 0
	}
	return b.LoadTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount       int64
	LoadErrors      int64
	LoadAvgNanos    int64
	EvictionCount   int64
	FlushCount      int64
	FlushFreedBytes int64
	FlushDropped    int64
	FetchCount      int64
	FetchBytes      int64
	SampleCount     int64
	LastRSSBytes    int64
	LastManaged     int64
}
