package edgemind

import (
	"time"

	"github.com/edgemind/edgemind/blobstore"
	"github.com/edgemind/edgemind/codec"
	"github.com/edgemind/edgemind/internal/resource"
	"github.com/edgemind/edgemind/scheduler"
)

type options struct {
	store            blobstore.BlobStore
	codec            codec.Codec
	logger           *Logger
	metricsCollector MetricsCollector
	observer         scheduler.Observer
	resourceConfig   resource.Config
	monitorInterval  time.Duration
}

// Option configures Runtime boot behavior.
type Option func(*options)

// WithStore configures where checkpoint blobs are read from and published
// to. Defaults to an in-memory store.
func WithStore(s blobstore.BlobStore) Option {
	return func(o *options) {
		if s != nil {
			o.store = s
		}
	}
}

// WithCodec configures the codec used when publishing checkpoints.
// Loading always follows the manifest's codec, not this one.
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithLogger configures structured logging. Pass nil to keep the default
// no-op logger.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &edgemind.BasicMetricsCollector{}
//	rt, _ := edgemind.Boot(50, edgemind.WithMetricsCollector(metrics))
//	// ... later:
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithObserver installs an additional scheduling observer next to the
// runtime's own logging/metrics observer.
func WithObserver(obs scheduler.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithResourceConfig configures the fetch-side budgets: staging memory,
// fetch concurrency and fetch IO throughput.
func WithResourceConfig(cfg resource.Config) Option {
	return func(o *options) {
		o.resourceConfig = cfg
	}
}

// WithMonitorInterval enables the background telemetry monitor with the
// given polling interval. Zero (the default) leaves it disabled.
func WithMonitorInterval(interval time.Duration) Option {
	return func(o *options) {
		o.monitorInterval = interval
	}
}
