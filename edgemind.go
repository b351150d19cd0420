package edgemind

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/edgemind/edgemind/arena"
	"github.com/edgemind/edgemind/blobstore"
	"github.com/edgemind/edgemind/codec"
	"github.com/edgemind/edgemind/internal/resource"
	"github.com/edgemind/edgemind/loader"
	"github.com/edgemind/edgemind/model"
	"github.com/edgemind/edgemind/monitor"
	"github.com/edgemind/edgemind/scheduler"
)

// Runtime ties the scheduler, loader, store and monitor together behind a
// single facade. A Runtime owns its arena: Close releases it.
type Runtime struct {
	sched   *scheduler.Scheduler
	loader  *loader.Loader
	mon     *monitor.Monitor
	store   blobstore.BlobStore
	codec   codec.Codec
	logger  *Logger
	metrics MetricsCollector
	closed  atomic.Bool
}

// Boot creates a Runtime with a hard weight budget, expressed in megabytes.
// The full budget is reserved upfront; a failed reservation is fatal.
func Boot(memoryLimitMB int, opts ...Option) (*Runtime, error) {
	if memoryLimitMB <= 0 {
		return nil, ErrInvalidBudget
	}

	o := &options{
		store:            blobstore.NewMemoryStore(),
		codec:            codec.Default,
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, opt := range opts {
		opt(o)
	}

	rt := &Runtime{
		store:   o.store,
		codec:   o.codec,
		logger:  o.logger,
		metrics: o.metricsCollector,
	}

	obs := scheduler.Observer(&runtimeObserver{logger: o.logger, metrics: o.metricsCollector})
	if o.observer != nil {
		obs = fanoutObserver{obs, o.observer}
	}

	sched, err := scheduler.Boot(memoryLimitMB, scheduler.WithObserver(obs))
	if err != nil {
		return nil, translateError(err)
	}
	rt.sched = sched

	rt.loader = loader.New(sched, o.store,
		loader.WithController(resource.NewController(o.resourceConfig)),
		loader.WithLogger(o.logger.Logger),
	)

	if o.monitorInterval > 0 {
		sink := monitor.SinkFunc(func(s monitor.Sample) {
			rt.metrics.RecordSample(int64(s.RSSBytes), s.CPUPercent, s.ManagedBytes)
			rt.logger.LogSample(s.RSSBytes, s.CPUPercent, s.ManagedBytes)
		})
		rt.mon = monitor.New(sink, monitor.WithUsageFunc(sched.MemoryUsage))
		rt.mon.Start(o.monitorInterval)
	}

	rt.logger.Info("runtime booted",
		"budget_mb", memoryLimitMB,
		"monitor", o.monitorInterval > 0,
	)

	return rt, nil
}

// LoadModel streams the named architecture's checkpoint from the store into
// the arena, layer by layer. fn, when non-nil, runs for each layer while
// its weights are resident. The checkpoint must have been published under
// spec.Name.
func (rt *Runtime) LoadModel(ctx context.Context, spec model.Spec, fn loader.LayerFunc) (*loader.Result, error) {
	if rt.closed.Load() {
		return nil, ErrClosed
	}

	start := time.Now()

	m, err := loader.FetchManifest(ctx, rt.store, spec.Name)
	if err != nil {
		rt.metrics.RecordLoad(time.Since(start), err)
		rt.logger.LogLoad(ctx, spec.Name, 0, 0, time.Since(start), err)
		return nil, translateError(err)
	}

	res, err := rt.loader.LoadModel(ctx, m, spec, fn)
	duration := time.Since(start)

	rt.metrics.RecordLoad(duration, err)
	if err != nil {
		rt.logger.LogLoad(ctx, spec.Name, 0, 0, duration, err)
		return nil, translateError(err)
	}

	rt.metrics.RecordFetch(res.BytesFetched, duration)
	rt.logger.LogLoad(ctx, spec.Name, res.LayersLoaded, res.Flushes, duration, nil)

	return res, nil
}

// PublishModel writes a checkpoint for the spec into the store using the
// runtime's codec. A nil weights function publishes zero-filled layers.
func (rt *Runtime) PublishModel(ctx context.Context, spec model.Spec, weights loader.WeightFunc) (*model.Manifest, error) {
	if rt.closed.Load() {
		return nil, ErrClosed
	}
	m, err := loader.Publish(ctx, rt.store, rt.codec, spec, weights)
	return m, translateError(err)
}

// UnloadAll flushes every resident layer and resets the arena.
func (rt *Runtime) UnloadAll() {
	if rt.closed.Load() {
		return
	}
	rt.sched.UnloadAll()
}

// MemoryUsage returns the arena watermark in bytes.
func (rt *Runtime) MemoryUsage() int {
	return rt.sched.MemoryUsage()
}

// Capacity returns the weight budget in bytes.
func (rt *Runtime) Capacity() int {
	return rt.sched.Capacity()
}

// Resident returns the resident layers in load order.
func (rt *Runtime) Resident() []scheduler.LayerID {
	return rt.sched.Resident()
}

// ArenaStats returns a snapshot of the arena counters.
func (rt *Runtime) ArenaStats() arena.Stats {
	return rt.sched.ArenaStats()
}

// Scheduler exposes the underlying scheduler for callers that drive the
// load protocol themselves instead of going through LoadModel.
func (rt *Runtime) Scheduler() *scheduler.Scheduler {
	return rt.sched
}

// Close stops the monitor and releases the arena. Idempotent.
func (rt *Runtime) Close() error {
	if rt.closed.Swap(true) {
		return nil
	}
	if rt.mon != nil {
		rt.mon.Stop()
	}
	err := rt.sched.Close()
	rt.logger.Info("runtime closed")
	return err
}

// runtimeObserver feeds scheduling events into the runtime's logger and
// metrics collector.
type runtimeObserver struct {
	logger  *Logger
	metrics MetricsCollector
}

func (o *runtimeObserver) AllocationAttempted(layer scheduler.LayerID, size int) {}

func (o *runtimeObserver) AllocationFailed(layer scheduler.LayerID, requested, available int) {
	o.logger.Debug("allocation failed",
		"layer", uint64(layer),
		"requested", requested,
		"available", available,
	)
}

func (o *runtimeObserver) EvictionSuggested(victim scheduler.LayerID) {
	o.metrics.RecordEviction()
	o.logger.LogEviction(uint64(victim))
}

func (o *runtimeObserver) FlushPerformed(freedBytes, layersDropped int) {
	o.metrics.RecordFlush(freedBytes, layersDropped)
	o.logger.LogFlush(freedBytes, layersDropped)
}

// fanoutObserver broadcasts scheduling events to multiple observers.
type fanoutObserver []scheduler.Observer

func (f fanoutObserver) AllocationAttempted(layer scheduler.LayerID, size int) {
	for _, o := range f {
		o.AllocationAttempted(layer, size)
	}
}

func (f fanoutObserver) AllocationFailed(layer scheduler.LayerID, requested, available int) {
	for _, o := range f {
		o.AllocationFailed(layer, requested, available)
	}
}

func (f fanoutObserver) EvictionSuggested(victim scheduler.LayerID) {
	for _, o := range f {
		o.EvictionSuggested(victim)
	}
}

func (f fanoutObserver) FlushPerformed(freedBytes, layersDropped int) {
	for _, o := range f {
		o.FlushPerformed(freedBytes, layersDropped)
	}
}
