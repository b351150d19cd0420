package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edgemind/edgemind/arena"
	"github.com/edgemind/edgemind/blobstore"
	"github.com/edgemind/edgemind/codec"
	"github.com/edgemind/edgemind/internal/resource"
	"github.com/edgemind/edgemind/model"
	"github.com/edgemind/edgemind/scheduler"
)

// stagingRetryInterval is how long a fetch waits before re-checking the
// staging budget. Staging pressure only delays prefetch, it never fails it.
const stagingRetryInterval = 10 * time.Millisecond

// Loader streams checkpoint weights into a scheduler's arena.
type Loader struct {
	sched  *scheduler.Scheduler
	store  blobstore.BlobStore
	ctrl   *resource.Controller
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithController sets the resource controller that budgets staging memory,
// fetch concurrency and fetch IO. Without one, fetches run one at a time
// with no staging limit.
func WithController(c *resource.Controller) Option {
	return func(l *Loader) {
		l.ctrl = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Loader that loads from store into sched's arena.
func New(sched *scheduler.Scheduler, store blobstore.BlobStore, opts ...Option) *Loader {
	l := &Loader{
		sched:  sched,
		store:  store,
		ctrl:   resource.NewController(resource.Config{}),
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// LoadedLayer is a layer that is currently resident in the arena.
type LoadedLayer struct {
	Layer  model.Layer
	Handle arena.Handle
	// Bytes is the arena-resident weight data. It is invalidated by the
	// next flush; do not retain it past the callback.
	Bytes []byte
}

// LayerFunc is invoked for each layer while it is resident. Returning an
// error aborts the load.
type LayerFunc func(ctx context.Context, ll LoadedLayer) error

// Result summarizes a completed load.
type Result struct {
	LayersLoaded int
	// Flushes counts how many times the arena was flushed to make room.
	Flushes      int
	BytesFetched int64
}

// LoadModel walks the spec's layers in forward-pass order, fetches each
// layer's blob, and places the decoded weights into the arena.
//
// Layers are prefetched concurrently under the resource controller's
// budgets, but placement is strictly sequential. When the arena fills up
// the loader flushes all resident layers and retries; earlier layers are
// gone at that point, which is the intended streaming behavior. fn, when
// non-nil, runs for each layer while its weights are resident.
func (l *Loader) LoadModel(ctx context.Context, m *model.Manifest, spec model.Spec, fn LayerFunc) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	cdc, ok := codec.ByName(m.Codec())
	if !ok {
		return nil, &UnknownCodecError{Name: m.Codec()}
	}

	layers := spec.Layers()
	for _, layer := range layers {
		if !m.HasLayer(layer.ID) {
			return nil, &LayerMissingError{Layer: layer}
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	res := &Result{}

	// One buffered slot per layer keeps consumption ordered while fetches
	// overlap up to the controller's concurrency limit.
	staged := make([]chan []byte, len(layers))
	for i := range staged {
		staged[i] = make(chan []byte, 1)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, layer := range layers {
		ch := staged[i]
		g.Go(func() error {
			data, n, err := l.fetchLayer(gctx, m, cdc, layer)
			if err != nil {
				return err
			}
			res.addFetched(n)
			select {
			case ch <- data:
				return nil
			case <-gctx.Done():
				l.ctrl.ReleaseStaging(int64(len(data)))
				return gctx.Err()
			}
		})
	}

	var loadErr error
	for i, layer := range layers {
		var data []byte
		select {
		case data = <-staged[i]:
		case <-gctx.Done():
			loadErr = gctx.Err()
		}
		if loadErr != nil {
			break
		}

		err := l.placeLayer(ctx, layer, data, fn, res)
		l.ctrl.ReleaseStaging(int64(len(data)))
		if err != nil {
			loadErr = err
			break
		}
	}

	cancel()
	if err := g.Wait(); loadErr == nil && err != nil && !errors.Is(err, context.Canceled) {
		loadErr = err
	}

	// Drain staging reservations stranded by an aborted walk.
	for _, ch := range staged {
		select {
		case data := <-ch:
			l.ctrl.ReleaseStaging(int64(len(data)))
		default:
		}
	}

	if loadErr != nil {
		return nil, loadErr
	}

	l.logger.Info("model loaded",
		slog.String("model", m.Model()),
		slog.Int("layers", res.LayersLoaded),
		slog.Int("flushes", res.Flushes),
		slog.Int64("bytes_fetched", res.BytesFetched))

	return res, nil
}

// placeLayer runs the request/flush/retry protocol for one layer and copies
// its weights into the granted arena range.
func (l *Loader) placeLayer(ctx context.Context, layer model.Layer, data []byte, fn LayerFunc, res *Result) error {
	for {
		d := l.sched.RequestLoad(scheduler.LayerID(layer.ID), layer.SizeBytes())

		switch d.Outcome {
		case scheduler.LoadSuccess:
			dst, err := l.sched.Bytes(d.Handle)
			if err != nil {
				return fmt.Errorf("loader: resolve handle for layer %s: %w", layer.Name, err)
			}
			copy(dst, data)
			res.LayersLoaded++

			l.logger.Debug("layer resident",
				slog.String("layer", layer.Name),
				slog.Int("size", layer.SizeBytes()),
				slog.Int("arena_used", l.sched.MemoryUsage()))

			if fn != nil {
				return fn(ctx, LoadedLayer{Layer: layer, Handle: d.Handle, Bytes: dst})
			}
			return nil

		case scheduler.MustUnload:
			// Advisory nomination, but the arena only supports a full
			// flush: everything goes, then the request is retried. After
			// a flush the next failure is a terminal OOM, so this loop
			// runs at most twice per layer.
			l.logger.Info("arena full, flushing",
				slog.String("layer", layer.Name),
				slog.Uint64("nominated", uint64(d.Evict)),
				slog.Int("resident", len(l.sched.Resident())))
			l.sched.UnloadAll()
			res.Flushes++

		case scheduler.OOM:
			return &ModelTooLargeError{Layer: layer, Capacity: l.sched.Capacity()}

		case scheduler.Aborted:
			return fmt.Errorf("loader: load layer %s: %w", layer.Name, d.Err)
		}
	}
}

// fetchLayer downloads and decodes one layer's blob under the controller's
// budgets. On success the decoded length is reserved as staging memory; the
// caller releases it. The second return value is the on-wire blob size.
func (l *Loader) fetchLayer(ctx context.Context, m *model.Manifest, cdc codec.Codec, layer model.Layer) ([]byte, int64, error) {
	if err := l.ctrl.AcquireFetch(ctx); err != nil {
		return nil, 0, err
	}
	defer l.ctrl.ReleaseFetch()

	blob, err := l.store.Open(ctx, m.BlobName(layer.ID))
	if err != nil {
		return nil, 0, fmt.Errorf("loader: open layer %s: %w", layer.Name, err)
	}
	defer blob.Close()

	wireSize := blob.Size()
	if err := l.ctrl.AcquireIO(ctx, int(wireSize)); err != nil {
		return nil, 0, err
	}

	raw, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		return nil, 0, fmt.Errorf("loader: read layer %s: %w", layer.Name, err)
	}

	data, err := cdc.Decode(raw)
	if err != nil {
		return nil, 0, fmt.Errorf("loader: decode layer %s: %w", layer.Name, err)
	}
	if len(data) != layer.SizeBytes() {
		return nil, 0, &SizeMismatchError{Layer: layer, Got: len(data)}
	}

	if err := l.acquireStaging(ctx, int64(len(data))); err != nil {
		return nil, 0, err
	}
	return data, wireSize, nil
}

// acquireStaging blocks until the staging budget admits n bytes.
func (l *Loader) acquireStaging(ctx context.Context, n int64) error {
	if limit := l.ctrl.StagingLimit(); limit > 0 && n > limit {
		return fmt.Errorf("loader: layer of %d bytes exceeds staging limit %d", n, limit)
	}

	for {
		err := l.ctrl.AcquireStaging(n)
		if err == nil {
			return nil
		}
		if !errors.Is(err, resource.ErrStagingLimitExceeded) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(stagingRetryInterval):
		}
	}
}

func (r *Result) addFetched(n int64) {
	// Workers race on this counter; reads happen only after Wait.
	atomic.AddInt64(&r.BytesFetched, n)
}

// FetchManifest reads and parses a published model's manifest blob.
func FetchManifest(ctx context.Context, store blobstore.BlobStore, modelName string) (*model.Manifest, error) {
	blob, err := store.Open(ctx, modelName+"/"+model.ManifestBlobName)
	if err != nil {
		return nil, fmt.Errorf("loader: open manifest for %s: %w", modelName, err)
	}
	defer blob.Close()

	data, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		return nil, fmt.Errorf("loader: read manifest for %s: %w", modelName, err)
	}

	var m model.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("loader: parse manifest for %s: %w", modelName, err)
	}
	return &m, nil
}
