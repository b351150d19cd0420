package edgemind

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgemind/edgemind/loader"
	"github.com/edgemind/edgemind/model"
	"github.com/edgemind/edgemind/scheduler"
)

// smallSpec fits three times over in a 1MB budget.
var smallSpec = model.Spec{
	Name:         "tinynet",
	InputSize:    64,
	HiddenSize:   64,
	OutputSize:   64,
	HiddenLayers: 2,
}

// wideSpec has ~616KB layers: a 1MB budget holds exactly one at a time.
var wideSpec = model.Spec{
	Name:         "widenet",
	InputSize:    392,
	HiddenSize:   392,
	OutputSize:   392,
	HiddenLayers: 2,
}

func TestBoot(t *testing.T) {
	rt, err := Boot(1)
	require.NoError(t, err)

	assert.Equal(t, 1024*1024, rt.Capacity())
	assert.Equal(t, 0, rt.MemoryUsage())
	assert.Empty(t, rt.Resident())

	require.NoError(t, rt.Close())
	require.NoError(t, rt.Close()) // idempotent
}

func TestBoot_InvalidBudget(t *testing.T) {
	_, err := Boot(0)
	require.ErrorIs(t, err, ErrInvalidBudget)

	_, err = Boot(-5)
	require.ErrorIs(t, err, ErrInvalidBudget)
}

func TestRuntime_PublishAndLoad(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	rt, err := Boot(1, WithMetricsCollector(metrics))
	require.NoError(t, err)
	defer rt.Close()

	ctx := context.Background()
	_, err = rt.PublishModel(ctx, smallSpec, nil)
	require.NoError(t, err)

	var visited []uint64
	res, err := rt.LoadModel(ctx, smallSpec, func(_ context.Context, ll loader.LoadedLayer) error {
		visited = append(visited, ll.Layer.ID)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.LayersLoaded)
	assert.Equal(t, 0, res.Flushes)
	assert.Equal(t, []uint64{1, 2, 3}, visited)
	assert.Equal(t, []scheduler.LayerID{1, 2, 3}, rt.Resident())
	assert.Equal(t, int(smallSpec.TotalBytes()), rt.MemoryUsage())

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.LoadCount)
	assert.Equal(t, int64(0), stats.LoadErrors)
	assert.Equal(t, int64(1), stats.FetchCount)
	assert.Greater(t, stats.FetchBytes, int64(0))
}

func TestRuntime_FlushAccounting(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	rt, err := Boot(1, WithMetricsCollector(metrics))
	require.NoError(t, err)
	defer rt.Close()

	ctx := context.Background()
	_, err = rt.PublishModel(ctx, wideSpec, nil)
	require.NoError(t, err)

	res, err := rt.LoadModel(ctx, wideSpec, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, res.LayersLoaded)
	assert.Equal(t, 2, res.Flushes)

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats.FlushCount)
	assert.Equal(t, int64(2), stats.EvictionCount)
	assert.Greater(t, stats.FlushFreedBytes, int64(0))
}

func TestRuntime_LoadUnknownModel(t *testing.T) {
	rt, err := Boot(1)
	require.NoError(t, err)
	defer rt.Close()

	_, err = rt.LoadModel(context.Background(), smallSpec, nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRuntime_ModelTooLarge(t *testing.T) {
	// A single ~1.4MB layer against a 1MB budget.
	hugeSpec := model.Spec{
		Name:         "hugenet",
		InputSize:    600,
		HiddenSize:   600,
		OutputSize:   600,
		HiddenLayers: 1,
	}

	rt, err := Boot(1)
	require.NoError(t, err)
	defer rt.Close()

	ctx := context.Background()
	_, err = rt.PublishModel(ctx, hugeSpec, nil)
	require.NoError(t, err)

	_, err = rt.LoadModel(ctx, hugeSpec, nil)
	require.ErrorIs(t, err, ErrModelTooLarge)

	var tl *loader.ModelTooLargeError
	require.ErrorAs(t, err, &tl)
	assert.Equal(t, 1024*1024, tl.Capacity)
}

func TestRuntime_UnloadAll(t *testing.T) {
	rt, err := Boot(1)
	require.NoError(t, err)
	defer rt.Close()

	ctx := context.Background()
	_, err = rt.PublishModel(ctx, smallSpec, nil)
	require.NoError(t, err)
	_, err = rt.LoadModel(ctx, smallSpec, nil)
	require.NoError(t, err)
	require.NotEmpty(t, rt.Resident())

	rt.UnloadAll()
	assert.Empty(t, rt.Resident())
	assert.Equal(t, 0, rt.MemoryUsage())
}

func TestRuntime_ClosedOperations(t *testing.T) {
	rt, err := Boot(1)
	require.NoError(t, err)
	require.NoError(t, rt.Close())

	_, err = rt.LoadModel(context.Background(), smallSpec, nil)
	require.ErrorIs(t, err, ErrClosed)

	_, err = rt.PublishModel(context.Background(), smallSpec, nil)
	require.ErrorIs(t, err, ErrClosed)
}

func TestRuntime_MonitorSamples(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	rt, err := Boot(1,
		WithMetricsCollector(metrics),
		WithMonitorInterval(10*time.Millisecond),
	)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, rt.Close())

	stats := metrics.GetStats()
	assert.GreaterOrEqual(t, stats.SampleCount, int64(1))
	assert.Greater(t, stats.LastRSSBytes, int64(0))
}

// recordingObserver captures flush events for fanout verification.
type recordingObserver struct {
	mu      sync.Mutex
	flushes int
	victims []scheduler.LayerID
}

func (r *recordingObserver) AllocationAttempted(scheduler.LayerID, int)   {}
func (r *recordingObserver) AllocationFailed(scheduler.LayerID, int, int) {}

func (r *recordingObserver) EvictionSuggested(victim scheduler.LayerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.victims = append(r.victims, victim)
}

func (r *recordingObserver) FlushPerformed(int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes++
}

func TestRuntime_ObserverFanout(t *testing.T) {
	obs := &recordingObserver{}
	rt, err := Boot(1, WithObserver(obs))
	require.NoError(t, err)
	defer rt.Close()

	ctx := context.Background()
	_, err = rt.PublishModel(ctx, wideSpec, nil)
	require.NoError(t, err)
	_, err = rt.LoadModel(ctx, wideSpec, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, obs.flushes)
	assert.Equal(t, []scheduler.LayerID{1, 2}, obs.victims)
}
