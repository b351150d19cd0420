package loader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgemind/edgemind/blobstore"
	"github.com/edgemind/edgemind/codec"
	"github.com/edgemind/edgemind/internal/resource"
	"github.com/edgemind/edgemind/model"
	"github.com/edgemind/edgemind/scheduler"
)

// testSpec has 5 layers of 16640 bytes each ((64*64+64)*4).
var testSpec = model.Spec{
	Name:         "tinynet",
	InputSize:    64,
	HiddenSize:   64,
	OutputSize:   64,
	HiddenLayers: 4,
}

const testLayerBytes = (64*64 + 64) * 4

// patternWeights fills each layer with its own ID byte so tests can verify
// what actually landed in the arena.
func patternWeights(layer model.Layer) []byte {
	raw := make([]byte, layer.SizeBytes())
	for i := range raw {
		raw[i] = byte(layer.ID)
	}
	return raw
}

func publishTestModel(t *testing.T, cdc codec.Codec) *blobstore.MemoryStore {
	t.Helper()
	store := blobstore.NewMemoryStore()
	_, err := Publish(context.Background(), store, cdc, testSpec, patternWeights)
	require.NoError(t, err)
	return store
}

func TestLoadModel_FitsEntirely(t *testing.T) {
	store := publishTestModel(t, codec.Raw{})

	sched, err := scheduler.BootBytes(6 * testLayerBytes)
	require.NoError(t, err)
	defer sched.Close()

	m, err := FetchManifest(context.Background(), store, "tinynet")
	require.NoError(t, err)

	var visited []uint64
	l := New(sched, store)
	res, err := l.LoadModel(context.Background(), m, testSpec, func(_ context.Context, ll LoadedLayer) error {
		visited = append(visited, ll.Layer.ID)
		for _, b := range ll.Bytes {
			if b != byte(ll.Layer.ID) {
				t.Fatalf("layer %d contains foreign byte %d", ll.Layer.ID, b)
			}
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 5, res.LayersLoaded)
	assert.Equal(t, 0, res.Flushes)
	assert.Equal(t, int64(5*testLayerBytes), res.BytesFetched)
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, visited)
	assert.Equal(t,
		[]scheduler.LayerID{1, 2, 3, 4, 5},
		sched.Resident())
}

func TestLoadModel_FlushAndRetry(t *testing.T) {
	store := publishTestModel(t, codec.Raw{})

	// Room for two layers; five must pass through.
	sched, err := scheduler.BootBytes(2 * testLayerBytes)
	require.NoError(t, err)
	defer sched.Close()

	m, err := FetchManifest(context.Background(), store, "tinynet")
	require.NoError(t, err)

	ctrl := resource.NewController(resource.Config{
		StagingLimitBytes:    2 * testLayerBytes,
		MaxConcurrentFetches: 2,
	})

	var visited []uint64
	l := New(sched, store, WithController(ctrl))
	res, err := l.LoadModel(context.Background(), m, testSpec, func(_ context.Context, ll LoadedLayer) error {
		visited = append(visited, ll.Layer.ID)
		assert.Equal(t, byte(ll.Layer.ID), ll.Bytes[0])
		assert.Equal(t, byte(ll.Layer.ID), ll.Bytes[len(ll.Bytes)-1])
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 5, res.LayersLoaded)
	assert.Equal(t, 2, res.Flushes)
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, visited)

	// After two flushes only the final window remains resident.
	assert.Equal(t, []scheduler.LayerID{5}, sched.Resident())

	// All staging memory returned.
	assert.Equal(t, int64(0), ctrl.StagingUsage())
}

func TestLoadModel_TooLarge(t *testing.T) {
	store := publishTestModel(t, codec.Raw{})

	sched, err := scheduler.BootBytes(testLayerBytes / 2)
	require.NoError(t, err)
	defer sched.Close()

	m, err := FetchManifest(context.Background(), store, "tinynet")
	require.NoError(t, err)

	l := New(sched, store)
	_, err = l.LoadModel(context.Background(), m, testSpec, nil)

	var tooLarge *ModelTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, uint64(1), tooLarge.Layer.ID)
	assert.Equal(t, testLayerBytes/2, tooLarge.Capacity)
}

func TestLoadModel_MissingLayer(t *testing.T) {
	sched, err := scheduler.BootBytes(6 * testLayerBytes)
	require.NoError(t, err)
	defer sched.Close()

	// Manifest that names only the first layer.
	m := model.NewManifest("tinynet", "raw")
	m.AddLayer(1)

	l := New(sched, blobstore.NewMemoryStore())
	_, err = l.LoadModel(context.Background(), m, testSpec, nil)

	var missing *LayerMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, uint64(2), missing.Layer.ID)
}

func TestLoadModel_UnknownCodec(t *testing.T) {
	sched, err := scheduler.BootBytes(testLayerBytes)
	require.NoError(t, err)
	defer sched.Close()

	m := model.NewManifest("tinynet", "snappy")

	l := New(sched, blobstore.NewMemoryStore())
	_, err = l.LoadModel(context.Background(), m, testSpec, nil)

	var unknown *UnknownCodecError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "snappy", unknown.Name)
}

func TestLoadModel_SizeMismatch(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	m := model.ManifestForSpec(testSpec, "raw")
	for id := range m.LayerIDs() {
		require.NoError(t, store.Put(ctx, m.BlobName(id), []byte("truncated")))
	}

	sched, err := scheduler.BootBytes(6 * testLayerBytes)
	require.NoError(t, err)
	defer sched.Close()

	l := New(sched, store)
	_, err = l.LoadModel(ctx, m, testSpec, nil)

	var mismatch *SizeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 9, mismatch.Got)
}

func TestLoadModel_CompressedCheckpoint(t *testing.T) {
	store := publishTestModel(t, codec.NewZstd())

	sched, err := scheduler.BootBytes(6 * testLayerBytes)
	require.NoError(t, err)
	defer sched.Close()

	m, err := FetchManifest(context.Background(), store, "tinynet")
	require.NoError(t, err)
	require.Equal(t, "zstd", m.Codec())

	l := New(sched, store)
	res, err := l.LoadModel(context.Background(), m, testSpec, func(_ context.Context, ll LoadedLayer) error {
		assert.Equal(t, byte(ll.Layer.ID), ll.Bytes[0])
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, res.LayersLoaded)

	// Pattern data compresses, so the wire size must be below raw size.
	assert.Less(t, res.BytesFetched, int64(5*testLayerBytes))
}

func TestLoadModel_CallbackError(t *testing.T) {
	store := publishTestModel(t, codec.Raw{})

	sched, err := scheduler.BootBytes(6 * testLayerBytes)
	require.NoError(t, err)
	defer sched.Close()

	m, err := FetchManifest(context.Background(), store, "tinynet")
	require.NoError(t, err)

	ctrl := resource.NewController(resource.Config{StagingLimitBytes: 6 * testLayerBytes})

	l := New(sched, store, WithController(ctrl))
	_, err = l.LoadModel(context.Background(), m, testSpec, func(_ context.Context, ll LoadedLayer) error {
		if ll.Layer.ID == 3 {
			return assert.AnError
		}
		return nil
	})
	require.ErrorIs(t, err, assert.AnError)

	// Stranded prefetches must not leak staging memory.
	assert.Equal(t, int64(0), ctrl.StagingUsage())
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	m, err := Publish(ctx, store, codec.NewZstd(), testSpec, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), m.LayerCount())

	names, err := store.List(ctx, "tinynet/")
	require.NoError(t, err)
	assert.Len(t, names, 6) // 5 layers + manifest
	assert.Contains(t, names, "tinynet/manifest.json")
	assert.Contains(t, names, "tinynet/layer-001.bin")

	got, err := FetchManifest(ctx, store, "tinynet")
	require.NoError(t, err)
	assert.Equal(t, "zstd", got.Codec())
	assert.Equal(t, uint64(5), got.LayerCount())
}

func TestFetchManifest_NotFound(t *testing.T) {
	_, err := FetchManifest(context.Background(), blobstore.NewMemoryStore(), "ghost")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}
