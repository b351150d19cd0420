package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Open(ctx, "missing.bin")
	require.ErrorIs(t, err, ErrNotFound)

	data := []byte("weight bytes")
	require.NoError(t, store.Put(ctx, "layer-000.bin", data))

	blob, err := store.Open(ctx, "layer-000.bin")
	require.NoError(t, err)
	defer blob.Close()

	require.Equal(t, int64(len(data)), blob.Size())

	all, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	require.Equal(t, data, all)

	// Mutating the caller's slice must not leak into the store
	data[0] = 'X'
	blob2, err := store.Open(ctx, "layer-000.bin")
	require.NoError(t, err)
	defer blob2.Close()
	all2, err := ReadAll(ctx, blob2)
	require.NoError(t, err)
	require.Equal(t, byte('w'), all2[0])

	require.NoError(t, store.Delete(ctx, "layer-000.bin"))
	_, err = store.Open(ctx, "layer-000.bin")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ListSortedWithPrefix(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "b/layer-001.bin", nil))
	require.NoError(t, store.Put(ctx, "a/layer-000.bin", nil))
	require.NoError(t, store.Put(ctx, "a/layer-001.bin", nil))

	names, err := store.List(ctx, "a/")
	require.NoError(t, err)
	require.Equal(t, []string{"a/layer-000.bin", "a/layer-001.bin"}, names)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestMemoryStore_ShortRead(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "blob.bin", []byte("0123456789")))
	blob, err := store.Open(ctx, "blob.bin")
	require.NoError(t, err)
	defer blob.Close()

	buf := make([]byte, 4)
	n, err := blob.ReadAt(ctx, buf, 8)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 2, n)
	require.Equal(t, "89", string(buf[:n]))
}
