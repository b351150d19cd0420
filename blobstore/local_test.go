package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	blobName := "layer-003.bin"
	data := []byte("hello world, this is a test weight shard")

	err = store.Put(ctx, blobName, data)
	require.NoError(t, err)

	blob, err := store.Open(ctx, blobName)
	require.NoError(t, err)
	defer blob.Close()

	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err := blob.ReadAt(ctx, buf, 6) // "world"
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "world", string(buf))

	all, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	require.Equal(t, data, all)

	blobName2 := "layer-004.bin"
	err = store.Put(ctx, blobName2, []byte("x"))
	require.NoError(t, err)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{blobName, blobName2}, names)

	err = store.Delete(ctx, blobName)
	require.NoError(t, err)

	namesAfter, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{blobName2}, namesAfter)

	_, err = store.Open(ctx, blobName)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_PutOverwrite(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "blob.bin", []byte("first version")))
	require.NoError(t, store.Put(ctx, "blob.bin", []byte("second")))

	blob, err := store.Open(ctx, "blob.bin")
	require.NoError(t, err)
	defer blob.Close()

	all, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	require.Equal(t, "second", string(all))

	// No temp file droppings left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestLocalStore_NestedNames(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "tinynet/layer-000.bin", []byte("a")))
	require.NoError(t, store.Put(ctx, "tinynet/layer-001.bin", []byte("b")))
	require.NoError(t, store.Put(ctx, "other/layer-000.bin", []byte("c")))

	names, err := store.List(ctx, "tinynet/")
	require.NoError(t, err)
	require.Equal(t, []string{"tinynet/layer-000.bin", "tinynet/layer-001.bin"}, names)
}

func TestLocalStore_ReadAtBoundaries(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	data := []byte("0123456789")
	require.NoError(t, store.Put(ctx, "boundary.bin", data))

	blob, err := store.Open(ctx, "boundary.bin")
	require.NoError(t, err)
	defer blob.Close()

	// Short read at the tail
	buf := make([]byte, 5)
	n, err := blob.ReadAt(ctx, buf, 8)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 2, n)
	require.Equal(t, "89", string(buf[:n]))

	// Offset past EOF
	_, err = blob.ReadAt(ctx, buf, 20)
	require.ErrorIs(t, err, io.EOF)
}

func TestLocalStore_DeleteMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), "never-existed.bin"))
}

func TestLocalStore_PutIsAtomicOnDisk(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "blob.bin", []byte("payload")))

	// The final file must exist under its real name, not a temp name.
	_, err = os.Stat(filepath.Join(dir, "blob.bin"))
	require.NoError(t, err)
}
