package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FilesystemStore {
	t.Helper()
	store, err := NewFilesystemStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestFilesystemStore_PutGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	content := []byte("fake png bytes")
	err := store.Put(ctx, "products/abc123.png", bytes.NewReader(content), "image/png")
	require.NoError(t, err)

	rc, contentType, err := store.Get(ctx, "products/abc123.png")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.Equal(t, "image/png", contentType)
}

func TestFilesystemStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.Get(context.Background(), "products/nope.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFilesystemStore_Exists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "x.bin")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Put(ctx, "x.bin", bytes.NewReader([]byte{1}), "application/octet-stream"))

	exists, err = store.Exists(ctx, "x.bin")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFilesystemStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "x.bin", bytes.NewReader([]byte{1}), "application/octet-stream"))
	require.NoError(t, store.Delete(ctx, "x.bin"))

	exists, err := store.Exists(ctx, "x.bin")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting a missing key is not an error.
	require.NoError(t, store.Delete(ctx, "x.bin"))
}

func TestFilesystemStore_RejectsTraversal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Put(ctx, "../escape", bytes.NewReader([]byte{1}), "application/octet-stream")
	assert.Error(t, err)

	_, _, err = store.Get(ctx, "/absolute")
	assert.Error(t, err)
}

func TestFilesystemStore_HealthCheck(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.HealthCheck(context.Background()))
}
