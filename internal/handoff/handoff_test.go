// internal/handoff/handoff_test.go

package handoff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreConsumeOnce(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "scroll:feed", "1234"))

	value, err := store.Take(ctx, "scroll:feed")
	require.NoError(t, err)
	assert.Equal(t, "1234", value)

	// Second read of the same key finds nothing.
	_, err = store.Take(ctx, "scroll:feed")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreMissingKey(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	_, err := store.Take(context.Background(), "never-written")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreOverwrite(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", "old"))
	require.NoError(t, store.Put(ctx, "k", "new"))

	value, err := store.Take(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", value)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute).(*memoryStore)
	ctx := context.Background()

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	require.NoError(t, store.Put(ctx, "k", "v"))

	// Just inside the TTL.
	current = current.Add(59 * time.Second)
	value, err := store.Take(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)

	// Past the TTL the key is gone even though it was never read.
	require.NoError(t, store.Put(ctx, "k2", "v2"))
	current = current.Add(2 * time.Minute)
	_, err = store.Take(ctx, "k2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a", "1"))
	require.NoError(t, store.Put(ctx, "b", "2"))

	v, err := store.Take(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	v, err = store.Take(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}
