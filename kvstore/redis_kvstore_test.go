// cartservice/kvstore/redis_kvstore_test.go

package kvstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis starts an in-memory Redis server and returns a store
// pointed at it.
func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store := NewRedisStore(mr.Addr(), nil)
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Logf("closing redis client: %v", err)
		}
	})
	return store, mr
}

func TestRedisStoreGetSetDelete(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "cart:alice")
	require.ErrorIs(t, err, ErrKeyAbsent)

	require.NoError(t, store.Set(ctx, "cart:alice", []byte("payload")))
	val, err := store.Get(ctx, "cart:alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), val)

	require.NoError(t, store.Delete(ctx, "cart:alice"))
	_, err = store.Get(ctx, "cart:alice")
	require.ErrorIs(t, err, ErrKeyAbsent)

	// Deleting an absent key succeeds.
	require.NoError(t, store.Delete(ctx, "cart:alice"))
}

func TestRedisStoreCompareAndSetCreate(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.CompareAndSet(ctx, "k", nil, []byte("v1")))
	require.ErrorIs(t, store.CompareAndSet(ctx, "k", nil, []byte("v2")), ErrCASMismatch)

	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v1", got)
}

func TestRedisStoreCompareAndSetReplace(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v1")))

	require.NoError(t, store.CompareAndSet(ctx, "k", []byte("v1"), []byte("v2")))
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)

	// Stale prior bytes are rejected after the value moved on.
	require.ErrorIs(t, store.CompareAndSet(ctx, "k", []byte("v1"), []byte("v3")), ErrCASMismatch)

	// A concurrently deleted key is also a mismatch, not a recreate.
	mr.Del("k")
	require.ErrorIs(t, store.CompareAndSet(ctx, "k", []byte("v2"), []byte("v3")), ErrCASMismatch)
	assert.False(t, mr.Exists("k"))
}

func TestRedisStorePing(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	assert.True(t, store.Ping(ctx))

	mr.Close()
	assert.False(t, store.Ping(ctx))
}

func TestRedisStoreInitialize(t *testing.T) {
	store, _ := setupTestRedis(t)
	require.NoError(t, store.Initialize(context.Background()))
}
