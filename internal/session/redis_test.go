package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/a11yoverlay/internal/cache"
	"github.com/BaSui01/a11yoverlay/types"
)

func setupRedisStore(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)

	mgr, err := cache.NewManager(cache.Config{Addr: mr.Addr(), KeyPrefix: "a11y:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	return mr, NewRedisStore(mgr, ttl, zap.NewNop())
}

func TestRedisStore_PutGet(t *testing.T) {
	mr, store := setupRedisStore(t, 30*time.Minute)
	ctx := context.Background()

	in := sampleSession("s1")
	require.NoError(t, store.Put(ctx, in))
	assert.True(t, mr.Exists("a11y:session:s1"))
	assert.Equal(t, 30*time.Minute, mr.TTL("a11y:session:s1"))

	out, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Analysis, out.Analysis)
	assert.Equal(t, in.Elements, out.Elements)
	assert.Equal(t, in.ImageInfo, out.ImageInfo)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
}

func TestRedisStore_Expiry(t *testing.T) {
	mr, store := setupRedisStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, sampleSession("s1")))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "s1")
	assert.True(t, types.IsErrorCode(err, types.ErrSessionNotFound))
}

func TestRedisStore_ZeroTTL(t *testing.T) {
	mr, store := setupRedisStore(t, 0)

	require.NoError(t, store.Put(context.Background(), sampleSession("s1")))
	assert.Zero(t, mr.TTL("a11y:session:s1"))
}

func TestRedisStore_DeleteAndCount(t *testing.T) {
	_, store := setupRedisStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, sampleSession("a")))
	require.NoError(t, store.Put(ctx, sampleSession("b")))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	existed, err := store.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = store.Delete(ctx, "a")
	require.NoError(t, err)
	assert.False(t, existed)

	n, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr, store := setupRedisStore(t, time.Minute)
	mr.SetError("ERR injected failure")

	_, err := store.Get(context.Background(), "s1")
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrServiceUnavailable))
	assert.True(t, types.IsRetryable(err))
}
