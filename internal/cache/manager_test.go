package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

// =============================================================================
// 🧪 Manager 测试
// =============================================================================

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Manager) {
	t.Helper()
	mr := miniredis.RunT(t)

	config := Config{
		Addr:       mr.Addr(),
		KeyPrefix:  "test:",
		DefaultTTL: 1 * time.Minute,
	}

	manager, err := NewManager(config, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	return mr, manager
}

func TestNewManager(t *testing.T) {
	_, manager := setupTestRedis(t)

	assert.NotNil(t, manager.redis)
	assert.NotNil(t, manager.logger)
}

func TestManager_SetAndGet(t *testing.T) {
	mr, manager := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, "k", "v", time.Minute))

	value, err := manager.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)

	// 键前缀写入 Redis
	assert.True(t, mr.Exists("test:k"))
	assert.False(t, mr.Exists("k"))
}

func TestManager_GetNonExistent(t *testing.T) {
	_, manager := setupTestRedis(t)

	_, err := manager.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.True(t, IsCacheMiss(err))
}

func TestManager_Delete(t *testing.T) {
	_, manager := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, "a", "1", 0))
	require.NoError(t, manager.Set(ctx, "b", "2", 0))

	n, err := manager.Delete(ctx, "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = manager.Delete(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = manager.Get(ctx, "a")
	assert.True(t, IsCacheMiss(err))
}

type jsonPayload struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func TestManager_JSON(t *testing.T) {
	_, manager := setupTestRedis(t)
	ctx := context.Background()

	in := jsonPayload{Name: "page", Items: []string{"a", "b"}}
	require.NoError(t, manager.SetJSON(ctx, "json", in, 0))

	var out jsonPayload
	require.NoError(t, manager.GetJSON(ctx, "json", &out))
	assert.Equal(t, in, out)

	err := manager.GetJSON(ctx, "missing", &out)
	assert.True(t, IsCacheMiss(err))
}

func TestManager_SetJSONInvalidData(t *testing.T) {
	_, manager := setupTestRedis(t)

	err := manager.SetJSON(context.Background(), "bad", make(chan int), 0)
	assert.Error(t, err)
}

func TestManager_GetJSONInvalidJSON(t *testing.T) {
	_, manager := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, "raw", "not json", 0))

	var out jsonPayload
	err := manager.GetJSON(ctx, "raw", &out)
	assert.Error(t, err)
	assert.False(t, IsCacheMiss(err))
}

func TestManager_TTL(t *testing.T) {
	mr, manager := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, "short", "v", time.Second))
	require.NoError(t, manager.Set(ctx, "default", "v", 0))
	require.NoError(t, manager.Set(ctx, "forever", "v", NoExpiration))

	assert.Equal(t, time.Second, mr.TTL("test:short"))
	assert.Equal(t, time.Minute, mr.TTL("test:default"))
	assert.Zero(t, mr.TTL("test:forever"))

	mr.FastForward(2 * time.Second)

	_, err := manager.Get(ctx, "short")
	assert.True(t, IsCacheMiss(err))
	_, err = manager.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestManager_CountKeys(t *testing.T) {
	mr, manager := setupTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, manager.Set(ctx, fmt.Sprintf("session:%d", i), "v", 0))
	}
	require.NoError(t, manager.Set(ctx, "other", "v", 0))
	require.NoError(t, mr.Set("session:foreign", "v"))

	n, err := manager.CountKeys(ctx, "session:*")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestManager_HealthCheck(t *testing.T) {
	_, manager := setupTestRedis(t)
	assert.NoError(t, manager.Ping(context.Background()))
}

func TestManager_HealthCheckFailed(t *testing.T) {
	manager, err := NewManager(Config{Addr: "localhost:1"}, zap.NewNop())
	assert.Nil(t, manager)
	assert.Error(t, err)
}

func TestManager_Closed(t *testing.T) {
	_, manager := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, manager.Close())
	require.NoError(t, manager.Close())

	_, err := manager.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, manager.Set(ctx, "k", "v", 0), ErrClosed)
	assert.ErrorIs(t, manager.Ping(ctx), ErrClosed)
}

func TestManager_CloseStopsHealthLoop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	// miniredis.RunT 的 Cleanup 晚于 defer 执行，需在校验前手动关闭
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	defer mr.Close()
	manager, err := NewManager(Config{
		Addr:                mr.Addr(),
		HealthCheckInterval: 10 * time.Millisecond,
	}, nil)
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, manager.Close())
}

func TestManager_ConcurrentOperations(t *testing.T) {
	_, manager := setupTestRedis(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("concurrent-%d", id)
			assert.NoError(t, manager.Set(ctx, key, "value", time.Minute))
			value, err := manager.Get(ctx, key)
			assert.NoError(t, err)
			assert.Equal(t, "value", value)
		}(i)
	}
	wg.Wait()
}
