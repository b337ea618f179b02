package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/BaSui01/a11yoverlay/testutil/fixtures"
	"github.com/BaSui01/a11yoverlay/types"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type gaugeRecorder struct {
	last  atomic.Int64
	calls atomic.Int64
}

func (g *gaugeRecorder) SetActiveSessions(n int) {
	g.last.Store(int64(n))
	g.calls.Add(1)
}

func sampleSession(id string) *types.Session {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return &types.Session{
		ID:        id,
		Analysis:  fixtures.SearchPageAnalysis(),
		Elements:  fixtures.SearchPageElements(),
		ImageInfo: &types.ImageInfo{Filename: "shot.png", ContentType: "image/png", SizeBytes: 42},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMemoryStore_PutGet(t *testing.T) {
	store := NewMemoryStore(time.Minute, zap.NewNop(), WithCleanupInterval(0))
	defer store.Close()
	ctx := context.Background()

	in := sampleSession("s1")
	require.NoError(t, store.Put(ctx, in))

	out, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, in, out)

	// 返回副本，修改不影响存储
	out.Analysis.Actions[0].Label = "changed"
	again, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Search products", again.Analysis.Actions[0].Label)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore(time.Minute, nil, WithCleanupInterval(0))
	defer store.Close()

	_, err := store.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrSessionNotFound))
}

func TestMemoryStore_PutInvalid(t *testing.T) {
	store := NewMemoryStore(time.Minute, nil, WithCleanupInterval(0))
	defer store.Close()
	ctx := context.Background()

	assert.True(t, types.IsErrorCode(store.Put(ctx, nil), types.ErrInvalidRequest))
	assert.True(t, types.IsErrorCode(store.Put(ctx, &types.Session{}), types.ErrInvalidRequest))
}

func TestMemoryStore_TTL(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(30*time.Minute, nil, WithClock(clock.Now), WithCleanupInterval(0))
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, sampleSession("s1")))

	clock.Advance(29 * time.Minute)
	_, err := store.Get(ctx, "s1")
	require.NoError(t, err)

	// Put 重置过期时间
	require.NoError(t, store.Put(ctx, sampleSession("s1")))
	clock.Advance(29 * time.Minute)
	_, err = store.Get(ctx, "s1")
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = store.Get(ctx, "s1")
	assert.True(t, types.IsErrorCode(err, types.ErrSessionNotFound))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryStore_ZeroTTLNeverExpires(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(0, nil, WithClock(clock.Now))
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, sampleSession("s1")))
	clock.Advance(365 * 24 * time.Hour)

	_, err := store.Get(ctx, "s1")
	assert.NoError(t, err)
}

func TestMemoryStore_Delete(t *testing.T) {
	rec := &gaugeRecorder{}
	store := NewMemoryStore(time.Minute, nil, WithRecorder(rec), WithCleanupInterval(0))
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, sampleSession("a")))
	require.NoError(t, store.Put(ctx, sampleSession("b")))
	assert.Equal(t, int64(2), rec.last.Load())

	existed, err := store.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, int64(1), rec.last.Load())

	existed, err = store.Delete(ctx, "a")
	require.NoError(t, err)
	assert.False(t, existed)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryStore_Cleanup(t *testing.T) {
	clock := newFakeClock()
	rec := &gaugeRecorder{}
	store := NewMemoryStore(time.Minute, nil, WithClock(clock.Now), WithRecorder(rec), WithCleanupInterval(0))
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, sampleSession("old")))
	clock.Advance(30 * time.Second)
	require.NoError(t, store.Put(ctx, sampleSession("new")))
	clock.Advance(45 * time.Second)

	assert.Equal(t, 1, store.cleanup())
	assert.Equal(t, int64(1), rec.last.Load())

	_, err := store.Get(ctx, "new")
	assert.NoError(t, err)
}

func TestMemoryStore_CleanupLoop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := NewMemoryStore(10*time.Millisecond, nil, WithCleanupInterval(5*time.Millisecond))
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, sampleSession("s1")))

	require.Eventually(t, func() bool {
		store.mu.RLock()
		defer store.mu.RUnlock()
		return len(store.sessions) == 0
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestMemoryStore_ContextCanceled(t *testing.T) {
	store := NewMemoryStore(time.Minute, nil, WithCleanupInterval(0))
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Put(ctx, sampleSession("s1")), context.Canceled)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore(time.Minute, nil, WithCleanupInterval(0))
	defer store.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Put(ctx, sampleSession("shared")))
			_, err := store.Get(ctx, "shared")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
