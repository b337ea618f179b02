package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/a11yoverlay/types"
)

// MemoryStore 基于内存的会话存储，适用于单实例部署
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memoryEntry
	ttl      time.Duration
	logger   *zap.Logger
	recorder ActiveSessionsRecorder
	now      func() time.Time

	cleanupInterval time.Duration
	stopCh          chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup
}

type memoryEntry struct {
	session   *types.Session
	expiresAt time.Time // 零值表示永不过期
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryOption 配置 MemoryStore
type MemoryOption func(*MemoryStore)

// WithRecorder 设置活跃会话数上报
func WithRecorder(r ActiveSessionsRecorder) MemoryOption {
	return func(s *MemoryStore) { s.recorder = r }
}

// WithCleanupInterval 设置后台清理间隔，<= 0 时不启动清理
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.cleanupInterval = d }
}

// WithClock 替换时钟（测试用）
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore 创建内存会话存储，ttl 为 0 表示永不过期
func NewMemoryStore(ttl time.Duration, logger *zap.Logger, opts ...MemoryOption) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MemoryStore{
		sessions:        make(map[string]*memoryEntry),
		ttl:             ttl,
		logger:          logger.With(zap.String("component", "session_memory")),
		now:             time.Now,
		cleanupInterval: time.Minute,
		stopCh:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cleanupInterval > 0 && s.ttl > 0 {
		s.wg.Add(1)
		go s.cleanupLoop()
	}
	return s
}

// Get 实现 Store.Get
func (s *MemoryStore) Get(ctx context.Context, id string) (*types.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, types.NewSessionNotFoundError(id)
	}
	if entry.expired(s.now()) {
		s.mu.Lock()
		if cur, ok := s.sessions[id]; ok && cur == entry {
			delete(s.sessions, id)
		}
		n := len(s.sessions)
		s.mu.Unlock()
		s.report(n)
		return nil, types.NewSessionNotFoundError(id)
	}
	return cloneSession(entry.session), nil
}

// Put 实现 Store.Put
func (s *MemoryStore) Put(ctx context.Context, sess *types.Session) error {
	if err := validateSession(sess); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := &memoryEntry{session: cloneSession(sess)}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.sessions[sess.ID] = entry
	n := len(s.sessions)
	s.mu.Unlock()

	s.report(n)
	return nil
}

// Delete 实现 Store.Delete
func (s *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	entry, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	n := len(s.sessions)
	s.mu.Unlock()

	s.report(n)
	return ok && !entry.expired(s.now()), nil
}

// Count 实现 Store.Count
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, e := range s.sessions {
		if !e.expired(now) {
			count++
		}
	}
	return count, nil
}

// Close 停止后台清理
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	return nil
}

// cleanupLoop 定期清理过期会话
func (s *MemoryStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup 清理所有过期会话
func (s *MemoryStore) cleanup() int {
	now := s.now()

	s.mu.Lock()
	expired := 0
	for id, e := range s.sessions {
		if e.expired(now) {
			delete(s.sessions, id)
			expired++
		}
	}
	remaining := len(s.sessions)
	s.mu.Unlock()

	if expired > 0 {
		s.logger.Debug("cleaned up expired sessions",
			zap.Int("expired", expired),
			zap.Int("remaining", remaining))
		s.report(remaining)
	}
	return expired
}

func (s *MemoryStore) report(n int) {
	if s.recorder != nil {
		s.recorder.SetActiveSessions(n)
	}
}

var _ Store = (*MemoryStore)(nil)
