package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/a11yoverlay/internal/cache"
	"github.com/BaSui01/a11yoverlay/types"
)

const redisKeyPrefix = "session:"

// RedisStore 基于 Redis 的会话存储，适用于多实例部署
type RedisStore struct {
	cache  *cache.Manager
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore 创建 Redis 会话存储。mgr 的生命周期由调用方管理。
func NewRedisStore(mgr *cache.Manager, ttl time.Duration, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		cache:  mgr,
		ttl:    ttl,
		logger: logger.With(zap.String("component", "session_redis")),
	}
}

func (s *RedisStore) key(id string) string {
	return redisKeyPrefix + id
}

func (s *RedisStore) expiry() time.Duration {
	if s.ttl <= 0 {
		return cache.NoExpiration
	}
	return s.ttl
}

// Get 实现 Store.Get
func (s *RedisStore) Get(ctx context.Context, id string) (*types.Session, error) {
	var sess types.Session
	if err := s.cache.GetJSON(ctx, s.key(id), &sess); err != nil {
		if cache.IsCacheMiss(err) {
			return nil, types.NewSessionNotFoundError(id)
		}
		return nil, types.NewError(types.ErrServiceUnavailable, "session store unavailable").
			WithCause(err).WithHTTPStatus(503).WithRetryable(true)
	}
	return &sess, nil
}

// Put 实现 Store.Put
func (s *RedisStore) Put(ctx context.Context, sess *types.Session) error {
	if err := validateSession(sess); err != nil {
		return err
	}
	if err := s.cache.SetJSON(ctx, s.key(sess.ID), sess, s.expiry()); err != nil {
		s.logger.Error("failed to store session", zap.String("session_id", sess.ID), zap.Error(err))
		return types.NewError(types.ErrServiceUnavailable, "session store unavailable").
			WithCause(err).WithHTTPStatus(503).WithRetryable(true)
	}
	return nil
}

// Delete 实现 Store.Delete
func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.cache.Delete(ctx, s.key(id))
	if err != nil {
		return false, types.NewError(types.ErrServiceUnavailable, "session store unavailable").
			WithCause(err).WithHTTPStatus(503).WithRetryable(true)
	}
	return n > 0, nil
}

// Count 实现 Store.Count
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	return s.cache.CountKeys(ctx, redisKeyPrefix+"*")
}

// Close 不关闭底层 cache.Manager
func (s *RedisStore) Close() error { return nil }

var _ Store = (*RedisStore)(nil)
