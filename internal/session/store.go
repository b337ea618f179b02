package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/a11yoverlay/internal/cache"
	"github.com/BaSui01/a11yoverlay/types"
)

// 支持的后端
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// DefaultTTL 默认会话存活时间
const DefaultTTL = 30 * time.Minute

// Store 会话存储接口
type Store interface {
	// Get 读取会话；不存在或已过期时返回 SESSION_NOT_FOUND 错误
	Get(ctx context.Context, id string) (*types.Session, error)

	// Put 写入会话并重置其过期时间
	Put(ctx context.Context, s *types.Session) error

	// Delete 删除会话，返回会话此前是否存在
	Delete(ctx context.Context, id string) (bool, error)

	// Count 返回当前未过期的会话数
	Count(ctx context.Context) (int, error)

	// Close 释放后台资源
	Close() error
}

// ActiveSessionsRecorder 接收当前活跃会话数
type ActiveSessionsRecorder interface {
	SetActiveSessions(n int)
}

// Config 会话存储配置
type Config struct {
	Backend         string        `yaml:"backend" json:"backend" env:"BACKEND"`
	TTL             time.Duration `yaml:"ttl" json:"ttl" env:"TTL"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval" env:"CLEANUP_INTERVAL"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Backend:         BackendMemory,
		TTL:             DefaultTTL,
		CleanupInterval: time.Minute,
	}
}

// New 按配置创建会话存储。redis 后端需要传入已连接的 cache.Manager。
func New(cfg Config, mgr *cache.Manager, recorder ActiveSessionsRecorder, logger *zap.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendMemory:
		opts := []MemoryOption{WithCleanupInterval(cfg.CleanupInterval)}
		if recorder != nil {
			opts = append(opts, WithRecorder(recorder))
		}
		return NewMemoryStore(cfg.TTL, logger, opts...), nil
	case BackendRedis:
		if mgr == nil {
			return nil, fmt.Errorf("session backend %q requires a redis connection", BackendRedis)
		}
		return NewRedisStore(mgr, cfg.TTL, logger), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

func validateSession(s *types.Session) error {
	if s == nil {
		return types.NewInvalidRequestError("session is nil")
	}
	if s.ID == "" {
		return types.NewInvalidRequestError("session id is empty")
	}
	return nil
}

// cloneSession 复制会话，避免调用方修改已存储的数据
func cloneSession(s *types.Session) *types.Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Analysis != nil {
		a := *s.Analysis
		a.Actions = append([]types.Action(nil), s.Analysis.Actions...)
		out.Analysis = &a
	}
	if s.Elements != nil {
		out.Elements = append([]types.InteractiveElement(nil), s.Elements...)
	}
	if s.ImageInfo != nil {
		info := *s.ImageInfo
		out.ImageInfo = &info
	}
	return &out
}
