package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/BaSui01/a11yoverlay/api"
	"github.com/BaSui01/a11yoverlay/llm"
)

// 默认探活超时
const defaultProbeTimeout = 5 * time.Second

// =============================================================================
// 🏥 健康检查 Handler
// =============================================================================

// HealthHandler 健康检查处理器
type HealthHandler struct {
	logger   *zap.Logger
	provider llm.Provider
	checks   []HealthCheck
	sessions SessionCounter
	mu       sync.RWMutex

	// 并发的 /health 请求共享同一次模型探活
	probes       singleflight.Group
	probeTimeout time.Duration
}

// HealthCheck 健康检查接口
type HealthCheck interface {
	Name() string
	Check(ctx context.Context) error
}

// SessionCounter 返回当前活跃会话数，由 session.Store 实现
type SessionCounter interface {
	Count(ctx context.Context) (int, error)
}

// HealthStatus /ready 等运维端点的健康状态响应
type HealthStatus struct {
	Status    string                 `json:"status"` // "healthy", "unhealthy"
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult 单个检查结果
type CheckResult struct {
	Status  string `json:"status"` // "pass", "fail"
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// NewHealthHandler 创建健康检查处理器，provider 可以为 nil
func NewHealthHandler(provider llm.Provider, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{
		logger:       logger,
		provider:     provider,
		checks:       make([]HealthCheck, 0),
		probeTimeout: defaultProbeTimeout,
	}
}

// RegisterCheck 注册就绪检查
func (h *HealthHandler) RegisterCheck(check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, check)
}

// SetSessionCounter 设置会话计数来源，/health 响应附带 active_sessions
func (h *HealthHandler) SetSessionCounter(c SessionCounter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions = c
}

// =============================================================================
// 🎯 HTTP 处理程序
// =============================================================================

// HandleHealth 处理 /health 请求：探测模型后端，后端不可达时返回 degraded。
// @Summary 服务健康检查
// @Description 返回模型后端连通性
// @Tags 健康
// @Produce json
// @Success 200 {object} api.ServiceHealthResponse "服务状态"
// @Router /health [get]
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := api.ServiceHealthResponse{
		Status:    "degraded",
		Timestamp: time.Now(),
	}
	if h.provider != nil {
		resp.ModelBackend = h.provider.Name()
		resp.OllamaModel = h.provider.Model()
		resp.OllamaConnected = h.probe(r.Context())
	}
	if resp.OllamaConnected {
		resp.Status = "healthy"
	}
	resp.ActiveSessions = h.countSessions(r.Context())

	WriteJSON(w, http.StatusOK, resp)
}

// countSessions 计数失败不影响健康状态，仅省略该字段
func (h *HealthHandler) countSessions(ctx context.Context) *int {
	h.mu.RLock()
	counter := h.sessions
	h.mu.RUnlock()
	if counter == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.probeTimeout)
	defer cancel()
	n, err := counter.Count(ctx)
	if err != nil {
		h.logger.Debug("session count failed", zap.Error(err))
		return nil
	}
	return &n
}

func (h *HealthHandler) probe(ctx context.Context) bool {
	ch := h.probes.DoChan("model", func() (interface{}, error) {
		// 共享探活不受单个请求取消影响
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.probeTimeout)
		defer cancel()
		status, err := h.provider.HealthCheck(pctx)
		if err != nil {
			return false, err
		}
		return status != nil && status.Healthy, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			h.logger.Debug("model health probe failed", zap.Error(res.Err))
			return false
		}
		return res.Val.(bool)
	case <-ctx.Done():
		return false
	}
}

// HandleHealthz 处理 /healthz 请求（Kubernetes 风格）
// @Summary Kubernetes 活跃度探针
// @Description Kubernetes 的活跃度探针
// @Tags 健康
// @Produce json
// @Success 200 {object} HealthStatus "服务处于活动状态"
// @Router /healthz [get]
func (h *HealthHandler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	// Liveness probe - 只检查服务是否运行
	WriteJSON(w, http.StatusOK, HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
	})
}

// HandleReady 处理 /ready 或 /readyz 请求（就绪检查）
// @Summary 准备情况检查
// @Description 检查服务是否准备好接受流量
// @Tags 健康
// @Produce json
// @Success 200 {object} HealthStatus "服务已准备就绪"
// @Failure 503 {object} HealthStatus "服务尚未准备好"
// @Router /ready [get]
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.probeTimeout)
	defer cancel()

	h.mu.RLock()
	checks := make([]HealthCheck, len(h.checks))
	copy(checks, h.checks)
	h.mu.RUnlock()

	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Checks:    make(map[string]CheckResult),
	}

	allHealthy := true
	for _, check := range checks {
		start := time.Now()
		err := check.Check(ctx)
		latency := time.Since(start)

		result := CheckResult{
			Status:  "pass",
			Latency: latency.String(),
		}

		if err != nil {
			result.Status = "fail"
			result.Message = err.Error()
			allHealthy = false

			h.logger.Warn("health check failed",
				zap.String("check", check.Name()),
				zap.Error(err),
				zap.Duration("latency", latency),
			)
		}

		status.Checks[check.Name()] = result
	}

	if !allHealthy {
		status.Status = "unhealthy"
		WriteJSON(w, http.StatusServiceUnavailable, status)
		return
	}

	WriteJSON(w, http.StatusOK, status)
}

// HandleVersion 处理 /version 请求
// @Summary 版本信息
// @Description 返回版本信息
// @Tags 健康
// @Produce json
// @Success 200 {object} map[string]string "版本信息"
// @Router /version [get]
func (h *HealthHandler) HandleVersion(version, buildTime, gitCommit string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := map[string]string{
			"version":    version,
			"build_time": buildTime,
			"git_commit": gitCommit,
		}

		WriteSuccess(w, info)
	}
}

// =============================================================================
// 🔧 内置健康检查实现
// =============================================================================

// ModelHealthCheck 模型后端就绪检查：后端可达且模型已加载
type ModelHealthCheck struct {
	provider llm.Provider
}

// NewModelHealthCheck 创建模型后端健康检查
func NewModelHealthCheck(provider llm.Provider) *ModelHealthCheck {
	return &ModelHealthCheck{provider: provider}
}

func (c *ModelHealthCheck) Name() string {
	return "model"
}

func (c *ModelHealthCheck) Check(ctx context.Context) error {
	status, err := c.provider.HealthCheck(ctx)
	if err != nil {
		return err
	}
	if status == nil || !status.Healthy {
		return errors.New("model backend unhealthy")
	}
	if !status.ModelAvailable {
		return fmt.Errorf("model %q is not available on the backend", status.Model)
	}
	return nil
}

// RedisHealthCheck Redis 健康检查
type RedisHealthCheck struct {
	name string
	ping func(ctx context.Context) error
}

// NewRedisHealthCheck 创建 Redis 健康检查
func NewRedisHealthCheck(name string, ping func(ctx context.Context) error) *RedisHealthCheck {
	return &RedisHealthCheck{
		name: name,
		ping: ping,
	}
}

func (c *RedisHealthCheck) Name() string {
	return c.name
}

func (c *RedisHealthCheck) Check(ctx context.Context) error {
	return c.ping(ctx)
}
