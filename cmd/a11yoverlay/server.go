package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/a11yoverlay/analyzer"
	"github.com/BaSui01/a11yoverlay/api/handlers"
	"github.com/BaSui01/a11yoverlay/config"
	"github.com/BaSui01/a11yoverlay/internal/cache"
	"github.com/BaSui01/a11yoverlay/internal/metrics"
	"github.com/BaSui01/a11yoverlay/internal/server"
	"github.com/BaSui01/a11yoverlay/internal/session"
	"github.com/BaSui01/a11yoverlay/internal/telemetry"
	"github.com/BaSui01/a11yoverlay/llm"
	llmfactory "github.com/BaSui01/a11yoverlay/llm/factory"
	"github.com/BaSui01/a11yoverlay/llm/speech"
)

const metricsNamespace = "a11yoverlay"

// skipAuthPaths 不需要 API Key 的路径
var skipAuthPaths = []string{"/", "/health", "/healthz", "/ready", "/readyz", "/version", "/metrics"}

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 A11y Overlay 的主服务器
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	otel   *telemetry.Providers

	// 服务器管理器
	httpManager    *server.Manager
	metricsManager *server.Manager

	// Handlers
	healthHandler     *handlers.HealthHandler
	pageHandler       *handlers.PageHandler
	transcribeHandler *handlers.TranscribeHandler

	// 依赖，预先设置时跳过按配置创建
	provider    llm.Provider
	transcriber speech.Transcriber

	metricsCollector *metrics.Collector
	namespace        string
	cacheManager     *cache.Manager
	sessions         session.Store

	// Rate limiter 生命周期管理
	rateLimiterCancel context.CancelFunc
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, logger *zap.Logger, otelProviders *telemetry.Providers) *Server {
	return &Server{
		cfg:       cfg,
		logger:    logger,
		otel:      otelProviders,
		namespace: metricsNamespace,
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 启动所有服务
func (s *Server) Start() error {
	// 1. 初始化指标收集器
	s.metricsCollector = metrics.NewCollector(s.namespace, s.logger)

	// 2. 初始化模型、会话存储与 Handlers
	if err := s.initHandlers(); err != nil {
		return fmt.Errorf("failed to init handlers: %w", err)
	}

	// 3. 启动 HTTP 服务器
	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	// 4. 启动 Metrics 服务器
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.String("http_addr", s.httpManager.ListenAddr()),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.String("model_backend", s.cfg.Model.Backend),
		zap.String("session_backend", s.cfg.Session.Backend),
		zap.Bool("whisper_enabled", s.transcriber != nil),
	)

	return nil
}

// =============================================================================
// 🔧 初始化方法
// =============================================================================

// initHandlers 初始化所有 handlers
func (s *Server) initHandlers() error {
	if s.provider == nil {
		provider, err := llmfactory.NewProviderFromConfig(s.cfg.Model.Backend, llmfactory.ProviderConfig{
			BaseURL: s.cfg.Model.BaseURL,
			APIKey:  s.cfg.Model.APIKey,
			Model:   s.cfg.Model.Model,
			Timeout: s.cfg.Model.Timeout,
			TLS:     s.cfg.Model.TLS,
		}, s.logger)
		if err != nil {
			return fmt.Errorf("create model provider: %w", err)
		}
		s.provider = provider
	}
	provider := llm.Instrument(s.provider, s.metricsCollector, s.logger)

	acfg := analyzerConfig(s.cfg.Model)
	pageAnalyzer := analyzer.New(provider, acfg, s.logger, analyzer.WithRecorder(s.metricsCollector))
	interpreter := analyzer.NewInterpreter(provider, acfg, s.logger, s.metricsCollector)

	if strings.EqualFold(strings.TrimSpace(s.cfg.Session.Backend), session.BackendRedis) {
		mgr, err := cache.NewManager(cacheConfig(s.cfg.Redis, s.cfg.Session.TTL), s.logger)
		if err != nil {
			return fmt.Errorf("connect session redis: %w", err)
		}
		s.cacheManager = mgr
	}

	store, err := session.New(session.Config{
		Backend:         s.cfg.Session.Backend,
		TTL:             s.cfg.Session.TTL,
		CleanupInterval: s.cfg.Session.CleanupInterval,
	}, s.cacheManager, s.metricsCollector, s.logger)
	if err != nil {
		return fmt.Errorf("create session store: %w", err)
	}
	s.sessions = store

	// 健康检查 handler
	s.healthHandler = handlers.NewHealthHandler(provider, s.logger)
	s.healthHandler.SetSessionCounter(s.sessions)
	s.healthHandler.RegisterCheck(handlers.NewModelHealthCheck(provider))
	if s.cacheManager != nil {
		s.healthHandler.RegisterCheck(handlers.NewRedisHealthCheck("redis", s.cacheManager.Ping))
	}

	s.pageHandler = handlers.NewPageHandler(pageAnalyzer, interpreter, s.sessions, s.cfg.Server.MaxUploadBytes, s.logger)

	if s.transcriber == nil && s.cfg.Whisper.Enabled {
		s.transcriber = speech.NewWhisperProvider(speech.WhisperConfig{
			APIKey:  s.cfg.Whisper.APIKey,
			BaseURL: s.cfg.Whisper.BaseURL,
			Model:   s.cfg.Whisper.Model,
			Timeout: s.cfg.Whisper.Timeout,
		})
	}
	s.transcribeHandler = handlers.NewTranscribeHandler(s.transcriber, s.logger,
		handlers.WithMaxUploadBytes(s.cfg.Server.MaxUploadBytes),
		handlers.WithMaxStreamBytes(s.cfg.Whisper.MaxStreamBytes),
		handlers.WithOriginPatterns(originPatterns(s.cfg.Server.CORSAllowedOrigins)...),
	)

	s.logger.Info("Handlers initialized",
		zap.String("provider", provider.Name()),
		zap.String("model", provider.Model()),
	)
	return nil
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

// routes 注册全部路由
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// 健康检查端点
	mux.HandleFunc("GET /health", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("GET /ready", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	// 页面分析与命令解释
	mux.HandleFunc("GET /{$}", s.pageHandler.HandleRoot)
	mux.HandleFunc("POST /api/analyze-page", s.pageHandler.HandleAnalyzePage)
	mux.HandleFunc("POST /api/analyze-page-base64", s.pageHandler.HandleAnalyzePageBase64)
	mux.HandleFunc("POST /api/interpret-command", s.pageHandler.HandleInterpretCommand)
	mux.HandleFunc("GET /api/sessions/{id}", s.pageHandler.HandleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.pageHandler.HandleDeleteSession)

	// 语音识别
	mux.HandleFunc("POST /api/transcribe", s.transcribeHandler.HandleTranscribe)
	mux.HandleFunc("GET /ws/transcribe", s.transcribeHandler.HandleStream)

	return mux
}

// handler 构建带中间件链的根 handler
func (s *Server) handler(rateLimiterCtx context.Context) http.Handler {
	return Chain(s.routes(),
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.metricsCollector),
		OTelTracing(),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(rateLimiterCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger),
		APIKeyAuth(s.cfg.Server.APIKeys, skipAuthPaths, s.cfg.Server.AllowQueryAPIKey, s.logger),
	)
}

// startHTTPServer 启动 HTTP 服务器
func (s *Server) startHTTPServer() error {
	rateLimiterCtx, rateLimiterCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rateLimiterCancel

	serverConfig := server.Config{
		Name:            "api",
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(s.handler(rateLimiterCtx), serverConfig, s.logger)

	// 启动服务器（非阻塞）
	if cert, key := s.cfg.Server.TLSCertFile, s.cfg.Server.TLSKeyFile; cert != "" && key != "" {
		return s.httpManager.StartTLS(cert, key)
	}
	return s.httpManager.Start()
}

// =============================================================================
// 📊 Metrics 服务器
// =============================================================================

// startMetricsServer 启动 Metrics 服务器，端口为 0 时跳过
func (s *Server) startMetricsServer() error {
	if s.cfg.Server.MetricsPort <= 0 {
		s.logger.Info("Metrics server disabled")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Name:            "metrics",
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)
	return s.metricsManager.Start()
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 等待关闭信号或 ctx 结束，然后优雅关闭
func (s *Server) WaitForShutdown(ctx context.Context) {
	if s.metricsManager != nil {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go s.watchMetricsServer(watchCtx)
	}
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown(ctx)
	}
	s.Shutdown()
}

// watchMetricsServer 指标服务异常退出不影响 API 服务，仅记录
func (s *Server) watchMetricsServer(ctx context.Context) {
	select {
	case err := <-s.metricsManager.Errors():
		s.logger.Warn("metrics server exited, /metrics unavailable", zap.Error(err))
	case <-ctx.Done():
	}
}

// Shutdown 优雅关闭所有服务，可重复调用
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.Background()

	// 0. 停止 rate limiter 清理 goroutine
	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	// 1. 关闭 HTTP 服务器
	if s.httpManager != nil && s.httpManager.IsRunning() {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	// 2. 关闭 Metrics 服务器
	if s.metricsManager != nil && s.metricsManager.IsRunning() {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	// 3. 关闭会话存储与 Redis
	if s.sessions != nil {
		if err := s.sessions.Close(); err != nil {
			s.logger.Error("Session store close error", zap.Error(err))
		}
	}
	if s.cacheManager != nil {
		if err := s.cacheManager.Close(); err != nil {
			s.logger.Error("Cache manager close error", zap.Error(err))
		}
	}

	// 4. 刷新遥测数据
	if s.otel != nil {
		flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := s.otel.Shutdown(flushCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("Telemetry shutdown error", zap.Error(err))
		}
		cancel()
	}

	s.logger.Info("Graceful shutdown completed")
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// analyzerConfig 将模型配置转换为分析器参数，非正值沿用默认
func analyzerConfig(m config.ModelConfig) analyzer.Config {
	cfg := analyzer.DefaultConfig()
	cfg.VisionTemperature = m.VisionTemperature
	cfg.CommandTemperature = m.CommandTemperature
	if m.NumPredict > 0 {
		cfg.NumPredict = m.NumPredict
	}
	if m.MaxActions > 0 {
		cfg.MaxActions = m.MaxActions
	}
	if m.MaxImageDimension > 0 {
		cfg.Image.MaxDimension = m.MaxImageDimension
	}
	if m.JPEGQuality > 0 {
		cfg.Image.Quality = m.JPEGQuality
	}
	if m.MaxImagePixels > 0 {
		cfg.Image.MaxPixels = m.MaxImagePixels
	}
	return cfg
}

// cacheConfig 将 Redis 配置转换为 cache.Config
func cacheConfig(r config.RedisConfig, ttl time.Duration) cache.Config {
	cfg := cache.DefaultConfig()
	cfg.Addr = r.Addr
	cfg.Password = r.Password
	cfg.DB = r.DB
	cfg.TLSEnabled = r.TLSEnabled
	cfg.DefaultTTL = ttl
	if r.KeyPrefix != "" {
		cfg.KeyPrefix = r.KeyPrefix
	}
	if r.PoolSize > 0 {
		cfg.PoolSize = r.PoolSize
	}
	if r.MinIdleConns > 0 {
		cfg.MinIdleConns = r.MinIdleConns
	}
	return cfg
}

// originPatterns 将 CORS 来源转换为 WebSocket 握手使用的 host 模式
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			patterns = append(patterns, "*")
			continue
		}
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}
		patterns = append(patterns, u.Host)
	}
	return patterns
}
