// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestSize     *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// 模型指标
	modelRequestsTotal   *prometheus.CounterVec
	modelRequestDuration *prometheus.HistogramVec

	// 分析指标
	analysisFallbacks *prometheus.CounterVec
	commandMatches    *prometheus.CounterVec
	imageNormalize    prometheus.Histogram

	// 会话指标
	sessionsActive prometheus.Gauge

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP 指标
	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	c.httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// 模型指标
	c.modelRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_requests_total",
			Help:      "Total number of vision/text model requests",
		},
		[]string{"provider", "model", "operation", "status"},
	)

	c.modelRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_request_duration_seconds",
			Help:      "Model request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "model", "operation"},
	)

	// 分析指标
	c.analysisFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_fallbacks_total",
			Help:      "Total number of page analyses served by the fallback analyzer",
		},
		[]string{"reason"},
	)

	c.commandMatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_matches_total",
			Help:      "Total number of interpreted commands by strategy",
		},
		[]string{"strategy"},
	)

	c.imageNormalize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "image_normalize_duration_seconds",
			Help:      "Screenshot normalization duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
	)

	// 会话指标
	c.sessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of sessions currently held in memory",
		},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, requestSize, responseSize int64) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	c.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// =============================================================================
// 🤖 模型指标记录
// =============================================================================

// RecordModelRequest 记录一次模型调用，status 为 success / error
func (c *Collector) RecordModelRequest(provider, model, operation, status string, duration time.Duration) {
	c.modelRequestsTotal.WithLabelValues(provider, model, operation, status).Inc()
	c.modelRequestDuration.WithLabelValues(provider, model, operation).Observe(duration.Seconds())
}

// =============================================================================
// 🧭 分析指标记录
// =============================================================================

// RecordAnalysisFallback 记录一次降级，reason 为 transport / format
func (c *Collector) RecordAnalysisFallback(reason string) {
	c.analysisFallbacks.WithLabelValues(reason).Inc()
}

// RecordCommandMatch 记录命令匹配策略：model / keyword / clarify
func (c *Collector) RecordCommandMatch(strategy string) {
	c.commandMatches.WithLabelValues(strategy).Inc()
}

// RecordImageNormalize 记录截图规范化耗时
func (c *Collector) RecordImageNormalize(duration time.Duration) {
	c.imageNormalize.Observe(duration.Seconds())
}

// SetActiveSessions 设置当前活跃会话数
func (c *Collector) SetActiveSessions(n int) {
	c.sessionsActive.Set(float64(n))
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
