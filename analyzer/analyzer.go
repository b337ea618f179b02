package analyzer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/a11yoverlay/internal/imaging"
	"github.com/BaSui01/a11yoverlay/llm"
	"github.com/BaSui01/a11yoverlay/types"
)

// 降级原因
const (
	ReasonTransport = "transport"
	ReasonFormat    = "format"
)

// Recorder 记录分析与匹配指标，由 internal/metrics.Collector 实现
type Recorder interface {
	RecordAnalysisFallback(reason string)
	RecordCommandMatch(strategy string)
	RecordImageNormalize(duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordAnalysisFallback(string)      {}
func (nopRecorder) RecordCommandMatch(string)          {}
func (nopRecorder) RecordImageNormalize(time.Duration) {}

// Config 分析器参数
type Config struct {
	VisionTemperature  float64
	CommandTemperature float64
	NumPredict         int
	MaxActions         int
	Image              imaging.Options
}

// DefaultConfig 返回默认参数
func DefaultConfig() Config {
	return Config{
		VisionTemperature:  0.3,
		CommandTemperature: 0.2,
		NumPredict:         1000,
		MaxActions:         3,
		Image:              imaging.DefaultOptions(),
	}
}

// Request 一次页面分析的输入。Image 与 ImageBase64 二选一，Image 优先。
type Request struct {
	Image       []byte
	ImageBase64 string
	Elements    []types.InteractiveElement
}

// Result 页面分析输出
type Result struct {
	Analysis *types.PageAnalysis
	Image    *imaging.Result
	// Fallback 为 true 表示结果来自备用分析器
	Fallback       bool
	FallbackReason string
	ModelLatency   time.Duration
}

// Analyzer 页面分析器，可被多个 goroutine 并发使用
type Analyzer struct {
	provider llm.Provider
	cfg      Config
	recorder Recorder
	logger   *zap.Logger
}

// Option 配置 Analyzer
type Option func(*Analyzer)

// WithRecorder 设置指标记录器
func WithRecorder(r Recorder) Option {
	return func(a *Analyzer) {
		if r != nil {
			a.recorder = r
		}
	}
}

// New 创建分析器
func New(provider llm.Provider, cfg Config, logger *zap.Logger, opts ...Option) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxActions <= 0 {
		cfg.MaxActions = 3
	}
	a := &Analyzer{
		provider: provider,
		cfg:      cfg,
		recorder: nopRecorder{},
		logger:   logger.With(zap.String("component", "page_analyzer")),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Config 返回当前参数
func (a *Analyzer) Config() Config { return a.cfg }

// =============================================================================
// 🎯 核心方法
// =============================================================================

// Analyze 规范化截图、调用视觉模型并补充元素数据。
// 仅截图解码失败或 ctx 被取消时返回错误；模型失败时返回备用结果。
func (a *Analyzer) Analyze(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()
	var (
		img *imaging.Result
		err error
	)
	if len(req.Image) > 0 {
		img, err = a.cfg.Image.Normalize(req.Image)
	} else {
		img, err = a.cfg.Image.NormalizeString(req.ImageBase64)
	}
	a.recorder.RecordImageNormalize(time.Since(start))
	if err != nil {
		return nil, err
	}

	res := &Result{Image: img}

	prompt := BuildVisionPrompt(SummarizeElements(req.Elements), a.cfg.MaxActions)
	resp, err := a.provider.Vision(ctx, &llm.VisionRequest{
		Prompt:      prompt,
		ImageBase64: img.Base64,
		Options: llm.Options{
			Temperature: a.cfg.VisionTemperature,
			NumPredict:  a.cfg.NumPredict,
		},
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		a.logger.Warn("vision model unavailable, using fallback analysis",
			zap.Error(err),
			zap.String("code", string(types.GetErrorCode(err))),
			zap.Bool("retryable", types.IsRetryable(err)),
			zap.Int("elements", len(req.Elements)))
		return a.fallback(res, req.Elements, ReasonTransport), nil
	}
	res.ModelLatency = resp.Latency

	obj, ok := ExtractJSONObject(resp.Content)
	if !ok {
		a.logger.Warn("vision model returned no parsable JSON, using fallback analysis",
			zap.Int("response_chars", len(resp.Content)))
		return a.fallback(res, req.Elements, ReasonFormat), nil
	}
	analysis, ok := decodeAnalysis(obj)
	if !ok {
		a.logger.Warn("vision model JSON has no actions array, using fallback analysis")
		return a.fallback(res, req.Elements, ReasonFormat), nil
	}

	normalizeAnalysis(analysis, a.cfg.MaxActions)
	Enrich(analysis, req.Elements)
	res.Analysis = analysis

	a.logger.Debug("page analyzed",
		zap.String("page_type", analysis.PageType),
		zap.Int("actions", len(analysis.Actions)),
		zap.Duration("model_latency", resp.Latency))
	return res, nil
}

func (a *Analyzer) fallback(res *Result, elements []types.InteractiveElement, reason string) *Result {
	a.recorder.RecordAnalysisFallback(reason)
	analysis := Fallback(elements)
	Enrich(analysis, elements)
	res.Analysis = analysis
	res.Fallback = true
	res.FallbackReason = reason
	return res
}
