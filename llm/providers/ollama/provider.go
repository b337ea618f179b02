package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/a11yoverlay/internal/tlsutil"
	"github.com/BaSui01/a11yoverlay/llm"
	"github.com/BaSui01/a11yoverlay/llm/providers"
	"github.com/BaSui01/a11yoverlay/types"
)

const providerName = "ollama"

// Config Ollama 后端配置
type Config struct {
	BaseURL string
	Model   string
	// Timeout HTTP 客户端超时，默认 30s
	Timeout time.Duration
	TLS     tlsutil.Options
}

// Provider Ollama 原生 API 客户端
type Provider struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New 创建 Provider。Client 在整个进程内复用。
func New(cfg Config, logger *zap.Logger) (*Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "qwen2.5vl:7b"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := tlsutil.NewHTTPClient(cfg.Timeout, cfg.TLS)
	if err != nil {
		return nil, fmt.Errorf("ollama http client: %w", err)
	}
	return &Provider{
		cfg:    cfg,
		client: client,
		logger: logger.With(zap.String("provider", providerName)),
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string { return providerName }

// Model returns the configured model.
func (p *Provider) Model() string { return p.cfg.Model }

// =============================================================================
// 📡 Wire types
// =============================================================================

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type requestOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  requestOptions `json:"options"`
}

type chatResponse struct {
	Model   string      `json:"model"`
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options requestOptions `json:"options"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type tagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// =============================================================================
// 🎯 核心方法
// =============================================================================

// Vision 调用 /api/chat，图像附在唯一一条 user 消息上
func (p *Provider) Vision(ctx context.Context, req *llm.VisionRequest) (*llm.Response, error) {
	body := chatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{{
			Role:    "user",
			Content: req.Prompt,
			Images:  []string{req.ImageBase64},
		}},
		Stream: false,
		Options: requestOptions{
			Temperature: req.Options.Temperature,
			NumPredict:  req.Options.NumPredict,
		},
	}

	start := time.Now()
	var out chatResponse
	if err := p.post(ctx, "/api/chat", body, &out); err != nil {
		return nil, err
	}
	return &llm.Response{
		Provider: providerName,
		Model:    p.cfg.Model,
		Content:  out.Message.Content,
		Latency:  time.Since(start),
	}, nil
}

// Generate 调用 /api/generate
func (p *Provider) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.Response, error) {
	body := generateRequest{
		Model:  p.cfg.Model,
		Prompt: req.Prompt,
		Stream: false,
		Options: requestOptions{
			Temperature: req.Options.Temperature,
			NumPredict:  req.Options.NumPredict,
		},
	}

	start := time.Now()
	var out generateResponse
	if err := p.post(ctx, "/api/generate", body, &out); err != nil {
		return nil, err
	}
	return &llm.Response{
		Provider: providerName,
		Model:    p.cfg.Model,
		Content:  out.Response,
		Latency:  time.Since(start),
	}, nil
}

// HealthCheck 请求 /api/tags 并检查目标模型是否已下载
func (p *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint("/api/tags"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(httpReq)
	latency := time.Since(start)
	status := &llm.HealthStatus{Latency: latency, Model: p.cfg.Model}
	if err != nil {
		return status, providers.MapTransportError(err, providerName)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return status, providers.MapHTTPError(resp.StatusCode, providers.ReadErrorMessage(resp.Body), providerName)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		// 可达但响应异常，仍视为健康
		p.logger.Warn("failed to decode /api/tags", zap.Error(err))
	}
	status.Healthy = true
	status.ModelAvailable = hasModel(tags, p.cfg.Model)
	return status, nil
}

func hasModel(tags tagsResponse, model string) bool {
	for _, m := range tags.Models {
		if m.Name == model || m.Model == model {
			return true
		}
		// "llava" 与 "llava:latest" 视为同一模型
		if !strings.Contains(model, ":") && strings.TrimSuffix(m.Name, ":latest") == model {
			return true
		}
	}
	return false
}

// =============================================================================
// 🔧 内部方法
// =============================================================================

func (p *Provider) endpoint(path string) string {
	return strings.TrimRight(p.cfg.BaseURL, "/") + path
}

func (p *Provider) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(path), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return providers.MapTransportError(err, providerName)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := providers.ReadErrorMessage(resp.Body)
		p.logger.Warn("ollama returned non-success status",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg))
		return providers.MapHTTPError(resp.StatusCode, msg, providerName)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return types.NewError(types.ErrModelFormat, "invalid ollama response body").
			WithCause(err).
			WithProvider(providerName)
	}
	return nil
}
