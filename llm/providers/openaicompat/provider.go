package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/BaSui01/a11yoverlay/internal/tlsutil"
	"github.com/BaSui01/a11yoverlay/llm"
	"github.com/BaSui01/a11yoverlay/llm/providers"
	"github.com/BaSui01/a11yoverlay/types"
)

const providerName = "openai"

// Config holds the configuration for an OpenAI-compatible backend.
type Config struct {
	// BaseURL 服务根地址，不含 /v1（例如 http://localhost:11434）
	BaseURL string
	// APIKey 本地服务通常不校验，可为空
	APIKey  string
	Model   string
	Timeout time.Duration
	TLS     tlsutil.Options
}

// Provider OpenAI 兼容客户端
type Provider struct {
	cfg    Config
	client *openai.Client
	logger *zap.Logger
}

// New creates a new OpenAI-compatible provider with the given config.
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

	httpClient, err := tlsutil.NewHTTPClient(cfg.Timeout, cfg.TLS)
	if err != nil {
		return nil, fmt.Errorf("openai http client: %w", err)
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = apiBase(cfg.BaseURL)
	oc.HTTPClient = httpClient

	return &Provider{
		cfg:    cfg,
		client: openai.NewClientWithConfig(oc),
		logger: logger.With(zap.String("provider", providerName)),
	}, nil
}

// apiBase 规范化为以 /v1 结尾的地址
func apiBase(base string) string {
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1"
}

// Name returns the provider name.
func (p *Provider) Name() string { return providerName }

// Model returns the configured model.
func (p *Provider) Model() string { return p.cfg.Model }

// Vision 以多段内容（文本 + image_url）发送单条 user 消息
func (p *Provider) Vision(ctx context.Context, req *llm.VisionRequest) (*llm.Response, error) {
	msg := openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    providers.DataURL(req.ImageBase64),
					Detail: openai.ImageURLDetailAuto,
				},
			},
		},
	}
	return p.complete(ctx, msg, req.Options)
}

// Generate 发送纯文本 user 消息
func (p *Provider) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.Response, error) {
	msg := openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	}
	return p.complete(ctx, msg, req.Options)
}

func (p *Provider) complete(ctx context.Context, msg openai.ChatCompletionMessage, opts llm.Options) (*llm.Response, error) {
	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.cfg.Model,
		Messages:    []openai.ChatCompletionMessage{msg},
		Temperature: float32(opts.Temperature),
		MaxTokens:   opts.NumPredict,
	})
	if err != nil {
		return nil, p.mapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, types.NewError(types.ErrModelFormat, "empty response from model").WithProvider(providerName)
	}

	return &llm.Response{
		Provider: providerName,
		Model:    p.cfg.Model,
		Content:  resp.Choices[0].Message.Content,
		Latency:  time.Since(start),
	}, nil
}

// HealthCheck 列出模型并确认目标模型存在
func (p *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	list, err := p.client.ListModels(ctx)
	status := &llm.HealthStatus{Latency: time.Since(start), Model: p.cfg.Model}
	if err != nil {
		return status, p.mapError(err)
	}

	status.Healthy = true
	for _, m := range list.Models {
		if m.ID == p.cfg.Model {
			status.ModelAvailable = true
			break
		}
	}
	return status, nil
}

func (p *Provider) mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		p.logger.Warn("openai-compatible API error",
			zap.Int("status", apiErr.HTTPStatusCode),
			zap.String("message", apiErr.Message))
		return providers.MapHTTPError(apiErr.HTTPStatusCode, apiErr.Message, providerName).WithCause(err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return providers.MapHTTPError(reqErr.HTTPStatusCode, reqErr.Error(), providerName).WithCause(err)
	}
	return providers.MapTransportError(err, providerName)
}
