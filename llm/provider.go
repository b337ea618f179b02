package llm

import (
	"context"
	"time"
)

// Options 单次调用的采样参数
type Options struct {
	Temperature float64 `json:"temperature"`
	// NumPredict 最大生成 token 数，0 表示使用后端默认值
	NumPredict int `json:"num_predict,omitempty"`
}

// VisionRequest 带一张图像的对话请求
type VisionRequest struct {
	Prompt string
	// ImageBase64 不带 data URL 前缀的 JPEG base64
	ImageBase64 string
	Options     Options
}

// GenerateRequest 纯文本生成请求
type GenerateRequest struct {
	Prompt  string
	Options Options
}

// Response 模型返回的原始文本
type Response struct {
	Provider string        `json:"provider"`
	Model    string        `json:"model"`
	Content  string        `json:"content"`
	Latency  time.Duration `json:"latency"`
}

// HealthStatus 表示后端健康检查结果。
type HealthStatus struct {
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
	Model   string        `json:"model"`
	// ModelAvailable 后端已加载/下载该模型
	ModelAvailable bool `json:"model_available"`
}

// Provider 本地视觉模型后端。
// 实现必须可被多个 goroutine 并发使用，并尊重 ctx 的取消。
type Provider interface {
	// Name 返回后端标识（ollama / openai）
	Name() string

	// Model 返回当前使用的模型名
	Model() string

	// Vision 发送图像 + 指令，返回模型原始回复
	Vision(ctx context.Context, req *VisionRequest) (*Response, error)

	// Generate 发送纯文本指令，返回模型原始回复
	Generate(ctx context.Context, req *GenerateRequest) (*Response, error)

	// HealthCheck 执行轻量级探活
	HealthCheck(ctx context.Context) (*HealthStatus, error)
}
