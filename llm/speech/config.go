package speech

import "time"

// WhisperConfig 配置 Whisper 兼容的 STT 服务。
type WhisperConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"` // tiny, base, small, medium, large-v3
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// DefaultWhisperConfig 返回默认 Whisper 配置。
func DefaultWhisperConfig() WhisperConfig {
	return WhisperConfig{
		BaseURL: "http://localhost:8001",
		Model:   "base",
		Timeout: 120 * time.Second,
	}
}
