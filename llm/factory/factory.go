// Package factory provides a centralized factory for creating model backend
// instances by name. It imports all provider sub-packages and maps string
// names to their constructors, breaking the import cycle that would occur
// if this logic lived in the llm package directly.
package factory

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/a11yoverlay/internal/tlsutil"
	"github.com/BaSui01/a11yoverlay/llm"
	"github.com/BaSui01/a11yoverlay/llm/providers/ollama"
	"github.com/BaSui01/a11yoverlay/llm/providers/openaicompat"
)

// ProviderConfig is the generic configuration accepted by the factory function.
type ProviderConfig struct {
	BaseURL string          `json:"base_url" yaml:"base_url"`
	APIKey  string          `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Model   string          `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout time.Duration   `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	TLS     tlsutil.Options `json:"tls,omitempty" yaml:"tls,omitempty"`
}

// SupportedBackends 可用后端名称
var SupportedBackends = []string{"ollama", "openai"}

// NewProviderFromConfig creates a Provider instance based on the backend name.
//
// Supported names: ollama, openai (alias: openai-compatible).
func NewProviderFromConfig(name string, cfg ProviderConfig, logger *zap.Logger) (llm.Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ollama":
		p, err := ollama.New(ollama.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
			TLS:     cfg.TLS,
		}, logger)
		if err != nil {
			return nil, err
		}
		return p, nil

	case "openai", "openai-compatible":
		p, err := openaicompat.New(openaicompat.Config{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
			TLS:     cfg.TLS,
		}, logger)
		if err != nil {
			return nil, err
		}
		return p, nil

	default:
		return nil, fmt.Errorf("unknown model backend %q (supported: %s)", name, strings.Join(SupportedBackends, ", "))
	}
}
