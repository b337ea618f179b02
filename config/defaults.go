// =============================================================================
// 📦 A11y Overlay 默认配置
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Model:     DefaultModelConfig(),
		Whisper:   DefaultWhisperConfig(),
		Session:   DefaultSessionConfig(),
		Redis:     DefaultRedisConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8000,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    90 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		MaxUploadBytes:  20 << 20,
		RateLimitRPS:    10,
		RateLimitBurst:  20,
	}
}

// DefaultModelConfig 返回默认模型配置（本地 Ollama + Qwen2.5-VL）
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Backend:            "ollama",
		BaseURL:            "http://localhost:11434",
		Model:              "qwen2.5vl:7b",
		Timeout:            30 * time.Second,
		VisionTemperature:  0.3,
		CommandTemperature: 0.2,
		NumPredict:         1000,
		MaxActions:         3,
		MaxImageDimension:  1024,
		JPEGQuality:        85,
		MaxImagePixels:     89_478_485,
	}
}

// DefaultWhisperConfig 返回默认语音识别配置
func DefaultWhisperConfig() WhisperConfig {
	return WhisperConfig{
		Enabled:        true,
		BaseURL:        "http://localhost:8001",
		Model:          "base",
		Timeout:        120 * time.Second,
		MaxStreamBytes: 10 << 20,
	}
}

// DefaultSessionConfig 返回默认会话配置
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Backend:         "memory",
		TTL:             30 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		KeyPrefix:    "a11y:",
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
		File: LogFileConfig{
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		Insecure:     true,
		ServiceName:  "a11yoverlay",
		SampleRate:   0.1,
	}
}
