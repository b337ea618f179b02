// =============================================================================
// 📦 A11y Overlay 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + .env + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithDotEnv(".env").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量（.env 中的值仅在进程环境未设置时生效）
// =============================================================================
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/BaSui01/a11yoverlay/internal/tlsutil"
)

// DefaultEnvPrefix 环境变量前缀
const DefaultEnvPrefix = "A11Y"

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 a11yoverlay 的完整配置结构
type Config struct {
	// Server 服务器配置
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Model 视觉模型后端配置
	Model ModelConfig `yaml:"model" env:"MODEL"`

	// Whisper 语音识别服务配置
	Whisper WhisperConfig `yaml:"whisper" env:"WHISPER"`

	// Session 会话存储配置
	Session SessionConfig `yaml:"session" env:"SESSION"`

	// Redis 连接配置（session.backend=redis 时使用）
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// HTTP 端口
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// Metrics 端口，0 表示不启动独立指标服务
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 写入超时
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// 上传请求体上限（字节）
	MaxUploadBytes int64 `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES"`
	// 允许的跨域来源，浏览器扩展通常为 chrome-extension://<id>
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	// API Key 列表，为空时不启用认证
	APIKeys []string `yaml:"api_keys" env:"API_KEYS"`
	// 是否允许通过 ?api_key= 传递（WebSocket 客户端无法设置请求头）
	AllowQueryAPIKey bool `yaml:"allow_query_api_key" env:"ALLOW_QUERY_API_KEY"`
	// 每个客户端 IP 的限流速率
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// 限流突发
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	// TLS 证书，与 TLSKeyFile 同时设置时启用 HTTPS
	TLSCertFile string `yaml:"tls_cert_file" env:"TLS_CERT_FILE"`
	// TLS 私钥
	TLSKeyFile string `yaml:"tls_key_file" env:"TLS_KEY_FILE"`
}

// ModelConfig 视觉模型后端配置
type ModelConfig struct {
	// 后端: ollama, openai
	Backend string `yaml:"backend" env:"BACKEND"`
	// 基础 URL
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// API Key（openai 兼容后端可选）
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 模型名称
	Model string `yaml:"model" env:"MODEL"`
	// 单次请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 页面分析温度
	VisionTemperature float64 `yaml:"vision_temperature" env:"VISION_TEMPERATURE"`
	// 指令匹配温度
	CommandTemperature float64 `yaml:"command_temperature" env:"COMMAND_TEMPERATURE"`
	// 生成 token 上限
	NumPredict int `yaml:"num_predict" env:"NUM_PREDICT"`
	// 每页最多返回的动作数
	MaxActions int `yaml:"max_actions" env:"MAX_ACTIONS"`
	// 截图最长边
	MaxImageDimension int `yaml:"max_image_dimension" env:"MAX_IMAGE_DIMENSION"`
	// JPEG 重编码质量
	JPEGQuality int `yaml:"jpeg_quality" env:"JPEG_QUALITY"`
	// 解码前允许的最大像素数（宽*高）
	MaxImagePixels int64 `yaml:"max_image_pixels" env:"MAX_IMAGE_PIXELS"`
	// TLS 选项
	TLS tlsutil.Options `yaml:"tls" env:"TLS"`
}

// WhisperConfig 语音识别服务配置
type WhisperConfig struct {
	// 是否启用 /api/transcribe 与 /ws/transcribe
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 基础 URL
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// API Key（可选）
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 模型: tiny, base, small, medium, large-v3
	Model string `yaml:"model" env:"MODEL"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// WebSocket 单次累积音频上限（字节）
	MaxStreamBytes int `yaml:"max_stream_bytes" env:"MAX_STREAM_BYTES"`
}

// SessionConfig 会话存储配置
type SessionConfig struct {
	// 后端: memory, redis
	Backend string `yaml:"backend" env:"BACKEND"`
	// 会话存活时间，0 表示永不过期
	TTL time.Duration `yaml:"ttl" env:"TTL"`
	// 内存后端的清理间隔
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"CLEANUP_INTERVAL"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 键前缀
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 最小空闲连接
	MinIdleConns int `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
	// 启用 TLS
	TLSEnabled bool `yaml:"tls_enabled" env:"TLS_ENABLED"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
	// 滚动日志文件
	File LogFileConfig `yaml:"file" env:"FILE"`
}

// LogFileConfig 滚动日志文件配置，Path 为空时不写文件
type LogFileConfig struct {
	Path       string `yaml:"path" env:"PATH"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" env:"MAX_AGE_DAYS"`
	Compress   bool   `yaml:"compress" env:"COMPRESS"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 是否使用明文 gRPC
	Insecure bool `yaml:"insecure" env:"INSECURE"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath  string
	dotEnvPaths []string
	envPrefix   string
	validators  []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  DefaultEnvPrefix,
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithDotEnv 在读取环境变量前加载 .env 文件，文件不存在时忽略
func (l *Loader) WithDotEnv(paths ...string) *Loader {
	l.dotEnvPaths = append(l.dotEnvPaths, paths...)
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. .env 文件（不覆盖已存在的进程环境变量）
	if err := l.loadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// 4. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 5. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (l *Loader) loadDotEnv() error {
	for _, p := range l.dotEnvPaths {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		// 如果是结构体，递归处理
		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue, ok := os.LookupEnv(envKey)
		if !ok || envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			out := make([]string, 0, len(parts))
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			field.Set(reflect.ValueOf(out))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// Validate 验证配置，汇总所有错误
func (c *Config) Validate() error {
	var errs []error

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, errors.New("invalid server.http_port"))
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		errs = append(errs, errors.New("invalid server.metrics_port"))
	}
	if c.Server.MetricsPort != 0 && c.Server.MetricsPort == c.Server.HTTPPort {
		errs = append(errs, errors.New("server.metrics_port must differ from server.http_port"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must be positive"))
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.tls_cert_file and server.tls_key_file must be set together"))
	}

	switch strings.ToLower(c.Model.Backend) {
	case "ollama", "openai", "openai-compatible":
	default:
		errs = append(errs, fmt.Errorf("unknown model.backend %q", c.Model.Backend))
	}
	if c.Model.BaseURL == "" {
		errs = append(errs, errors.New("model.base_url is required"))
	}
	if c.Model.Model == "" {
		errs = append(errs, errors.New("model.model is required"))
	}
	if c.Model.Timeout <= 0 {
		errs = append(errs, errors.New("model.timeout must be positive"))
	}
	if c.Model.VisionTemperature < 0 || c.Model.VisionTemperature > 2 {
		errs = append(errs, errors.New("model.vision_temperature must be between 0 and 2"))
	}
	if c.Model.CommandTemperature < 0 || c.Model.CommandTemperature > 2 {
		errs = append(errs, errors.New("model.command_temperature must be between 0 and 2"))
	}
	if c.Model.MaxActions <= 0 {
		errs = append(errs, errors.New("model.max_actions must be positive"))
	}
	if c.Model.JPEGQuality < 1 || c.Model.JPEGQuality > 100 {
		errs = append(errs, errors.New("model.jpeg_quality must be between 1 and 100"))
	}

	if c.Whisper.Enabled && c.Whisper.BaseURL == "" {
		errs = append(errs, errors.New("whisper.base_url is required when whisper is enabled"))
	}

	switch strings.ToLower(c.Session.Backend) {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for session.backend=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session.backend %q", c.Session.Backend))
	}
	if c.Session.TTL < 0 {
		errs = append(errs, errors.New("session.ttl must not be negative"))
	}

	if c.Telemetry.Enabled && (c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1) {
		errs = append(errs, errors.New("telemetry.sample_rate must be between 0 and 1"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %w", errors.Join(errs...))
	}
	return nil
}
