// =============================================================================
// A11y Overlay 主入口
// =============================================================================
// 完整服务入口点，包含 HTTP 服务、健康检查、Prometheus 指标
//
// 使用方法:
//
//	a11yoverlay serve                       # 启动服务
//	a11yoverlay serve --config config.yaml  # 指定配置文件
//	a11yoverlay probe https://example.com   # 抓取页面并本地分析
//	a11yoverlay version                     # 显示版本信息
//	a11yoverlay health                      # 健康检查
// =============================================================================

// @title A11y Overlay API
// @version 1.0.0
// @description Accessibility overlay backend: analyzes web page screenshots with a vision model,
// @description suggests the most useful actions, and maps spoken or typed commands onto them.
// @description
// @description ## Features
// @description - Screenshot + DOM element analysis (Ollama or OpenAI compatible vision models)
// @description - Natural language command interpretation with keyword fallback
// @description - Speech transcription over HTTP upload and WebSocket streaming
// @description - Health monitoring and metrics

// @contact.name A11y Overlay Team
// @contact.url https://github.com/BaSui01/a11yoverlay

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description API key for authentication

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BaSui01/a11yoverlay/api"
	"github.com/BaSui01/a11yoverlay/config"
	"github.com/BaSui01/a11yoverlay/internal/telemetry"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// rootOptions 所有子命令共享的参数
type rootOptions struct {
	configPath string
	envFiles   []string
	envPrefix  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "a11yoverlay",
		Short: "Accessibility overlay backend",
		Long: `a11yoverlay analyzes page screenshots with a vision model, suggests the
most useful actions on the page, and maps voice or text commands onto them.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file (YAML)")
	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, ".env files loaded before reading environment variables")
	root.PersistentFlags().StringVar(&opts.envPrefix, "env-prefix", config.DefaultEnvPrefix, "Prefix of environment variable overrides")

	root.AddCommand(
		newServeCmd(opts),
		newHealthCmd(),
		newVersionCmd(),
		newProbeCmd(opts),
	)
	return root
}

// loadConfig 加载并验证配置
func (o *rootOptions) loadConfig() (*config.Config, error) {
	loader := config.NewLoader().
		WithDotEnv(o.envFiles...).
		WithValidator((*config.Config).Validate)
	if o.envPrefix != "" {
		loader = loader.WithEnvPrefix(o.envPrefix)
	}
	if o.configPath != "" {
		loader = loader.WithConfigPath(o.configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger, cleanup, err := initLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("Starting A11y Overlay",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	otelProviders, err := telemetry.Init(cfg.Telemetry, Version, logger, telemetry.ModelAttributes(cfg.Model)...)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	srv := NewServer(cfg, logger, otelProviders)
	if err := srv.Start(); err != nil {
		logger.Error("Failed to start server", zap.Error(err))
		srv.Shutdown()
		return err
	}

	// 等待关闭信号
	srv.WaitForShutdown(ctx)

	logger.Info("A11y Overlay stopped")
	return nil
}

// =============================================================================
// 🏥 健康检查命令
// =============================================================================

func newHealthCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := &http.Client{Timeout: timeout}
			return runHealthCheck(cmd.Context(), client, addr, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "http://localhost:8000", "Server address")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	return cmd
}

// runHealthCheck 请求 /health，服务降级或不可达时返回错误
func runHealthCheck(ctx context.Context, client *http.Client, addr string, out io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(addr, "/")+"/health", nil)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}

	var health api.ServiceHealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("health check failed: invalid body: %w", err)
	}

	fmt.Fprintf(out, "%s (backend=%s model=%s)\n", strings.ToUpper(health.Status), health.ModelBackend, health.OllamaModel)
	if health.Status != "healthy" {
		return fmt.Errorf("service is %s", health.Status)
	}
	return nil
}

// =============================================================================
// 📋 版本
// =============================================================================

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "A11y Overlay %s\n", Version)
	fmt.Fprintf(w, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git Commit: %s\n", GitCommit)
}
