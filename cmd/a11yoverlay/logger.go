package main

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/BaSui01/a11yoverlay/config"
)

// =============================================================================
// 🔧 日志初始化
// =============================================================================

// initLogger 按配置构建 logger：OutputPaths 使用配置的编码，
// File.Path 非空时额外写入按大小滚动的 JSON 文件。
// 返回的 cleanup 负责 Sync 并关闭打开的文件。
func initLogger(cfg config.LogConfig) (*zap.Logger, func(), error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil || cfg.Level == "" {
		level.SetLevel(zapcore.InfoLevel)
	}

	paths := cfg.OutputPaths
	if len(paths) == 0 {
		paths = []string{"stdout"}
	}
	sink, closeSink, err := zap.Open(paths...)
	if err != nil {
		return nil, nil, fmt.Errorf("open log outputs: %w", err)
	}

	cores := []zapcore.Core{zapcore.NewCore(newEncoder(cfg.Format), sink, level)}

	var rotating *lumberjack.Logger
	if cfg.File.Path != "" {
		rotating = &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		}
		// 文件始终使用 JSON，便于采集
		cores = append(cores, zapcore.NewCore(newEncoder("json"), zapcore.AddSync(rotating), level))
	}

	var opts []zap.Option
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if cfg.EnableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...), opts...)
	cleanup := func() {
		_ = logger.Sync()
		closeSink()
		if rotating != nil {
			_ = rotating.Close()
		}
	}
	return logger, cleanup, nil
}

func newEncoder(format string) zapcore.Encoder {
	if format == "console" {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}
