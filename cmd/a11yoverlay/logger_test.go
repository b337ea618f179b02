package main

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/a11yoverlay/config"
)

func readJSONLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m), sc.Text())
		out = append(out, m)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestInitLogger_OutputAndRotatingFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.log")
	rotated := filepath.Join(dir, "rotating.log")

	logger, cleanup, err := initLogger(config.LogConfig{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{out},
		File:        config.LogFileConfig{Path: rotated, MaxSizeMB: 1},
	})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("page analyzed", zap.String("session_id", "s1"))
	cleanup()

	for _, path := range []string{out, rotated} {
		lines := readJSONLines(t, path)
		require.Len(t, lines, 1, path)
		assert.Equal(t, "page analyzed", lines[0]["msg"])
		assert.Equal(t, "s1", lines[0]["session_id"])
		assert.Contains(t, lines[0], "timestamp")
	}
}

func TestInitLogger_Level(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, cleanup, err := initLogger(config.LogConfig{
				Level:       tt.level,
				Format:      "console",
				OutputPaths: []string{filepath.Join(t.TempDir(), "x.log")},
			})
			require.NoError(t, err)
			defer cleanup()

			assert.True(t, logger.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestInitLogger_BadOutputPath(t *testing.T) {
	_, _, err := initLogger(config.LogConfig{
		OutputPaths: []string{filepath.Join(t.TempDir(), "missing", "dir", "x.log")},
	})
	assert.Error(t, err)
}
