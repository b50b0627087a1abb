package logger

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/isdmx/tryrun/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLoggerNew(t *testing.T) {
	t.Run("ValidDevelopmentMode", func(t *testing.T) {
		logger, err := New("development", "debug", io.Discard)
		require.NoError(t, err)
		assert.NotNil(t, logger)
		logger.Sync()
	})

	t.Run("ValidProductionMode", func(t *testing.T) {
		logger, err := New("production", "info", io.Discard)
		require.NoError(t, err)
		assert.NotNil(t, logger)
		logger.Sync()
	})

	t.Run("InvalidMode", func(t *testing.T) {
		_, err := New("invalid_mode", "info", io.Discard)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid logging mode")
	})

	t.Run("InvalidLevel", func(t *testing.T) {
		_, err := New("production", "invalid_level", io.Discard)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid logging level")
	})

	t.Run("DevelopmentWarnLevelIgnoresInfo", func(t *testing.T) {
		logger, err := New("development", "warn", io.Discard)
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("DevelopmentModeIsColoredConsole", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New("development", "info", &buf)
		require.NoError(t, err)

		logger.Info("installing package", zap.String("package", "ripgrep"))
		require.NoError(t, logger.Sync())

		line := buf.String()
		assert.Contains(t, line, "installing package")
		assert.Contains(t, line, `{"package": "ripgrep"}`)
		assert.False(t, strings.HasPrefix(line, "{"))
		assert.Contains(t, line, "\x1b[", "level is colored")
	})

	t.Run("ValidLevels", func(t *testing.T) {
		levels := []string{"debug", "info", "warn", "error", "dpanic", "panic", "fatal"}
		for _, level := range levels {
			t.Run(level, func(t *testing.T) {
				logger, err := New("production", level, io.Discard)
				require.NoError(t, err)
				assert.NotNil(t, logger)
				logger.Sync()
			})
		}
	})
}

func TestLoggerOutput(t *testing.T) {
	t.Run("ProductionWritesJSONToWriter", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New("production", "info", &buf)
		require.NoError(t, err)

		logger.Info("sandbox acquired", zap.String("root", "/tmp/tryrun-x"))
		require.NoError(t, logger.Sync())

		assert.Contains(t, buf.String(), `"msg":"sandbox acquired"`)
		assert.Contains(t, buf.String(), `"root":"/tmp/tryrun-x"`)
		assert.Contains(t, buf.String(), `"timestamp":`)
	})

	t.Run("LevelFiltersWriterOutput", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New("production", "warn", &buf)
		require.NoError(t, err)

		logger.Info("hidden")
		logger.Warn("shown")
		require.NoError(t, logger.Sync())

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("InvalidMode", func(t *testing.T) {
		_, err := New("verbose", "info", &bytes.Buffer{})
		assert.Error(t, err)
	})
}

func TestLoggerNewFromConfig(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		cfg := &config.Config{
			Logging: config.LoggingConfig{
				Mode:  "development",
				Level: "debug",
			},
		}
		var buf bytes.Buffer
		logger, err := NewFromConfig(cfg, &buf)
		require.NoError(t, err)

		logger.Debug("validating package name")
		require.NoError(t, logger.Sync())
		assert.Contains(t, buf.String(), "validating package name")
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		cfg := &config.Config{
			Logging: config.LoggingConfig{
				Mode:  "invalid_mode",
				Level: "info",
			},
		}
		_, err := NewFromConfig(cfg, &bytes.Buffer{})
		assert.Error(t, err)
	})
}
