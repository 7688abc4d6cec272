package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/dicecalc/internal/config"
)

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: format})
		require.NoError(t, err, "format %q should be valid", format)
		assert.NotNil(t, logger)
	}
}

func TestNewLogger_LevelIsApplied(t *testing.T) {
	tests := []struct {
		level   string
		enabled zapcore.Level
		skipped zapcore.Level
	}{
		{"debug", zap.DebugLevel, zap.DebugLevel - 1},
		{"info", zap.InfoLevel, zap.DebugLevel},
		{"warn", zap.WarnLevel, zap.InfoLevel},
		{"error", zap.ErrorLevel, zap.WarnLevel},
	}
	for _, tc := range tests {
		t.Run(tc.level, func(t *testing.T) {
			logger, err := NewLogger(config.LoggingConfig{Level: tc.level, Format: "json"})
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tc.enabled))
			assert.False(t, logger.Core().Enabled(tc.skipped))
		})
	}
}

func TestNewLogger_AppliesOptions(t *testing.T) {
	var hooked int
	logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json"},
		zap.Hooks(func(zapcore.Entry) error { hooked++; return nil }))
	require.NoError(t, err)
	logger.Info("roll")
	assert.Equal(t, 1, hooked)
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "trace", Format: "json"})
	assert.Error(t, err)
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
