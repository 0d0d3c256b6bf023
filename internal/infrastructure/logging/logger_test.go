package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"ERROR", zapcore.ErrorLevel, false},
		{"critical", zapcore.DPanicLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidLevel(t *testing.T) {
	for _, level := range Levels {
		assert.True(t, ValidLevel(level), level)
	}
	assert.False(t, ValidLevel("trace"))
}

func TestNewNoneIsNop(t *testing.T) {
	logger, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.FatalLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.ErrorIs(t, err, ErrUnknownLevel)
}

func TestNewWritesAtThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.log")
	logger, err := New(Config{Level: "warning", OutputPaths: []string{path}})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("EOF reached before process exit", zap.Int("pid", 42))
	logger.DPanic("critical still logs")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"EOF reached before process exit"`)
	assert.Contains(t, out, `"pid":42`)
	assert.Contains(t, out, "critical still logs")
}

func TestDevelopmentEncoderWithoutTerminal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.log")
	logger, err := New(Config{Level: "debug", Development: true, OutputPaths: []string{path}})
	require.NoError(t, err)

	logger.Debug("Start process")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DEBUG")
	assert.NotContains(t, string(data), "\x1b[")
}
