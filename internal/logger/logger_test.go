package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit_Levels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "invalid"} {
		t.Run("Level_"+level, func(t *testing.T) {
			Init(level)
			assert.NotNil(t, Get())
		})
	}
}

func TestInit_InvalidLevelDefaultsToInfo(t *testing.T) {
	Init("invalid-level")
	assert.False(t, Get().Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, Get().Desugar().Core().Enabled(zapcore.InfoLevel))
}

func TestLogMethods_KeyValuePairs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Init("info") })

	Debug("debug message", "key", "value")
	Info("info message", "job", "deploy-tests")
	Warn("warn message")
	Error("error message", "error", "boom")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "info message", entries[1].Message)
	assert.Equal(t, "deploy-tests", entries[1].ContextMap()["job"])
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, "boom", entries[3].ContextMap()["error"])
}
