package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger *zap.SugaredLogger
)

// Init initializes the logger with the given log level
func Init(level string) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true

	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}

	Set(l)
}

// Set replaces the process logger. Tests use it with zaptest/observer.
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l.Sugar()
}

// Get returns the logger instance
func Get() *zap.SugaredLogger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l == nil {
		Init("info")
		mu.RLock()
		l = logger
		mu.RUnlock()
	}
	return l
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Get().Sync()
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Get().Debugw(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Get().Infow(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Get().Warnw(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Get().Errorw(msg, args...)
}
