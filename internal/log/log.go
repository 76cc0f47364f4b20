package log

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	mu         sync.RWMutex
	logger     *zap.SugaredLogger
	loggerOnce sync.Once
	level      = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// initLogger builds the default stderr console logger with ISO8601 timestamps.
func initLogger() {
	loggerOnce.Do(func() {
		enc := zap.NewDevelopmentEncoderConfig()
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		enc.EncodeLevel = zapcore.CapitalLevelEncoder
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), level)

		mu.Lock()
		if logger == nil {
			logger = zap.New(core).Sugar()
		}
		mu.Unlock()
	})
}

// ParseLevel maps a config string onto a Level. Unknown values give INFO.
func ParseLevel(s string) Level {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn:
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

func SetLevel(l Level) {
	switch l {
	case LevelDebug:
		level.SetLevel(zapcore.DebugLevel)
	case LevelWarn:
		level.SetLevel(zapcore.WarnLevel)
	case LevelError:
		level.SetLevel(zapcore.ErrorLevel)
	default:
		level.SetLevel(zapcore.InfoLevel)
	}
}

// Use replaces the backend, e.g. with an observer core in tests.
func Use(l *zap.Logger) {
	initLogger()
	mu.Lock()
	logger = l.Sugar()
	mu.Unlock()
}

// Sync flushes buffered entries.
func Sync() {
	_ = current().Sync()
}

func Debug(msg string, kv ...any) {
	current().Debugw(msg, kv...)
}

func Info(msg string, kv ...any) {
	current().Infow(msg, kv...)
}

func Warn(msg string, kv ...any) {
	current().Warnw(msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	current().Errorw(msg, extended...)
}

func current() *zap.SugaredLogger {
	initLogger()
	mu.RLock()
	defer mu.RUnlock()
	return logger
}
