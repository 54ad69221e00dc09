package core

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogEnv is the environment variable consulted when no log level is configured.
const LogEnv = "QRS_LOG"

var logger atomic.Pointer[zap.Logger]

func init() {
	l, err := NewLogger("", "")
	if err != nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

// Logger returns the logger used by sessions and interceptors.
func Logger() *zap.Logger {
	return logger.Load()
}

// SetLogger replaces the package logger. A nil logger disables logging.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

// NewLogger builds a logger for the given level ("debug" or "info").
// An empty level falls back to QRS_LOG; if that is empty too a no-op logger is returned.
// When file is set, output goes to a rotated file instead of stderr.
func NewLogger(level, file string) (*zap.Logger, error) {
	if level == "" {
		level = os.Getenv(LogEnv)
	}
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return zap.NewNop(), nil
	}

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
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var sink zapcore.WriteSyncer
	if file != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	} else {
		sink = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), sink, zapLevel)
	return zap.New(core).Named("qrs"), nil
}
