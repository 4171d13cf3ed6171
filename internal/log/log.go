// Package log provides the process-wide structured logger.
package log

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey string

const loggerKey ctxKey = "logger"

var (
	defaultLogger *zap.Logger
	once          sync.Once
)

// WithLogger returns a new context carrying l for downstream call chains.
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx, or the package default.
// Never returns nil.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return Get()
	}
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return Get()
}

// Get returns the singleton default logger, building it from NEXUS_APP_MODE
// on first use.
func Get() *zap.Logger {
	once.Do(func() {
		l, err := New(os.Getenv("NEXUS_APP_MODE"))
		if err != nil {
			defaultLogger = zap.NewExample()
			defaultLogger.Warn("failed to initialize logger, using fallback example logger")
			return
		}
		defaultLogger = l
	})
	if defaultLogger == nil {
		defaultLogger = zap.NewNop()
	}
	return defaultLogger
}

// New builds a *zap.Logger for the given run mode: "prod" gets JSON
// encoding at info level, anything else gets a console encoder at debug
// level, matching the gateway's dev/prod split.
func New(mode string) (*zap.Logger, error) {
	var cfg zap.Config
	if mode == "prod" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return cfg.Build()
}

// SetDefault overrides the package default logger, used by the app
// bootstrap once the real configuration is known.
func SetDefault(l *zap.Logger) {
	defaultLogger = l
}
