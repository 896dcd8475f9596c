package app

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"feedsync/internal/infra/telemetry"
)

// LoggingConfig configures logging wiring. A non-nil Logger is used as is.
type LoggingConfig struct {
	Logger *zap.Logger
	Level  string
}

// Logging bundles the root logger.
type Logging struct {
	Logger *zap.Logger
}

// BuildLogger creates the process logger. "debug" switches to the
// development encoder.
func BuildLogger(level string) (*zap.Logger, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		level = "info"
	}
	var parsed zapcore.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if parsed == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	return cfg.Build()
}

// NewLogging constructs logging dependencies.
func NewLogging(cfg LoggingConfig) (Logging, error) {
	logger := cfg.Logger
	if logger == nil {
		if cfg.Level == "" {
			logger = zap.NewNop()
		} else {
			built, err := BuildLogger(cfg.Level)
			if err != nil {
				return Logging{}, err
			}
			logger = built
		}
	}
	logger = logger.With(zap.String(telemetry.FieldLogSource, telemetry.LogSourceCore))
	return Logging{Logger: logger}, nil
}

// NewLogger returns the logger from a Logging bundle.
func NewLogger(logging Logging) *zap.Logger {
	return logging.Logger
}
