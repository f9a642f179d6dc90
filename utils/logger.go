package utils

import (
	"log"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// InitializeLogger builds the process logger. Production config at the given
// level; anything that isn't production gets the colored development encoder.
func InitializeLogger(env, level string) {
	loggerOnce.Do(func() {
		var cfg zap.Config
		if env == "production" {
			cfg = zap.NewProductionConfig()
		} else {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}

		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			parsed = zapcore.InfoLevel
		}
		cfg.Level = zap.NewAtomicLevelAt(parsed)

		logger, err = cfg.Build()
		if err != nil {
			log.Fatalf("failed to initialize logger: %v", err)
		}
	})
}

// GetLogger returns the process logger, building a development one if
// InitializeLogger never ran (tests).
func GetLogger() *zap.Logger {
	if logger == nil {
		InitializeLogger("development", "debug")
	}
	return logger
}
