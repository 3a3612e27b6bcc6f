package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Service  string
	Env      string
	Level    string
	Encoding string
}

// New builds a zap logger tagged with the service name and environment.
// Unknown levels fall back to info.
func New(cfg Config) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Env == "dev" || cfg.Env == "development" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.Encoding != "" {
		zapCfg.Encoding = cfg.Encoding
	}

	log, err := zapCfg.Build()
	if err != nil {
		log = zap.NewNop()
	}

	return log.With(
		zap.String("service", cfg.Service),
		zap.String("env", cfg.Env),
	)
}
