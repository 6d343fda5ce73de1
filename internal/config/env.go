package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

type envOverrides struct {
	AnimationLimit *int   `env:"ANIMOVERRIDE_ANIMATION_LIMIT"`
	LogLevel       string `env:"ANIMOVERRIDE_LOG_LEVEL"`
	DataDir        string `env:"ANIMOVERRIDE_DATA_DIR"`
	DatabaseDSN    string `env:"ANIMOVERRIDE_DATABASE_DSN"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var overrides envOverrides
	if err := ParseEnv(&overrides); err != nil {
		return err
	}
	if overrides.AnimationLimit != nil {
		cfg.AnimationLimit = *overrides.AnimationLimit
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.DataDir != "" {
		cfg.DataDir = overrides.DataDir
	}
	if overrides.DatabaseDSN != "" {
		cfg.Database.DSN = overrides.DatabaseDSN
	}
	return nil
}

func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %q", level)
	}
}
