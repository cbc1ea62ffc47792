package env

import (
	"fmt"
	"log/slog"
	"os"

	"taskboard/internal/config"
)

const logLevelEnvName = "LOG_LEVEL"

type logConfig struct {
	level slog.Level
}

func NewLogConfig() (config.LogConfig, error) {
	level := slog.LevelInfo
	if raw := os.Getenv(logLevelEnvName); len(raw) != 0 {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", raw, err)
		}
	}
	return &logConfig{level: level}, nil
}

func (cfg *logConfig) Level() slog.Level {
	return cfg.level
}
