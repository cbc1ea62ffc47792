package config

import (
	"log/slog"
	"time"

	"taskboard/internal/model"

	"github.com/joho/godotenv"
)

func Load(path string) error {
	err := godotenv.Load(path)
	if err != nil {
		return err
	}
	return nil
}

type HTTPConfig interface {
	Address() string
}

type BackendConfig interface {
	AuthURL() string
	TaskURL() string
	Timeout() time.Duration
}

type PGConfig interface {
	DSN() string
}

type SessionConfig interface {
	RefreshPolicy() model.RefreshPolicy
	CookieSecure() bool
}

type CORSConfig interface {
	AllowedOrigins() []string
}

type LogConfig interface {
	Level() slog.Level
}

type GuardConfig interface {
	ProtectedPrefixes() []string
	AuthPages() []string
	LoginPath() string
	DashboardPath() string
}
