package env

import (
	"errors"
	"os"

	"taskboard/internal/config"
)

const (
	dsnName = "PG_DSN"
)

// ErrNoDSN - PG_DSN is not set, the session cache stays in memory
var ErrNoDSN = errors.New("pg dsn not found")

type pgConfig struct {
	dsn string
}

func NewPGConfig() (config.PGConfig, error) {
	dsn := os.Getenv(dsnName)
	if len(dsn) == 0 {
		return nil, ErrNoDSN
	}

	return &pgConfig{
		dsn: dsn,
	}, nil
}

func (cfg *pgConfig) DSN() string {
	return cfg.dsn
}
