package env

import (
	"fmt"
	"os"
	"strconv"

	"taskboard/internal/config"
	"taskboard/internal/model"
)

const (
	refreshPolicyEnvName = "SESSION_REFRESH_FAILURE_POLICY"
	cookieSecureEnvName  = "COOKIE_SECURE"
)

type sessionConfig struct {
	refreshPolicy model.RefreshPolicy
	cookieSecure  bool
}

func NewSessionConfig() (config.SessionConfig, error) {
	policy := model.RefreshPolicy(os.Getenv(refreshPolicyEnvName))
	switch policy {
	case "":
		policy = model.RefreshKeepCached
	case model.RefreshKeepCached, model.RefreshDiscardCached:
	default:
		return nil, fmt.Errorf("invalid refresh failure policy %q (supported: keep, discard)", policy)
	}

	secure := false
	if raw := os.Getenv(cookieSecureEnvName); len(raw) != 0 {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", cookieSecureEnvName, err)
		}
		secure = v
	}

	return &sessionConfig{
		refreshPolicy: policy,
		cookieSecure:  secure,
	}, nil
}

func (cfg *sessionConfig) RefreshPolicy() model.RefreshPolicy {
	return cfg.refreshPolicy
}

func (cfg *sessionConfig) CookieSecure() bool {
	return cfg.cookieSecure
}
