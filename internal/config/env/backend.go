package env

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"taskboard/internal/config"
)

const (
	authBackendURLEnvName = "AUTH_BACKEND_URL"
	taskBackendURLEnvName = "TASK_BACKEND_URL"
	backendTimeoutEnvName = "BACKEND_TIMEOUT"

	defaultAuthBackendURL = "http://localhost:8001"
	defaultTaskBackendURL = "http://localhost:8000"
	defaultBackendTimeout = 10 * time.Second
)

type backendConfig struct {
	authURL string
	taskURL string
	timeout time.Duration
}

func NewBackendConfig() (config.BackendConfig, error) {
	authURL, err := baseURL(authBackendURLEnvName, defaultAuthBackendURL)
	if err != nil {
		return nil, err
	}

	taskURL, err := baseURL(taskBackendURLEnvName, defaultTaskBackendURL)
	if err != nil {
		return nil, err
	}

	timeout := defaultBackendTimeout
	if raw := os.Getenv(backendTimeoutEnvName); len(raw) != 0 {
		timeout, err = time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid backend timeout: %w", err)
		}
	}

	return &backendConfig{
		authURL: authURL,
		taskURL: taskURL,
		timeout: timeout,
	}, nil
}

// baseURL reads an absolute http(s) URL, trailing slashes removed
func baseURL(envName, fallback string) (string, error) {
	raw := os.Getenv(envName)
	if len(raw) == 0 {
		raw = fallback
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid %s: %w", envName, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid %s: scheme must be http or https", envName)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid %s: host is empty", envName)
	}

	return strings.TrimRight(raw, "/"), nil
}

func (cfg *backendConfig) AuthURL() string {
	return cfg.authURL
}

func (cfg *backendConfig) TaskURL() string {
	return cfg.taskURL
}

func (cfg *backendConfig) Timeout() time.Duration {
	return cfg.timeout
}
