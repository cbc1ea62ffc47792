package env

import (
	"os"
	"strings"

	"taskboard/internal/config"
)

const corsOriginsEnvName = "CORS_ALLOWED_ORIGINS"

type corsConfig struct {
	origins []string
}

func NewCORSConfig() config.CORSConfig {
	var origins []string
	for _, o := range strings.Split(os.Getenv(corsOriginsEnvName), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &corsConfig{origins: origins}
}

func (cfg *corsConfig) AllowedOrigins() []string {
	return cfg.origins
}
