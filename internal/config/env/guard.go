package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"taskboard/internal/config"

	"gopkg.in/yaml.v3"
)

const configFileEnvName = "CONFIG_FILE"

// DefaultConfigFile is read when CONFIG_FILE is not set
const DefaultConfigFile = "config.yaml"

type fileConfig struct {
	Guard guardConfig `yaml:"guard"`
}

type guardConfig struct {
	Protected []string `yaml:"protected_prefixes"`
	Pages     []string `yaml:"auth_pages"`
	Login     string   `yaml:"login_path"`
	Dashboard string   `yaml:"dashboard_path"`
}

// ConfigFilePath returns CONFIG_FILE or the default config.yaml
func ConfigFilePath() string {
	if p := os.Getenv(configFileEnvName); len(p) != 0 {
		return p
	}
	return DefaultConfigFile
}

// NewGuardConfigFromYAML reads the guard section of the config file.
// A missing file yields the default rules.
func NewGuardConfigFromYAML(path string) (config.GuardConfig, error) {
	var file fileConfig

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	g := file.Guard
	if len(g.Protected) == 0 {
		g.Protected = []string{"/dashboard"}
	}
	if len(g.Pages) == 0 {
		g.Pages = []string{"/auth/login", "/auth/register"}
	}
	if g.Login == "" {
		g.Login = "/auth/login"
	}
	if g.Dashboard == "" {
		g.Dashboard = "/dashboard"
	}

	if err := g.validate(); err != nil {
		return nil, err
	}

	return &g, nil
}

func (g *guardConfig) validate() error {
	paths := append(append([]string{g.Login, g.Dashboard}, g.Protected...), g.Pages...)
	for _, p := range paths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("guard path %q must start with /", p)
		}
	}
	return nil
}

func (g *guardConfig) ProtectedPrefixes() []string {
	return g.Protected
}

func (g *guardConfig) AuthPages() []string {
	return g.Pages
}

func (g *guardConfig) LoginPath() string {
	return g.Login
}

func (g *guardConfig) DashboardPath() string {
	return g.Dashboard
}
