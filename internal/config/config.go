package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	envConfigPath     = "UPTIMECTL_CONFIG"
	envAPIKey         = "UPTIMEROBOT_API_KEY"
	DefaultConfigPath = "/etc/uptimectl/config.yaml"
)

type Config struct {
	API   APIConfig   `yaml:"api"`
	Apply ApplyConfig `yaml:"apply"`
}

type APIConfig struct {
	Key               string `yaml:"key"`
	URL               string `yaml:"url"`
	TimeoutSec        int    `yaml:"timeout_sec"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

type ApplyConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// Default returns the configuration used when no config file exists. The API
// key must still come from the environment for the result to validate.
func Default() Config {
	var cfg Config
	cfg.applyEnv()
	return cfg
}

func Load(ctx context.Context, path string) (Config, error) {
	var cfg Config

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("open config %q: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func LoadFromEnv(ctx context.Context) (Config, error) {
	path := os.Getenv(envConfigPath)
	if path == "" {
		path = DefaultConfigPath
	}
	return Load(ctx, path)
}

// applyEnv lets the environment override the credential so it never has to
// live in a file on disk.
func (c *Config) applyEnv() {
	if key := strings.TrimSpace(os.Getenv(envAPIKey)); key != "" {
		c.API.Key = key
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.API.Key) == "" {
		return fmt.Errorf("api key is required (set api.key or %s)", envAPIKey)
	}
	return nil
}

// Timeout returns the configured HTTP timeout, defaulted when unset.
func (c Config) Timeout() time.Duration {
	if c.API.TimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.API.TimeoutSec) * time.Second
}

// Concurrency returns the apply fan-out limit, defaulted when unset.
func (c Config) Concurrency() int {
	if c.Apply.Concurrency <= 0 {
		return 1
	}
	return c.Apply.Concurrency
}

// RequestsPerMinute returns the remote API request budget, defaulted when
// unset. The free-plan limit is 10 requests per minute.
func (c Config) RequestsPerMinute() int {
	if c.API.RequestsPerMinute <= 0 {
		return 10
	}
	return c.API.RequestsPerMinute
}
