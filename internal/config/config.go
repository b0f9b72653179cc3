// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ankiforge/ankiforge/internal/api"
)

// Env variable names recognized by ApplyEnv. They are read after the
// file so deployments can override a checked-in config.
const (
	EnvBackendURL    = "ANKIFORGE_BACKEND_URL"
	EnvHistoryDBPath = "ANKIFORGE_HISTORY_DB"
	EnvPageSize      = "ANKIFORGE_PAGE_SIZE"
)

type Config struct {
	BackendURL            string `yaml:"backend_url"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	PageSize              int    `yaml:"page_size"`
	DebounceMillis        int    `yaml:"debounce_millis"`
	HealthIntervalMillis  int    `yaml:"health_interval_millis"`
	HistoryDBPath         string `yaml:"history_db_path"`
	DefaultDeck           string `yaml:"default_deck"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a config usable without any file on disk.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.BackendURL == "" {
		c.BackendURL = api.DefaultBaseURL
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = 15
	}
	if c.PageSize <= 0 {
		c.PageSize = 25
	}
	if c.DebounceMillis <= 0 {
		c.DebounceMillis = 450
	}
	if c.HealthIntervalMillis <= 0 {
		c.HealthIntervalMillis = 6000
	}
	if c.HistoryDBPath == "" {
		c.HistoryDBPath = defaultHistoryPath()
	}
}

// ApplyEnv overlays recognized environment variables onto the config.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvBackendURL); v != "" {
		c.BackendURL = v
	}
	if v := os.Getenv(EnvHistoryDBPath); v != "" {
		c.HistoryDBPath = v
	}
	if v := os.Getenv(EnvPageSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid %s value %q", EnvPageSize, v)
		}
		c.PageSize = n
	}
	return nil
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

func (c *Config) HealthInterval() time.Duration {
	return time.Duration(c.HealthIntervalMillis) * time.Millisecond
}

func defaultHistoryPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "ankiforge-history.db"
	}
	return filepath.Join(base, "ankiforge", "history.db")
}
