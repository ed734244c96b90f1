// Package config loads console settings from environment variables with the
// PANTRY_ prefix, optionally overlaid by a YAML file named via
// PANTRY_CONFIG_FILE. File values win over environment values so a deployed
// config file is authoritative.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all settings for the console process.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	LogLevel  string          `yaml:"log_level"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	RateLimitPerSec float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig selects and configures the record backend.
type StorageConfig struct {
	// Engine is sqlite, remote, or memory.
	Engine string `yaml:"engine"`
	// DBPath is the sqlite database file.
	DBPath string `yaml:"db_path"`
	// RemoteURL is the upstream record API base URL for the remote engine.
	RemoteURL string `yaml:"remote_url"`
	// RemoteTimeout bounds each upstream request.
	RemoteTimeout time.Duration `yaml:"remote_timeout"`
}

// AnalyticsConfig tunes the funnel source.
type AnalyticsConfig struct {
	// FunnelEventsURL points at the measured event pipeline; empty means
	// stage counts are estimated from the signup record set.
	FunnelEventsURL string `yaml:"funnel_events_url"`
}

// Load builds the config from environment variables, then overlays the YAML
// file named by PANTRY_CONFIG_FILE when one is set.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("PANTRY_HOST", "127.0.0.1"),
			Port:            getEnvInt("PANTRY_PORT", 7070),
			RateLimitPerSec: getEnvFloat("PANTRY_RATE_LIMIT_PER_SEC", 50),
			RateLimitBurst:  getEnvInt("PANTRY_RATE_LIMIT_BURST", 100),
			ShutdownTimeout: getEnvDuration("PANTRY_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Storage: StorageConfig{
			Engine:        getEnv("PANTRY_STORAGE_ENGINE", "sqlite"),
			DBPath:        getEnv("PANTRY_DB_PATH", "./console.db"),
			RemoteURL:     getEnv("PANTRY_REMOTE_URL", ""),
			RemoteTimeout: getEnvDuration("PANTRY_REMOTE_TIMEOUT", 10*time.Second),
		},
		Analytics: AnalyticsConfig{
			FunnelEventsURL: getEnv("PANTRY_FUNNEL_EVENTS_URL", ""),
		},
		LogLevel: getEnv("PANTRY_LOG_LEVEL", "info"),
	}

	if path := os.Getenv("PANTRY_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Engine {
	case "sqlite", "memory":
	case "remote":
		if c.Storage.RemoteURL == "" {
			return fmt.Errorf("config: remote engine requires PANTRY_REMOTE_URL")
		}
	default:
		return fmt.Errorf("config: unknown storage engine %q", c.Storage.Engine)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	return nil
}

// Addr is the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
