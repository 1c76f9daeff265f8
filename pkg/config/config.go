// Package config loads pulseboard-engine configuration from config.yaml with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for pulseboard-engine.
// Configuration can come from a YAML file (config.yaml) or environment
// variables. Environment variables always override YAML values.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8799"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// DataDir holds the SQLite database. Created on startup if missing.
	DataDir string `yaml:"data_dir" env:"DATA_DIR" env-default:"data"`

	// LLMTimeout bounds each chat, embedding, and model-list call to
	// Ollama. Model pulls are exempt since downloads can take minutes.
	LLMTimeout time.Duration `yaml:"llm_timeout" env:"LLM_TIMEOUT" env-default:"120s"`

	// SettingsCacheTTL bounds how stale the cached AppSettings may be.
	SettingsCacheTTL time.Duration `yaml:"settings_cache_ttl" env:"SETTINGS_CACHE_TTL" env-default:"30s"`

	// Classifier worker: drafts that still lack a suggestion are re-classified
	// server-side once they have been idle for ClassifyDelay.
	ClassifyWorkerEnabled bool          `yaml:"classify_worker_enabled" env:"CLASSIFY_WORKER_ENABLED" env-default:"true"`
	ClassifyInterval      time.Duration `yaml:"classify_interval" env:"CLASSIFY_INTERVAL" env-default:"1m"`
	ClassifyDelay         time.Duration `yaml:"classify_delay" env:"CLASSIFY_DELAY" env-default:"5m"`
}

// Load reads configuration from path with environment variable overrides.
// The version parameter is injected at build time and set on the returned
// Config. When the file does not exist, environment variables and defaults
// alone are used.
func Load(path, version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ClassifyInterval <= 0 {
		return fmt.Errorf("classify_interval must be positive")
	}
	if c.ClassifyDelay < 0 {
		return fmt.Errorf("classify_delay must not be negative")
	}
	if c.SettingsCacheTTL < 0 {
		return fmt.Errorf("settings_cache_ttl must not be negative")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.BindAddr + ":" + c.Port
}
