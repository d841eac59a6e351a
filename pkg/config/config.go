// Package config loads engine settings from the project's .hexad directory.
// YAML takes priority over TOML when both exist; missing files fall back to
// defaults, so a bare checkout runs without any configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Model configures the completion backend for the specialist roles.
type Model struct {
	// Provider selects the backend: "openrouter", "ollama", or "" for the
	// deterministic templates.
	Provider string `yaml:"provider" toml:"provider"`
	BaseURL  string `yaml:"base_url" toml:"base_url"`
	Name     string `yaml:"name" toml:"name"`

	// APIKeyEnv names the environment variable holding the key. The key
	// itself never lives in the config file.
	APIKeyEnv string `yaml:"api_key_env" toml:"api_key_env"`
}

// Engine configures the coordination loop.
type Engine struct {
	MaxCycles       int `yaml:"max_cycles" toml:"max_cycles"`
	CycleDelayMs    int `yaml:"cycle_delay_ms" toml:"cycle_delay_ms"`
	WorkerTimeoutMs int `yaml:"worker_timeout_ms" toml:"worker_timeout_ms"`
}

// Trajectory configures run persistence.
type Trajectory struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	DBPath  string `yaml:"db_path" toml:"db_path"`
}

// Config is the full engine configuration.
type Config struct {
	Model      Model      `yaml:"model" toml:"model"`
	Engine     Engine     `yaml:"engine" toml:"engine"`
	Trajectory Trajectory `yaml:"trajectory" toml:"trajectory"`
	LogLevel   string     `yaml:"log_level" toml:"log_level"`
}

// CycleDelay returns the configured inter-cycle pause.
func (c Config) CycleDelay() time.Duration {
	return time.Duration(c.Engine.CycleDelayMs) * time.Millisecond
}

// WorkerTimeout returns the configured per-worker cycle deadline.
func (c Config) WorkerTimeout() time.Duration {
	return time.Duration(c.Engine.WorkerTimeoutMs) * time.Millisecond
}

// APIKey resolves the backend key from the configured environment variable.
func (c Config) APIKey() string {
	if c.Model.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Model.APIKeyEnv)
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Model: Model{
			APIKeyEnv: "HEXAD_API_KEY",
		},
		Engine: Engine{
			MaxCycles:       100,
			CycleDelayMs:    100,
			WorkerTimeoutMs: 120000,
		},
		Trajectory: Trajectory{
			Enabled: true,
		},
		LogLevel: "info",
	}
}

// Load reads configuration from projectRoot/.hexad, preferring config.yaml
// over config.toml. A missing directory or file yields Default(); a file
// that exists but fails to parse is an error.
func Load(projectRoot string) (Config, error) {
	yamlPath := filepath.Join(projectRoot, ".hexad", "config.yaml")
	if data, err := os.ReadFile(yamlPath); err == nil {
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", yamlPath, err)
		}
		return withDefaults(cfg), nil
	}

	tomlPath := filepath.Join(projectRoot, ".hexad", "config.toml")
	if data, err := os.ReadFile(tomlPath); err == nil {
		var cfg Config
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", tomlPath, err)
		}
		return withDefaults(cfg), nil
	}

	return Default(), nil
}

// withDefaults fills unset fields from Default. Enabled flags are taken as
// written: a file that omits trajectory.enabled disables recording.
func withDefaults(cfg Config) Config {
	def := Default()
	if cfg.Model.APIKeyEnv == "" {
		cfg.Model.APIKeyEnv = def.Model.APIKeyEnv
	}
	if cfg.Engine.MaxCycles == 0 {
		cfg.Engine.MaxCycles = def.Engine.MaxCycles
	}
	if cfg.Engine.CycleDelayMs == 0 {
		cfg.Engine.CycleDelayMs = def.Engine.CycleDelayMs
	}
	if cfg.Engine.WorkerTimeoutMs == 0 {
		cfg.Engine.WorkerTimeoutMs = def.Engine.WorkerTimeoutMs
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	return cfg
}
