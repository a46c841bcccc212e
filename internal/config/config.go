// Package config provides configuration management for Librarium.
//
// Config file locations (priority order):
//  1. $LIBRARIUM_CONFIG
//  2. ./librarium.yaml
//  3. ~/.config/librarium/config.yaml
//  4. /etc/librarium/config.yaml
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration document.
type Config struct {
	Oracle   OracleConfig   `yaml:"oracle"`
	Problem  ProblemConfig  `yaml:"problem"`
	Engine   EngineConfig   `yaml:"engine"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// OracleConfig identifies the exploration service and the agent.
type OracleConfig struct {
	BaseURL string   `yaml:"base_url"`
	AgentID string   `yaml:"agent_id"`
	Timeout Duration `yaml:"timeout"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML parses duration strings like "5m" or "30s"
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration as a string
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// ProblemConfig names the instance to reconstruct.
type ProblemConfig struct {
	Name  string `yaml:"name"`
	Rooms int    `yaml:"rooms"`
}

// EngineConfig bounds the reconstruction run.
type EngineConfig struct {
	MaxIterations int  `yaml:"max_iterations"`
	MaxQueries    int  `yaml:"max_queries"`
	AllowRepair   bool `yaml:"allow_repair"`
}

// DatabaseConfig locates the observation log.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Oracle.BaseURL == "" {
		c.Oracle.BaseURL = "https://31pwr5t6ij.execute-api.eu-west-2.amazonaws.com"
	}
	if c.Oracle.Timeout == 0 {
		c.Oracle.Timeout = Duration(60 * time.Second)
	}
	if c.Problem.Rooms == 0 {
		c.Problem.Rooms = 6
	}
	if c.Engine.MaxIterations == 0 {
		c.Engine.MaxIterations = 200
	}
	if c.Database.Path == "" {
		c.Database.Path = "./librarium.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks values that cannot be defaulted away.
func (c *Config) Validate() error {
	if c.Problem.Rooms < 1 {
		return fmt.Errorf("problem.rooms must be at least 1, got %d", c.Problem.Rooms)
	}
	if c.Engine.MaxIterations < 1 {
		return fmt.Errorf("engine.max_iterations must be at least 1, got %d", c.Engine.MaxIterations)
	}
	if c.Engine.MaxQueries < 0 {
		return fmt.Errorf("engine.max_queries must not be negative, got %d", c.Engine.MaxQueries)
	}
	return nil
}
