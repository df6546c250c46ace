package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the hog.yaml runtime configuration.
type Config struct {
	// Timeout bounds a single VM execution. Defaults to DefaultTimeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// MaxCallDepth bounds the number of active user function frames.
	MaxCallDepth int `yaml:"max_call_depth,omitempty"`

	// SupportedFunctions lists host-provided native functions scripts may call
	// (e.g. fetch, postHogCapture). Anything else is rejected at compile time.
	SupportedFunctions []string `yaml:"supported_functions,omitempty"`

	// CacheSize is the compiled bytecode cache size in bytes. Zero disables caching.
	CacheSize int `yaml:"cache_size,omitempty"`

	// TeamDB is the SQLite DSN backing the run() builtin. Empty disables queries.
	TeamDB string `yaml:"team_db,omitempty"`

	// TeamID scopes queries issued through run().
	TeamID int64 `yaml:"team_id,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`
}

// Default returns the configuration used when no hog.yaml is given.
func Default() *Config {
	return &Config{
		Timeout:      DefaultTimeout,
		MaxCallDepth: DefaultMaxCallDepth,
		LogLevel:     "info",
	}
}

// LoadConfig reads and parses a hog.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses hog.yaml content from bytes.
// The path argument is used only for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and fills zero values with defaults.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxCallDepth < 0 {
		return fmt.Errorf("max_call_depth must not be negative, got %d", c.MaxCallDepth)
	}
	if c.MaxCallDepth == 0 {
		c.MaxCallDepth = DefaultMaxCallDepth
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative, got %d", c.CacheSize)
	}
	switch c.LogLevel {
	case "":
		c.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	seen := make(map[string]bool, len(c.SupportedFunctions))
	for _, name := range c.SupportedFunctions {
		if name == "" {
			return fmt.Errorf("supported_functions contains an empty name")
		}
		if seen[name] {
			return fmt.Errorf("supported_functions lists %q twice", name)
		}
		seen[name] = true
	}
	return nil
}

// SupportedSet returns SupportedFunctions as a lookup set.
func (c *Config) SupportedSet() map[string]bool {
	set := make(map[string]bool, len(c.SupportedFunctions))
	for _, name := range c.SupportedFunctions {
		set[name] = true
	}
	return set
}
