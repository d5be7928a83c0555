// Package config provides configuration loading and management for semkb.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/semkb/format"
	"github.com/c360studio/semkb/kb"
	"github.com/c360studio/semkb/source"
)

// Config represents the complete semkb configuration
type Config struct {
	Log   LogConfig   `yaml:"log"`
	KB    KBConfig    `yaml:"kb"`
	Fetch FetchConfig `yaml:"fetch"`
	Watch WatchConfig `yaml:"watch"`
	NATS  NATSConfig  `yaml:"nats"`
	Neo4j Neo4jConfig `yaml:"neo4j"`
}

// LogConfig configures slog output
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`
	// Format is text or json
	Format string `yaml:"format"`
}

// KBConfig configures the knowledge-base accumulator
type KBConfig struct {
	// Strategy is reparent (default) or merge
	Strategy string `yaml:"strategy"`
	// HistorySize bounds the in-memory load history
	HistorySize int `yaml:"history_size"`
}

// FetchConfig configures file and remote document loading
type FetchConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxBytes     int64         `yaml:"max_bytes"`
	UserAgent    string        `yaml:"user_agent"`
}

// WatchConfig configures the directory watcher
type WatchConfig struct {
	// Include lists doublestar patterns a changed file must match
	Include []string `yaml:"include"`
	// ExcludeDirs lists directory names that are never watched
	ExcludeDirs []string `yaml:"exclude_dirs"`
	// Debounce delays reloads while files are still changing
	Debounce time.Duration `yaml:"debounce"`
	// MetricsAddr serves /metrics when non-empty (e.g. ":9090")
	MetricsAddr string `yaml:"metrics_addr"`
}

// NATSConfig configures the optional NATS connection
type NATSConfig struct {
	// URL is the NATS server URL (empty = no NATS)
	URL string `yaml:"url"`
	// Catalog records every load attempt in the documents KV bucket
	Catalog bool `yaml:"catalog"`
	// Publish forwards accepted graphs to the graph ingest stream
	Publish bool `yaml:"publish"`
}

// Neo4jConfig configures the optional Neo4j projection
type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	fetch := source.DefaultFetchConfig()
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		KB: KBConfig{
			Strategy:    string(kb.DefaultStrategy),
			HistorySize: 100,
		},
		Fetch: FetchConfig{
			Timeout:      fetch.Timeout,
			MaxAttempts:  fetch.MaxAttempts,
			InitialDelay: fetch.InitialDelay,
			MaxBytes:     fetch.MaxBytes,
			UserAgent:    fetch.UserAgent,
		},
		Watch: WatchConfig{
			Include:     defaultInclude(),
			ExcludeDirs: []string{".git", "node_modules", "vendor"},
			Debounce:    500 * time.Millisecond,
		},
		Neo4j: Neo4jConfig{
			Username: "neo4j",
		},
	}
}

// defaultInclude matches every extension the format registry knows.
func defaultInclude() []string {
	var out []string
	for _, token := range format.Tokens() {
		out = append(out, "**/*"+token)
	}
	return out
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error (got %q)", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json (got %q)", c.Log.Format)
	}
	if _, err := kb.ParseStrategy(c.KB.Strategy); err != nil {
		return fmt.Errorf("kb.strategy: %w", err)
	}
	if c.KB.HistorySize < 0 {
		return fmt.Errorf("kb.history_size must not be negative")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	if c.Fetch.MaxAttempts <= 0 {
		return fmt.Errorf("fetch.max_attempts must be positive")
	}
	if len(c.Watch.Include) == 0 {
		return fmt.Errorf("watch.include must list at least one pattern")
	}
	for _, p := range c.Watch.Include {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("watch.include: invalid pattern %q", p)
		}
	}
	if (c.NATS.Catalog || c.NATS.Publish) && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required when catalog or publish is enabled")
	}
	return nil
}

// Source returns the fetch settings in the form the source package takes.
func (c FetchConfig) Source() source.FetchConfig {
	return source.FetchConfig{
		Timeout:      c.Timeout,
		MaxAttempts:  c.MaxAttempts,
		InitialDelay: c.InitialDelay,
		MaxBytes:     c.MaxBytes,
		UserAgent:    c.UserAgent,
	}
}

// Source returns watcher settings for dir.
func (c WatchConfig) Source(dir string) source.WatchConfig {
	return source.WatchConfig{
		Dir:         dir,
		Include:     c.Include,
		ExcludeDirs: c.ExcludeDirs,
		Debounce:    c.Debounce,
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}

	// KB
	if other.KB.Strategy != "" {
		c.KB.Strategy = other.KB.Strategy
	}
	if other.KB.HistorySize != 0 {
		c.KB.HistorySize = other.KB.HistorySize
	}

	// Fetch
	if other.Fetch.Timeout != 0 {
		c.Fetch.Timeout = other.Fetch.Timeout
	}
	if other.Fetch.MaxAttempts != 0 {
		c.Fetch.MaxAttempts = other.Fetch.MaxAttempts
	}
	if other.Fetch.InitialDelay != 0 {
		c.Fetch.InitialDelay = other.Fetch.InitialDelay
	}
	if other.Fetch.MaxBytes != 0 {
		c.Fetch.MaxBytes = other.Fetch.MaxBytes
	}
	if other.Fetch.UserAgent != "" {
		c.Fetch.UserAgent = other.Fetch.UserAgent
	}

	// Watch
	if len(other.Watch.Include) > 0 {
		c.Watch.Include = other.Watch.Include
	}
	if len(other.Watch.ExcludeDirs) > 0 {
		c.Watch.ExcludeDirs = other.Watch.ExcludeDirs
	}
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Watch.MetricsAddr != "" {
		c.Watch.MetricsAddr = other.Watch.MetricsAddr
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Catalog {
		c.NATS.Catalog = true
	}
	if other.NATS.Publish {
		c.NATS.Publish = true
	}

	// Neo4j
	if other.Neo4j.URI != "" {
		c.Neo4j.URI = other.Neo4j.URI
	}
	if other.Neo4j.Username != "" {
		c.Neo4j.Username = other.Neo4j.Username
	}
	if other.Neo4j.Password != "" {
		c.Neo4j.Password = other.Neo4j.Password
	}
	if other.Neo4j.Database != "" {
		c.Neo4j.Database = other.Neo4j.Database
	}
}
