// Package config loads the inspect-mcp YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full inspect-mcp configuration.
type Config struct {
	Browser   BrowserConfig   `yaml:"browser"`
	Inspector InspectorConfig `yaml:"inspector"`
	HTTP      HTTPConfig      `yaml:"http"`
	Audit     AuditConfig     `yaml:"audit"`
	LogLevel  string          `yaml:"log_level"` // debug | info | warn | error
}

// BrowserConfig controls the Chrome connection.
type BrowserConfig struct {
	RemoteURL           string `yaml:"remote_url"` // ws:// DevTools URL; empty launches locally
	Headless            bool   `yaml:"headless"`
	NavigationTimeoutMS int    `yaml:"navigation_timeout_ms"`
}

// InspectorConfig tunes the inspection pipeline.
type InspectorConfig struct {
	DocumentRetries     int `yaml:"document_retries"`
	RetryBackoffMS      int `yaml:"retry_backoff_ms"`
	SettleAfterScrollMS int `yaml:"settle_after_scroll_ms"`
	SettleAfterZoomMS   int `yaml:"settle_after_zoom_ms"`
}

// HTTPConfig enables the streamable-HTTP transport alongside stdio.
type HTTPConfig struct {
	Listen string `yaml:"listen"` // e.g. ":8089"; empty disables HTTP
}

// AuditConfig controls the SQLite inspection audit trail.
type AuditConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DBPath        string `yaml:"db_path"`
	RetentionDays int    `yaml:"retention_days"`
}

// Default returns sane defaults: local headless Chrome, stdio only, audit off.
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:            true,
			NavigationTimeoutMS: 30_000,
		},
		Inspector: InspectorConfig{
			DocumentRetries:     3,
			RetryBackoffMS:      500,
			SettleAfterScrollMS: 100,
			SettleAfterZoomMS:   200,
		},
		Audit: AuditConfig{
			DBPath:        "inspect_audit.db",
			RetentionDays: 30,
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file, merged over Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that values are sane.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log_level %q", c.LogLevel)
	}
	if c.Browser.NavigationTimeoutMS < 0 {
		return fmt.Errorf("navigation_timeout_ms must be >= 0")
	}
	if c.Inspector.DocumentRetries < 0 {
		return fmt.Errorf("document_retries must be >= 0")
	}
	if c.Audit.Enabled && c.Audit.DBPath == "" {
		return fmt.Errorf("audit.db_path is required when audit is enabled")
	}
	return nil
}

// NavigationTimeout returns the browser navigation timeout as a duration.
func (c *BrowserConfig) NavigationTimeout() time.Duration {
	return time.Duration(c.NavigationTimeoutMS) * time.Millisecond
}

// RetryBackoff returns the document retry backoff unit as a duration.
func (c *InspectorConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMS) * time.Millisecond
}

// SettleAfterScroll returns the post-scroll settle delay as a duration.
func (c *InspectorConfig) SettleAfterScroll() time.Duration {
	return time.Duration(c.SettleAfterScrollMS) * time.Millisecond
}

// SettleAfterZoom returns the post-zoom settle delay as a duration.
func (c *InspectorConfig) SettleAfterZoom() time.Duration {
	return time.Duration(c.SettleAfterZoomMS) * time.Millisecond
}
