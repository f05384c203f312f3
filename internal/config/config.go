// internal/config/config.go
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/finlayconn-ai/webhooks-for-tella/internal/webhook"
)

// Config is the top-level application configuration.
type Config struct {
	// WebhookURL is the delivery endpoint for extraction records.
	WebhookURL string `yaml:"webhook_url"`

	// Webhook holds the legacy nested form. Populated only when an old
	// config file is read; migrated into WebhookURL on load and dropped
	// on save.
	Webhook *LegacyWebhook `yaml:"webhook,omitempty"`

	UserAgent string `yaml:"user_agent,omitempty"`
	LogLevel  string `yaml:"log_level,omitempty"`

	API        APIConfig        `yaml:"api,omitempty"`
	Session    SessionConfig    `yaml:"session,omitempty"`
	Archive    ArchiveConfig    `yaml:"archive,omitempty"`
	Monitoring MonitoringConfig `yaml:"monitoring,omitempty"`
}

// LegacyWebhook is the retired nested webhook block.
type LegacyWebhook struct {
	BaseURL string `yaml:"base_url"`
}

// APIConfig tunes the structured-source client.
type APIConfig struct {
	BaseURL           string  `yaml:"base_url,omitempty"`
	DocumentPath      string  `yaml:"document_path,omitempty"`
	TranscriptionPath string  `yaml:"transcription_path,omitempty"`
	TimeoutSeconds    int     `yaml:"timeout_seconds,omitempty"`
	RateLimit         float64 `yaml:"rate_limit,omitempty"`
	RateBurst         int     `yaml:"rate_burst,omitempty"`
}

// SessionConfig tunes the lifecycle tracker.
type SessionConfig struct {
	DebounceMs    int `yaml:"debounce_ms,omitempty"`
	RetryAttempts int `yaml:"retry_attempts,omitempty"`
	RetryDelayMs  int `yaml:"retry_delay_ms,omitempty"`
}

// ArchiveConfig tunes the local SQLite archive. An empty path disables it.
type ArchiveConfig struct {
	Path       string `yaml:"path,omitempty"`
	Table      string `yaml:"table,omitempty"`
	OnConflict string `yaml:"on_conflict,omitempty"`
}

// MonitoringConfig tunes the metrics endpoint.
type MonitoringConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Listen  string `yaml:"listen,omitempty"`
}

// Timeout returns the API client timeout as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Debounce returns the tracker debounce window as a duration.
func (s SessionConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMs) * time.Millisecond
}

// RetryDelay returns the extraction retry delay as a duration.
func (s SessionConfig) RetryDelay() time.Duration {
	return time.Duration(s.RetryDelayMs) * time.Millisecond
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration filename cannot be empty")
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes. Environment variables
// in ${VAR} form are substituted before parsing; legacy layouts are
// migrated in place.
func LoadFromBytes(data []byte) (*Config, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("configuration data cannot be empty")
	}

	expanded := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	config.Migrate()
	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadFromReader loads configuration from an io.Reader.
func LoadFromReader(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %w", err)
	}

	return LoadFromBytes(data)
}

// Migrate rewrites retired config layouts into the current one. The flat
// webhook_url wins when both forms are present; the legacy block is always
// dropped so a subsequent save writes only the current layout.
func (c *Config) Migrate() bool {
	migrated := false
	if c.Webhook != nil {
		if c.WebhookURL == "" && c.Webhook.BaseURL != "" {
			c.WebhookURL = c.Webhook.BaseURL
			migrated = true
		}
		c.Webhook = nil
	}
	return migrated
}

func applyDefaults(config *Config) {
	if config.UserAgent == "" {
		config.UserAgent = "webhooks-for-tella/1.0"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	if config.API.BaseURL == "" {
		config.API.BaseURL = "https://www.tella.tv"
	}
	if config.API.TimeoutSeconds == 0 {
		config.API.TimeoutSeconds = 15
	}

	if config.Session.DebounceMs == 0 {
		config.Session.DebounceMs = 300
	}
	if config.Session.RetryAttempts == 0 {
		config.Session.RetryAttempts = 5
	}
	if config.Session.RetryDelayMs == 0 {
		config.Session.RetryDelayMs = 500
	}

	if config.Archive.Path != "" && config.Archive.Table == "" {
		config.Archive.Table = "extractions"
	}

	if config.Monitoring.Enabled && config.Monitoring.Listen == "" {
		config.Monitoring.Listen = ":9090"
	}
}

// Validate checks the configuration for usability.
func (c *Config) Validate() error {
	if c.WebhookURL != "" {
		if err := webhook.ValidateURL(c.WebhookURL); err != nil {
			return fmt.Errorf("webhook_url: %w", err)
		}
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url cannot be empty")
	}
	if c.Session.DebounceMs < 0 {
		return fmt.Errorf("session.debounce_ms cannot be negative")
	}
	if c.Session.RetryAttempts < 0 {
		return fmt.Errorf("session.retry_attempts cannot be negative")
	}
	switch c.Archive.OnConflict {
	case "", "replace", "append":
	default:
		return fmt.Errorf("archive.on_conflict must be 'replace' or 'append', got %q", c.Archive.OnConflict)
	}
	return nil
}

// SaveToFile writes the configuration back as YAML in the current layout.
func SaveToFile(config *Config, filename string) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	return nil
}
