// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFromBytes(t *testing.T) {
	configYAML := `
webhook_url: "https://hooks.example.com/tella"
log_level: "debug"
api:
  timeout_seconds: 5
`

	config, err := LoadFromBytes([]byte(configYAML))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	if config.WebhookURL != "https://hooks.example.com/tella" {
		t.Errorf("webhook_url = %q", config.WebhookURL)
	}
	if config.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", config.LogLevel)
	}
	if config.API.Timeout() != 5*time.Second {
		t.Errorf("api timeout = %v, want 5s", config.API.Timeout())
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	config, err := LoadFromBytes([]byte(`webhook_url: "https://hooks.example.com/x"`))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	if config.API.BaseURL != "https://www.tella.tv" {
		t.Errorf("api.base_url default = %q", config.API.BaseURL)
	}
	if config.API.TimeoutSeconds != 15 {
		t.Errorf("api.timeout_seconds default = %d, want 15", config.API.TimeoutSeconds)
	}
	if config.Session.DebounceMs != 300 {
		t.Errorf("session.debounce_ms default = %d, want 300", config.Session.DebounceMs)
	}
	if config.Session.RetryAttempts != 5 {
		t.Errorf("session.retry_attempts default = %d, want 5", config.Session.RetryAttempts)
	}
}

func TestLoadMigratesLegacyWebhookBlock(t *testing.T) {
	configYAML := `
webhook:
  base_url: "https://hooks.example.com/legacy"
`

	config, err := LoadFromBytes([]byte(configYAML))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	if config.WebhookURL != "https://hooks.example.com/legacy" {
		t.Errorf("webhook_url = %q, want the migrated legacy value", config.WebhookURL)
	}
	if config.Webhook != nil {
		t.Error("legacy webhook block survived migration")
	}
}

func TestMigrationPrefersFlatKey(t *testing.T) {
	configYAML := `
webhook_url: "https://hooks.example.com/current"
webhook:
  base_url: "https://hooks.example.com/stale"
`

	config, err := LoadFromBytes([]byte(configYAML))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	if config.WebhookURL != "https://hooks.example.com/current" {
		t.Errorf("webhook_url = %q, want the flat key to win", config.WebhookURL)
	}
}

func TestSaveDropsLegacyBlock(t *testing.T) {
	config, err := LoadFromBytes([]byte("webhook:\n  base_url: \"https://hooks.example.com/legacy\"\n"))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := SaveToFile(config, path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	saved := string(data)
	if strings.Contains(saved, "base_url: https://hooks.example.com/legacy") && strings.Contains(saved, "webhook:\n") {
		t.Errorf("saved config still carries the legacy block:\n%s", saved)
	}
	if !strings.Contains(saved, "webhook_url: https://hooks.example.com/legacy") {
		t.Errorf("saved config lost the migrated URL:\n%s", saved)
	}

	// The rewritten file must load cleanly.
	if _, err := LoadFromFile(path); err != nil {
		t.Errorf("reloading the migrated config failed: %v", err)
	}
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("HOOK_HOST", "hooks.example.com")

	config, err := LoadFromBytes([]byte(`webhook_url: "https://${HOOK_HOST}/tella"`))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	if config.WebhookURL != "https://hooks.example.com/tella" {
		t.Errorf("webhook_url = %q, want env-expanded host", config.WebhookURL)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad webhook url", `webhook_url: "ftp://nope"`},
		{"bad on_conflict", "webhook_url: \"https://h.example.com/x\"\narchive:\n  path: a.db\n  on_conflict: upsert\n"},
		{"negative debounce", "session:\n  debounce_ms: -5\n"},
		{"unparseable yaml", "webhook_url: [unclosed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFromBytes([]byte(tt.yaml)); err == nil {
				t.Error("LoadFromBytes accepted invalid config")
			}
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadFromFile accepted a missing file")
	}
}
