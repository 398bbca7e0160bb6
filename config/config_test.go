package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if !cfg.Browser.Headless {
		t.Fatal("default should be headless")
	}
	if cfg.Browser.NavigationTimeout() != 30*time.Second {
		t.Fatalf("navigation timeout: %v", cfg.Browser.NavigationTimeout())
	}
	if cfg.Inspector.DocumentRetries != 3 {
		t.Fatalf("document retries: %d", cfg.Inspector.DocumentRetries)
	}
	if cfg.Inspector.SettleAfterScroll() != 100*time.Millisecond {
		t.Fatalf("settle after scroll: %v", cfg.Inspector.SettleAfterScroll())
	}
	if cfg.Inspector.SettleAfterZoom() != 200*time.Millisecond {
		t.Fatalf("settle after zoom: %v", cfg.Inspector.SettleAfterZoom())
	}
	if cfg.Audit.Enabled {
		t.Fatal("audit should default off")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inspect.yaml")
	data := `
browser:
  remote_url: "ws://127.0.0.1:9222/devtools/browser/abc"
  headless: false
http:
  listen: ":8089"
audit:
  enabled: true
  db_path: "audit.db"
log_level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Browser.RemoteURL != "ws://127.0.0.1:9222/devtools/browser/abc" {
		t.Fatalf("remote_url: %q", cfg.Browser.RemoteURL)
	}
	if cfg.Browser.Headless {
		t.Fatal("headless should be overridden to false")
	}
	// Untouched fields keep defaults.
	if cfg.Inspector.DocumentRetries != 3 {
		t.Fatalf("document retries: %d", cfg.Inspector.DocumentRetries)
	}
	if cfg.HTTP.Listen != ":8089" {
		t.Fatalf("http listen: %q", cfg.HTTP.Listen)
	}
	if !cfg.Audit.Enabled || cfg.Audit.DBPath != "audit.db" {
		t.Fatalf("audit: %+v", cfg.Audit)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log_level: %q", cfg.LogLevel)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate_Rejections(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("bad log_level should fail")
	}

	cfg = Default()
	cfg.Audit.Enabled = true
	cfg.Audit.DBPath = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("audit without db_path should fail")
	}

	cfg = Default()
	cfg.Inspector.DocumentRetries = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative retries should fail")
	}
}
