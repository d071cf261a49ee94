package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Oracles.ListLimit != 100 {
		t.Errorf("expected default list limit 100, got %d", cfg.Oracles.ListLimit)
	}
	if cfg.Summary.MaxMarkets != 6 {
		t.Errorf("expected default max markets 6, got %d", cfg.Summary.MaxMarkets)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[general]
log_level = "debug"

[oracles]
base_url = "http://localhost:9999"
timeout = "5s"

[social]
scopes = ["tweet.write"]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Oracles.BaseURL != "http://localhost:9999" {
		t.Errorf("base_url not applied: %s", cfg.Oracles.BaseURL)
	}
	if cfg.Oracles.Timeout.Duration != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.Oracles.Timeout.Duration)
	}
	if len(cfg.Social.Scopes) != 1 || cfg.Social.Scopes[0] != "tweet.write" {
		t.Errorf("scopes not applied: %v", cfg.Social.Scopes)
	}
	// Untouched keys keep their defaults.
	if cfg.Social.State != "auth" {
		t.Errorf("expected default state, got %q", cfg.Social.State)
	}
	if cfg.General.SlogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.General.SlogLevel())
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[oracles]\ntimeout = \"soon\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestLoadSecrets_FromEnvFile(t *testing.T) {
	t.Setenv("ORACLES_AGENT_ID", "")
	t.Setenv("ORACLES_API_KEY", "")
	t.Setenv("TWITTER_CLIENT_ID", "")
	t.Setenv("TWITTER_CLIENT_SECRET", "")
	os.Unsetenv("ORACLES_AGENT_ID")
	os.Unsetenv("ORACLES_API_KEY")
	os.Unsetenv("TWITTER_CLIENT_ID")
	os.Unsetenv("TWITTER_CLIENT_SECRET")

	path := filepath.Join(t.TempDir(), ".env")
	data := "# creds\nORACLES_AGENT_ID=agent-1\nORACLES_API_KEY=ap_secret\nTWITTER_CLIENT_ID=cid\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSecrets(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.AgentID != "agent-1" || s.APIKey != "ap_secret" {
		t.Errorf("unexpected oracles secrets: %+v", s)
	}
	if err := s.RequireOracles(); err != nil {
		t.Errorf("expected oracles credentials present: %v", err)
	}
	if err := s.RequireClient(false); err != nil {
		t.Errorf("expected client id present: %v", err)
	}
	if err := s.RequireClient(true); err == nil {
		t.Error("expected missing client secret to be reported")
	}
}

func TestLoadSecrets_MissingEnvFile(t *testing.T) {
	t.Setenv("ORACLES_AGENT_ID", "from-env")
	s, err := LoadSecrets(filepath.Join(t.TempDir(), ".env"))
	if err != nil {
		t.Fatal(err)
	}
	if s.AgentID != "from-env" {
		t.Errorf("expected process env to be used, got %q", s.AgentID)
	}
}

func TestRequireOracles_Missing(t *testing.T) {
	if err := (Secrets{AgentID: "a"}).RequireOracles(); err == nil {
		t.Error("expected error without api key")
	}
}
