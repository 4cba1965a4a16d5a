package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("HISTORY_ENABLED", "")
	t.Setenv("DEFAULT_CITY", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if cfg.Weather.DefaultCity != "臺北市" {
		t.Fatalf("unexpected default city: %s", cfg.Weather.DefaultCity)
	}
	if cfg.History.Enabled {
		t.Fatal("history endpoints should be disabled by default")
	}
	if cfg.AI.Timeout != 30*time.Second {
		t.Fatalf("unexpected ai timeout: %s", cfg.AI.Timeout)
	}
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: "9000"
line:
  channel_secret: file-secret
  channel_access_token: file-token
ai:
  model: file-model
  temperature: 0.5
weather:
  api_key: cwa-key
history:
  enabled: true
  token: s3cret
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("PORT", "")
	t.Setenv("HISTORY_ENABLED", "")
	t.Setenv("ARK_TEMPERATURE", "")
	t.Setenv("LINE_CHANNEL_SECRET", "env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if cfg.LINE.ChannelSecret != "env-secret" {
		t.Fatalf("env should override file, got %s", cfg.LINE.ChannelSecret)
	}
	if cfg.LINE.ChannelAccessToken != "file-token" {
		t.Fatalf("unexpected token: %s", cfg.LINE.ChannelAccessToken)
	}
	if cfg.AI.Temperature == nil || *cfg.AI.Temperature != 0.5 {
		t.Fatalf("unexpected temperature: %v", cfg.AI.Temperature)
	}
	if !cfg.History.Enabled || cfg.History.Token != "s3cret" {
		t.Fatalf("unexpected history config: %+v", cfg.History)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate err: %v", err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":            "80 80",
		"HISTORY_ENABLED": "maybe",
		"AI_TIMEOUT":      "soon",
		"ARK_MAX_TOKENS":  "many",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(""); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}

func TestValidateRequiresLINECredentials(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing LINE credentials")
	}
}
