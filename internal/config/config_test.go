package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quotewatch/internal/models"
)

func TestLoadMissingFileWritesTemplateAndDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.BatchInterval != time.Second {
		t.Fatalf("BatchInterval = %v, want 1s", cfg.Engine.BatchInterval)
	}
	if cfg.Engine.BulkCap != 5000 || cfg.Engine.TickCap != 2000 {
		t.Fatalf("caps = %d/%d, want 5000/2000", cfg.Engine.BulkCap, cfg.Engine.TickCap)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Fatalf("template not written: %v", err)
	}
}

func TestLoadParsesAlertRules(t *testing.T) {
	dir := t.TempDir()
	content := `
[feed]
symbols = ["BTC/USD"]

[[alerts]]
id = "btc-breakout"
user = "local"
name = "BTC above 70k"
cooldown = "90s"
  [[alerts.conditions]]
  type = "price"
  operator = "crosses_above"
  symbol = "BTC/USD"
  value = 70000.0
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(cfg.Alerts))
	}
	rule := cfg.Alerts[0]
	if rule.Cooldown != 90*time.Second {
		t.Fatalf("cooldown = %v, want 90s", rule.Cooldown)
	}

	alert := rule.ToAlert()
	if !alert.Active || alert.Triggered {
		t.Fatal("configured alert must start active and untriggered")
	}
	if alert.UserID != "local" || len(alert.Conditions) != 1 {
		t.Fatalf("converted alert = %+v", alert)
	}
	c := alert.Conditions[0]
	if c.Type != models.ConditionPrice || c.Operator != models.OperatorCrossesAbove || c.Value != 70000 {
		t.Fatalf("converted condition = %+v", c)
	}
}

func TestLoadRejectsBadRules(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			"unknown operator",
			`[[alerts]]
id = "a1"
user = "local"
  [[alerts.conditions]]
  type = "price"
  operator = "jumps_over"
  symbol = "BTC/USD"
  value = 1.0
`,
			"unknown operator",
		},
		{
			"missing conditions",
			`[[alerts]]
id = "a1"
user = "local"
`,
			"at least one condition",
		},
		{
			"bad timeframe",
			`[feed]
timeframe = "3m"
`,
			"not a supported timeframe",
		},
		{
			"zero cleanup max age",
			`[engine]
cleanup_max_age = "0s"
`,
			"cleanup_max_age must be positive",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(tc.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(dir)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err = %v, want %q", err, tc.wantErr)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("QUOTEWATCH_LOG_LEVEL", "debug")
	t.Setenv("QUOTEWATCH_DB_PATH", "/tmp/override.db")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Storage.DBPath != "/tmp/override.db" {
		t.Fatalf("DBPath = %q", cfg.Storage.DBPath)
	}
}
