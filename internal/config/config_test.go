package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultRules(t *testing.T) {
	r := DefaultRules()
	if r.BoostMultiplier != 15 || r.CatchUpCap != 43200*time.Second {
		t.Errorf("rules = %+v", r)
	}
	if r.BuildingQueueLimit != 2 || r.ResearchQueueLimit != 1 {
		t.Errorf("queue limits = %d/%d, want 2/1", r.BuildingQueueLimit, r.ResearchQueueLimit)
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coresim.yaml")
	doc := `
port: 9090
tick_interval: 250ms
rules:
  boost_multiplier: 3
  catch_up_cap: 1h
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 || cfg.TickInterval != 250*time.Millisecond {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Rules.BoostMultiplier != 3 || cfg.Rules.CatchUpCap != time.Hour {
		t.Errorf("rules = %+v", cfg.Rules)
	}
	// Unset keys keep their defaults.
	if cfg.Rules.ResearchQueueLimit != 1 || cfg.AutosaveTicks != 60 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestEnvOverrides(t *testing.T) {
	env := map[string]string{
		"CORESIM_DB":        "/tmp/x.db",
		"CORESIM_PORT":      "7000",
		"CORESIM_SEED":      "99",
		"CORESIM_TICK_MS":   "500",
		"CORESIM_ADMIN_KEY": "secret",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	if cfg.DBPath != "/tmp/x.db" || cfg.Port != 7000 || cfg.Seed != 99 || cfg.AdminKey != "secret" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.TickInterval != 500*time.Millisecond {
		t.Errorf("tick interval = %s", cfg.TickInterval)
	}

	env["CORESIM_PORT"] = "eighty"
	if err := cfg.applyEnv(lookup); err == nil {
		t.Error("expected error for non-numeric port")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
