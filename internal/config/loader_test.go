package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Context.SessionWindow != 5 || cfg.Reminder.IntervalS != 30 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Remote.BaseURL != "http://localhost:8000" {
		t.Errorf("unexpected remote base %q", cfg.Remote.BaseURL)
	}
}

func TestLoad_CorruptFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("corrupt config must not fail startup: %v", err)
	}
	if cfg.Reminder.WindowS != 60 {
		t.Errorf("expected defaults after fallback, got %+v", cfg.Reminder)
	}
}

func TestLoad_PartialFileKeepsDefaultsForRest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"gateway":{"port":9999}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Gateway.Port != 9999 {
		t.Errorf("override lost: %+v", cfg.Gateway)
	}
	if cfg.Context.MaxHistory != 100 {
		t.Errorf("untouched section lost its default: %+v", cfg.Context)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.Engine.Model = "gpt-4o"
	if err := Save(&cfg, path); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Engine.Model != "gpt-4o" {
		t.Errorf("round trip lost engine model: %q", got.Engine.Model)
	}
}

func TestEngineAPIKey_Precedence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.APIKey = "from-file"
	t.Setenv("VALET_API_KEY", "from-valet-env")
	t.Setenv("OPENAI_API_KEY", "from-openai-env")

	if k := cfg.EngineAPIKey(); k != "from-file" {
		t.Errorf("config file key must win, got %q", k)
	}

	cfg.Engine.APIKey = ""
	if k := cfg.EngineAPIKey(); k != "from-valet-env" {
		t.Errorf("VALET_API_KEY must beat OPENAI_API_KEY, got %q", k)
	}

	t.Setenv("VALET_API_KEY", "")
	if k := cfg.EngineAPIKey(); k != "from-openai-env" {
		t.Errorf("expected OPENAI_API_KEY fallback, got %q", k)
	}
}

func TestLoadPersona_MissingIsDefault(t *testing.T) {
	p := LoadPersona(filepath.Join(t.TempDir(), "persona.yaml"))
	if p.DisplayName != "Sir" {
		t.Errorf("expected default display name, got %q", p.DisplayName)
	}
}

func TestLoadPersona_ReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.yaml")
	data := "displayName: Boss\npreferences:\n  tone: dry\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	p := LoadPersona(path)
	if p.DisplayName != "Boss" {
		t.Errorf("unexpected display name %q", p.DisplayName)
	}
	if p.Preferences["tone"] != "dry" {
		t.Errorf("unexpected preferences %v", p.Preferences)
	}
}
