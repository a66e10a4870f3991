package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Persona seeds the user profile on first run: how the assistant addresses
// the user and any standing preferences. Edited by hand, so it lives in YAML
// next to the config file.
type Persona struct {
	DisplayName string         `yaml:"displayName"`
	Preferences map[string]any `yaml:"preferences"`
}

// PersonaPath returns the persona file path: ~/.valet/persona.yaml.
func PersonaPath() string {
	return filepath.Join(DataDir(), "persona.yaml")
}

// LoadPersona reads the persona file. A missing or malformed file yields the
// default persona; personalisation is never a startup failure.
func LoadPersona(path string) Persona {
	def := Persona{DisplayName: "Sir", Preferences: map[string]any{}}
	if path == "" {
		path = PersonaPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return def
	}
	var p Persona
	if err := yaml.Unmarshal(data, &p); err != nil {
		return def
	}
	if p.DisplayName == "" {
		p.DisplayName = def.DisplayName
	}
	if p.Preferences == nil {
		p.Preferences = map[string]any{}
	}
	return p
}
