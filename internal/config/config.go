// Package config defines the configuration schema for valet.
//
// Configuration lives at ~/.valet/config.json with camelCase keys. Secrets
// (engine API keys) may instead come from the environment or a .env file.
package config

import (
	"os"
	"path/filepath"
)

// ContextConfig tunes the persistent context store.
type ContextConfig struct {
	File          string `json:"file"`          // backing store path
	MaxHistory    int    `json:"maxHistory"`    // turns retained on save
	SessionWindow int    `json:"sessionWindow"` // bounded recent-turn window
	AutosaveEvery int    `json:"autosaveEvery"` // turns between autosaves
}

// RemoteConfig tunes the remote capability registry.
type RemoteConfig struct {
	BaseURL          string `json:"baseUrl"`
	DiscoveryPath    string `json:"discoveryPath"`
	HealthTimeoutS   int    `json:"healthTimeoutSeconds"`
	DiscoverTimeoutS int    `json:"discoverTimeoutSeconds"`
	InvokeTimeoutS   int    `json:"invokeTimeoutSeconds"`
}

// ReminderConfig tunes the reminder store and scheduler.
type ReminderConfig struct {
	File      string `json:"file"`
	IntervalS int    `json:"intervalSeconds"` // scheduler cycle
	WindowS   int    `json:"windowSeconds"`   // firing window after fire_at
}

// EngineConfig holds reasoning-engine connection settings.
type EngineConfig struct {
	APIKey      string  `json:"apiKey"`
	APIBase     string  `json:"apiBase"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
}

// ToolsConfig tunes the built-in local capabilities.
type ToolsConfig struct {
	ExecTimeoutS  int `json:"execTimeoutSeconds"`
	FetchMaxChars int `json:"fetchMaxChars"`
}

// GatewayConfig tunes the state-feed server.
type GatewayConfig struct {
	Port int `json:"port"`
}

// Config is the root configuration object.
type Config struct {
	Context  ContextConfig  `json:"context"`
	Remote   RemoteConfig   `json:"remote"`
	Reminder ReminderConfig `json:"reminder"`
	Engine   EngineConfig   `json:"engine"`
	Tools    ToolsConfig    `json:"tools"`
	Gateway  GatewayConfig  `json:"gateway"`
}

// DefaultConfig returns the configuration used when no file exists yet.
func DefaultConfig() Config {
	return Config{
		Context: ContextConfig{
			File:          filepath.Join(DataDir(), "context_memory.json"),
			MaxHistory:    100,
			SessionWindow: 5,
			AutosaveEvery: 5,
		},
		Remote: RemoteConfig{
			BaseURL:          "http://localhost:8000",
			DiscoveryPath:    "/tools/list",
			HealthTimeoutS:   5,
			DiscoverTimeoutS: 10,
			InvokeTimeoutS:   30,
		},
		Reminder: ReminderConfig{
			File:      filepath.Join(DataDir(), "reminders.json"),
			IntervalS: 30,
			WindowS:   60,
		},
		Engine: EngineConfig{
			APIBase:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			MaxTokens:   2048,
			Temperature: 0,
		},
		Tools: ToolsConfig{
			ExecTimeoutS:  60,
			FetchMaxChars: 50000,
		},
		Gateway: GatewayConfig{Port: 18920},
	}
}

// EngineAPIKey resolves the engine API key, preferring the config file and
// falling back to the environment (VALET_API_KEY, then OPENAI_API_KEY).
func (c *Config) EngineAPIKey() string {
	if c.Engine.APIKey != "" {
		return c.Engine.APIKey
	}
	if k := os.Getenv("VALET_API_KEY"); k != "" {
		return k
	}
	return os.Getenv("OPENAI_API_KEY")
}

// ConfigPath returns the default configuration file path: ~/.valet/config.json.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.json")
}

// DataDir returns the valet data directory: ~/.valet.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".valet"
	}
	return filepath.Join(home, ".valet")
}
