package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Config holds all configuration for the triage TUI.
type Config struct {
	// ServerURL is the base URL of the triage backend.
	ServerURL string `json:"server_url"`

	// RequestTimeout bounds each backend call (duration string, e.g. "30s").
	RequestTimeout string `json:"request_timeout"`

	// LogFile is where debug logging goes when enabled.
	LogFile string `json:"log_file"`

	// Theme is the YAML theme file name (relative to the config dir or
	// absolute). Empty selects the built-in theme.
	Theme string `json:"theme"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		ServerURL:      "http://127.0.0.1:8000",
		RequestTimeout: "30s",
		LogFile:        filepath.Join(DefaultConfigDir(), "triage.log"),
	}
}

// DefaultConfigDir returns ~/.config/triage.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".triage"
	}
	return filepath.Join(home, ".config", "triage")
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// LoadConfig reads a JSON config file and fills unset fields with defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultConfig().ServerURL
	}
	if cfg.RequestTimeout == "" {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	return cfg, nil
}

// SaveConfig writes the config as indented JSON, creating the directory if
// needed.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// GetRequestTimeout parses RequestTimeout, falling back to 30s.
func (c *Config) GetRequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
