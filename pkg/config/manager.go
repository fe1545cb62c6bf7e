package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Manager loads, validates, and persists engine configurations
type Manager struct{}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{}
}

// LoadConfig loads configuration from a JSON file on top of the defaults.
// An empty path returns the validated defaults. Fields absent from the file
// keep their default values.
func (m *Manager) LoadConfig(configFile string) (*EngineConfig, error) {
	cfg := NewDefaultEngineConfig()

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("could not parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves a configuration to file in the nested JSON format
func (m *Manager) SaveConfig(cfg *EngineConfig, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	return os.WriteFile(path, data, 0644)
}

// Package-level convenience functions

// LoadConfig loads a configuration using a default manager
func LoadConfig(configFile string) (*EngineConfig, error) {
	return NewManager().LoadConfig(configFile)
}

// SaveConfig saves a configuration using a default manager
func SaveConfig(cfg *EngineConfig, path string) error {
	return NewManager().SaveConfig(cfg, path)
}
