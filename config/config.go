// Package config provides configuration management for WireGuard Manager.
// It handles loading, saving, and managing application settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yllada/wg-manager/common"
)

// Config represents the application configuration.
// All settings are persisted to a YAML file in the user's config directory.
type Config struct {
	// WireGuardDir overrides the platform default WireGuard config directory.
	WireGuardDir string `yaml:"wireguard_dir,omitempty"`
	// RefreshSeconds is the peer status refresh interval while an
	// interface is up.
	RefreshSeconds int `yaml:"refresh_seconds"`
	// EscalationCommand is prepended to wg-quick invocations that need
	// root ("sudo", "doas", or "pkexec").
	EscalationCommand string `yaml:"escalation_command"`
	// FileLogging enables logging to a rotated file in addition to stderr.
	FileLogging bool `yaml:"file_logging"`
	// History enables the sqlite event journal.
	History bool `yaml:"history"`
}

// DefaultConfig returns the default configuration.
// These are sensible defaults for most users.
func DefaultConfig() *Config {
	return &Config{
		RefreshSeconds:    int(common.StatusRefreshInterval / time.Second),
		EscalationCommand: "sudo",
		FileLogging:       true,
		History:           true,
	}
}

// RefreshInterval returns the refresh interval as a duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshSeconds) * time.Second
}

// Load loads the configuration from the config file.
// If the file doesn't exist, it creates one with default values.
func Load() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	// If it doesn't exist, return default configuration
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.Save(); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("error opening configuration: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true) // Strict validation: reject unknown fields

	var config Config
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("error parsing configuration: %w", err)
	}

	config.validate()

	return &config, nil
}

// validate coerces out-of-range values back to their defaults.
func (c *Config) validate() {
	if c.RefreshInterval() < common.MinRefreshInterval {
		c.RefreshSeconds = int(common.StatusRefreshInterval / time.Second)
	}
	if !common.StringInSlice(c.EscalationCommand, common.AllowedEscalationCommands) {
		c.EscalationCommand = "sudo"
	}
}

// Save saves the configuration to the file
func (c *Config) Save() error {
	configPath, err := getConfigPath()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("error serializing configuration: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("error saving configuration: %w", err)
	}

	return nil
}

func getConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", common.ConfigDirName, common.ConfigFileName), nil
}
