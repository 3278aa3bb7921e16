// Package common provides shared constants, types, and utilities
// used across the WireGuard Manager application.
package common

import "time"

// Application metadata.
const (
	// AppName is the display name of the application.
	AppName = "WireGuard Manager"
	// ConfigDirName is the name of the configuration directory.
	ConfigDirName = "wg-manager"
)

// File names used by the application.
const (
	ConfigFileName   = "config.yaml"
	KeyStashFileName = ".keystash"
	LogFileName      = "wg-manager.log"
	HistoryFileName  = "history.db"
)

// Default timeouts and intervals.
const (
	// StatusRefreshInterval is how often peer status is re-fetched while
	// an interface is up.
	StatusRefreshInterval = 5 * time.Second
	// CommandTimeout bounds every invocation of the external wg tooling.
	CommandTimeout = 10 * time.Second
	// MinRefreshInterval is the lowest refresh interval accepted from the
	// configuration file.
	MinRefreshInterval = 1 * time.Second
)

// WireGuard defaults.
const (
	// DefaultListenPort is used when a config omits ListenPort.
	DefaultListenPort = 51820
	// ConfExtension is the WireGuard configuration file extension.
	ConfExtension = ".conf"
	// BackupExtension replaces ConfExtension when a config is backed up
	// before being overwritten.
	BackupExtension = ".conf.bak"
)

// AllowedEscalationCommands lists the privilege escalation commands accepted
// from the configuration file.
var AllowedEscalationCommands = []string{"sudo", "doas", "pkexec"}
