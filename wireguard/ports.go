// Package wireguard provides WireGuard configuration management functionality.
// This file contains the boundary interfaces the engine consumes. Production
// implementations live in conffile.go, control.go, and keys.go; tests supply
// fakes.
package wireguard

import "context"

// ConfigStore persists named configurations.
type ConfigStore interface {
	// List returns the known configuration names, sorted.
	List() ([]string, error)
	// Load reads one configuration by name.
	Load(name string) (*Config, error)
	// Save persists the whole configuration.
	Save(cfg *Config) error
}

// ControlClient drives the interface lifecycle through the platform's
// privileged control tooling.
type ControlClient interface {
	// IsUp reports whether the named interface is currently active.
	IsUp(ctx context.Context, name string) (bool, error)
	// Up activates the named interface.
	Up(ctx context.Context, name string) error
	// Down deactivates the named interface.
	Down(ctx context.Context, name string) error
}

// StatusClient reports per-peer runtime records for an active interface.
type StatusClient interface {
	PeerStatus(ctx context.Context, name string) ([]PeerStatus, error)
}

// KeyGenerator produces and derives WireGuard key material.
type KeyGenerator interface {
	// GenerateKeyPair returns a fresh (private, public) key pair.
	GenerateKeyPair() (privateKey, publicKey string, err error)
	// DerivePublicKey returns the public key of an existing private key.
	DerivePublicKey(privateKey string) (string, error)
}

// Recorder journals engine events for diagnostics. Implementations must
// tolerate concurrent calls; failures are logged by the engine and never
// propagated.
type Recorder interface {
	Record(configName, action, detail string) error
}
