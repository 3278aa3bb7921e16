// Package common provides shared constants, types, utilities, and the
// application logger used throughout WireGuard Manager.
//
// This package serves as the foundation for cross-cutting concerns:
//
//   - Constants: Application-wide constants like timeouts, file names, and
//     WireGuard defaults
//   - Errors: Sentinel errors for consistent error handling across packages
//   - Logger: Leveled logging with optional rotated file output
//   - Format: Human-readable rendering of transfer counters and handshake age
//   - Utils: Common helpers for configuration and data directories
//
// # Usage
//
// Import the package to access shared functionality:
//
//	import "github.com/yllada/wg-manager/common"
//
//	// Use constants
//	interval := common.StatusRefreshInterval
//
//	// Use logger
//	common.LogInfo("Bringing up %s", name)
//
//	// Check errors
//	if errors.Is(err, common.ErrPeerNotFound) {
//	    // Handle missing peer
//	}
package common
