// Package common provides shared constants, types, and utilities
// used across the WireGuard Manager application.
package common

import "errors"

// Sentinel errors for WireGuard operations.
// These can be checked with errors.Is() for proper error handling.
var (
	// Configuration errors.
	ErrConfigNotFound = errors.New("configuration not found")
	ErrConfigParse    = errors.New("invalid configuration file")
	ErrNoSelection    = errors.New("no configuration selected")

	// Peer errors.
	ErrPeerNotFound  = errors.New("peer not found")
	ErrInvalidPeer   = errors.New("invalid peer data")
	ErrDuplicatePeer = errors.New("peer public key already present")

	// Control plane errors.
	ErrCommandFailed = errors.New("command execution failed")
	ErrTimeout       = errors.New("operation timed out")

	// Key errors.
	ErrInvalidKey   = errors.New("invalid key")
	ErrKeyNotFound  = errors.New("key not found")
	ErrKeyGenFailed = errors.New("key generation failed")
)

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}
