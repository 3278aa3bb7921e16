// Package wireguard provides WireGuard configuration management functionality.
// This file contains Curve25519 key pair generation and derivation.
package wireguard

import (
	"fmt"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"github.com/yllada/wg-manager/common"
)

// WgKeyGenerator produces WireGuard key pairs. It implements KeyGenerator.
type WgKeyGenerator struct{}

// NewKeyGenerator creates a key generator.
func NewKeyGenerator() *WgKeyGenerator {
	return &WgKeyGenerator{}
}

// GenerateKeyPair returns a fresh (private, public) key pair in base64.
// The private key is surfaced to the caller exactly once; nothing is
// persisted here.
func (g *WgKeyGenerator) GenerateKeyPair() (string, string, error) {
	key, err := wgtypes.GeneratePrivateKey()
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", common.ErrKeyGenFailed, err)
	}
	return key.String(), key.PublicKey().String(), nil
}

// DerivePublicKey returns the public key belonging to a private key.
func (g *WgKeyGenerator) DerivePublicKey(privateKey string) (string, error) {
	key, err := wgtypes.ParseKey(privateKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidKey, err)
	}
	return key.PublicKey().String(), nil
}
