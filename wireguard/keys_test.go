package wireguard

import (
	"errors"
	"testing"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"github.com/yllada/wg-manager/common"
)

func TestWgKeyGenerator_GenerateKeyPair(t *testing.T) {
	gen := NewKeyGenerator()

	private, public, err := gen.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}

	if _, err := wgtypes.ParseKey(private); err != nil {
		t.Errorf("private key is not well-formed: %v", err)
	}
	if _, err := wgtypes.ParseKey(public); err != nil {
		t.Errorf("public key is not well-formed: %v", err)
	}
	if private == public {
		t.Error("private and public key must differ")
	}

	// The pair must be internally consistent.
	derived, err := gen.DerivePublicKey(private)
	if err != nil {
		t.Fatalf("DerivePublicKey() error = %v", err)
	}
	if derived != public {
		t.Errorf("DerivePublicKey() = %q, want %q", derived, public)
	}

	// Two generations must not collide.
	private2, _, err := gen.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}
	if private2 == private {
		t.Error("consecutive key pairs should differ")
	}
}

func TestWgKeyGenerator_DerivePublicKey_Invalid(t *testing.T) {
	gen := NewKeyGenerator()

	_, err := gen.DerivePublicKey("definitely not base64!")
	if !errors.Is(err, common.ErrInvalidKey) {
		t.Errorf("DerivePublicKey() error = %v, want ErrInvalidKey", err)
	}
}
