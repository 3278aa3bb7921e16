package keyring

import (
	"crypto/sha256"
	"errors"
	"path/filepath"
	"testing"

	"github.com/yllada/wg-manager/common"
)

func newStashBackend(t *testing.T) *backend {
	t.Helper()
	sum := sha256.Sum256([]byte("test-cipher-seed"))
	return &backend{
		useStash:  true,
		stashFile: filepath.Join(t.TempDir(), common.KeyStashFileName),
		cipherKey: sum[:],
		stash:     make(map[string]string),
	}
}

func TestBackend_SealOpen(t *testing.T) {
	b := newStashBackend(t)

	sealed, err := b.seal([]byte("wOBL9UbTampmY/z+aRlE3I1wYdSZBHsD2hlDGeTFEWw="))
	if err != nil {
		t.Fatalf("seal() error = %v", err)
	}

	plain, err := b.open(sealed)
	if err != nil {
		t.Fatalf("open() error = %v", err)
	}
	if string(plain) != "wOBL9UbTampmY/z+aRlE3I1wYdSZBHsD2hlDGeTFEWw=" {
		t.Errorf("open() = %q, round trip lost data", plain)
	}
}

func TestBackend_OpenRejectsWrongKey(t *testing.T) {
	b := newStashBackend(t)
	sealed, err := b.seal([]byte("secret"))
	if err != nil {
		t.Fatalf("seal() error = %v", err)
	}

	other := newStashBackend(t)
	sum := sha256.Sum256([]byte("different-seed"))
	other.cipherKey = sum[:]

	if _, err := other.open(sealed); err == nil {
		t.Error("open() with a different cipher key should fail")
	}
}

func TestBackend_StashPersistence(t *testing.T) {
	b := newStashBackend(t)
	b.stash["home"] = "private-key-material"
	b.stash["office"] = "other-key-material"

	if err := b.saveStash(); err != nil {
		t.Fatalf("saveStash() error = %v", err)
	}

	reloaded := &backend{
		useStash:  true,
		stashFile: b.stashFile,
		cipherKey: b.cipherKey,
		stash:     make(map[string]string),
	}
	reloaded.loadStash()

	if reloaded.stash["home"] != "private-key-material" {
		t.Errorf("stash[home] = %q after reload", reloaded.stash["home"])
	}
	if len(reloaded.stash) != 2 {
		t.Errorf("reloaded %d entries, want 2", len(reloaded.stash))
	}
}

func TestBackend_CorruptStashStartsEmpty(t *testing.T) {
	b := newStashBackend(t)
	b.stash["home"] = "key"
	if err := b.saveStash(); err != nil {
		t.Fatalf("saveStash() error = %v", err)
	}

	// Re-open with a different cipher key: the stash must be unreadable
	// and the backend must come up empty rather than fail.
	sum := sha256.Sum256([]byte("rotated-machine-identity"))
	reloaded := &backend{
		useStash:  true,
		stashFile: b.stashFile,
		cipherKey: sum[:],
		stash:     make(map[string]string),
	}
	reloaded.loadStash()

	if len(reloaded.stash) != 0 {
		t.Errorf("unreadable stash yielded %d entries, want 0", len(reloaded.stash))
	}
}

func withTestBackend(t *testing.T) {
	t.Helper()
	initOnce.Do(func() {})
	prev := store
	store = newStashBackend(t)
	t.Cleanup(func() { store = prev })
}

func TestStoreGetDelete(t *testing.T) {
	withTestBackend(t)

	if err := Store("vps", "yAnz5TF+lXXJte14tji3zlMNq+hd2rYUIgJBgB3fBmk="); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if !Exists("vps") {
		t.Error("Exists() = false after Store")
	}

	key, err := Get("vps")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if key != "yAnz5TF+lXXJte14tji3zlMNq+hd2rYUIgJBgB3fBmk=" {
		t.Errorf("Get() = %q, want the stored key", key)
	}

	if err := Delete("vps"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := Get("vps"); !errors.Is(err, common.ErrKeyNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrKeyNotFound", err)
	}

	// Deleting an absent label is a no-op, not an error.
	if err := Delete("vps"); err != nil {
		t.Errorf("Delete() of absent label error = %v, want nil", err)
	}
}

func TestStore_Validation(t *testing.T) {
	withTestBackend(t)

	if err := Store("", "key"); err == nil {
		t.Error("Store() with empty label should fail")
	}
	if err := Store("label", ""); !errors.Is(err, common.ErrInvalidKey) {
		t.Errorf("Store() with empty key error = %v, want ErrInvalidKey", err)
	}
	if _, err := Get(""); err == nil {
		t.Error("Get() with empty label should fail")
	}
}
