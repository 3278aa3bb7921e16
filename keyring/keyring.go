// Package keyring stores generated WireGuard private keys under
// user-chosen labels. It uses the system keyring when one is available
// and falls back to an AES-GCM encrypted stash file otherwise.
package keyring

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"

	"github.com/yllada/wg-manager/common"
)

// serviceName is the identifier used in the system keyring.
const serviceName = "wg-manager"

var errEmptyLabel = errors.New("key label cannot be empty")

type backend struct {
	mu        sync.Mutex
	useStash  bool
	stashFile string
	cipherKey []byte
	stash     map[string]string
}

var (
	store    *backend
	initOnce sync.Once
)

func active() *backend {
	initOnce.Do(func() {
		store = &backend{}
		store.detect()
	})
	return store
}

// detect probes the system keyring with a throwaway entry. A failed probe
// switches the backend to the encrypted stash file.
func (b *backend) detect() {
	probe := serviceName + "-probe"
	if err := keyring.Set(serviceName, probe, "probe"); err == nil {
		keyring.Delete(serviceName, probe)
		return
	}
	b.useStash = true
	b.initStash()
}

func (b *backend) initStash() {
	dir, err := common.GetConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config", common.ConfigDirName)
	}
	os.MkdirAll(dir, 0700)
	b.stashFile = filepath.Join(dir, common.KeyStashFileName)

	// The stash cipher key is derived from machine identity, so the file
	// is only readable on the host that wrote it.
	hostname, _ := os.Hostname()
	seed := fmt.Sprintf("%s-%s-%s-%d", serviceName, hostname, machineID(), os.Getuid())
	sum := sha256.Sum256([]byte(seed))
	b.cipherKey = sum[:]

	b.stash = make(map[string]string)
	b.loadStash()
}

func machineID() string {
	data, err := os.ReadFile("/etc/machine-id")
	if err != nil {
		return "unknown-machine"
	}
	return strings.TrimSpace(string(data))
}

func (b *backend) loadStash() {
	data, err := os.ReadFile(b.stashFile)
	if err != nil {
		return
	}
	plain, err := b.open(data)
	if err != nil {
		common.LogWarn("Key stash %s is unreadable, starting empty: %v", b.stashFile, err)
		return
	}
	json.Unmarshal(plain, &b.stash)
}

func (b *backend) saveStash() error {
	data, err := json.Marshal(b.stash)
	if err != nil {
		return err
	}
	sealed, err := b.seal(data)
	if err != nil {
		return err
	}
	return os.WriteFile(b.stashFile, sealed, 0600)
}

func (b *backend) seal(plaintext []byte) ([]byte, error) {
	gcm, err := b.aead()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return []byte(base64.StdEncoding.EncodeToString(sealed)), nil
}

func (b *backend) open(data []byte) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(string(data))
	if err != nil {
		return nil, err
	}
	gcm, err := b.aead()
	if err != nil {
		return nil, err
	}
	if len(raw) < gcm.NonceSize() {
		return nil, errors.New("stash file truncated")
	}
	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	return gcm.Open(nil, nonce, sealed, nil)
}

func (b *backend) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(b.cipherKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Store saves a private key under the given label, replacing any previous
// key stored there.
func Store(label, privateKey string) error {
	if label == "" {
		return errEmptyLabel
	}
	if privateKey == "" {
		return fmt.Errorf("%w: empty private key", common.ErrInvalidKey)
	}

	b := active()
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.useStash {
		b.stash[label] = privateKey
		return b.saveStash()
	}

	if err := keyring.Set(serviceName, label, privateKey); err != nil {
		// Keyring went away after the probe; switch over for good.
		common.LogWarn("System keyring rejected write, falling back to stash file: %v", err)
		b.useStash = true
		b.initStash()
		b.stash[label] = privateKey
		return b.saveStash()
	}
	return nil
}

// Get retrieves the private key stored under label.
func Get(label string) (string, error) {
	if label == "" {
		return "", errEmptyLabel
	}

	b := active()
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.useStash {
		key, ok := b.stash[label]
		if !ok {
			return "", fmt.Errorf("%w: %s", common.ErrKeyNotFound, label)
		}
		return key, nil
	}

	key, err := keyring.Get(serviceName, label)
	if err != nil {
		return "", fmt.Errorf("%w: %s", common.ErrKeyNotFound, label)
	}
	return key, nil
}

// Delete removes the private key stored under label. Deleting a label that
// was never stored is not an error.
func Delete(label string) error {
	if label == "" {
		return errEmptyLabel
	}

	b := active()
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.useStash {
		if _, ok := b.stash[label]; !ok {
			return nil
		}
		delete(b.stash, label)
		return b.saveStash()
	}

	keyring.Delete(serviceName, label)
	return nil
}

// Exists reports whether a private key is stored under label.
func Exists(label string) bool {
	_, err := Get(label)
	return err == nil
}
