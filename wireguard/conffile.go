// Package wireguard provides WireGuard configuration management functionality.
// This file contains the .conf file store: directory discovery, parsing,
// serialization, and persistence with backup.
package wireguard

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/yllada/wg-manager/common"
)

// FileStore reads and writes WireGuard .conf files in a single directory.
// It implements ConfigStore.
type FileStore struct {
	dir string
}

// NewFileStore creates a store over the given directory. An empty dir
// selects the platform default (see DefaultDir).
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = DefaultDir()
	}
	return &FileStore{dir: dir}
}

// Dir returns the directory the store operates on.
func (s *FileStore) Dir() string {
	return s.dir
}

// DefaultDir returns the WireGuard configuration directory for this system.
// Homebrew installs on macOS use /opt/homebrew (Apple Silicon) or
// /usr/local (Intel); everything else uses /etc/wireguard.
func DefaultDir() string {
	for _, dir := range []string{"/opt/homebrew/etc/wireguard", "/usr/local/etc/wireguard"} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return "/etc/wireguard"
}

// List returns the sorted names of all .conf files in the directory.
// A missing directory yields an empty list, not an error.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), common.ConfExtension) {
			names = append(names, strings.TrimSuffix(entry.Name(), common.ConfExtension))
		}
	}

	sort.Strings(names)
	return names, nil
}

// Load reads and parses the named configuration.
func (s *FileStore) Load(name string) (*Config, error) {
	path := filepath.Join(s.dir, name+common.ConfExtension)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrConfigNotFound, name)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return ParseConfig(name, path, string(data))
}

// Save serializes the configuration back to its file. An existing file is
// copied to a .conf.bak backup first.
func (s *FileStore) Save(cfg *Config) error {
	path := cfg.Path
	if path == "" {
		path = filepath.Join(s.dir, cfg.Name+common.ConfExtension)
	}

	if common.FileExists(path) {
		backup := strings.TrimSuffix(path, common.ConfExtension) + common.BackupExtension
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read existing config for backup: %w", err)
		}
		if err := os.WriteFile(backup, data, 0600); err != nil {
			return fmt.Errorf("failed to write backup: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(SerializeConfig(cfg)), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ParseConfig parses .conf content into a Config. The format is INI-like:
// one [Interface] section and any number of [Peer] sections. A comment line
// directly above a [Peer] section becomes the peer's display name. Unknown
// keys are ignored.
func ParseConfig(name, path, content string) (*Config, error) {
	cfg := &Config{Name: name, Path: path}

	var (
		haveInterface bool
		section       string
		current       *Peer
		lastComment   string
	)

	flush := func() {
		if current != nil {
			cfg.Peers = append(cfg.Peers, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			lastComment = strings.TrimSpace(strings.TrimLeft(line, "#"))
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			flush()
			section = strings.Trim(line, "[]")
			if section == "Peer" {
				current = &Peer{Name: lastComment}
			}
			lastComment = ""
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch section {
		case "Interface":
			if !haveInterface {
				haveInterface = true
				cfg.Interface.ListenPort = common.DefaultListenPort
			}
			switch key {
			case "PrivateKey":
				cfg.Interface.PrivateKey = value
			case "Address":
				cfg.Interface.Address = value
			case "ListenPort":
				if port, err := strconv.Atoi(value); err == nil {
					cfg.Interface.ListenPort = port
				}
			case "DNS":
				cfg.Interface.DNS = value
			case "PostUp":
				cfg.Interface.PostUp = value
			case "PostDown":
				cfg.Interface.PostDown = value
			}
		case "Peer":
			if current == nil {
				continue
			}
			switch key {
			case "PublicKey":
				current.PublicKey = value
			case "AllowedIPs":
				current.AllowedIPs = value
			case "PersistentKeepalive":
				if keepalive, err := strconv.Atoi(value); err == nil {
					current.PersistentKeepalive = keepalive
				}
			case "Endpoint":
				current.Endpoint = value
			}
		}
	}
	flush()

	if !haveInterface {
		return nil, fmt.Errorf("%w: no [Interface] section found", common.ErrConfigParse)
	}

	return cfg, nil
}

// SerializeConfig renders a Config back to .conf format. The output
// round-trips through ParseConfig, preserving peer order and names.
func SerializeConfig(cfg *Config) string {
	var b strings.Builder

	b.WriteString("[Interface]\n")
	fmt.Fprintf(&b, "PrivateKey = %s\n", cfg.Interface.PrivateKey)
	fmt.Fprintf(&b, "Address = %s\n", cfg.Interface.Address)
	fmt.Fprintf(&b, "ListenPort = %d\n", cfg.Interface.ListenPort)
	if cfg.Interface.DNS != "" {
		fmt.Fprintf(&b, "DNS = %s\n", cfg.Interface.DNS)
	}
	if cfg.Interface.PostUp != "" {
		fmt.Fprintf(&b, "PostUp = %s\n", cfg.Interface.PostUp)
	}
	if cfg.Interface.PostDown != "" {
		fmt.Fprintf(&b, "PostDown = %s\n", cfg.Interface.PostDown)
	}

	for _, peer := range cfg.Peers {
		b.WriteString("\n")
		if peer.Name != "" {
			fmt.Fprintf(&b, "# %s\n", peer.Name)
		}
		b.WriteString("[Peer]\n")
		fmt.Fprintf(&b, "PublicKey = %s\n", peer.PublicKey)
		fmt.Fprintf(&b, "AllowedIPs = %s\n", peer.AllowedIPs)
		if peer.PersistentKeepalive > 0 {
			fmt.Fprintf(&b, "PersistentKeepalive = %d\n", peer.PersistentKeepalive)
		}
		if peer.Endpoint != "" {
			fmt.Fprintf(&b, "Endpoint = %s\n", peer.Endpoint)
		}
	}

	return b.String()
}
