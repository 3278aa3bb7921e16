// Package wireguard provides WireGuard configuration management functionality.
// This file contains the configuration and runtime status data model.
package wireguard

import (
	"fmt"
	"strings"
	"time"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"github.com/yllada/wg-manager/common"
)

// Interface represents the local tunnel endpoint of a configuration:
// the [Interface] section of a .conf file.
type Interface struct {
	// PrivateKey is the interface's secret key. Never displayed.
	PrivateKey string
	// Address is the local address in CIDR notation.
	Address string
	// ListenPort is the UDP port the interface listens on.
	ListenPort int
	// DNS is the optional resolver pushed while the tunnel is up.
	DNS string
	// PostUp is an optional hook executed after activation.
	PostUp string
	// PostDown is an optional hook executed after deactivation.
	PostDown string
}

// Peer represents a remote endpoint authorized to communicate through the
// interface. The public key is the peer's identity and must be unique
// within a configuration.
type Peer struct {
	// PublicKey identifies the peer.
	PublicKey string
	// AllowedIPs is the comma-separated CIDR set routed to this peer.
	AllowedIPs string
	// PersistentKeepalive is the keepalive interval in seconds, 0 when unset.
	PersistentKeepalive int
	// Endpoint is the optional remote address ("host:port").
	Endpoint string
	// Name is an optional display name, stored as a comment above the
	// [Peer] section.
	Name string
}

// Validate checks that the peer has all required fields and a well-formed
// public key.
func (p *Peer) Validate() error {
	if strings.TrimSpace(p.PublicKey) == "" {
		return fmt.Errorf("%w: public key is required", common.ErrInvalidPeer)
	}
	if strings.TrimSpace(p.AllowedIPs) == "" {
		return fmt.Errorf("%w: allowed IPs are required", common.ErrInvalidPeer)
	}
	if _, err := wgtypes.ParseKey(p.PublicKey); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidKey, err)
	}
	return nil
}

// Config is one named WireGuard configuration: an interface definition plus
// an ordered set of peers. Peer order is display order only.
type Config struct {
	// Name is the configuration name, unique across the known set.
	Name string
	// Path is where the configuration is stored.
	Path string
	// Interface is the local endpoint definition.
	Interface Interface
	// Peers are the remote endpoints.
	Peers []Peer
}

// PeerIndex returns the position of the peer with the given public key,
// or -1 when absent.
func (c *Config) PeerIndex(publicKey string) int {
	for i := range c.Peers {
		if c.Peers[i].PublicKey == publicKey {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Peers = make([]Peer, len(c.Peers))
	copy(clone.Peers, c.Peers)
	return &clone
}

// PeerStatus is one peer's runtime record as reported by the kernel.
// Sentinel values of the wire format ("0" handshake, "(none)" endpoint)
// are translated to absence when the record is built.
type PeerStatus struct {
	// PublicKey identifies the peer the record belongs to.
	PublicKey string
	// Endpoint is the current remote address, empty when unknown.
	Endpoint string
	// LatestHandshake is the time of the last handshake; the zero value
	// means the peer never connected.
	LatestHandshake time.Time
	// TransferRx and TransferTx are cumulative byte counters.
	TransferRx uint64
	TransferTx uint64
}

// PeerWithStatus pairs a configured peer with its runtime record, if any.
type PeerWithStatus struct {
	Peer   Peer
	Status *PeerStatus
}

// Snapshot is the engine's consistent view of the world: the known
// configuration names, the selected configuration, its live state, and the
// most recent error.
type Snapshot struct {
	// Configs are the known configuration names.
	Configs []string
	// Selected is the name of the selected configuration, empty when none.
	Selected string
	// Config is the selected configuration's definition, nil until loaded.
	Config *Config
	// Running reports whether the selected interface was up at the last
	// reconciliation.
	Running bool
	// Status is the latest list of peer runtime records.
	Status []PeerStatus
	// SelectedPeer is the public key of the peer selected for detail view.
	SelectedPeer string
	// LastError is the most recent operation failure, nil after a success.
	LastError error
}

// Join pairs the selected configuration's peers with their runtime records
// by public key. Records without a matching peer are dropped; peers without
// a record carry a nil status.
func (s *Snapshot) Join() []PeerWithStatus {
	if s.Config == nil {
		return nil
	}

	byKey := make(map[string]*PeerStatus, len(s.Status))
	for i := range s.Status {
		byKey[s.Status[i].PublicKey] = &s.Status[i]
	}

	joined := make([]PeerWithStatus, 0, len(s.Config.Peers))
	for _, peer := range s.Config.Peers {
		joined = append(joined, PeerWithStatus{Peer: peer, Status: byKey[peer.PublicKey]})
	}
	return joined
}
