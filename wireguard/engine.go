// Package wireguard provides WireGuard configuration management functionality.
// This file contains the Engine, which reconciles persisted configuration,
// live interface state, and per-peer runtime status into one consistent
// snapshot, and serializes every mutation against the background refresh.
package wireguard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yllada/wg-manager/common"
)

// Engine owns the authoritative snapshot of the selected configuration.
// All reads go through Snapshot; all writes go through the exported
// operations, each of which leaves the snapshot fully consistent.
//
// Mutations are mutually exclusive: the engine's lock is held across a
// mutation's external calls, so two mutations can never interleave. The
// periodic refresh fetches status without the lock and applies the result
// under it, tagged with the generation it was issued for, so a stale
// response can never overwrite a newer snapshot.
type Engine struct {
	store    ConfigStore
	control  ControlClient
	status   StatusClient
	keys     KeyGenerator
	recorder Recorder
	interval time.Duration

	mu   sync.RWMutex
	snap Snapshot

	// gen increments on every selection change, stop, and teardown.
	// In-flight refresh results carry the gen they were issued under and
	// are discarded when it no longer matches.
	gen        uint64
	loopCancel context.CancelFunc
	loopDone   chan struct{}
}

// NewEngine creates a sync engine over the given collaborators.
func NewEngine(store ConfigStore, control ControlClient, status StatusClient, keys KeyGenerator) *Engine {
	return &Engine{
		store:    store,
		control:  control,
		status:   status,
		keys:     keys,
		interval: common.StatusRefreshInterval,
	}
}

// SetRefreshInterval overrides the periodic status refresh interval.
// Must be called before the first selection.
func (e *Engine) SetRefreshInterval(d time.Duration) {
	if d >= common.MinRefreshInterval {
		e.interval = d
	}
}

// SetRecorder attaches an event journal. Recorder failures are logged and
// never affect engine operations.
func (e *Engine) SetRecorder(r Recorder) {
	e.recorder = r
}

// Snapshot returns a copy of the current view.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cloneSnapshotLocked()
}

func (e *Engine) cloneSnapshotLocked() Snapshot {
	snap := e.snap
	snap.Configs = append([]string(nil), e.snap.Configs...)
	snap.Status = append([]PeerStatus(nil), e.snap.Status...)
	if e.snap.Config != nil {
		snap.Config = e.snap.Config.Clone()
	}
	return snap
}

// Configs refreshes the known configuration-name set from the store and
// returns it.
func (e *Engine) Configs(ctx context.Context) ([]string, error) {
	names, err := e.store.List()

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		return nil, e.failLocked(fmt.Errorf("failed to list configurations: %w", err))
	}
	e.snap.Configs = names
	e.snap.LastError = nil
	return append([]string(nil), names...), nil
}

// Select makes name the selected configuration. It cancels the refresh loop
// of the previous selection, loads the definition, queries liveness, and,
// when the interface is up, fetches status once so the new snapshot is
// consistent as of a single observation. On failure the previous snapshot
// is left untouched apart from LastError.
func (e *Engine) Select(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !common.StringInSlice(name, e.snap.Configs) {
		return e.failLocked(fmt.Errorf("%w: %s", common.ErrConfigNotFound, name))
	}

	// Invalidate any in-flight poll for the previous selection before
	// observing the new one.
	e.bumpLocked()

	cfg, err := e.store.Load(name)
	if err != nil {
		return e.failLocked(err)
	}

	up, err := e.control.IsUp(ctx, name)
	if err != nil {
		return e.failLocked(err)
	}

	var status []PeerStatus
	if up {
		if status, err = e.status.PeerStatus(ctx, name); err != nil {
			return e.failLocked(err)
		}
	}

	e.snap.Selected = name
	e.snap.Config = cfg
	e.snap.Running = up
	e.snap.Status = status
	e.snap.SelectedPeer = ""
	e.snap.LastError = nil

	if up {
		e.startLoopLocked(name)
	}

	e.record(name, "select", fmt.Sprintf("running=%v peers=%d", up, len(cfg.Peers)))
	return nil
}

// Start activates the selected interface. On success the running flag is
// set and status is fetched once so the caller does not wait a full
// refresh interval. On failure the flag is left unchanged; there is no
// automatic retry.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	name, err := e.requireSelectionLocked()
	if err != nil {
		return e.failLocked(err)
	}

	if err := e.control.Up(ctx, name); err != nil {
		return e.failLocked(err)
	}

	e.snap.Running = true
	e.snap.LastError = nil
	e.bumpLocked()
	e.refreshOnceLocked(ctx, name)
	e.startLoopLocked(name)

	e.record(name, "up", "")
	return nil
}

// Stop deactivates the selected interface. On success the running flag is
// cleared along with the status list; a down interface has nothing to
// report.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	name, err := e.requireSelectionLocked()
	if err != nil {
		return e.failLocked(err)
	}

	if err := e.control.Down(ctx, name); err != nil {
		return e.failLocked(err)
	}

	e.bumpLocked()
	e.snap.Running = false
	e.snap.Status = nil
	e.snap.LastError = nil

	e.record(name, "down", "")
	return nil
}

// Restart deactivates and reactivates the selected interface. The
// deactivation error is ignored so a half-down interface can still be
// brought back up.
func (e *Engine) Restart(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	name, err := e.requireSelectionLocked()
	if err != nil {
		return e.failLocked(err)
	}

	if err := e.control.Down(ctx, name); err != nil {
		common.LogDebug("Restart: down failed for %s (ignored): %v", name, err)
	}
	e.bumpLocked()

	if err := e.control.Up(ctx, name); err != nil {
		e.snap.Running = false
		e.snap.Status = nil
		return e.failLocked(err)
	}

	e.snap.Running = true
	e.snap.LastError = nil
	e.refreshOnceLocked(ctx, name)
	e.startLoopLocked(name)

	e.record(name, "restart", "")
	return nil
}

// AddPeer appends a peer to the selected configuration. The whole updated
// configuration is persisted first; the snapshot adopts the new peer
// sequence only after the save succeeds.
func (e *Engine) AddPeer(peer Peer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.requireSelectionLocked(); err != nil {
		return e.failLocked(err)
	}
	if err := peer.Validate(); err != nil {
		return e.failLocked(err)
	}
	if e.snap.Config.PeerIndex(peer.PublicKey) >= 0 {
		return e.failLocked(fmt.Errorf("%w: %s", common.ErrDuplicatePeer, peer.PublicKey))
	}

	next := e.snap.Config.Clone()
	next.Peers = append(next.Peers, peer)

	if err := e.store.Save(next); err != nil {
		return e.failLocked(err)
	}

	e.snap.Config = next
	e.snap.LastError = nil
	e.record(next.Name, "peer-add", peer.PublicKey)
	return nil
}

// UpdatePeer replaces the peer identified by originalKey with revised. The
// lookup is always by the peer's original public key, so an edit can
// relocate the identity without ambiguity.
func (e *Engine) UpdatePeer(originalKey string, revised Peer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.requireSelectionLocked(); err != nil {
		return e.failLocked(err)
	}
	if err := revised.Validate(); err != nil {
		return e.failLocked(err)
	}

	idx := e.snap.Config.PeerIndex(originalKey)
	if idx < 0 {
		return e.failLocked(fmt.Errorf("%w: %s", common.ErrPeerNotFound, originalKey))
	}
	if revised.PublicKey != originalKey && e.snap.Config.PeerIndex(revised.PublicKey) >= 0 {
		return e.failLocked(fmt.Errorf("%w: %s", common.ErrDuplicatePeer, revised.PublicKey))
	}

	next := e.snap.Config.Clone()
	next.Peers[idx] = revised

	if err := e.store.Save(next); err != nil {
		return e.failLocked(err)
	}

	e.snap.Config = next
	if e.snap.SelectedPeer == originalKey {
		e.snap.SelectedPeer = revised.PublicKey
	}
	e.snap.LastError = nil
	e.record(next.Name, "peer-update", originalKey)
	return nil
}

// DeletePeer removes the peer with the given public key. The caller is
// responsible for having confirmed the deletion; the engine performs no
// prompt. Deleting the peer currently selected for detail clears that
// selection.
func (e *Engine) DeletePeer(publicKey string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.requireSelectionLocked(); err != nil {
		return e.failLocked(err)
	}

	idx := e.snap.Config.PeerIndex(publicKey)
	if idx < 0 {
		return e.failLocked(fmt.Errorf("%w: %s", common.ErrPeerNotFound, publicKey))
	}

	next := e.snap.Config.Clone()
	next.Peers = append(next.Peers[:idx], next.Peers[idx+1:]...)

	if err := e.store.Save(next); err != nil {
		return e.failLocked(err)
	}

	e.snap.Config = next
	if e.snap.SelectedPeer == publicKey {
		e.snap.SelectedPeer = ""
	}
	e.snap.LastError = nil
	e.record(next.Name, "peer-delete", publicKey)
	return nil
}

// UpdateInterface replaces the selected configuration's interface
// definition, persist-then-adopt like the peer mutations.
func (e *Engine) UpdateInterface(iface Interface) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.requireSelectionLocked(); err != nil {
		return e.failLocked(err)
	}
	if _, err := e.keys.DerivePublicKey(iface.PrivateKey); err != nil {
		return e.failLocked(err)
	}

	next := e.snap.Config.Clone()
	next.Interface = iface

	if err := e.store.Save(next); err != nil {
		return e.failLocked(err)
	}

	e.snap.Config = next
	e.snap.LastError = nil
	e.record(next.Name, "interface-update", "")
	return nil
}

// SelectPeer marks a peer as selected for detail view. An empty key clears
// the selection.
func (e *Engine) SelectPeer(publicKey string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if publicKey != "" {
		if e.snap.Config == nil || e.snap.Config.PeerIndex(publicKey) < 0 {
			return fmt.Errorf("%w: %s", common.ErrPeerNotFound, publicKey)
		}
	}
	e.snap.SelectedPeer = publicKey
	return nil
}

// GenerateKeyPair returns a fresh key pair from the generator. The private
// key is never retained by the engine.
func (e *Engine) GenerateKeyPair() (string, string, error) {
	return e.keys.GenerateKeyPair()
}

// DerivePublicKey returns the public key of an existing private key.
func (e *Engine) DerivePublicKey(privateKey string) (string, error) {
	return e.keys.DerivePublicKey(privateKey)
}

// Close tears the engine down: the refresh loop is stopped and any
// in-flight result is invalidated.
func (e *Engine) Close() {
	e.mu.Lock()
	e.bumpLocked()
	done := e.loopDone
	e.loopDone = nil
	e.mu.Unlock()

	if done != nil {
		<-done
	}
}

// failLocked records err as the snapshot's last error and returns it.
func (e *Engine) failLocked(err error) error {
	e.snap.LastError = err
	return err
}

func (e *Engine) requireSelectionLocked() (string, error) {
	if e.snap.Selected == "" || e.snap.Config == nil {
		return "", common.ErrNoSelection
	}
	return e.snap.Selected, nil
}

// bumpLocked advances the generation and cancels the running refresh loop.
// The loop goroutine exits on its own; any result it already fetched fails
// the generation check and is discarded.
func (e *Engine) bumpLocked() {
	e.gen++
	if e.loopCancel != nil {
		e.loopCancel()
		e.loopCancel = nil
	}
}

// refreshOnceLocked performs one synchronous status fetch as part of a
// lifecycle operation. The operation itself already succeeded, so a fetch
// failure here is transient and only logged.
func (e *Engine) refreshOnceLocked(ctx context.Context, name string) {
	status, err := e.status.PeerStatus(ctx, name)
	if err != nil {
		common.LogWarn("Initial status fetch failed for %s: %v", name, err)
		return
	}
	e.snap.Status = status
}

// startLoopLocked launches the periodic refresh loop for the current
// generation.
func (e *Engine) startLoopLocked(name string) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.loopCancel = cancel
	e.loopDone = done
	go e.runLoop(ctx, name, e.gen, done)
}

// runLoop re-fetches peer status on the refresh interval and replaces the
// status list wholesale. Status is an idempotent read with no ordering
// dependency, so last-write-wins replacement is correct. Fetch failures
// never clear the existing list and never change the running flag; a
// transient read failure does not mean the interface went down.
func (e *Engine) runLoop(ctx context.Context, name string, gen uint64, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status, err := e.status.PeerStatus(ctx, name)
			if err != nil {
				if ctx.Err() == nil {
					common.LogWarn("Status refresh failed for %s: %v", name, err)
				}
				continue
			}

			e.mu.Lock()
			if e.gen == gen {
				e.snap.Status = status
			}
			e.mu.Unlock()
		}
	}
}

// record journals an engine event, best effort.
func (e *Engine) record(configName, action, detail string) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(configName, action, detail); err != nil {
		common.LogWarn("Failed to record %s event for %s: %v", action, configName, err)
	}
}
