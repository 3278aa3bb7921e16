// Package wireguard manages named WireGuard configurations and their
// runtime state.
//
// The package is built around the Engine, which reconciles three
// independently changing views of the same interface — the persisted
// configuration on disk, the live up/down state, and the per-peer transfer
// and handshake statistics — into a single consistent Snapshot. Mutations
// (peer add/update/delete, interface up/down) are serialized against each
// other and against the background status refresh.
//
// The host's wg and wg-quick tools are external collaborators reached
// through narrow interfaces (see ports.go):
//
//   - ConfigStore — .conf files in the WireGuard directory (FileStore)
//   - ControlClient — interface activation and liveness (WgQuickClient)
//   - StatusClient — per-peer runtime records (DumpStatusClient)
//   - KeyGenerator — Curve25519 key pairs (WgKeyGenerator)
//
// Peer mutations follow a persist-then-adopt discipline: the whole updated
// configuration is written to storage first, and the in-memory snapshot
// only changes after the write succeeds, so the view never diverges from
// what is durably saved.
package wireguard
