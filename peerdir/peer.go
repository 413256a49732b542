// Package peerdir implements the node's peer directory: an
// in-memory, persisted set of known peers, deduplicated by id
// (spec.md §3, §4.8). It is modeled on the teacher's
// infrastructure/network/addressmanager package, trimmed to this
// node's much smaller Peer entity (no banning, no local-address
// selection, no randomized sampling — this protocol gossips the
// whole directory, not a random subset of it).
package peerdir

// Peer is a known node: an id (the directory's dedup key) and a
// host:port address (spec.md §3).
type Peer struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}
