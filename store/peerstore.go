package store

import (
	"github.com/chaind/ledgerd/database"
)

// peerKeyPrefix namespaces every peer entry within the peer store's
// own database path, one entry per peer id, per spec.md §4.8.
var peerKeyPrefix = []byte("peer:")

func peerKey(id string) []byte {
	return append(append([]byte{}, peerKeyPrefix...), []byte(id)...)
}

// PeerStore is the persistence adapter backing a peer directory: one
// KV entry per peer, keyed by its id, in its own database path
// (separate from the ledger store's path).
type PeerStore struct {
	db database.DB
}

// OpenPeerStore opens (creating if necessary) the peer directory's KV
// store at path. Per the CLI surface in spec.md §6, this path is
// distinct from the ledger store's path ("data/peers_db[_<id>]" vs.
// "data/blockchain_db").
func OpenPeerStore(path string) (*PeerStore, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}
	return &PeerStore{db: db}, nil
}

// NewPeerStore wraps an already-open database.DB, primarily so tests
// can use an in-memory database.
func NewPeerStore(db database.DB) *PeerStore {
	return &PeerStore{db: db}
}

// Close releases the underlying database handle.
func (s *PeerStore) Close() error {
	return s.db.Close()
}

// Put persists a peer's JSON encoding under its id.
func (s *PeerStore) Put(id string, data []byte) error {
	if err := s.db.Put(peerKey(id), data); err != nil {
		log.Errorf("failed to persist peer %s: %s", id, err)
		return err
	}
	return nil
}

// Delete removes a peer's persisted entry. Deleting an absent id is
// not an error.
func (s *PeerStore) Delete(id string) error {
	return s.db.Delete(peerKey(id))
}

// All returns the raw JSON of every persisted peer, keyed by id.
func (s *PeerStore) All() (map[string][]byte, error) {
	cur, err := s.db.Cursor(peerKeyPrefix)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	result := map[string][]byte{}
	for cur.Next() {
		id := string(cur.Key()[len(peerKeyPrefix):])
		value := cur.Value()
		out := make([]byte, len(value))
		copy(out, value)
		result[id] = out
	}
	if err := cur.Error(); err != nil {
		return nil, err
	}
	return result, nil
}
