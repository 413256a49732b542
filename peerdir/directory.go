// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peerdir

import (
	"encoding/json"
	"sync"

	"github.com/chaind/ledgerd/logger"
	"github.com/chaind/ledgerd/store"
)

var log = logger.Get(logger.TagPeer)

// Directory is a concurrency-safe set of known peers, keyed and
// deduplicated by id, persisted one entry per id (spec.md §4.8).
// Grounded on the teacher's AddressManager: a plain map guarded by a
// single mutex, add/remove/snapshot as the whole surface.
type Directory struct {
	mu    sync.Mutex
	peers map[string]*Peer
	store *store.PeerStore
}

// Open hydrates a Directory from persistence.
func Open(peerStore *store.PeerStore) (*Directory, error) {
	d := &Directory{
		peers: map[string]*Peer{},
		store: peerStore,
	}

	entries, err := peerStore.All()
	if err != nil {
		return nil, err
	}
	for id, raw := range entries {
		var p Peer
		if err := json.Unmarshal(raw, &p); err != nil {
			log.Warnf("failed to decode persisted peer %s, skipping: %s", id, err)
			continue
		}
		d.peers[p.ID] = &p
	}
	return d, nil
}

// Add adds a peer to the directory, persisting it. Adding a peer
// whose id is already present is a no-op: the directory rejects
// duplicate ids (spec.md §3) by simply leaving the existing entry in
// place.
func (d *Directory) Add(p Peer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addLocked(p)
}

func (d *Directory) addLocked(p Peer) error {
	if _, exists := d.peers[p.ID]; exists {
		return nil
	}

	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := d.store.Put(p.ID, data); err != nil {
		return err
	}

	peerCopy := p
	d.peers[p.ID] = &peerCopy
	log.Infof("peer added: %s at %s", p.ID, p.Address)
	return nil
}

// AddAll adds every peer in peers, skipping ids already present.
func (d *Directory) AddAll(peers []Peer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range peers {
		if err := d.addLocked(p); err != nil {
			return err
		}
	}
	return nil
}

// Remove removes a peer by id. Removing an absent id is not an error
// (spec.md §3: peers are removed only by explicit request).
func (d *Directory) Remove(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.peers[id]; !exists {
		return nil
	}
	delete(d.peers, id)
	return d.store.Delete(id)
}

// Snapshot returns every known peer, in no particular order.
func (d *Directory) Snapshot() []Peer {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Peer, 0, len(d.peers))
	for _, p := range d.peers {
		out = append(out, *p)
	}
	return out
}

// Len returns the number of known peers.
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.peers)
}
