package peerdir

import (
	"testing"

	"github.com/chaind/ledgerd/database"
	"github.com/chaind/ledgerd/store"
)

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()
	d, err := Open(store.NewPeerStore(database.OpenMem()))
	if err != nil {
		t.Fatalf("Open: unexpected error: %s", err)
	}
	return d
}

func TestAddIsIdempotent(t *testing.T) {
	d := newTestDirectory(t)
	p := Peer{ID: "peer_1", Address: "127.0.0.1:6001"}

	if err := d.Add(p); err != nil {
		t.Fatalf("Add: unexpected error: %s", err)
	}
	if err := d.Add(p); err != nil {
		t.Fatalf("Add (second time): unexpected error: %s", err)
	}

	if d.Len() != 1 {
		t.Fatalf("expected 1 peer after duplicate add, got %d", d.Len())
	}
}

func TestAddAllMergesNewPeersOnly(t *testing.T) {
	d := newTestDirectory(t)
	p1 := Peer{ID: "peer_1", Address: "127.0.0.1:6001"}
	if err := d.Add(p1); err != nil {
		t.Fatalf("Add: unexpected error: %s", err)
	}

	p2 := Peer{ID: "peer_2", Address: "127.0.0.1:6002"}
	if err := d.AddAll([]Peer{p1, p2}); err != nil {
		t.Fatalf("AddAll: unexpected error: %s", err)
	}

	if d.Len() != 2 {
		t.Fatalf("expected 2 peers, got %d", d.Len())
	}
}

func TestRemoveUnknownPeerIsNotAnError(t *testing.T) {
	d := newTestDirectory(t)
	if err := d.Remove("does-not-exist"); err != nil {
		t.Fatalf("Remove: unexpected error: %s", err)
	}
}

func TestRemoveThenSnapshot(t *testing.T) {
	d := newTestDirectory(t)
	p := Peer{ID: "peer_1", Address: "127.0.0.1:6001"}
	if err := d.Add(p); err != nil {
		t.Fatalf("Add: unexpected error: %s", err)
	}
	if err := d.Remove(p.ID); err != nil {
		t.Fatalf("Remove: unexpected error: %s", err)
	}
	if got := len(d.Snapshot()); got != 0 {
		t.Fatalf("expected empty directory after remove, got %d entries", got)
	}
}
