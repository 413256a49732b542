package client

import (
	"net"
	"testing"

	"github.com/chaind/ledgerd/appmessage"
	"github.com/chaind/ledgerd/database"
	"github.com/chaind/ledgerd/peerdir"
	"github.com/chaind/ledgerd/store"
)

// fakeSeed starts a listener that replies to any message with a fixed
// peer list, the way a real server's RequestPeers/SendPeers path
// would, without pulling in the server package.
func fakeSeed(t *testing.T, reply []peerdir.Peer) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: unexpected error: %s", err)
	}
	t.Cleanup(func() { listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		buf := make([]byte, readBufferSize)
		if _, err := conn.Read(buf); err != nil {
			return
		}

		data, err := appmessage.Encode(appmessage.SendPeers(reply))
		if err != nil {
			return
		}
		conn.Write(data)
	}()

	return listener.Addr().String()
}

func TestBootstrapMergesPeersExcludingSelf(t *testing.T) {
	self := peerdir.Peer{ID: "peer_1", Address: "127.0.0.1:6001"}
	other := peerdir.Peer{ID: "peer_2", Address: "127.0.0.1:6002"}
	seedAddr := fakeSeed(t, []peerdir.Peer{self, other})

	d, err := peerdir.Open(store.NewPeerStore(database.OpenMem()))
	if err != nil {
		t.Fatalf("peerdir.Open: unexpected error: %s", err)
	}

	if err := Bootstrap(seedAddr, self, d); err != nil {
		t.Fatalf("Bootstrap: unexpected error: %s", err)
	}

	snapshot := d.Snapshot()
	if len(snapshot) != 1 || snapshot[0].ID != "peer_2" {
		t.Fatalf("expected only peer_2 merged, got %+v", snapshot)
	}
}
