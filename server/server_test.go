package server

import (
	"net"
	"testing"
	"time"

	"github.com/chaind/ledgerd/appmessage"
	"github.com/chaind/ledgerd/database"
	"github.com/chaind/ledgerd/ledger"
	"github.com/chaind/ledgerd/peerdir"
	"github.com/chaind/ledgerd/store"
	"github.com/chaind/ledgerd/wallet"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	l, err := ledger.Open(store.NewLedgerStore(database.OpenMem()))
	if err != nil {
		t.Fatalf("ledger.Open: unexpected error: %s", err)
	}
	d, err := peerdir.Open(store.NewPeerStore(database.OpenMem()))
	if err != nil {
		t.Fatalf("peerdir.Open: unexpected error: %s", err)
	}

	s := New(l, d)
	if err := s.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("Listen: unexpected error: %s", err)
	}
	go s.Serve()
	t.Cleanup(func() { s.Close() })

	return s, s.listener.Addr().String()
}

func exchange(t *testing.T, addr string, msg *appmessage.Message) *appmessage.Message {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: unexpected error: %s", err)
	}
	defer conn.Close()

	data, err := appmessage.Encode(msg)
	if err != nil {
		t.Fatalf("Encode: unexpected error: %s", err)
	}
	if _, err := conn.Write(data); err != nil {
		t.Fatalf("Write: unexpected error: %s", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, readBufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("Read: unexpected error: %s", err)
	}
	reply, err := appmessage.Decode(buf[:n])
	if err != nil {
		t.Fatalf("Decode: unexpected error: %s", err)
	}
	return reply
}

func TestRequestBlockchainReturnsGenesis(t *testing.T) {
	_, addr := newTestServer(t)

	reply := exchange(t, addr, appmessage.RequestBlockchain())
	if reply.Type != appmessage.TypeSendBlockchain {
		t.Fatalf("expected SendBlockchain reply, got %s", reply.Type)
	}
	if len(reply.Blockchain) != 1 {
		t.Fatalf("expected genesis-only chain, got %d blocks", len(reply.Blockchain))
	}
}

func TestRequestPeersReturnsEmptyDirectory(t *testing.T) {
	_, addr := newTestServer(t)

	reply := exchange(t, addr, appmessage.RequestPeers())
	if reply.Type != appmessage.TypeSendPeers {
		t.Fatalf("expected SendPeers reply, got %s", reply.Type)
	}
	if len(reply.Peers) != 0 {
		t.Fatalf("expected no peers, got %d", len(reply.Peers))
	}
}

func TestNewTransactionOverTheWireGetsALegacyPeerSnapshotReply(t *testing.T) {
	_, addr := newTestServer(t)

	w, err := wallet.New()
	if err != nil {
		t.Fatalf("wallet.New: unexpected error: %s", err)
	}
	tx := ledger.NewTransaction(w.Address, "B", 1.0, "")
	sig, err := w.Sign(tx)
	if err != nil {
		t.Fatalf("Sign: unexpected error: %s", err)
	}
	tx.Signature = sig

	msg := appmessage.NewTransactionMessage(tx, w.PublicKey.SerializeCompressed())
	reply := exchange(t, addr, msg)

	// NewTransaction carries no primary response; the session's
	// legacy secondary payload is the peer-list snapshot
	// (spec.md §4.10 step 5). The sender has no credited balance, so
	// the transaction itself is rejected for insufficient funds --
	// this test only asserts the session doesn't hang or crash on a
	// well-formed NewTransaction message.
	if reply.Type != appmessage.TypeSendPeers {
		t.Fatalf("expected legacy SendPeers reply, got %s", reply.Type)
	}
}
