package appmessage

import (
	"testing"

	"github.com/chaind/ledgerd/ledger"
	"github.com/chaind/ledgerd/peerdir"
)

func roundTrip(t *testing.T, m *Message) *Message {
	t.Helper()
	data, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: unexpected error: %s", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: unexpected error: %s", err)
	}
	return decoded
}

func TestRoundTripRequestBlockchain(t *testing.T) {
	decoded := roundTrip(t, RequestBlockchain())
	if decoded.Type != TypeRequestBlockchain {
		t.Errorf("Type = %s, want %s", decoded.Type, TypeRequestBlockchain)
	}
}

func TestRoundTripSendBlockchain(t *testing.T) {
	chain := []*ledger.Block{ledger.NewGenesisBlock()}
	decoded := roundTrip(t, SendBlockchain(chain))
	if len(decoded.Blockchain) != 1 {
		t.Fatalf("expected 1 block, got %d", len(decoded.Blockchain))
	}
	if decoded.Blockchain[0].Hash != chain[0].Hash {
		t.Errorf("block hash mismatch after round trip")
	}
}

func TestRoundTripSendPeers(t *testing.T) {
	peers := []peerdir.Peer{{ID: "peer_1", Address: "127.0.0.1:6001"}}
	decoded := roundTrip(t, SendPeers(peers))
	if len(decoded.Peers) != 1 || decoded.Peers[0].ID != "peer_1" {
		t.Errorf("unexpected peers after round trip: %+v", decoded.Peers)
	}
}

func TestRoundTripNewTransaction(t *testing.T) {
	tx := ledger.NewTransaction("A", "B", 5.0, "deadbeef")
	pubKey := []byte{0x02, 0x01, 0x02, 0x03}
	decoded := roundTrip(t, NewTransactionMessage(tx, pubKey))

	if decoded.Transaction == nil || decoded.Transaction.Sender != "A" {
		t.Fatalf("unexpected transaction after round trip: %+v", decoded.Transaction)
	}
	gotKey, err := decoded.SenderPublicKeyBytes()
	if err != nil {
		t.Fatalf("SenderPublicKeyBytes: unexpected error: %s", err)
	}
	if len(gotKey) != len(pubKey) {
		t.Fatalf("public key length mismatch: got %d want %d", len(gotKey), len(pubKey))
	}
}

func TestRoundTripMineNewBlock(t *testing.T) {
	decoded := roundTrip(t, MineNewBlock())
	if decoded.Type != TypeMineNewBlock {
		t.Errorf("Type = %s, want %s", decoded.Type, TypeMineNewBlock)
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"SomethingElse"}`))
	if err == nil {
		t.Fatal("expected an error decoding an unknown message type")
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	if err == nil {
		t.Fatal("expected an error decoding malformed JSON")
	}
}
