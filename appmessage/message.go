// Package appmessage is the wire codec of spec.md §4.9: a
// tagged-union message format carrying the six request/response
// variants the protocol uses. Go has no sum types, so the tagged
// union is a single struct with a Type discriminator and one optional
// field per payload, decoded once at the session boundary and
// switched on immediately — raw bytes never travel past Decode.
package appmessage

import (
	"encoding/hex"
	"encoding/json"

	"github.com/chaind/ledgerd/ledger"
	"github.com/chaind/ledgerd/peerdir"
	"github.com/pkg/errors"
)

// Type is the message tag. The tag name is the variant name, per
// spec.md §4.9.
type Type string

// Message variants, matching spec.md §4.9's table exactly.
const (
	TypeRequestBlockchain Type = "RequestBlockchain"
	TypeSendBlockchain    Type = "SendBlockchain"
	TypeRequestPeers      Type = "RequestPeers"
	TypeSendPeers         Type = "SendPeers"
	TypeNewTransaction    Type = "NewTransaction"
	TypeMineNewBlock      Type = "MineNewBlock"
)

// Message is the wire envelope. Only the payload fields belonging to
// Type are populated (one field, or two for NewTransaction);
// RequestBlockchain, RequestPeers, and MineNewBlock carry no payload
// at all.
type Message struct {
	Type Type `json:"type"`

	// Blockchain carries the payload of SendBlockchain.
	Blockchain []*ledger.Block `json:"blockchain,omitempty"`

	// Peers carries the payload of SendPeers.
	Peers []peerdir.Peer `json:"peers,omitempty"`

	// Transaction and SenderPublicKey carry the two-part payload of
	// NewTransaction: the transaction itself, plus the sender's
	// public key (hex-encoded compressed secp256k1 point) needed to
	// verify its signature on admission.
	Transaction     *ledger.Transaction `json:"transaction,omitempty"`
	SenderPublicKey string              `json:"sender_public_key,omitempty"`
}

// RequestBlockchain builds a RequestBlockchain message.
func RequestBlockchain() *Message {
	return &Message{Type: TypeRequestBlockchain}
}

// SendBlockchain builds a SendBlockchain message carrying chain.
func SendBlockchain(chain []*ledger.Block) *Message {
	return &Message{Type: TypeSendBlockchain, Blockchain: chain}
}

// RequestPeers builds a RequestPeers message.
func RequestPeers() *Message {
	return &Message{Type: TypeRequestPeers}
}

// SendPeers builds a SendPeers message carrying peers.
func SendPeers(peers []peerdir.Peer) *Message {
	return &Message{Type: TypeSendPeers, Peers: peers}
}

// NewTransactionMessage builds a NewTransaction message. publicKey is
// the sender's raw (compressed) secp256k1 public key bytes.
func NewTransactionMessage(tx *ledger.Transaction, publicKey []byte) *Message {
	return &Message{
		Type:            TypeNewTransaction,
		Transaction:     tx,
		SenderPublicKey: hex.EncodeToString(publicKey),
	}
}

// MineNewBlock builds a MineNewBlock message.
func MineNewBlock() *Message {
	return &Message{Type: TypeMineNewBlock}
}

// Encode renders m as a single JSON document.
func Encode(m *Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode message")
	}
	return data, nil
}

// Decode parses a single JSON document into a Message and validates
// that its Type is one of the known variants.
func Decode(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "failed to decode message")
	}
	switch m.Type {
	case TypeRequestBlockchain, TypeSendBlockchain, TypeRequestPeers,
		TypeSendPeers, TypeNewTransaction, TypeMineNewBlock:
		return &m, nil
	default:
		return nil, errors.Errorf("unknown message type %q", m.Type)
	}
}

// SenderPublicKeyBytes decodes the hex-encoded sender public key.
func (m *Message) SenderPublicKeyBytes() ([]byte, error) {
	return hex.DecodeString(m.SenderPublicKey)
}
