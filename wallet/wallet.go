// Package wallet implements the process-local signing identity used
// by the miner and by transaction senders: a secp256k1 keypair, its
// derived address, and ECDSA signing over a transaction's canonical
// hash.
package wallet

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/chaind/ledgerd/logger"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/pkg/errors"
)

var log = logger.Get(logger.TagCrypto)

// Wallet is a process-local keypair and its derived address.
//
// Wallets are never persisted; only the miner wallet generated at
// ledger startup is retained for the node's lifetime (spec.md §3).
type Wallet struct {
	PrivateKey *secp256k1.PrivateKey
	PublicKey  *secp256k1.PublicKey
	Address    string
}

// New draws a fresh secp256k1 keypair from the OS RNG and derives the
// wallet's address from it.
func New() (*Wallet, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate private key")
	}
	pub := priv.PubKey()
	return &Wallet{
		PrivateKey: priv,
		PublicKey:  pub,
		Address:    AddressFromPublicKey(pub),
	}, nil
}

// AddressFromPublicKey derives an address as hex(SHA-256(string form
// of the public key)), per spec.md §3. The "string form" of a
// secp256k1 public key in this node is its compressed-serialization
// hex string — the Go analogue of the original implementation's
// PublicKey::to_string().
func AddressFromPublicKey(pub *secp256k1.PublicKey) string {
	pubString := hex.EncodeToString(pub.SerializeCompressed())
	sum := sha256.Sum256([]byte(pubString))
	return hex.EncodeToString(sum[:])
}

// signer is the subset of Transaction this package signs, avoiding an
// import of the ledger package (which itself imports wallet, so the
// reverse import would be a cycle).
type signer interface {
	Hash() string
}

// Sign computes the ECDSA signature of tx's canonical hash under this
// wallet's private key and returns it hex-encoded (DER form).
func (w *Wallet) Sign(tx signer) (string, error) {
	hashHex := tx.Hash()
	hashBytes, err := hex.DecodeString(hashHex)
	if err != nil {
		return "", errors.Wrap(err, "transaction hash is not valid hex")
	}
	sig := ecdsa.Sign(w.PrivateKey, hashBytes)
	signatureHex := hex.EncodeToString(sig.Serialize())
	log.Debugf("signed transaction %s for address %s", hashHex, w.Address)
	return signatureHex, nil
}

// Verify checks that signatureHex is a valid ECDSA signature over
// hashHex under publicKey. Malformed hex in either input is treated
// as a verification failure, not an error, since the ledger's
// admission path (spec.md §4.4) reports bad signatures rather than
// propagating an error.
func Verify(publicKey *secp256k1.PublicKey, hashHex string, signatureHex string) bool {
	hashBytes, err := hex.DecodeString(hashHex)
	if err != nil {
		return false
	}
	sigBytes, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return false
	}
	return sig.Verify(hashBytes, publicKey)
}

// ParsePublicKey parses a compressed or uncompressed secp256k1 public
// key from its byte encoding, as received over the wire alongside a
// NewTransaction message.
func ParsePublicKey(data []byte) (*secp256k1.PublicKey, error) {
	pub, err := secp256k1.ParsePubKey(data)
	if err != nil {
		return nil, errors.Wrap(err, "invalid public key")
	}
	return pub, nil
}
