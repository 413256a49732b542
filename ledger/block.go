package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// GenesisDifficulty is the fixed difficulty stamped on the genesis
// block; it is not subject to proof-of-work (spec.md §3).
const GenesisDifficulty = 2

// GenesisPreviousHash and GenesisData are the genesis block's fixed
// fields.
const (
	GenesisPreviousHash = "0"
	GenesisData         = "Genesis block"
)

// Block is one link in the chain: a header plus an opaque payload
// string holding the textual form of the transactions it includes.
//
// Invariant: Hash == HashOf(Index, Timestamp, PreviousHash, Data,
// Nonce), and Hash begins with Difficulty ASCII '0' characters (except
// the genesis block, which is exempt from the difficulty target).
type Block struct {
	Index        uint64 `json:"index"`
	Timestamp    string `json:"timestamp"`
	PreviousHash string `json:"previous_hash"`
	Hash         string `json:"hash"`
	Data         string `json:"data"`
	Nonce        uint64 `json:"nonce"`
	Difficulty   uint32 `json:"difficulty"`
}

// HashOf is the single source of truth for a block's digest: SHA-256
// over the concatenation of its fields, rendered as lowercase hex.
// Both block construction and chain validation must call this, and
// only this, to compute a hash (spec.md §4.1).
func HashOf(index uint64, timestamp, previousHash, data string, nonce uint64) string {
	h := sha256.New()
	h.Write([]byte(strconv.FormatUint(index, 10)))
	h.Write([]byte(timestamp))
	h.Write([]byte(previousHash))
	h.Write([]byte(data))
	h.Write([]byte(strconv.FormatUint(nonce, 10)))
	return hex.EncodeToString(h.Sum(nil))
}

// NewBlock builds a block at the current time with nonce 0 and its
// hash computed once. Callers mining the block bump Nonce and
// recompute Hash via HashOf until the difficulty target is met
// (spec.md §4.5 step 7).
func NewBlock(index uint64, previousHash, data string, difficulty uint32) *Block {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	b := &Block{
		Index:        index,
		Timestamp:    timestamp,
		PreviousHash: previousHash,
		Data:         data,
		Nonce:        0,
		Difficulty:   difficulty,
	}
	b.Hash = HashOf(b.Index, b.Timestamp, b.PreviousHash, b.Data, b.Nonce)
	return b
}

// NewGenesisBlock builds the chain's first block from the fixed
// genesis fields. Like any block, it is stamped with the current time,
// so its hash differs between calls made in different seconds. Its
// hash is computed the same way as any other block's but is not
// checked against a difficulty target.
func NewGenesisBlock() *Block {
	return NewBlock(0, GenesisPreviousHash, GenesisData, GenesisDifficulty)
}

// recomputeHash recomputes Hash from the block's current fields,
// used by the mining loop after bumping Nonce.
func (b *Block) recomputeHash() {
	b.Hash = HashOf(b.Index, b.Timestamp, b.PreviousHash, b.Data, b.Nonce)
}

func hasLeadingZeros(hash string, count uint32) bool {
	if uint32(len(hash)) < count {
		return false
	}
	for i := uint32(0); i < count; i++ {
		if hash[i] != '0' {
			return false
		}
	}
	return true
}
