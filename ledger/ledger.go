// Package ledger implements the chain, mempool, balances, mining
// loop, difficulty controller, and validation that together make up
// spec.md §3-§4's ledger subsystem.
package ledger

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/chaind/ledgerd/logger"
	"github.com/chaind/ledgerd/store"
	"github.com/chaind/ledgerd/wallet"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

var log = logger.Get(logger.TagLedger)

// Tuning constants from spec.md §4.5-§4.6.
const (
	MinTransactionsForBlock = 2
	BlockReward             = 1.0
	BlockTargetTimeSeconds  = 10
	AdjustmentBlockCount    = 5

	// MaxBlockTxs, if positive, would cap the number of transactions
	// selected per block. Spec.md §9 item 2 instructs preserving the
	// uncapped "take all after sort" behavior, so this stays at 0
	// (disabled) — it exists only to name where a future cap hooks in.
	MaxBlockTxs = 0
)

// Ledger is the per-node chain, mempool, balance table, difficulty
// controller and persistence handle described in spec.md §3. All
// mutation goes through its exported methods, each of which holds
// the Ledger's internal mutex — the node's ledger lock — for its full
// duration, so callers (the server's session loop, tests) need no
// external lock.
type Ledger struct {
	mu sync.Mutex

	chain              []*Block
	mempool            []*Transaction
	balances           map[string]float64
	difficulty         uint32
	totalFeesCollected float64

	MinerWallet *wallet.Wallet

	store *store.LedgerStore
}

// Open hydrates a Ledger from persistence at store, creating the
// genesis block if the chain is empty (spec.md §3 Lifecycle).
func Open(ledgerStore *store.LedgerStore) (*Ledger, error) {
	l := &Ledger{
		balances:   map[string]float64{},
		difficulty: GenesisDifficulty,
		store:      ledgerStore,
	}

	if err := l.hydrate(); err != nil {
		return nil, err
	}

	if len(l.chain) == 0 {
		genesis := NewGenesisBlock()
		l.chain = append(l.chain, genesis)
		if err := l.persistChain(); err != nil {
			return nil, err
		}
	}

	minerWallet, err := wallet.New()
	if err != nil {
		return nil, err
	}
	l.MinerWallet = minerWallet
	log.Infof("miner wallet address: %s", minerWallet.Address)

	return l, nil
}

func (l *Ledger) hydrate() error {
	if raw, err := l.store.Chain(); err != nil {
		return err
	} else if len(raw) > 0 {
		var chain []*Block
		if err := json.Unmarshal(raw, &chain); err == nil {
			l.chain = chain
		} else {
			log.Warnf("failed to decode persisted blockchain, starting empty: %s", err)
		}
	}

	if raw, err := l.store.Mempool(); err != nil {
		return err
	} else if len(raw) > 0 {
		var mempool []*Transaction
		if err := json.Unmarshal(raw, &mempool); err == nil {
			l.mempool = mempool
		} else {
			log.Warnf("failed to decode persisted mempool, starting empty: %s", err)
		}
	}

	if raw, err := l.store.Balances(); err != nil {
		return err
	} else if len(raw) > 0 {
		var balances map[string]float64
		if err := json.Unmarshal(raw, &balances); err == nil {
			l.balances = balances
		} else {
			log.Warnf("failed to decode persisted balances, starting empty: %s", err)
		}
	}

	if raw, err := l.store.TotalFees(); err != nil {
		return err
	} else if len(raw) > 0 {
		var fees float64
		if err := json.Unmarshal(raw, &fees); err == nil {
			l.totalFeesCollected = fees
		}
	}

	if len(l.chain) > 0 {
		// Difficulty in force is whatever the tip was mined at; the
		// genesis-only case keeps the package default.
		l.difficulty = l.chain[len(l.chain)-1].Difficulty
	}

	return nil
}

// Chain returns a snapshot of the current chain.
func (l *Ledger) Chain() []*Block {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.chainSnapshotLocked()
}

func (l *Ledger) chainSnapshotLocked() []*Block {
	out := make([]*Block, len(l.chain))
	copy(out, l.chain)
	return out
}

// Mempool returns a snapshot of the current mempool.
func (l *Ledger) Mempool() []*Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Transaction, len(l.mempool))
	copy(out, l.mempool)
	return out
}

// Balance returns the balance of address, 0 if absent.
func (l *Ledger) Balance(address string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[address]
}

// Difficulty returns the current mining difficulty.
func (l *Ledger) Difficulty() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.difficulty
}

// TotalFeesCollected returns the running sum of fees collected across
// all mined blocks.
func (l *Ledger) TotalFeesCollected() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalFeesCollected
}

// AddTransaction is the admission path of spec.md §4.4: balance
// check, then signature verification, then balance mutation and
// mempool push. Rejection is reported via the returned error but
// never panics and never aborts the caller's session.
//
// As in the source this is grounded on, balances mutate here, at
// mempool-admission time, not when the transaction's block is
// eventually mined (spec.md §9 open question 1 — the source behavior
// is preserved deliberately; see DESIGN.md).
func (l *Ledger) AddTransaction(tx *Transaction, senderPublicKey *secp256k1.PublicKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !tx.IsValid() {
		log.Warnf("rejecting structurally invalid transaction from %s", tx.Sender)
		return ErrInvalidTransaction
	}

	totalCost := tx.TotalCost()
	if l.balances[tx.Sender] < totalCost {
		log.Warnf("sender %s has insufficient funds", tx.Sender)
		return ErrInsufficientFunds
	}

	if !wallet.Verify(senderPublicKey, tx.Hash(), tx.Signature) {
		log.Warnf("invalid signature on transaction from %s, rejecting", tx.Sender)
		return ErrBadSignature
	}

	l.balances[tx.Sender] -= totalCost
	l.balances[tx.Recipient] += tx.Amount

	l.mempool = append(l.mempool, tx)

	if err := l.persistBalances(); err != nil {
		return err
	}
	if err := l.persistMempool(); err != nil {
		return err
	}

	log.Infof("transaction admitted to mempool: %s -> %s (%.8f, fee %.8f)",
		tx.Sender, tx.Recipient, tx.Amount, tx.Fee)
	return nil
}

// MineBlock is the local mining action of spec.md §4.5. It is a
// no-op when the mempool doesn't yet hold MinTransactionsForBlock
// transactions. The proof-of-work search is synchronous and
// non-cancellable, and — by the concurrency contract in spec.md §5 —
// is expected to run with the ledger lock held for its entire
// duration, serializing mining against all peer I/O.
func (l *Ledger) MineBlock() (*Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.mempool) < MinTransactionsForBlock {
		log.Infof("not enough transactions in mempool to mine a block (%d < %d)",
			len(l.mempool), MinTransactionsForBlock)
		return nil, nil
	}

	selected := l.selectTransactionsForBlockLocked()

	var totalFees float64
	for _, tx := range selected {
		totalFees += tx.Fee
	}
	l.totalFeesCollected += totalFees

	data := textualDebugForm(selected)

	tip := l.chain[len(l.chain)-1]
	newBlock := NewBlock(tip.Index+1, tip.Hash, data, l.difficulty)

	startedAt := time.Now()
	target := l.difficulty
	for !hasLeadingZeros(newBlock.Hash, target) {
		newBlock.Nonce++
		newBlock.recomputeHash()
	}
	elapsed := time.Since(startedAt)

	log.Infof("block mined! nonce=%d hash=%s difficulty=%d elapsed=%s",
		newBlock.Nonce, newBlock.Hash, newBlock.Difficulty, elapsed)

	l.balances[l.MinerWallet.Address] += BlockReward + totalFees
	l.chain = append(l.chain, newBlock)
	l.mempool = nil

	if err := l.persistChain(); err != nil {
		return newBlock, err
	}
	if err := l.persistMempool(); err != nil {
		return newBlock, err
	}
	if err := l.persistTotalFees(); err != nil {
		return newBlock, err
	}
	if err := l.persistBalances(); err != nil {
		return newBlock, err
	}

	l.adjustDifficultyLocked()

	return newBlock, nil
}

// selectTransactionsForBlockLocked sorts the mempool by descending
// fee and takes all of it — a deliberate, uncapped design choice
// preserved from the source (spec.md §4.5 step 3, §9 item 2). Sort
// is stable, so equal-fee transactions keep their arrival order.
func (l *Ledger) selectTransactionsForBlockLocked() []*Transaction {
	sort.SliceStable(l.mempool, func(i, j int) bool {
		return l.mempool[i].Fee > l.mempool[j].Fee
	})
	selected := make([]*Transaction, len(l.mempool))
	copy(selected, l.mempool)
	return selected
}

// textualDebugForm is the "opaque, deterministic string
// representation" spec.md §4.5 step 4 requires as block data: human
// display and hash input only, never parsed back. Each transaction is
// dereferenced and formatted by value — ranging over the []*Transaction
// directly would print pointer addresses instead of field values.
func textualDebugForm(txs []*Transaction) string {
	parts := make([]string, len(txs))
	for i, tx := range txs {
		parts[i] = fmt.Sprintf("%+v", *tx)
	}
	return fmt.Sprintf("%v", parts)
}

// adjustDifficultyLocked is the difficulty controller of spec.md
// §4.6. Called with l.mu already held, after a successful mine.
func (l *Ledger) adjustDifficultyLocked() {
	if len(l.chain) < AdjustmentBlockCount {
		return
	}

	window := l.chain[len(l.chain)-AdjustmentBlockCount:]
	first := window[0]
	last := window[len(window)-1]

	actual := parseUnixSeconds(last.Timestamp) - parseUnixSeconds(first.Timestamp)
	expected := int64(BlockTargetTimeSeconds * AdjustmentBlockCount)

	switch {
	case actual < expected/2:
		l.difficulty++
		log.Infof("mining too fast (actual=%ds expected=%ds): increasing difficulty to %d",
			actual, expected, l.difficulty)
	case actual > expected*2:
		if l.difficulty > 0 {
			l.difficulty--
		}
		log.Infof("mining too slow (actual=%ds expected=%ds): decreasing difficulty to %d",
			actual, expected, l.difficulty)
	}
}

func parseUnixSeconds(timestamp string) int64 {
	var seconds int64
	_, err := fmt.Sscanf(timestamp, "%d", &seconds)
	if err != nil {
		return 0
	}
	return seconds
}

// IsValidChain checks link and hash integrity only (spec.md §4.7): no
// proof-of-work re-check, no signature re-verification. An empty or
// single-element chain is valid.
func (l *Ledger) IsValidChain() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return isValidChain(l.chain)
}

func isValidChain(chain []*Block) bool {
	for i := 1; i < len(chain); i++ {
		current := chain[i]
		previous := chain[i-1]

		if current.PreviousHash != previous.Hash {
			return false
		}
		if current.Index != uint64(i) {
			return false
		}
		expectedHash := HashOf(current.Index, current.Timestamp, current.PreviousHash, current.Data, current.Nonce)
		if current.Hash != expectedHash {
			return false
		}
	}
	return true
}

// ReplaceChainIfLonger implements the server's SendBlockchain
// dispatch (spec.md §4.10): the local chain is replaced only when the
// candidate is strictly longer and its links validate. It reports
// whether a replacement happened.
func (l *Ledger) ReplaceChainIfLonger(candidate []*Block) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(candidate) <= len(l.chain) {
		return false, nil
	}
	if !isValidChain(candidate) {
		log.Warnf("rejecting replacement chain: failed link/hash validation")
		return false, nil
	}

	l.chain = candidate
	if len(l.chain) > 0 {
		l.difficulty = l.chain[len(l.chain)-1].Difficulty
	}
	log.Infof("blockchain replaced: new length %d", len(l.chain))

	if err := l.persistChain(); err != nil {
		return true, err
	}
	return true, nil
}

func (l *Ledger) persistChain() error {
	data, err := json.Marshal(l.chain)
	if err != nil {
		return err
	}
	return l.store.SaveChain(data)
}

func (l *Ledger) persistMempool() error {
	data, err := json.Marshal(l.mempool)
	if err != nil {
		return err
	}
	return l.store.SaveMempool(data)
}

func (l *Ledger) persistBalances() error {
	data, err := json.Marshal(l.balances)
	if err != nil {
		return err
	}
	return l.store.SaveBalances(data)
}

func (l *Ledger) persistTotalFees() error {
	data, err := json.Marshal(l.totalFeesCollected)
	if err != nil {
		return err
	}
	return l.store.SaveTotalFees(data)
}
