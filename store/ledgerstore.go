// Package store is the persistence adapter of the ledger and peer
// subsystems: a typed facade over database.DB under fixed keys
// (ledger) or a per-id key prefix (peers). It deals in raw JSON
// bytes; marshaling to and from domain types is the caller's job, so
// this package has no dependency on the ledger package and can be
// grounded and tested independently of it.
package store

import (
	"github.com/chaind/ledgerd/database"
	"github.com/chaind/ledgerd/logger"
	"github.com/pkg/errors"
)

var log = logger.Get(logger.TagStore)

// Fixed keys for the ledger namespace, per spec: one key per piece of
// ledger state, all in the same underlying database.
var (
	keyBlockchain = []byte("blockchain")
	keyMempool    = []byte("mempool")
	keyBalances   = []byte("balances")
	keyTotalFees  = []byte("total_fees")
)

// LedgerStore is the persistence adapter backing a single Ledger. It
// is intentionally dumb: it stores and retrieves opaque JSON blobs
// under the four fixed keys spec.md §4.8 names, and nothing more.
type LedgerStore struct {
	db database.DB
}

// OpenLedgerStore opens (creating if necessary) the ledger's KV store
// at path.
func OpenLedgerStore(path string) (*LedgerStore, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}
	return &LedgerStore{db: db}, nil
}

// NewLedgerStore wraps an already-open database.DB, primarily so
// tests can use an in-memory database.
func NewLedgerStore(db database.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// Close releases the underlying database handle.
func (s *LedgerStore) Close() error {
	return s.db.Close()
}

// Chain returns the raw JSON previously written by SaveChain, or nil
// if nothing has been written yet (decodes to "empty" upstream).
func (s *LedgerStore) Chain() ([]byte, error) {
	return s.getOrNil(keyBlockchain)
}

// SaveChain persists the chain's JSON encoding. Write failures are
// logged and returned; callers retain in-memory state regardless
// (spec.md §7: persistence failures are non-fatal).
func (s *LedgerStore) SaveChain(data []byte) error {
	if err := s.db.Put(keyBlockchain, data); err != nil {
		log.Errorf("failed to persist blockchain: %s", err)
		return err
	}
	return nil
}

// Mempool returns the raw JSON previously written by SaveMempool.
func (s *LedgerStore) Mempool() ([]byte, error) {
	return s.getOrNil(keyMempool)
}

// SaveMempool persists the mempool's JSON encoding under the
// "mempool" key. Earlier revisions of this lineage wrote chain data
// under this key by mistake (spec.md §9 item 5); this store never
// does.
func (s *LedgerStore) SaveMempool(data []byte) error {
	if err := s.db.Put(keyMempool, data); err != nil {
		log.Errorf("failed to persist mempool: %s", err)
		return err
	}
	return nil
}

// Balances returns the raw JSON previously written by SaveBalances.
func (s *LedgerStore) Balances() ([]byte, error) {
	return s.getOrNil(keyBalances)
}

// SaveBalances persists the balances map's JSON encoding.
func (s *LedgerStore) SaveBalances(data []byte) error {
	if err := s.db.Put(keyBalances, data); err != nil {
		log.Errorf("failed to persist balances: %s", err)
		return err
	}
	return nil
}

// TotalFees returns the raw JSON previously written by
// SaveTotalFees.
func (s *LedgerStore) TotalFees() ([]byte, error) {
	return s.getOrNil(keyTotalFees)
}

// SaveTotalFees persists the running fee total's JSON encoding.
func (s *LedgerStore) SaveTotalFees(data []byte) error {
	if err := s.db.Put(keyTotalFees, data); err != nil {
		log.Errorf("failed to persist total fees: %s", err)
		return err
	}
	return nil
}

func (s *LedgerStore) getOrNil(key []byte) ([]byte, error) {
	value, found, err := s.db.Get(key)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !found {
		return nil, nil
	}
	return value, nil
}
