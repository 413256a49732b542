package database

import (
	"bytes"
	"sort"
	"sync"
)

// memDB is an in-memory DB used by package tests that don't want to
// touch disk. It implements the same ordering contract as levelDB:
// Cursor iterates keys sharing a prefix in sorted order.
type memDB struct {
	mu   sync.Mutex
	data map[string][]byte
}

// OpenMem returns an in-memory database.DB.
func OpenMem() DB {
	return &memDB{data: map[string][]byte{}}
}

func (db *memDB) Get(key []byte) ([]byte, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	v, ok := db.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (db *memDB) Has(key []byte) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, ok := db.data[string(key)]
	return ok, nil
}

func (db *memDB) Put(key []byte, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	db.data[string(key)] = v
	return nil
}

func (db *memDB) Delete(key []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.data, string(key))
	return nil
}

func (db *memDB) Cursor(prefix []byte) (Cursor, error) {
	db.mu.Lock()
	keys := make([]string, 0, len(db.data))
	for k := range db.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	db.mu.Unlock()
	sort.Strings(keys)
	return &memCursor{db: db, keys: keys, pos: -1}, nil
}

func (db *memDB) Close() error {
	return nil
}

type memCursor struct {
	db   *memDB
	keys []string
	pos  int
}

func (c *memCursor) Next() bool {
	c.pos++
	return c.pos < len(c.keys)
}

func (c *memCursor) Key() []byte {
	return []byte(c.keys[c.pos])
}

func (c *memCursor) Value() []byte {
	v, _, _ := c.db.Get([]byte(c.keys[c.pos]))
	return v
}

func (c *memCursor) Error() error { return nil }
func (c *memCursor) Close() error { return nil }
