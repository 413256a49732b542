package database

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// levelDB is a database.DB backed by github.com/syndtr/goleveldb.
type levelDB struct {
	ldb *leveldb.DB
}

// Open opens (creating if necessary) a goleveldb database rooted at
// path. Each of the node's two namespaces (the ledger store and the
// peer store) opens its own path, per spec.
func Open(path string) (DB, error) {
	ldb, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", path)
	}
	return &levelDB{ldb: ldb}, nil
}

func (db *levelDB) Get(key []byte) ([]byte, bool, error) {
	value, err := db.ldb.Get(key, nil)
	if errors.Is(err, ldberrors.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.WithStack(err)
	}
	return value, true, nil
}

func (db *levelDB) Has(key []byte) (bool, error) {
	ok, err := db.ldb.Has(key, nil)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return ok, nil
}

func (db *levelDB) Put(key []byte, value []byte) error {
	return errors.WithStack(db.ldb.Put(key, value, nil))
}

func (db *levelDB) Delete(key []byte) error {
	return errors.WithStack(db.ldb.Delete(key, nil))
}

func (db *levelDB) Cursor(prefix []byte) (Cursor, error) {
	it := db.ldb.NewIterator(util.BytesPrefix(prefix), nil)
	return &levelDBCursor{iterator: it}, nil
}

func (db *levelDB) Close() error {
	return errors.WithStack(db.ldb.Close())
}

// levelDBCursor adapts goleveldb's iterator to the Cursor interface.
type levelDBCursor struct {
	iterator iterator.Iterator
}

func (c *levelDBCursor) Next() bool {
	return c.iterator.Next()
}

func (c *levelDBCursor) Key() []byte {
	key := c.iterator.Key()
	out := make([]byte, len(key))
	copy(out, key)
	return out
}

func (c *levelDBCursor) Value() []byte {
	value := c.iterator.Value()
	out := make([]byte, len(value))
	copy(out, value)
	return out
}

func (c *levelDBCursor) Error() error {
	return c.iterator.Error()
}

func (c *levelDBCursor) Close() error {
	c.iterator.Release()
	return nil
}
