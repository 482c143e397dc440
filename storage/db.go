// Package storage provides the file-backed content-addressed blob store
// (BlobStore) and a key/value Database contract with in-memory and LevelDB
// implementations.
package storage

import (
	"errors"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
)

// ErrNotFound is returned by Get when no value exists for a key.
var ErrNotFound = leveldb.ErrNotFound

// Database is a minimal key/value contract. Any backend (in-memory for
// tests, LevelDB for durable single-node runs) can satisfy it. BlobStore
// keeps blobs as plain files and does not use it.
type Database interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	// Iterate calls fn for every key carrying the given prefix, stopping
	// early if fn returns false.
	Iterate(prefix []byte, fn func(key, value []byte) bool) error
	Close() error
}

// --- In-memory DB (for tests and ephemeral nodes) ---

type MemDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemDB() *MemDB {
	return &MemDB{data: make(map[string][]byte)}
}

func (db *MemDB) Get(key []byte) ([]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	v, ok := db.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	cloned := make([]byte, len(v))
	copy(cloned, v)
	return cloned, nil
}

func (db *MemDB) Has(key []byte) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.data[string(key)]
	return ok, nil
}

func (db *MemDB) Put(key, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	cloned := make([]byte, len(value))
	copy(cloned, value)
	db.data[string(key)] = cloned
	return nil
}

func (db *MemDB) Delete(key []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.data, string(key))
	return nil
}

func (db *MemDB) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	p := string(prefix)
	for k, v := range db.data {
		if len(k) < len(p) || k[:len(p)] != p {
			continue
		}
		if !fn([]byte(k), v) {
			break
		}
	}
	return nil
}

func (db *MemDB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data = nil
	return nil
}

// --- Persistent DB (LevelDB-backed) ---

// LevelDB is a Database backed by goleveldb, used for durable single-node
// deployments.
type LevelDB struct {
	db *leveldb.DB
}

// NewLevelDB creates or opens a LevelDB database at the specified path.
func NewLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDB{db: db}, nil
}

func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	v, err := ldb.db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (ldb *LevelDB) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, nil)
}

func (ldb *LevelDB) Put(key, value []byte) error {
	return ldb.db.Put(key, value, nil)
}

func (ldb *LevelDB) Delete(key []byte) error {
	return ldb.db.Delete(key, nil)
}

func (ldb *LevelDB) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	iter := ldb.db.NewIterator(nil, nil)
	defer iter.Release()
	for iter.Next() {
		k := iter.Key()
		if len(k) < len(prefix) || string(k[:len(prefix)]) != string(prefix) {
			continue
		}
		if !fn(append([]byte(nil), k...), append([]byte(nil), iter.Value()...)) {
			break
		}
	}
	return iter.Error()
}

func (ldb *LevelDB) Close() error {
	return ldb.db.Close()
}
