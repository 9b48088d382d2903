package memorydb

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mwillis775/PoRW-sub001/keyvaluedb"
)

type (
	EncodeFn func(v any) ([]byte, error)
	DecodeFn func(data []byte, v any) error

	// MemoryDB is a map backed key value db for tests and tooling.
	MemoryDB struct {
		db      map[string][]byte
		encoder EncodeFn
		decoder DecodeFn
		lock    sync.RWMutex
	}
)

// New creates a new in-memory key value db.
func New() *MemoryDB {
	return &MemoryDB{
		db:      make(map[string][]byte),
		encoder: json.Marshal,
		decoder: json.Unmarshal,
	}
}

// Empty returns true if no values are stored in db
func (db *MemoryDB) Empty() bool {
	db.lock.RLock()
	defer db.lock.RUnlock()
	return len(db.db) == 0
}

// Read retrieves the given key if it's present in the key-value store.
func (db *MemoryDB) Read(key []byte, value any) (bool, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if err := keyvaluedb.CheckKeyAndValue(key, value); err != nil {
		return false, err
	}
	data, ok := db.db[string(key)]
	if !ok {
		return false, nil
	}
	if err := db.decoder(data, value); err != nil {
		return true, fmt.Errorf("memory db read failed, %w", err)
	}
	return true, nil
}

// Write inserts the given value into the key-value store.
func (db *MemoryDB) Write(key []byte, value any) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	return db.write(key, value)
}

func (db *MemoryDB) write(key []byte, value any) error {
	if err := keyvaluedb.CheckKeyAndValue(key, value); err != nil {
		return err
	}
	data, err := db.encoder(value)
	if err != nil {
		return fmt.Errorf("memory db write failed, %w", err)
	}
	db.db[string(key)] = data
	return nil
}

// Delete removes the key from the key-value store.
func (db *MemoryDB) Delete(key []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if err := keyvaluedb.CheckKey(key); err != nil {
		return err
	}
	delete(db.db, string(key))
	return nil
}

// StartTx opens a transaction that stages writes until Commit.
func (db *MemoryDB) StartTx() (keyvaluedb.DBTransaction, error) {
	return &Tx{
		db:      db,
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}, nil
}

func (db *MemoryDB) Close() error {
	return nil
}
