package memorydb

import (
	"errors"

	"github.com/mwillis775/PoRW-sub001/keyvaluedb"
)

var errTxDone = errors.New("transaction already completed")

// Tx stages writes and deletes; nothing is visible until Commit.
type Tx struct {
	db      *MemoryDB
	writes  map[string][]byte
	deletes map[string]struct{}
	done    bool
}

func (t *Tx) Write(key []byte, value any) error {
	if t.done {
		return errTxDone
	}
	if err := keyvaluedb.CheckKeyAndValue(key, value); err != nil {
		return err
	}
	data, err := t.db.encoder(value)
	if err != nil {
		return err
	}
	t.writes[string(key)] = data
	delete(t.deletes, string(key))
	return nil
}

func (t *Tx) Delete(key []byte) error {
	if t.done {
		return errTxDone
	}
	if err := keyvaluedb.CheckKey(key); err != nil {
		return err
	}
	t.deletes[string(key)] = struct{}{}
	delete(t.writes, string(key))
	return nil
}

func (t *Tx) Commit() error {
	if t.done {
		return errTxDone
	}
	t.done = true
	t.db.lock.Lock()
	defer t.db.lock.Unlock()
	for key, data := range t.writes {
		t.db.db[key] = data
	}
	for key := range t.deletes {
		delete(t.db.db, key)
	}
	return nil
}

func (t *Tx) Rollback() error {
	if t.done {
		return errTxDone
	}
	t.done = true
	return nil
}
