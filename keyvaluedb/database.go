package keyvaluedb

import (
	"errors"
	"reflect"
)

var (
	errInvalidKey = errors.New("invalid key")
	errValueIsNil = errors.New("value is nil")
)

type (
	// Reader interface for DB
	Reader interface {
		// Read reads the value for key stored in the DB. The second return value
		// reports whether the key was present.
		Read(key []byte, value any) (bool, error)
	}

	// Writer interface for DB
	Writer interface {
		// Write inserts the given value into the DB.
		Write(key []byte, value any) error
		// Delete removes the key from the key-value data store.
		Delete(key []byte) error
	}

	// DBTransaction is a read-write batch. It MUST be completed by either
	// calling Commit() or Rollback() which releases the transaction.
	DBTransaction interface {
		Writer
		Commit() error
		Rollback() error
	}

	// KeyValueDB is the storage contract the ledger store builds on.
	KeyValueDB interface {
		Reader
		Writer
		// StartTx opens a read-write transaction. Only one is allowed at a time.
		StartTx() (DBTransaction, error)
		Close() error
	}
)

func CheckKey(key []byte) error {
	if len(key) == 0 {
		return errInvalidKey
	}
	return nil
}

func CheckValue(val any) error {
	if val == nil {
		return errValueIsNil
	}
	if rv := reflect.ValueOf(val); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return errValueIsNil
	}
	return nil
}

func CheckKeyAndValue(key []byte, val any) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	return CheckValue(val)
}
