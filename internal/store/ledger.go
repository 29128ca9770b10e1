// Package store keeps the program records in a key-value store. All writes
// go through Ledger.Update, which runs one transaction at a time over an
// atomic batch.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/pkg/db"
	"github.com/eigerco/sigclaim/pkg/db/pebble"
	"github.com/eigerco/sigclaim/pkg/log"
	"github.com/eigerco/sigclaim/pkg/serialization/codec/jam"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// Ledger serializes transactions over a KVStore.
type Ledger struct {
	mu sync.Mutex
	db db.KVStore
}

func NewLedger(kv db.KVStore) *Ledger {
	return &Ledger{db: kv}
}

// Update runs fn inside a transaction. The transaction's writes are committed
// when fn returns nil and discarded otherwise. Transactions never overlap.
func (l *Ledger) Update(fn func(tx *Tx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	batch := l.db.NewBatch()
	defer func() {
		if err := batch.Close(); err != nil {
			log.Store.Error().Err(err).Msg("closing batch")
		}
	}()

	if err := fn(&Tx{batch: batch}); err != nil {
		return err
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf(ErrFailedBatchCommit, err)
	}
	return nil
}

// Get reads a committed record into v.
func (l *Ledger) Get(kind Kind, addr crypto.PublicKey, v interface{}) error {
	return get(l.db, kind, addr, v)
}

// Exists reports whether a committed record is present.
func (l *Ledger) Exists(kind Kind, addr crypto.PublicKey) (bool, error) {
	return exists(l.db, kind, addr)
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Tx is the view of a running transaction. Reads observe the transaction's
// own writes.
type Tx struct {
	batch db.Batch
}

func (tx *Tx) Get(kind Kind, addr crypto.PublicKey, v interface{}) error {
	return get(tx.batch, kind, addr, v)
}

func (tx *Tx) Exists(kind Kind, addr crypto.PublicKey) (bool, error) {
	return exists(tx.batch, kind, addr)
}

// Put creates or overwrites a record.
func (tx *Tx) Put(kind Kind, addr crypto.PublicKey, v interface{}) error {
	b, err := jam.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	if err := tx.batch.Put(makeKey(kind, addr), b); err != nil {
		return fmt.Errorf("put %s: %w", kind, err)
	}
	return nil
}

// CreateIfAbsent writes a record only if none exists at addr, committed or
// staged in this transaction. Otherwise it returns ErrAlreadyExists.
func (tx *Tx) CreateIfAbsent(kind Kind, addr crypto.PublicKey, v interface{}) error {
	found, err := tx.Exists(kind, addr)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("%w: %s %s", ErrAlreadyExists, kind, addr)
	}
	return tx.Put(kind, addr, v)
}

func get(r db.Reader, kind Kind, addr crypto.PublicKey, v interface{}) error {
	b, err := r.Get(makeKey(kind, addr))
	if errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, addr)
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", kind, err)
	}
	if err := jam.Unmarshal(b, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", kind, err)
	}
	return nil
}

func exists(r db.Reader, kind Kind, addr crypto.PublicKey) (bool, error) {
	_, err := r.Get(makeKey(kind, addr))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", kind, err)
	}
	return true, nil
}
