// Package db is the key-value interface the ledger is written against.
package db

type Reader interface {
	Get(key []byte) ([]byte, error)
}

type Writer interface {
	Put(key []byte, value []byte) error
}

type KVStore interface {
	Reader
	Writer
	Delete(key []byte) error
	// NewBatch starts an atomic set of writes.
	NewBatch() Batch
	// NewIterator walks keys in [start, end) in byte order.
	NewIterator(start, end []byte) (Iterator, error)
	Close() error
}

// Batch reads through to the store but sees its own pending writes first.
// Nothing is visible outside the batch before Commit; Close without Commit
// discards it.
type Batch interface {
	Reader
	Writer
	Delete(key []byte) error
	Commit() error
	Close() error
}

// Iterator must be closed after use.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Valid() bool
	Close() error
}
