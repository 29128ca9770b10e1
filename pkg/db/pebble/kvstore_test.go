package pebble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/sigclaim/pkg/db"
)

func newStore(t *testing.T) *KVStore {
	store, err := NewKVStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// key mimics the ledger layout: a kind byte followed by an address.
func key(kind byte, addr byte) []byte {
	k := make([]byte, 33)
	k[0] = kind
	k[1] = addr
	return k
}

func TestStoreGetPutDelete(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Put(key(1, 1), []byte("config")))
	got, err := store.Get(key(1, 1))
	require.NoError(t, err)
	assert.Equal(t, []byte("config"), got)

	_, err = store.Get(key(1, 2))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(key(1, 1)))
	_, err = store.Get(key(1, 1))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.Delete(key(1, 1)))
}

func TestStoreClosed(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Close())

	_, err := store.Get(key(1, 1))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, store.Put(key(1, 1), nil), ErrClosed)
	assert.ErrorIs(t, store.Delete(key(1, 1)), ErrClosed)
	_, err = store.NewIterator(nil, nil)
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, store.Close())
}

func TestStoreReopen(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.Put(key(5, 9), []byte("nullifier")))
	require.NoError(t, store.Close())

	store, err = Open(dir)
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck
	got, err := store.Get(key(5, 9))
	require.NoError(t, err)
	assert.Equal(t, []byte("nullifier"), got)
}

func TestBatch(t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store db.KVStore)
	}{
		{name: "commit_applies_all", fn: testBatchCommit},
		{name: "read_own_writes", fn: testBatchReadOwnWrites},
		{name: "close_discards", fn: testBatchCloseDiscards},
		{name: "done_after_commit", fn: testBatchDone},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newStore(t))
		})
	}
}

func testBatchCommit(t *testing.T, store db.KVStore) {
	require.NoError(t, store.Put(key(4, 1), []byte("stale")))

	batch := store.NewBatch()
	require.NoError(t, batch.Put(key(4, 2), []byte("to")))
	require.NoError(t, batch.Put(key(4, 3), []byte("from")))
	require.NoError(t, batch.Delete(key(4, 1)))
	require.NoError(t, batch.Commit())

	for addr, want := range map[byte]string{2: "to", 3: "from"} {
		got, err := store.Get(key(4, addr))
		require.NoError(t, err)
		assert.Equal(t, []byte(want), got)
	}
	_, err := store.Get(key(4, 1))
	assert.ErrorIs(t, err, ErrNotFound)
}

func testBatchReadOwnWrites(t *testing.T, store db.KVStore) {
	require.NoError(t, store.Put(key(2, 1), []byte("project")))

	batch := store.NewBatch()
	defer batch.Close() //nolint:errcheck

	got, err := batch.Get(key(2, 1))
	require.NoError(t, err)
	assert.Equal(t, []byte("project"), got)

	require.NoError(t, batch.Put(key(5, 1), []byte("nullifier")))
	got, err = batch.Get(key(5, 1))
	require.NoError(t, err)
	assert.Equal(t, []byte("nullifier"), got)

	_, err = store.Get(key(5, 1))
	assert.ErrorIs(t, err, ErrNotFound)
}

func testBatchCloseDiscards(t *testing.T, store db.KVStore) {
	batch := store.NewBatch()
	require.NoError(t, batch.Put(key(5, 1), []byte("nullifier")))
	require.NoError(t, batch.Close())

	_, err := store.Get(key(5, 1))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, batch.Commit(), ErrBatchDone)
}

func testBatchDone(t *testing.T, store db.KVStore) {
	batch := store.NewBatch()
	require.NoError(t, batch.Commit())

	_, err := batch.Get(key(1, 1))
	assert.ErrorIs(t, err, ErrBatchDone)
	assert.ErrorIs(t, batch.Put(key(1, 1), nil), ErrBatchDone)
	assert.ErrorIs(t, batch.Delete(key(1, 1)), ErrBatchDone)
	assert.ErrorIs(t, batch.Commit(), ErrBatchDone)
	assert.NoError(t, batch.Close())
}

func TestIteratorRange(t *testing.T) {
	store := newStore(t)
	for _, k := range [][]byte{key(1, 1), key(2, 1), key(2, 2), key(3, 1)} {
		require.NoError(t, store.Put(k, k[:2]))
	}

	iter, err := store.NewIterator([]byte{2}, []byte{3})
	require.NoError(t, err)
	defer iter.Close() //nolint:errcheck

	var values [][]byte
	for iter.Next() {
		v, err := iter.Value()
		require.NoError(t, err)
		values = append(values, v)
	}
	assert.Equal(t, [][]byte{{2, 1}, {2, 2}}, values)
	assert.False(t, iter.Valid())

	_, err = iter.Value()
	assert.ErrorIs(t, err, ErrIteratorInvalid)
}
