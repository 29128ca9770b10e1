package store

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Dump renders every committed record, one per line in key order, as
// "kind address value".
func (l *Ledger) Dump() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	iter, err := l.db.NewIterator([]byte{0x00}, []byte{0xFF})
	if err != nil {
		return "", fmt.Errorf("create iterator: %w", err)
	}
	defer iter.Close() //nolint:errcheck

	var sb strings.Builder
	for iter.Next() {
		if !iter.Valid() {
			break
		}
		key := iter.Key()
		value, err := iter.Value()
		if err != nil {
			return "", fmt.Errorf("get iterator value: %w", err)
		}
		fmt.Fprintf(&sb, "%s %s %s\n", Kind(key[0]), hex.EncodeToString(key[1:]), hex.EncodeToString(value))
	}
	return sb.String(), nil
}
