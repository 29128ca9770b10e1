package store

import (
	"github.com/eigerco/sigclaim/internal/crypto"
)

const (
	ErrFailedBatchCommit = "failed to commit batch: %w"
)

// Kind is the key prefix of a record type.
type Kind byte

const (
	KindGlobalConfig Kind = iota + 1
	KindProject
	KindNullifier
	KindMint
	KindTokenAccount
)

func (k Kind) String() string {
	switch k {
	case KindGlobalConfig:
		return "globalConfig"
	case KindProject:
		return "project"
	case KindNullifier:
		return "nullifier"
	case KindMint:
		return "mint"
	case KindTokenAccount:
		return "tokenAccount"
	default:
		return "unknown"
	}
}

// makeKey creates a key from a kind and an address.
// The key format is: [kind(1 byte)][address(32 bytes)]
func makeKey(kind Kind, addr crypto.PublicKey) []byte {
	key := make([]byte, 1+len(addr))
	key[0] = byte(kind)
	copy(key[1:], addr[:])
	return key
}
