package store

import (
	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/state"
)

// Typed accessors over Tx for the program records.

func (tx *Tx) GlobalConfig(addr crypto.PublicKey) (state.GlobalConfig, error) {
	var cfg state.GlobalConfig
	err := tx.Get(KindGlobalConfig, addr, &cfg)
	return cfg, err
}

func (tx *Tx) Project(addr crypto.PublicKey) (state.Project, error) {
	var p state.Project
	err := tx.Get(KindProject, addr, &p)
	return p, err
}

func (tx *Tx) Mint(addr crypto.PublicKey) (state.Mint, error) {
	var m state.Mint
	err := tx.Get(KindMint, addr, &m)
	return m, err
}

func (tx *Tx) TokenAccount(addr crypto.PublicKey) (state.TokenAccount, error) {
	var a state.TokenAccount
	err := tx.Get(KindTokenAccount, addr, &a)
	return a, err
}

func (tx *Tx) Nullifier(addr crypto.PublicKey) (state.Nullifier, error) {
	var n state.Nullifier
	err := tx.Get(KindNullifier, addr, &n)
	return n, err
}

// CreateNullifier consumes the nonce behind addr. A second call for the same
// address fails with ErrAlreadyExists.
func (tx *Tx) CreateNullifier(addr crypto.PublicKey, n state.Nullifier) error {
	return tx.CreateIfAbsent(KindNullifier, addr, n)
}

// Committed reads, safe to call concurrently with Update.

func (l *Ledger) Project(addr crypto.PublicKey) (state.Project, error) {
	var p state.Project
	err := l.Get(KindProject, addr, &p)
	return p, err
}

func (l *Ledger) GlobalConfig(addr crypto.PublicKey) (state.GlobalConfig, error) {
	var cfg state.GlobalConfig
	err := l.Get(KindGlobalConfig, addr, &cfg)
	return cfg, err
}

func (l *Ledger) TokenAccount(addr crypto.PublicKey) (state.TokenAccount, error) {
	var a state.TokenAccount
	err := l.Get(KindTokenAccount, addr, &a)
	return a, err
}

func (l *Ledger) Nullifier(addr crypto.PublicKey) (state.Nullifier, error) {
	var n state.Nullifier
	err := l.Get(KindNullifier, addr, &n)
	return n, err
}
