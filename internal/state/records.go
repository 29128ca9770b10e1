// Package state holds the records kept in the ledger and the derived
// addresses they live at.
package state

import (
	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/policy"
)

// GlobalConfig is the single configuration record of the airdrop program.
type GlobalConfig struct {
	Authority    crypto.PublicKey   // may update the distributor set
	Mode         policy.Mode        // how distributor signatures are required
	Distributors []crypto.PublicKey // keys whose signatures authorize claims
	Bump         uint8
}

// Project is a funded airdrop campaign. Its token account is owned by the
// project's derived address.
type Project struct {
	Nonce     uint64
	Mint      crypto.PublicKey
	Authority crypto.PublicKey
	Bump      uint8
}

// Nullifier marks a (project, nonce) pair as consumed. Its existence is the
// only thing that matters; the fields are kept for inspection.
type Nullifier struct {
	Nonce      uint64
	Project    uint64
	Claimant   crypto.PublicKey
	ConsumedAt int64
}

type Mint struct {
	Authority crypto.PublicKey
	Supply    uint64
}

type TokenAccount struct {
	Mint   crypto.PublicKey
	Owner  crypto.PublicKey
	Amount uint64
}
