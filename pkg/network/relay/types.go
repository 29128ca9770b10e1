// Package relay lets off-line claimants hand their transactions to a node.
// A client opens one QUIC stream per request; the stream kind selects the
// operation and a single cbor frame travels each way.
package relay

import (
	"github.com/eigerco/sigclaim/internal/airdrop"
	"github.com/eigerco/sigclaim/internal/crypto"
)

// Stream kinds.
const (
	KindSubmit          byte = 0x80
	KindNullifierStatus byte = 0x81
	KindBalance         byte = 0x82
)

// SubmitRequest carries a jam encoded runtime.Transaction.
type SubmitRequest struct {
	Transaction []byte `cbor:"1,keyasint"`
}

// SubmitResponse reports the outcome of a submitted transaction. Code is
// airdrop.CodeOK on success. Instruction is the index of the failing
// instruction, or -1.
type SubmitResponse struct {
	TxID        crypto.Hash  `cbor:"1,keyasint"`
	Code        airdrop.Code `cbor:"2,keyasint"`
	Error       string       `cbor:"3,keyasint,omitempty"`
	Instruction int          `cbor:"4,keyasint"`
	Now         int64        `cbor:"5,keyasint,omitempty"`
}

type NullifierStatusRequest struct {
	Project uint64 `cbor:"1,keyasint"`
	Nonce   uint64 `cbor:"2,keyasint"`
}

// NullifierStatus tells whether a claim nonce of a project was consumed.
type NullifierStatus struct {
	Address    crypto.PublicKey `cbor:"1,keyasint"`
	Consumed   bool             `cbor:"2,keyasint"`
	Claimant   crypto.PublicKey `cbor:"3,keyasint"`
	ConsumedAt int64            `cbor:"4,keyasint,omitempty"`
	Error      string           `cbor:"5,keyasint,omitempty"`
}

type BalanceRequest struct {
	Owner crypto.PublicKey `cbor:"1,keyasint"`
	Mint  crypto.PublicKey `cbor:"2,keyasint"`
}

type BalanceResponse struct {
	Account crypto.PublicKey `cbor:"1,keyasint"`
	Amount  uint64           `cbor:"2,keyasint"`
	Error   string           `cbor:"3,keyasint,omitempty"`
}
