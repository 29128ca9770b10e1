// Package program defines what a program sees while one of its instructions
// executes.
package program

import (
	"errors"
	"fmt"

	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/instruction"
	"github.com/eigerco/sigclaim/internal/store"
)

var (
	ErrNotEnoughAccounts        = errors.New("not enough account keys")
	ErrMissingRequiredSignature = errors.New("missing required signature")
	ErrInvalidInstructionData   = errors.New("invalid instruction data")
	ErrUnknownProgram           = errors.New("unknown program")
)

// Context is the execution context of one instruction.
type Context struct {
	// Tx is the ledger transaction shared by every instruction of the
	// enclosing transaction.
	Tx *store.Tx
	// Instructions gives access to sibling instructions.
	Instructions instruction.Introspector
	// Accounts are the accounts of the executing instruction. The runtime
	// guarantees that every account marked as signer signed the transaction.
	Accounts []instruction.AccountMeta
	// Now is the unix time of the block the transaction executes in.
	Now int64
}

// Account returns the i-th account of the instruction.
func (c *Context) Account(i int) (instruction.AccountMeta, error) {
	if i < 0 || i >= len(c.Accounts) {
		return instruction.AccountMeta{}, fmt.Errorf("%w: need account %d, have %d", ErrNotEnoughAccounts, i, len(c.Accounts))
	}
	return c.Accounts[i], nil
}

// Signer returns the key of the i-th account, which must be a signer.
func (c *Context) Signer(i int) (crypto.PublicKey, error) {
	meta, err := c.Account(i)
	if err != nil {
		return crypto.PublicKey{}, err
	}
	if !meta.IsSigner {
		return crypto.PublicKey{}, fmt.Errorf("%w: account %d (%s)", ErrMissingRequiredSignature, i, meta.Key)
	}
	return meta.Key, nil
}

// Handler executes the instructions addressed to one program.
type Handler interface {
	ProgramID() crypto.PublicKey
	Process(ctx *Context, data []byte) error
}
