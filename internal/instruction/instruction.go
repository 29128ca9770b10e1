// Package instruction defines the operations carried by a transaction and
// the read-only view a program gets of its sibling operations.
package instruction

import (
	"errors"
	"fmt"

	"github.com/eigerco/sigclaim/internal/crypto"
)

var ErrIndexOutOfRange = errors.New("instruction index out of range")

// Well-known facility identities.
var (
	Ed25519ProgramID         = crypto.PublicKey(crypto.HashData([]byte("sigclaim/ed25519-sigverify")))
	TokenProgramID           = crypto.PublicKey(crypto.HashData([]byte("sigclaim/token")))
	AssociatedTokenProgramID = crypto.PublicKey(crypto.HashData([]byte("sigclaim/associated-token")))
)

// AccountMeta references an account used by an instruction.
type AccountMeta struct {
	Key        crypto.PublicKey
	IsSigner   bool
	IsWritable bool
}

// Instruction is one operation of a transaction.
type Instruction struct {
	ProgramID crypto.PublicKey
	Accounts  []AccountMeta
	Data      []byte
}

// Introspector gives the executing instruction access to every instruction of
// its transaction.
type Introspector interface {
	CurrentIndex() uint16
	InstructionAt(index uint16) (Instruction, error)
}

// List is an Introspector over a fixed instruction slice.
type List struct {
	Instructions []Instruction
	Current      uint16
}

func (l List) CurrentIndex() uint16 {
	return l.Current
}

func (l List) InstructionAt(index uint16) (Instruction, error) {
	if int(index) >= len(l.Instructions) {
		return Instruction{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(l.Instructions))
	}
	return l.Instructions[index], nil
}
