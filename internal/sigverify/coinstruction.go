package sigverify

import (
	"fmt"

	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/instruction"
)

// Authorization is what a verified co-instruction attests: every key in
// Signers signed Message.
type Authorization struct {
	Signers []crypto.PublicKey
	Message []byte
}

// LoadCoInstruction returns the instruction immediately preceding the
// current one. It must target the ed25519 facility and reference no accounts.
func LoadCoInstruction(intro instruction.Introspector) (instruction.Instruction, error) {
	current := intro.CurrentIndex()
	if current == 0 {
		return instruction.Instruction{}, fmt.Errorf("%w: no preceding instruction", ErrMalformedCoInstruction)
	}

	ix, err := intro.InstructionAt(current - 1)
	if err != nil {
		return instruction.Instruction{}, fmt.Errorf("%w: %v", ErrMalformedCoInstruction, err)
	}
	if ix.ProgramID != instruction.Ed25519ProgramID {
		return instruction.Instruction{}, fmt.Errorf("%w: preceding instruction targets %s", ErrMalformedCoInstruction, ix.ProgramID)
	}
	if len(ix.Accounts) != 0 {
		return instruction.Instruction{}, fmt.Errorf("%w: co-instruction references %d accounts", ErrMalformedCoInstruction, len(ix.Accounts))
	}

	return ix, nil
}

// Load runs the whole read path: locate the co-instruction, parse its
// offset table under layout and extract signers and message.
func Load(intro instruction.Introspector, layout Layout) (Authorization, error) {
	ix, err := LoadCoInstruction(intro)
	if err != nil {
		return Authorization{}, err
	}

	entries, err := ParseOffsets(ix.Data, layout)
	if err != nil {
		return Authorization{}, err
	}

	signers, message := Extract(ix.Data, entries)
	return Authorization{Signers: signers, Message: message}, nil
}
