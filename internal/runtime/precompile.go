package runtime

import (
	"errors"
	"fmt"

	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/crypto/ed25519"
	"github.com/eigerco/sigclaim/internal/instruction"
	"github.com/eigerco/sigclaim/internal/sigverify"
)

var ErrSignatureVerification = errors.New("ed25519 co-instruction verification failed")

// verifyEd25519 checks every signature of the ed25519 instruction at index.
// Unlike the claim program's parser, the facility follows instruction
// indices into sibling instructions, as the offsets format allows.
func verifyEd25519(ixs []instruction.Instruction, index int) error {
	data := ixs[index].Data
	if len(data) < sigverify.SignatureOffsetsStart {
		return fmt.Errorf("%w: %d bytes", ErrSignatureVerification, len(data))
	}
	count := int(data[0])
	if count == 0 {
		return fmt.Errorf("%w: no signatures", ErrSignatureVerification)
	}
	if len(data) < sigverify.HeaderSize(count) {
		return fmt.Errorf("%w: header truncated", ErrSignatureVerification)
	}

	for i := 0; i < count; i++ {
		o, err := sigverify.DecodeOffsets(data, i)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSignatureVerification, err)
		}
		sig, err := slice(ixs, index, o.SignatureInstructionIndex, o.SignatureOffset, crypto.SignatureSize)
		if err != nil {
			return fmt.Errorf("%w: entry %d signature: %v", ErrSignatureVerification, i, err)
		}
		pk, err := slice(ixs, index, o.PublicKeyInstructionIndex, o.PublicKeyOffset, crypto.PublicKeySize)
		if err != nil {
			return fmt.Errorf("%w: entry %d public key: %v", ErrSignatureVerification, i, err)
		}
		msg, err := slice(ixs, index, o.MessageInstructionIndex, o.MessageDataOffset, int(o.MessageDataSize))
		if err != nil {
			return fmt.Errorf("%w: entry %d message: %v", ErrSignatureVerification, i, err)
		}
		if !ed25519.Verify(crypto.PublicKey(pk), msg, crypto.Signature(sig)) {
			return fmt.Errorf("%w: entry %d: bad signature", ErrSignatureVerification, i)
		}
	}
	return nil
}

func slice(ixs []instruction.Instruction, current int, ixIndex, offset uint16, size int) ([]byte, error) {
	src := current
	if ixIndex != sigverify.CurrentInstruction {
		src = int(ixIndex)
	}
	if src >= len(ixs) {
		return nil, fmt.Errorf("instruction %d out of range", src)
	}
	data := ixs[src].Data
	end := int(offset) + size
	if end > len(data) {
		return nil, fmt.Errorf("range %d..%d beyond %d bytes", offset, end, len(data))
	}
	return data[offset:end], nil
}
