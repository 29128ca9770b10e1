package sigverify

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/crypto/ed25519"
	"github.com/eigerco/sigclaim/internal/instruction"
)

var ErrTooManySignatures = errors.New("co-instruction supports 1 to 255 signatures")

// Entry is one signature to embed in a co-instruction.
type Entry struct {
	PublicKey crypto.PublicKey
	Signature crypto.Signature
}

// NewEd25519Instruction lays out a co-instruction carrying entries over one
// shared message: header, then public key and signature per entry, then the
// message. All indices are CurrentInstruction.
func NewEd25519Instruction(message []byte, entries ...Entry) (instruction.Instruction, error) {
	if len(entries) == 0 || len(entries) > math.MaxUint8 {
		return instruction.Instruction{}, fmt.Errorf("%w: got %d", ErrTooManySignatures, len(entries))
	}

	headerSize := HeaderSize(len(entries))
	perEntry := crypto.PublicKeySize + crypto.SignatureSize
	messageOffset := headerSize + perEntry*len(entries)
	total := messageOffset + len(message)
	if total > math.MaxUint16 {
		return instruction.Instruction{}, fmt.Errorf("co-instruction of %d bytes exceeds u16 offsets", total)
	}

	data := make([]byte, total)
	data[0] = uint8(len(entries))
	for i, e := range entries {
		pkOffset := headerSize + perEntry*i
		sigOffset := pkOffset + crypto.PublicKeySize

		entry := data[SignatureOffsetsStart+SignatureOffsetsSize*i:]
		binary.LittleEndian.PutUint16(entry[0:], uint16(sigOffset))
		binary.LittleEndian.PutUint16(entry[2:], CurrentInstruction)
		binary.LittleEndian.PutUint16(entry[4:], uint16(pkOffset))
		binary.LittleEndian.PutUint16(entry[6:], CurrentInstruction)
		binary.LittleEndian.PutUint16(entry[8:], uint16(messageOffset))
		binary.LittleEndian.PutUint16(entry[10:], uint16(len(message)))
		binary.LittleEndian.PutUint16(entry[12:], CurrentInstruction)

		copy(data[pkOffset:], e.PublicKey[:])
		copy(data[sigOffset:], e.Signature[:])
	}
	copy(data[messageOffset:], message)

	return instruction.Instruction{
		ProgramID: instruction.Ed25519ProgramID,
		Data:      data,
	}, nil
}

// Sign signs message with every keypair and builds the co-instruction.
func Sign(message []byte, signers ...ed25519.Keypair) (instruction.Instruction, error) {
	entries := make([]Entry, 0, len(signers))
	for _, kp := range signers {
		entries = append(entries, Entry{PublicKey: kp.Public, Signature: kp.Sign(message)})
	}
	return NewEd25519Instruction(message, entries...)
}
