// Package sigverify reads the ed25519 co-instruction that must precede a
// claim: it parses the offset table, enforces that every referenced byte
// range lives inside the co-instruction itself, and extracts the signer keys
// and the signed message.
//
// Signature validity is not checked here. The host runtime verifies every
// ed25519 co-instruction before any later instruction of the transaction runs.
package sigverify

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/eigerco/sigclaim/internal/crypto"
)

var ErrMalformedCoInstruction = errors.New("malformed signature co-instruction")

const (
	// SignatureOffsetsStart is the position of the first offsets entry: one
	// count byte followed by one padding byte.
	SignatureOffsetsStart = 2
	// SignatureOffsetsSize is the size of one entry: seven u16 fields.
	SignatureOffsetsSize = 14
	// CurrentInstruction is the index sentinel meaning "this co-instruction".
	CurrentInstruction = 0xFFFF
	// SingleHeaderSize is the header length of the one-signature format.
	SingleHeaderSize = SignatureOffsetsStart + SignatureOffsetsSize
)

// Format selects the accepted co-instruction shape.
type Format uint8

const (
	// FormatSingle carries exactly one signature over a fixed-size message.
	FormatSingle Format = iota
	// FormatMulti carries 1..255 signatures over one shared message.
	FormatMulti
)

func (f Format) String() string {
	switch f {
	case FormatSingle:
		return "single"
	case FormatMulti:
		return "multi"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// Layout is what the caller expects the co-instruction to look like.
type Layout struct {
	Format Format
	// MessageSize is enforced for FormatSingle.
	MessageSize int
}

// Offsets is one entry of the co-instruction offset table.
type Offsets struct {
	SignatureOffset           uint16
	SignatureInstructionIndex uint16
	PublicKeyOffset           uint16
	PublicKeyInstructionIndex uint16
	MessageDataOffset         uint16
	MessageDataSize           uint16
	MessageInstructionIndex   uint16
}

// HeaderSize returns the header length for n signatures.
func HeaderSize(n int) int {
	return SignatureOffsetsStart + SignatureOffsetsSize*n
}

// DecodeOffsets reads entry i of the offset table without applying any
// policy. It fails only if the entry lies outside data.
func DecodeOffsets(data []byte, i int) (Offsets, error) {
	start := SignatureOffsetsStart + SignatureOffsetsSize*i
	if i < 0 || len(data) < start+SignatureOffsetsSize {
		return Offsets{}, fmt.Errorf("%w: offsets entry %d beyond %d bytes", ErrMalformedCoInstruction, i, len(data))
	}
	field := func(n int) uint16 {
		return binary.LittleEndian.Uint16(data[start+2*n:])
	}
	return Offsets{
		SignatureOffset:           field(0),
		SignatureInstructionIndex: field(1),
		PublicKeyOffset:           field(2),
		PublicKeyInstructionIndex: field(3),
		MessageDataOffset:         field(4),
		MessageDataSize:           field(5),
		MessageInstructionIndex:   field(6),
	}, nil
}

// ParseOffsets decodes and validates the whole offset table of a
// co-instruction. On success every signature, public key and message range
// of every entry lies within data, past the header, and all entries
// reference the same message bytes.
func ParseOffsets(data []byte, layout Layout) ([]Offsets, error) {
	if len(data) < SignatureOffsetsStart {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the count prefix", ErrMalformedCoInstruction, len(data))
	}

	count := int(data[0])
	switch layout.Format {
	case FormatSingle:
		if count != 1 {
			return nil, fmt.Errorf("%w: expected 1 signature, got %d", ErrMalformedCoInstruction, count)
		}
	case FormatMulti:
		if count == 0 {
			return nil, fmt.Errorf("%w: no signatures", ErrMalformedCoInstruction)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %s", ErrMalformedCoInstruction, layout.Format)
	}

	headerSize := HeaderSize(count)
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the %d byte header", ErrMalformedCoInstruction, len(data), headerSize)
	}

	entries := make([]Offsets, 0, count)
	for i := 0; i < count; i++ {
		o, err := DecodeOffsets(data, i)
		if err != nil {
			return nil, err
		}
		if err := checkEntry(o, len(data), headerSize); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %s", ErrMalformedCoInstruction, i, err)
		}
		if layout.Format == FormatSingle && int(o.MessageDataSize) != layout.MessageSize {
			return nil, fmt.Errorf("%w: message size %d, expected %d", ErrMalformedCoInstruction, o.MessageDataSize, layout.MessageSize)
		}
		if i > 0 && (o.MessageDataOffset != entries[0].MessageDataOffset || o.MessageDataSize != entries[0].MessageDataSize) {
			return nil, fmt.Errorf("%w: entry %d signs a different message range", ErrMalformedCoInstruction, i)
		}
		entries = append(entries, o)
	}

	return entries, nil
}

func checkEntry(o Offsets, dataLen, headerSize int) error {
	if o.SignatureInstructionIndex != CurrentInstruction ||
		o.PublicKeyInstructionIndex != CurrentInstruction ||
		o.MessageInstructionIndex != CurrentInstruction {
		return errors.New("data referenced from another instruction")
	}
	if int(o.SignatureOffset) < headerSize ||
		int(o.PublicKeyOffset) < headerSize ||
		int(o.MessageDataOffset) < headerSize {
		return errors.New("offset points into the header")
	}
	if int(o.SignatureOffset)+crypto.SignatureSize > dataLen {
		return errors.New("signature out of bounds")
	}
	if int(o.PublicKeyOffset)+crypto.PublicKeySize > dataLen {
		return errors.New("public key out of bounds")
	}
	if int(o.MessageDataOffset)+int(o.MessageDataSize) > dataLen {
		return errors.New("message out of bounds")
	}
	return nil
}
