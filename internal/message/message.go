// Package message decodes and validates the payload signed by distributors.
//
// Every signed message starts with the same Envelope, followed by a payload
// whose shape depends on the call type:
//
//	[program id 32][version 1][nonce 8 LE][expiry 8 LE] payload...
//
// Envelope checks are shared by all call types; each call type adds its own
// payload validator.
package message

import (
	"errors"
	"fmt"

	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/pkg/serialization/codec/jam"
)

var (
	ErrInvalidMessageEncoding = errors.New("invalid message encoding")
	ErrProgramIDMismatch      = errors.New("program id mismatch")
	ErrVersionMismatch        = errors.New("version mismatch")
	ErrDeadlineExpired        = errors.New("signature deadline has expired")
	ErrNonceMismatch          = errors.New("nonce mismatch")
)

// SupportedVersion is the only protocol version accepted.
const SupportedVersion uint8 = 1

const (
	EnvelopeSize     = crypto.PublicKeySize + 1 + 8 + 8
	ClaimPayloadSize = 2*crypto.PublicKeySize + 8 + 8
	ClaimMessageSize = EnvelopeSize + ClaimPayloadSize
)

// Envelope is the version-controlled header of every signed message.
type Envelope struct {
	ProgramID crypto.PublicKey
	Version   uint8
	Nonce     uint64
	// Expiry is a unix timestamp in seconds; the message is valid up to and
	// including this second.
	Expiry int64
}

// ClaimPayload authorizes Amount of Mint from Project to Recipient.
type ClaimPayload struct {
	Recipient crypto.PublicKey
	Mint      crypto.PublicKey
	Project   uint64
	Amount    uint64
}

// Signed is an envelope followed by a call-specific payload.
type Signed[P any] struct {
	Envelope Envelope
	Payload  P
}

// Claim is the signed message redeemed by the claim instruction.
type Claim = Signed[ClaimPayload]

// Encode serializes msg in wire layout.
func Encode[P any](msg Signed[P]) ([]byte, error) {
	return jam.Marshal(msg)
}

// Decode parses data into a Signed[P]. The data must be exactly one message:
// short or trailing bytes are rejected.
func Decode[P any](data []byte) (Signed[P], error) {
	var msg Signed[P]
	if err := jam.Unmarshal(data, &msg); err != nil {
		return Signed[P]{}, fmt.Errorf("%w: %v", ErrInvalidMessageEncoding, err)
	}
	return msg, nil
}
