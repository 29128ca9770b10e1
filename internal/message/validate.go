package message

import (
	"fmt"

	"github.com/eigerco/sigclaim/internal/crypto"
)

// Policy is the runtime context an envelope is checked against.
type Policy struct {
	ProgramID crypto.PublicKey
	Version   uint8
}

// PayloadValidator checks the call-specific part of a message.
type PayloadValidator[P any] func(P) error

// ValidateEnvelope checks, in order: program id, version, expiry against now
// (inclusive), and nonce against the nonce supplied with the call. The first
// failing check is returned.
func ValidateEnvelope(env Envelope, policy Policy, now int64, nonce uint64) error {
	if env.ProgramID != policy.ProgramID {
		return fmt.Errorf("%w: message targets %s", ErrProgramIDMismatch, env.ProgramID)
	}
	if env.Version != policy.Version {
		return fmt.Errorf("%w: got %d, supported %d", ErrVersionMismatch, env.Version, policy.Version)
	}
	if env.Expiry < now {
		return fmt.Errorf("%w: expired at %d, now %d", ErrDeadlineExpired, env.Expiry, now)
	}
	if env.Nonce != nonce {
		return fmt.Errorf("%w: signed %d, supplied %d", ErrNonceMismatch, env.Nonce, nonce)
	}
	return nil
}

// Validate runs the envelope checks and then, if they pass, the payload
// validator. A nil validator accepts any payload.
func Validate[P any](msg Signed[P], policy Policy, now int64, nonce uint64, check PayloadValidator[P]) error {
	if err := ValidateEnvelope(msg.Envelope, policy, now, nonce); err != nil {
		return err
	}
	if check == nil {
		return nil
	}
	return check(msg.Payload)
}
