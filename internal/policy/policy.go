// Package policy decides whether a set of signers is sufficient to authorize
// a claim.
package policy

import (
	"errors"
	"fmt"

	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/sigverify"
)

var (
	ErrDistributorMismatch = errors.New("distributor mismatch")
	ErrUnknownMode         = errors.New("unknown distributor mode")
	ErrNoDistributors      = errors.New("no distributors configured")
)

// Mode selects how distributor signatures are required.
type Mode uint8

const (
	// ModeExact requires a single co-instruction signature from the one
	// configured distributor.
	ModeExact Mode = iota
	// ModeAllRequired requires a signature from every configured distributor
	// in a multi-signature co-instruction.
	ModeAllRequired
)

func (m Mode) String() string {
	switch m {
	case ModeExact:
		return "exact"
	case ModeAllRequired:
		return "all"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "exact", "":
		return ModeExact, nil
	case "all":
		return ModeAllRequired, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Policy checks the signers extracted from a co-instruction.
type Policy interface {
	Check(signers []crypto.PublicKey) error
}

// Exact accepts when Distributor is among the signers.
type Exact struct {
	Distributor crypto.PublicKey
}

func (p Exact) Check(signers []crypto.PublicKey) error {
	if p.Distributor.IsZero() {
		return fmt.Errorf("%w: %s", ErrDistributorMismatch, ErrNoDistributors)
	}
	for _, s := range signers {
		if s == p.Distributor {
			return nil
		}
	}
	return fmt.Errorf("%w: %s did not sign", ErrDistributorMismatch, p.Distributor)
}

// AllRequired accepts when every distributor is among the signers. Extra
// signers and duplicates are ignored.
type AllRequired struct {
	Distributors []crypto.PublicKey
}

func (p AllRequired) Check(signers []crypto.PublicKey) error {
	if len(p.Distributors) == 0 {
		return fmt.Errorf("%w: %s", ErrDistributorMismatch, ErrNoDistributors)
	}
	signed := crypto.NewPublicKeySet(signers...)
	for _, d := range p.Distributors {
		if !signed.Has(d) {
			return fmt.Errorf("%w: %s did not sign", ErrDistributorMismatch, d)
		}
	}
	return nil
}

// For returns the policy for mode together with the co-instruction layout it
// expects for a message of messageSize bytes.
func For(mode Mode, distributors []crypto.PublicKey, messageSize int) (Policy, sigverify.Layout, error) {
	switch mode {
	case ModeExact:
		if len(distributors) != 1 {
			return nil, sigverify.Layout{}, fmt.Errorf("exact mode needs one distributor, got %d", len(distributors))
		}
		return Exact{Distributor: distributors[0]},
			sigverify.Layout{Format: sigverify.FormatSingle, MessageSize: messageSize}, nil
	case ModeAllRequired:
		if len(distributors) == 0 {
			return nil, sigverify.Layout{}, ErrNoDistributors
		}
		return AllRequired{Distributors: distributors},
			sigverify.Layout{Format: sigverify.FormatMulti, MessageSize: messageSize}, nil
	default:
		return nil, sigverify.Layout{}, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
}
