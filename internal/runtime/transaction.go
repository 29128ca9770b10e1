package runtime

import (
	"errors"
	"fmt"
	"math"

	"github.com/zeebo/blake3"

	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/crypto/ed25519"
	"github.com/eigerco/sigclaim/internal/instruction"
	"github.com/eigerco/sigclaim/pkg/serialization/codec/jam"
)

var (
	ErrNoSigners           = errors.New("transaction has no signers")
	ErrSignatureCount      = errors.New("signature count does not match signers")
	ErrDuplicateSigner     = errors.New("duplicate signer")
	ErrInvalidSignature    = errors.New("invalid transaction signature")
	ErrTooManyInstructions = errors.New("too many instructions")
	ErrEmptyTransaction    = errors.New("transaction has no instructions")
)

// Transaction is an atomic list of instructions. Either every instruction
// takes effect or none does.
type Transaction struct {
	Signers      []crypto.PublicKey
	Signatures   []crypto.Signature
	Instructions []instruction.Instruction
}

// signedPart is what every signer signs.
type signedPart struct {
	Signers      []crypto.PublicKey
	Instructions []instruction.Instruction
}

// NewTransaction builds a transaction signed by every keypair, in order.
func NewTransaction(instructions []instruction.Instruction, signers ...ed25519.Keypair) (Transaction, error) {
	tx := Transaction{Instructions: instructions}
	for _, kp := range signers {
		tx.Signers = append(tx.Signers, kp.Public)
	}
	msg, err := tx.Message()
	if err != nil {
		return Transaction{}, err
	}
	for _, kp := range signers {
		tx.Signatures = append(tx.Signatures, kp.Sign(msg))
	}
	return tx, nil
}

// Message returns the bytes covered by the transaction signatures.
func (t Transaction) Message() ([]byte, error) {
	b, err := jam.Marshal(signedPart{Signers: t.Signers, Instructions: t.Instructions})
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}
	return b, nil
}

// ID is the blake3 hash of Message.
func (t Transaction) ID() (crypto.Hash, error) {
	msg, err := t.Message()
	if err != nil {
		return crypto.Hash{}, err
	}
	return blake3.Sum256(msg), nil
}

// Verify checks the shape of the transaction and every signature.
func (t Transaction) Verify() error {
	if len(t.Signers) == 0 {
		return ErrNoSigners
	}
	if len(t.Signers) != len(t.Signatures) {
		return fmt.Errorf("%w: %d signers, %d signatures", ErrSignatureCount, len(t.Signers), len(t.Signatures))
	}
	if len(t.Instructions) == 0 {
		return ErrEmptyTransaction
	}
	if len(t.Instructions) > math.MaxUint16 {
		return fmt.Errorf("%w: %d", ErrTooManyInstructions, len(t.Instructions))
	}

	seen := crypto.NewPublicKeySet()
	for _, s := range t.Signers {
		if seen.Has(s) {
			return fmt.Errorf("%w: %s", ErrDuplicateSigner, s)
		}
		seen.Add(s)
	}

	msg, err := t.Message()
	if err != nil {
		return err
	}
	for i, s := range t.Signers {
		if !ed25519.Verify(s, msg, t.Signatures[i]) {
			return fmt.Errorf("%w: signer %d (%s)", ErrInvalidSignature, i, s)
		}
	}
	return nil
}
