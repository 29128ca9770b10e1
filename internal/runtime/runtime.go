// Package runtime executes transactions against the ledger: it verifies
// transaction and co-instruction signatures, dispatches instructions to
// their programs and commits the ledger only if every instruction succeeds.
package runtime

import (
	"context"
	"fmt"

	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/instruction"
	"github.com/eigerco/sigclaim/internal/program"
	"github.com/eigerco/sigclaim/internal/store"
	"github.com/eigerco/sigclaim/pkg/log"
)

// InstructionError reports which instruction aborted a transaction.
type InstructionError struct {
	Index int
	Err   error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction %d: %v", e.Index, e.Err)
}

func (e *InstructionError) Unwrap() error {
	return e.Err
}

// Receipt describes a committed transaction.
type Receipt struct {
	ID  crypto.Hash
	Now int64
}

type Runtime struct {
	ledger   *store.Ledger
	clock    Clock
	programs map[crypto.PublicKey]program.Handler
}

func New(ledger *store.Ledger, clock Clock, handlers ...program.Handler) *Runtime {
	r := &Runtime{
		ledger:   ledger,
		clock:    clock,
		programs: make(map[crypto.PublicKey]program.Handler, len(handlers)),
	}
	for _, h := range handlers {
		r.programs[h.ProgramID()] = h
	}
	return r
}

// Ledger returns the ledger the runtime writes to.
func (r *Runtime) Ledger() *store.Ledger {
	return r.ledger
}

// Execute runs tx atomically.
func (r *Runtime) Execute(ctx context.Context, tx Transaction) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	id, err := tx.ID()
	if err != nil {
		return Receipt{}, err
	}
	logger := log.Runtime.With().Str("tx", id.String()).Logger()

	if err := tx.Verify(); err != nil {
		logger.Debug().Err(err).Msg("transaction rejected")
		return Receipt{}, err
	}
	if err := checkSigners(tx); err != nil {
		logger.Debug().Err(err).Msg("transaction rejected")
		return Receipt{}, err
	}

	// Signature facilities run before any program instruction.
	for i, ix := range tx.Instructions {
		if ix.ProgramID != instruction.Ed25519ProgramID {
			continue
		}
		if err := verifyEd25519(tx.Instructions, i); err != nil {
			err = &InstructionError{Index: i, Err: err}
			logger.Debug().Err(err).Msg("transaction rejected")
			return Receipt{}, err
		}
	}

	now := r.clock.Now()
	err = r.ledger.Update(func(ltx *store.Tx) error {
		for i, ix := range tx.Instructions {
			if ix.ProgramID == instruction.Ed25519ProgramID {
				continue
			}
			handler, ok := r.programs[ix.ProgramID]
			if !ok {
				return &InstructionError{Index: i, Err: fmt.Errorf("%w: %s", program.ErrUnknownProgram, ix.ProgramID)}
			}
			pctx := &program.Context{
				Tx:           ltx,
				Instructions: instruction.List{Instructions: tx.Instructions, Current: uint16(i)},
				Accounts:     ix.Accounts,
				Now:          now,
			}
			if err := handler.Process(pctx, ix.Data); err != nil {
				return &InstructionError{Index: i, Err: err}
			}
		}
		return nil
	})
	if err != nil {
		logger.Debug().Err(err).Msg("transaction failed")
		return Receipt{}, err
	}

	logger.Info().Int("instructions", len(tx.Instructions)).Msg("transaction committed")
	return Receipt{ID: id, Now: now}, nil
}

// checkSigners ensures every account marked as signer signed tx.
func checkSigners(tx Transaction) error {
	signed := crypto.NewPublicKeySet(tx.Signers...)
	for i, ix := range tx.Instructions {
		for _, meta := range ix.Accounts {
			if meta.IsSigner && !signed.Has(meta.Key) {
				return &InstructionError{Index: i, Err: fmt.Errorf("%w: %s", program.ErrMissingRequiredSignature, meta.Key)}
			}
		}
	}
	return nil
}
