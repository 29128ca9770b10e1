package airdrop

import (
	"errors"
	"fmt"

	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/message"
	"github.com/eigerco/sigclaim/internal/program"
	"github.com/eigerco/sigclaim/internal/state"
	"github.com/eigerco/sigclaim/internal/store"
	"github.com/eigerco/sigclaim/internal/token"
	"github.com/eigerco/sigclaim/pkg/log"
)

// Claim redeems the signed claim message carried by the preceding
// co-instruction. On success the nonce is consumed and the signed amount has
// moved from the project's token account to the recipient's. Any failure
// leaves the transaction to be discarded.
func (p *Program) Claim(ctx *program.Context, recipient crypto.PublicKey, projectRef, nonce uint64) error {
	var (
		projectAddr crypto.PublicKey
		project     state.Project
	)
	msg, err := Verify[message.ClaimPayload](p, ctx, nonce, message.ClaimMessageSize, func(payload message.ClaimPayload) (err error) {
		projectAddr, project, err = p.checkPayload(ctx.Tx, payload, recipient, projectRef)
		return err
	})
	if err != nil {
		p.logRejected(recipient, projectRef, nonce, err)
		return err
	}

	nullifierAddr, _, err := state.NullifierAddress(p.id, projectRef, nonce)
	if err != nil {
		return err
	}
	err = ctx.Tx.CreateNullifier(nullifierAddr, state.Nullifier{
		Nonce:      nonce,
		Project:    projectRef,
		Claimant:   recipient,
		ConsumedAt: ctx.Now,
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		err = fmt.Errorf("%w: project %d nonce %d", ErrNonceAlreadyUsed, projectRef, nonce)
		p.logRejected(recipient, projectRef, nonce, err)
		return err
	}
	if err != nil {
		return err
	}

	err = p.tokens.Transfer(ctx.Tx, token.Transfer{
		Mint:   project.Mint,
		From:   projectAddr,
		To:     recipient,
		Amount: msg.Payload.Amount,
		Authority: token.Authority{
			Key:     projectAddr,
			Seeds:   state.WithBump(state.ProjectSeeds(projectRef), project.Bump),
			Deriver: p.id,
		},
	})
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrTransferFailed, err)
		p.logRejected(recipient, projectRef, nonce, err)
		return err
	}

	log.Program.Info().
		Uint64("project", projectRef).
		Uint64("nonce", nonce).
		Str("recipient", recipient.String()).
		Uint64("amount", msg.Payload.Amount).
		Msg("claim redeemed")
	return nil
}

// checkPayload binds the signed payload to the call: the project must exist
// and match, the payload must name the signing recipient and the project's
// mint.
func (p *Program) checkPayload(tx *store.Tx, payload message.ClaimPayload, recipient crypto.PublicKey, projectRef uint64) (crypto.PublicKey, state.Project, error) {
	addr, _, err := state.ProjectAddress(p.id, projectRef)
	if err != nil {
		return crypto.PublicKey{}, state.Project{}, err
	}
	project, err := tx.Project(addr)
	if errors.Is(err, store.ErrNotFound) {
		return crypto.PublicKey{}, state.Project{}, fmt.Errorf("%w: %d", ErrProjectNotFound, projectRef)
	}
	if err != nil {
		return crypto.PublicKey{}, state.Project{}, err
	}

	if payload.Project != projectRef {
		return crypto.PublicKey{}, state.Project{}, fmt.Errorf("%w: signed %d, called %d", ErrProjectMismatch, payload.Project, projectRef)
	}
	if payload.Recipient != recipient {
		return crypto.PublicKey{}, state.Project{}, fmt.Errorf("%w: signed %s, signer %s", ErrRecipientMismatch, payload.Recipient, recipient)
	}
	if payload.Mint != project.Mint {
		return crypto.PublicKey{}, state.Project{}, fmt.Errorf("%w: signed %s, project %s", ErrAssetMismatch, payload.Mint, project.Mint)
	}
	return addr, project, nil
}

func (p *Program) logRejected(recipient crypto.PublicKey, projectRef, nonce uint64, err error) {
	log.Program.Debug().
		Err(err).
		Uint64("project", projectRef).
		Uint64("nonce", nonce).
		Str("recipient", recipient.String()).
		Msg("claim rejected")
}
