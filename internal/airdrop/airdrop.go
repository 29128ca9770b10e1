// Package airdrop is the claim program: projects hold tokens, distributors
// sign claim messages off-line and recipients redeem them. Each (project,
// nonce) pair can be redeemed once.
package airdrop

import (
	"errors"
	"fmt"

	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/message"
	"github.com/eigerco/sigclaim/internal/policy"
	"github.com/eigerco/sigclaim/internal/program"
	"github.com/eigerco/sigclaim/internal/sigverify"
	"github.com/eigerco/sigclaim/internal/state"
	"github.com/eigerco/sigclaim/internal/store"
	"github.com/eigerco/sigclaim/internal/token"
	"github.com/eigerco/sigclaim/pkg/log"
)

// DefaultProgramID is the program's address unless configured otherwise.
var DefaultProgramID = crypto.PublicKey(crypto.HashData([]byte("sigclaim/airdrop")))

// Tokens is the token facility the program moves funds through.
type Tokens interface {
	CreateAccount(tx *store.Tx, owner, mint crypto.PublicKey) (crypto.PublicKey, error)
	Transfer(tx *store.Tx, t token.Transfer) error
}

type Program struct {
	id      crypto.PublicKey
	version uint8
	tokens  Tokens
}

func New(id crypto.PublicKey, tokens Tokens) *Program {
	return &Program{id: id, version: message.SupportedVersion, tokens: tokens}
}

func (p *Program) ProgramID() crypto.PublicKey {
	return p.id
}

// Process decodes and executes one airdrop instruction.
func (p *Program) Process(ctx *program.Context, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidInstruction)
	}
	tag, args := data[0], data[1:]

	switch tag {
	case TagCreateGlobalConfig, TagUpdateDistributors:
		var a ConfigArgs
		if err := decode(args, &a); err != nil {
			return err
		}
		authority, err := ctx.Signer(0)
		if err != nil {
			return err
		}
		if tag == TagCreateGlobalConfig {
			return p.CreateGlobalConfig(ctx, authority, a.Mode, a.Distributors)
		}
		return p.UpdateDistributors(ctx, authority, a.Mode, a.Distributors)
	case TagCreateProject:
		var a CreateProjectArgs
		if err := decode(args, &a); err != nil {
			return err
		}
		authority, err := ctx.Signer(0)
		if err != nil {
			return err
		}
		mint, err := ctx.Account(1)
		if err != nil {
			return err
		}
		return p.CreateProject(ctx, authority, mint.Key, a.Nonce)
	case TagClaim:
		var a ClaimArgs
		if err := decode(args, &a); err != nil {
			return err
		}
		recipient, err := ctx.Signer(0)
		if err != nil {
			return err
		}
		return p.Claim(ctx, recipient, a.Project, a.Nonce)
	default:
		return fmt.Errorf("%w: unknown tag %d", ErrInvalidInstruction, tag)
	}
}

// CreateGlobalConfig stores the distributor set. The signer becomes the
// config authority.
func (p *Program) CreateGlobalConfig(ctx *program.Context, authority crypto.PublicKey, mode policy.Mode, distributors []crypto.PublicKey) error {
	if _, _, err := policy.For(mode, distributors, message.ClaimMessageSize); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
	}
	addr, bump, err := state.ConfigAddress(p.id)
	if err != nil {
		return err
	}

	cfg := state.GlobalConfig{Authority: authority, Mode: mode, Distributors: distributors, Bump: bump}
	if err := ctx.Tx.CreateIfAbsent(store.KindGlobalConfig, addr, cfg); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return fmt.Errorf("%w: global config", ErrAlreadyInitialized)
		}
		return err
	}

	log.Program.Info().
		Str("authority", authority.String()).
		Stringer("mode", mode).
		Int("distributors", len(distributors)).
		Msg("global config created")
	return nil
}

// UpdateDistributors replaces the distributor set. Only the config authority
// may call it.
func (p *Program) UpdateDistributors(ctx *program.Context, authority crypto.PublicKey, mode policy.Mode, distributors []crypto.PublicKey) error {
	if _, _, err := policy.For(mode, distributors, message.ClaimMessageSize); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
	}
	addr, cfg, err := p.globalConfig(ctx.Tx)
	if err != nil {
		return err
	}
	if cfg.Authority != authority {
		return fmt.Errorf("%w: %s", ErrUnauthorized, authority)
	}

	cfg.Mode = mode
	cfg.Distributors = distributors
	if err := ctx.Tx.Put(store.KindGlobalConfig, addr, cfg); err != nil {
		return err
	}

	log.Program.Info().
		Stringer("mode", mode).
		Int("distributors", len(distributors)).
		Msg("distributors updated")
	return nil
}

// CreateProject registers project nonce for mint and opens the token account
// owned by the project's derived address.
func (p *Program) CreateProject(ctx *program.Context, authority, mint crypto.PublicKey, nonce uint64) error {
	addr, bump, err := state.ProjectAddress(p.id, nonce)
	if err != nil {
		return err
	}

	project := state.Project{Nonce: nonce, Mint: mint, Authority: authority, Bump: bump}
	if err := ctx.Tx.CreateIfAbsent(store.KindProject, addr, project); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return fmt.Errorf("%w: project %d", ErrAlreadyInitialized, nonce)
		}
		return err
	}
	vault, err := p.tokens.CreateAccount(ctx.Tx, addr, mint)
	if err != nil {
		return fmt.Errorf("create project token account: %w", err)
	}

	log.Program.Info().
		Uint64("project", nonce).
		Str("address", addr.String()).
		Str("vault", vault.String()).
		Str("mint", mint.String()).
		Msg("project created")
	return nil
}

func (p *Program) globalConfig(tx *store.Tx) (crypto.PublicKey, state.GlobalConfig, error) {
	addr, _, err := state.ConfigAddress(p.id)
	if err != nil {
		return crypto.PublicKey{}, state.GlobalConfig{}, err
	}
	cfg, err := tx.GlobalConfig(addr)
	if errors.Is(err, store.ErrNotFound) {
		return crypto.PublicKey{}, state.GlobalConfig{}, ErrConfigNotFound
	}
	return addr, cfg, err
}

func (p *Program) messagePolicy() message.Policy {
	return message.Policy{ProgramID: p.id, Version: p.version}
}

// Verify checks that the co-instruction preceding the current instruction
// authorizes a message under the current distributor policy, then hands the
// payload to validate, and returns the decoded message. A nil validate
// accepts any payload. Verify itself performs no state changes.
func Verify[P any](p *Program, ctx *program.Context, nonce uint64, messageSize int, validate message.PayloadValidator[P]) (message.Signed[P], error) {
	_, cfg, err := p.globalConfig(ctx.Tx)
	if err != nil {
		return message.Signed[P]{}, err
	}
	pol, layout, err := policy.For(cfg.Mode, cfg.Distributors, messageSize)
	if err != nil {
		return message.Signed[P]{}, fmt.Errorf("%w: %v", policy.ErrDistributorMismatch, err)
	}

	auth, err := sigverify.Load(ctx.Instructions, layout)
	if err != nil {
		return message.Signed[P]{}, err
	}
	msg, err := message.Decode[P](auth.Message)
	if err != nil {
		return message.Signed[P]{}, err
	}
	// signers are checked between the envelope and the payload
	check := func(payload P) error {
		if err := pol.Check(auth.Signers); err != nil {
			return err
		}
		if validate == nil {
			return nil
		}
		return validate(payload)
	}
	if err := message.Validate(msg, p.messagePolicy(), ctx.Now, nonce, check); err != nil {
		return message.Signed[P]{}, err
	}
	return msg, nil
}
