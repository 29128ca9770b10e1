// Package node assembles a ledger, the programs and the runtime, and brings
// the ledger in line with the configured distributors and projects.
package node

import (
	"context"
	"errors"
	"fmt"

	"github.com/eigerco/sigclaim/internal/airdrop"
	"github.com/eigerco/sigclaim/internal/config"
	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/crypto/ed25519"
	"github.com/eigerco/sigclaim/internal/instruction"
	"github.com/eigerco/sigclaim/internal/runtime"
	"github.com/eigerco/sigclaim/internal/state"
	"github.com/eigerco/sigclaim/internal/store"
	"github.com/eigerco/sigclaim/internal/token"
	"github.com/eigerco/sigclaim/pkg/db"
	"github.com/eigerco/sigclaim/pkg/db/pebble"
	"github.com/eigerco/sigclaim/pkg/log"
)

type Node struct {
	ProgramID crypto.PublicKey
	Ledger    *store.Ledger
	Runtime   *runtime.Runtime
	Tokens    *token.Program
	Airdrop   *airdrop.Program
}

// New wires the token and airdrop programs over kv.
func New(kv db.KVStore, programID crypto.PublicKey, clock runtime.Clock) *Node {
	ledger := store.NewLedger(kv)
	tokens := token.New()
	drop := airdrop.New(programID, tokens)
	return &Node{
		ProgramID: programID,
		Ledger:    ledger,
		Runtime:   runtime.New(ledger, clock, tokens, drop),
		Tokens:    tokens,
		Airdrop:   drop,
	}
}

// Open opens the ledger under dataDir, or an in-memory one when dataDir is
// empty.
func Open(dataDir string, programID crypto.PublicKey, clock runtime.Clock) (*Node, error) {
	var (
		kv  *pebble.KVStore
		err error
	)
	if dataDir == "" {
		kv, err = pebble.NewKVStore()
	} else {
		kv, err = pebble.Open(dataDir)
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return New(kv, programID, clock), nil
}

func (n *Node) Close() error {
	return n.Ledger.Close()
}

// Bootstrap creates or updates the global config from cfg.Distributors, then
// creates every configured project that does not exist yet, together with its
// mint and funding. Existing projects are left untouched.
func (n *Node) Bootstrap(ctx context.Context, cfg *config.Config, authority ed25519.Keypair) error {
	if err := n.ensureConfig(ctx, cfg.Distributors, authority); err != nil {
		return err
	}
	for _, p := range cfg.Projects {
		if err := n.ensureProject(ctx, p, authority); err != nil {
			return fmt.Errorf("project %d: %w", p.Nonce, err)
		}
	}
	return nil
}

func (n *Node) ensureConfig(ctx context.Context, d config.DistributorsConfig, authority ed25519.Keypair) error {
	addr, _, err := state.ConfigAddress(n.ProgramID)
	if err != nil {
		return err
	}
	current, err := n.Ledger.GlobalConfig(addr)
	var ix instruction.Instruction
	switch {
	case errors.Is(err, store.ErrNotFound):
		ix, err = airdrop.NewCreateGlobalConfigInstruction(n.ProgramID, authority.Public, d.Mode, d.Keys)
	case err != nil:
		return err
	case current.Mode == d.Mode && sameKeys(current.Distributors, d.Keys):
		return nil
	default:
		ix, err = airdrop.NewUpdateDistributorsInstruction(n.ProgramID, authority.Public, d.Mode, d.Keys)
	}
	if err != nil {
		return err
	}
	if err := n.execute(ctx, authority, ix); err != nil {
		return fmt.Errorf("global config: %w", err)
	}
	log.Root.Info().Str("mode", d.Mode.String()).Int("distributors", len(d.Keys)).Msg("distributors configured")
	return nil
}

func (n *Node) ensureProject(ctx context.Context, p config.ProjectConfig, authority ed25519.Keypair) error {
	addr, _, err := state.ProjectAddress(n.ProgramID, p.Nonce)
	if err != nil {
		return err
	}
	exists, err := n.Ledger.Exists(store.KindProject, addr)
	if err != nil || exists {
		return err
	}
	mintExists, err := n.Ledger.Exists(store.KindMint, p.Mint)
	if err != nil {
		return err
	}

	var ixs []instruction.Instruction
	if !mintExists {
		ixs = append(ixs, token.NewInitializeMintInstruction(p.Mint, authority.Public))
	}
	create, err := airdrop.NewCreateProjectInstruction(n.ProgramID, authority.Public, p.Mint, p.Nonce)
	if err != nil {
		return err
	}
	ixs = append(ixs, create)
	if p.Funding > 0 {
		fund, err := token.NewMintToInstruction(p.Mint, addr, authority.Public, p.Funding)
		if err != nil {
			return err
		}
		ixs = append(ixs, fund)
	}
	if err := n.execute(ctx, authority, ixs...); err != nil {
		return err
	}
	log.Root.Info().Uint64("project", p.Nonce).Str("address", addr.String()).Uint64("funding", p.Funding).Msg("project bootstrapped")
	return nil
}

func (n *Node) execute(ctx context.Context, signer ed25519.Keypair, ixs ...instruction.Instruction) error {
	tx, err := runtime.NewTransaction(ixs, signer)
	if err != nil {
		return err
	}
	_, err = n.Runtime.Execute(ctx, tx)
	return err
}

func sameKeys(a, b []crypto.PublicKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
