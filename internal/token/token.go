// Package token implements fungible token balances: mints, one associated
// token account per (owner, mint) and transfers between them.
package token

import (
	"errors"
	"fmt"

	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/instruction"
	"github.com/eigerco/sigclaim/internal/safemath"
	"github.com/eigerco/sigclaim/internal/state"
	"github.com/eigerco/sigclaim/internal/store"
	"github.com/eigerco/sigclaim/pkg/log"
)

// Authority is the party authorizing a debit. Either it signed the
// transaction, or it is a derived address and Seeds (bump included) derive
// Key under Deriver.
type Authority struct {
	Key     crypto.PublicKey
	Signed  bool
	Seeds   [][]byte
	Deriver crypto.PublicKey
}

// SignerAuthority is an authority that signed the transaction.
func SignerAuthority(key crypto.PublicKey) Authority {
	return Authority{Key: key, Signed: true}
}

// verify proves that the authority may act for Key.
func (a Authority) verify() error {
	if a.Signed {
		return nil
	}
	if len(a.Seeds) == 0 {
		return fmt.Errorf("%w: %s", ErrUnauthorized, a.Key)
	}
	derived, err := crypto.CreateProgramAddress(a.Seeds, a.Deriver)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSeeds, err)
	}
	if derived != a.Key {
		return fmt.Errorf("%w: derived %s, want %s", ErrInvalidSeeds, derived, a.Key)
	}
	return nil
}

// Transfer moves Amount of Mint from the token account of From to the token
// account of To. The destination account is created when missing.
type Transfer struct {
	Mint      crypto.PublicKey
	From      crypto.PublicKey
	To        crypto.PublicKey
	Amount    uint64
	Authority Authority
}

type Program struct{}

func New() *Program {
	return &Program{}
}

func (p *Program) ProgramID() crypto.PublicKey {
	return instruction.TokenProgramID
}

// InitializeMint creates a mint controlled by authority.
func (p *Program) InitializeMint(tx *store.Tx, mint, authority crypto.PublicKey) error {
	err := tx.CreateIfAbsent(store.KindMint, mint, state.Mint{Authority: authority})
	if errors.Is(err, store.ErrAlreadyExists) {
		return fmt.Errorf("%w: %s", ErrMintExists, mint)
	}
	return err
}

// MintTo credits amount to owner's token account, creating it if needed.
func (p *Program) MintTo(tx *store.Tx, mint, owner crypto.PublicKey, authority Authority, amount uint64) error {
	m, err := tx.Mint(mint)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrMintNotFound, mint)
	}
	if err != nil {
		return err
	}
	if authority.Key != m.Authority {
		return fmt.Errorf("%w: %s is not the mint authority", ErrOwnerMismatch, authority.Key)
	}
	if err := authority.verify(); err != nil {
		return err
	}

	if m.Supply, err = safemath.Add(m.Supply, amount); err != nil {
		return err
	}
	addr, acc, err := p.openAccount(tx, owner, mint)
	if err != nil {
		return err
	}
	if acc.Amount, err = safemath.Add(acc.Amount, amount); err != nil {
		return err
	}

	if err := tx.Put(store.KindMint, mint, m); err != nil {
		return err
	}
	return tx.Put(store.KindTokenAccount, addr, acc)
}

// Transfer executes t.
func (p *Program) Transfer(tx *store.Tx, t Transfer) error {
	if t.Authority.Key != t.From {
		return fmt.Errorf("%w: %s is not %s", ErrOwnerMismatch, t.Authority.Key, t.From)
	}
	if err := t.Authority.verify(); err != nil {
		return err
	}

	fromAddr, _, err := state.TokenAccountAddress(t.From, t.Mint)
	if err != nil {
		return err
	}
	from, err := tx.TokenAccount(fromAddr)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: owner %s", ErrAccountNotFound, t.From)
	}
	if err != nil {
		return err
	}
	if from.Mint != t.Mint {
		return fmt.Errorf("%w: %s", ErrMintMismatch, from.Mint)
	}
	if from.Amount < t.Amount {
		return fmt.Errorf("%w: balance %d, amount %d", ErrInsufficientFunds, from.Amount, t.Amount)
	}
	if t.From == t.To {
		return nil
	}

	toAddr, to, err := p.openAccount(tx, t.To, t.Mint)
	if err != nil {
		return err
	}
	if from.Amount, err = safemath.Sub(from.Amount, t.Amount); err != nil {
		return err
	}
	if to.Amount, err = safemath.Add(to.Amount, t.Amount); err != nil {
		return err
	}

	if err := tx.Put(store.KindTokenAccount, fromAddr, from); err != nil {
		return err
	}
	if err := tx.Put(store.KindTokenAccount, toAddr, to); err != nil {
		return err
	}

	log.Program.Debug().
		Str("mint", t.Mint.String()).
		Str("from", t.From.String()).
		Str("to", t.To.String()).
		Uint64("amount", t.Amount).
		Msg("token transfer")
	return nil
}

// Balance returns the amount held by owner's token account, zero if it does
// not exist.
func (p *Program) Balance(tx *store.Tx, owner, mint crypto.PublicKey) (uint64, error) {
	addr, _, err := state.TokenAccountAddress(owner, mint)
	if err != nil {
		return 0, err
	}
	acc, err := tx.TokenAccount(addr)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return acc.Amount, nil
}

// CreateAccount opens owner's token account for mint if it does not exist.
func (p *Program) CreateAccount(tx *store.Tx, owner, mint crypto.PublicKey) (crypto.PublicKey, error) {
	addr, acc, err := p.openAccount(tx, owner, mint)
	if err != nil {
		return crypto.PublicKey{}, err
	}
	return addr, tx.Put(store.KindTokenAccount, addr, acc)
}

func (p *Program) openAccount(tx *store.Tx, owner, mint crypto.PublicKey) (crypto.PublicKey, state.TokenAccount, error) {
	addr, _, err := state.TokenAccountAddress(owner, mint)
	if err != nil {
		return crypto.PublicKey{}, state.TokenAccount{}, err
	}
	acc, err := tx.TokenAccount(addr)
	if errors.Is(err, store.ErrNotFound) {
		if _, err := tx.Mint(mint); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return crypto.PublicKey{}, state.TokenAccount{}, fmt.Errorf("%w: %s", ErrMintNotFound, mint)
			}
			return crypto.PublicKey{}, state.TokenAccount{}, err
		}
		return addr, state.TokenAccount{Mint: mint, Owner: owner}, nil
	}
	if err != nil {
		return crypto.PublicKey{}, state.TokenAccount{}, err
	}
	if acc.Mint != mint {
		return crypto.PublicKey{}, state.TokenAccount{}, fmt.Errorf("%w: %s", ErrMintMismatch, acc.Mint)
	}
	return addr, acc, nil
}
