package airdrop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/crypto/ed25519"
	"github.com/eigerco/sigclaim/internal/policy"
	"github.com/eigerco/sigclaim/internal/program"
	"github.com/eigerco/sigclaim/internal/state"
	"github.com/eigerco/sigclaim/internal/store"
)

func TestCreateGlobalConfigTwice(t *testing.T) {
	f := newFixture(t, policy.ModeExact, 1)
	err := f.ledger.Update(func(tx *store.Tx) error {
		return f.program.CreateGlobalConfig(f.context(tx, nil, 0), f.authority.Public, policy.ModeExact, []crypto.PublicKey{{1}})
	})
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestCreateGlobalConfigInvalid(t *testing.T) {
	tests := []struct {
		name         string
		mode         policy.Mode
		distributors []crypto.PublicKey
	}{
		{name: "exact_without_distributor", mode: policy.ModeExact},
		{name: "exact_with_two", mode: policy.ModeExact, distributors: []crypto.PublicKey{{1}, {2}}},
		{name: "all_without_distributors", mode: policy.ModeAllRequired},
		{name: "unknown_mode", mode: policy.Mode(9), distributors: []crypto.PublicKey{{1}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, policy.ModeExact, 1)
			err := f.ledger.Update(func(tx *store.Tx) error {
				return f.program.UpdateDistributors(f.context(tx, nil, 0), f.authority.Public, tc.mode, tc.distributors)
			})
			assert.ErrorIs(t, err, ErrInvalidInstruction)
		})
	}
}

func TestUpdateDistributors(t *testing.T) {
	f := newFixture(t, policy.ModeExact, 1)
	replacement := keypair(t, 0x55)

	ix, err := NewUpdateDistributorsInstruction(programID, replacement.Public, policy.ModeExact, []crypto.PublicKey{replacement.Public})
	require.NoError(t, err)
	err = f.ledger.Update(func(tx *store.Tx) error {
		return f.program.Process(&program.Context{Tx: tx, Accounts: ix.Accounts}, ix.Data)
	})
	assert.ErrorIs(t, err, ErrUnauthorized)

	ix, err = NewUpdateDistributorsInstruction(programID, f.authority.Public, policy.ModeExact, []crypto.PublicKey{replacement.Public})
	require.NoError(t, err)
	err = f.ledger.Update(func(tx *store.Tx) error {
		return f.program.Process(&program.Context{Tx: tx, Accounts: ix.Accounts}, ix.Data)
	})
	require.NoError(t, err)

	addr, _, err := state.ConfigAddress(programID)
	require.NoError(t, err)
	cfg, err := f.ledger.GlobalConfig(addr)
	require.NoError(t, err)
	assert.Equal(t, []crypto.PublicKey{replacement.Public}, cfg.Distributors)
	assert.Equal(t, f.authority.Public, cfg.Authority)

	// the old distributor no longer authorizes claims
	err = f.claim(f.claimMessage(1), f.distributors, testProject, 1)
	assert.ErrorIs(t, err, policy.ErrDistributorMismatch)
	err = f.claim(f.claimMessage(1), []ed25519.Keypair{replacement}, testProject, 1)
	assert.NoError(t, err)
}

func TestCreateProjectTwice(t *testing.T) {
	f := newFixture(t, policy.ModeExact, 1)
	ix, err := NewCreateProjectInstruction(programID, f.authority.Public, f.mint, testProject)
	require.NoError(t, err)
	err = f.ledger.Update(func(tx *store.Tx) error {
		return f.program.Process(&program.Context{Tx: tx, Accounts: ix.Accounts}, ix.Data)
	})
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	project, err := f.ledger.Project(f.projectAddress(testProject))
	require.NoError(t, err)
	assert.Equal(t, f.mint, project.Mint)
	assert.Equal(t, f.authority.Public, project.Authority)
}

func TestClaimWithoutConfig(t *testing.T) {
	f := newFixture(t, policy.ModeExact, 1)
	f.program = New(crypto.PublicKey{0x01}, f.tokens)
	err := f.claim(f.claimMessage(1), f.distributors, testProject, 1)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}
