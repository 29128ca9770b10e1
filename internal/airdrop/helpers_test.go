package airdrop

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/crypto/ed25519"
	"github.com/eigerco/sigclaim/internal/instruction"
	"github.com/eigerco/sigclaim/internal/message"
	"github.com/eigerco/sigclaim/internal/policy"
	"github.com/eigerco/sigclaim/internal/program"
	"github.com/eigerco/sigclaim/internal/sigverify"
	"github.com/eigerco/sigclaim/internal/state"
	"github.com/eigerco/sigclaim/internal/store"
	"github.com/eigerco/sigclaim/internal/token"
	"github.com/eigerco/sigclaim/pkg/db/pebble"
)

const (
	testNow       = int64(1_700_000_000)
	testProject   = uint64(1)
	projectFunds  = uint64(1000)
	defaultAmount = uint64(100)
)

var programID = crypto.PublicKey(crypto.HashData([]byte("airdrop-test")))

func keypair(t testing.TB, b byte) ed25519.Keypair {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = b
	}
	kp, err := ed25519.KeypairFromSeed(seed)
	require.NoError(t, err)
	return kp
}

type fixture struct {
	t            *testing.T
	ledger       *store.Ledger
	tokens       *token.Program
	program      *Program
	authority    ed25519.Keypair
	distributors []ed25519.Keypair
	recipient    ed25519.Keypair
	mint         crypto.PublicKey
	mintOwner    crypto.PublicKey
}

// newFixture sets up a global config for mode, a mint and project
// testProject funded with projectFunds.
func newFixture(t *testing.T, mode policy.Mode, distributors int) *fixture {
	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	ledger := store.NewLedger(kv)
	t.Cleanup(func() {
		require.NoError(t, ledger.Close())
	})

	tokens := token.New()
	f := &fixture{
		t:         t,
		ledger:    ledger,
		tokens:    tokens,
		program:   New(programID, tokens),
		authority: keypair(t, 0xA0),
		recipient: keypair(t, 0xB0),
		mint:      crypto.PublicKey{0xC0},
		mintOwner: crypto.PublicKey{0xC1},
	}
	keys := make([]crypto.PublicKey, 0, distributors)
	for i := 0; i < distributors; i++ {
		kp := keypair(t, byte(0xD0+i))
		f.distributors = append(f.distributors, kp)
		keys = append(keys, kp.Public)
	}

	require.NoError(t, ledger.Update(func(tx *store.Tx) error {
		ctx := f.context(tx, nil, 0)
		if err := f.program.CreateGlobalConfig(ctx, f.authority.Public, mode, keys); err != nil {
			return err
		}
		if err := tokens.InitializeMint(tx, f.mint, f.mintOwner); err != nil {
			return err
		}
		if err := f.program.CreateProject(ctx, f.authority.Public, f.mint, testProject); err != nil {
			return err
		}
		vault := f.projectAddress(testProject)
		return tokens.MintTo(tx, f.mint, vault, token.SignerAuthority(f.mintOwner), projectFunds)
	}))
	return f
}

func (f *fixture) context(tx *store.Tx, ixs []instruction.Instruction, current uint16) *program.Context {
	var accounts []instruction.AccountMeta
	if int(current) < len(ixs) {
		accounts = ixs[current].Accounts
	}
	return &program.Context{
		Tx:           tx,
		Instructions: instruction.List{Instructions: ixs, Current: current},
		Accounts:     accounts,
		Now:          testNow,
	}
}

func (f *fixture) projectAddress(nonce uint64) crypto.PublicKey {
	addr, _, err := state.ProjectAddress(programID, nonce)
	require.NoError(f.t, err)
	return addr
}

// claimMessage returns a valid claim for nonce over testProject.
func (f *fixture) claimMessage(nonce uint64) message.Claim {
	return message.Claim{
		Envelope: message.Envelope{
			ProgramID: programID,
			Version:   message.SupportedVersion,
			Nonce:     nonce,
			Expiry:    testNow + 60,
		},
		Payload: message.ClaimPayload{
			Recipient: f.recipient.Public,
			Mint:      f.mint,
			Project:   testProject,
			Amount:    defaultAmount,
		},
	}
}

// claim signs msg with signers and executes a claim for (project, nonce).
func (f *fixture) claim(msg message.Claim, signers []ed25519.Keypair, project, nonce uint64) error {
	b, err := message.Encode(msg)
	require.NoError(f.t, err)
	co, err := sigverify.Sign(b, signers...)
	require.NoError(f.t, err)
	return f.execute(co, project, nonce)
}

func (f *fixture) execute(co instruction.Instruction, project, nonce uint64) error {
	claimIx, err := NewClaimInstruction(programID, f.recipient.Public, project, nonce)
	require.NoError(f.t, err)
	ixs := []instruction.Instruction{co, claimIx}
	return f.ledger.Update(func(tx *store.Tx) error {
		return f.program.Process(f.context(tx, ixs, 1), claimIx.Data)
	})
}

func (f *fixture) balance(owner crypto.PublicKey) uint64 {
	var amount uint64
	require.NoError(f.t, f.ledger.Update(func(tx *store.Tx) error {
		var err error
		amount, err = f.tokens.Balance(tx, owner, f.mint)
		return err
	}))
	return amount
}

func (f *fixture) nullifierExists(project, nonce uint64) bool {
	addr, _, err := state.NullifierAddress(programID, project, nonce)
	require.NoError(f.t, err)
	found, err := f.ledger.Exists(store.KindNullifier, addr)
	require.NoError(f.t, err)
	return found
}
