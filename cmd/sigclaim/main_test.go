package main

import (
	"context"
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/sigclaim/internal/airdrop"
	"github.com/eigerco/sigclaim/internal/config"
	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/crypto/ed25519"
	"github.com/eigerco/sigclaim/internal/node"
	"github.com/eigerco/sigclaim/internal/policy"
	"github.com/eigerco/sigclaim/internal/runtime"
)

func keypair(t *testing.T, dir, name string, b byte) (ed25519.Keypair, string) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = b
	}
	kp, err := ed25519.KeypairFromSeed(seed)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, ed25519.SaveKeypair(path, kp))
	return kp, path
}

func TestSignAndClaimAllRequired(t *testing.T) {
	dir := t.TempDir()
	d1, d1Path := keypair(t, dir, "d1.key", 0xD1)
	d2, d2Path := keypair(t, dir, "d2.key", 0xD2)
	recipient, _ := keypair(t, dir, "recipient.key", 0xB0)
	authority, _ := keypair(t, dir, "authority.key", 0xA0)
	mint := crypto.PublicKey{0xC0}

	n, err := node.Open("", airdrop.DefaultProgramID, runtime.FixedClock(1_700_000_000))
	require.NoError(t, err)
	defer n.Close()

	cfg := config.Default()
	cfg.Distributors = config.DistributorsConfig{Mode: policy.ModeAllRequired, Keys: []crypto.PublicKey{d1.Public, d2.Public}}
	cfg.Projects = []config.ProjectConfig{{Nonce: 3, Mint: mint, Funding: 500}}
	require.NoError(t, n.Bootstrap(context.Background(), cfg, authority))

	signArgs := func(key, out string) []string {
		return []string{
			"--key", key,
			"--recipient", recipient.Public.String(),
			"--mint", mint.String(),
			"--project", "3",
			"--nonce", "11",
			"--amount", "200",
			"--expiry", "1700000100",
			"--out", out,
		}
	}
	a1 := filepath.Join(dir, "a1.yaml")
	a2 := filepath.Join(dir, "a2.yaml")
	require.NoError(t, run(append([]string{"sign"}, signArgs(d1Path, a1)...)))
	require.NoError(t, run(append([]string{"sign"}, signArgs(d2Path, a2)...)))
	require.NoError(t, run([]string{"inspect", "message", "--auth", a1}))

	// d2 alone does not satisfy the all-required policy
	partial, err := mergeAuthorizations([]string{a2})
	require.NoError(t, err)
	tx, err := buildClaim(partial, recipient)
	require.NoError(t, err)
	_, err = n.Runtime.Execute(context.Background(), tx)
	assert.ErrorIs(t, err, policy.ErrDistributorMismatch)

	merged, err := mergeAuthorizations([]string{a1, a2, a1})
	require.NoError(t, err)
	require.Len(t, merged.Signatures, 2)
	tx, err = buildClaim(merged, recipient)
	require.NoError(t, err)
	_, err = n.Runtime.Execute(context.Background(), tx)
	require.NoError(t, err)
}

func TestBuildClaimWrongRecipient(t *testing.T) {
	dir := t.TempDir()
	_, dPath := keypair(t, dir, "d.key", 0xD0)
	recipient, _ := keypair(t, dir, "r.key", 0xB0)
	other, _ := keypair(t, dir, "o.key", 0xB1)

	out := filepath.Join(dir, "auth.yaml")
	require.NoError(t, run([]string{
		"sign", "--key", dPath,
		"--recipient", recipient.Public.String(),
		"--mint", crypto.PublicKey{1}.String(),
		"--project", "1", "--nonce", "1", "--amount", "1",
		"--out", out,
	}))
	auth, err := readAuthorization(out)
	require.NoError(t, err)

	_, err = buildClaim(auth, other)
	assert.Error(t, err)
}

func TestMergeRejectsDifferentMessages(t *testing.T) {
	dir := t.TempDir()
	_, dPath := keypair(t, dir, "d.key", 0xD0)
	recipient, _ := keypair(t, dir, "r.key", 0xB0)

	sign := func(nonce, out string) {
		require.NoError(t, run([]string{
			"sign", "--key", dPath,
			"--recipient", recipient.Public.String(),
			"--mint", crypto.PublicKey{1}.String(),
			"--project", "1", "--nonce", nonce, "--amount", "1",
			"--expiry", "1700000100",
			"--out", out,
		}))
	}
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	sign("1", a)
	sign("2", b)

	_, err := mergeAuthorizations([]string{a, b})
	assert.Error(t, err)
}

func TestAuthorizationEntries(t *testing.T) {
	tests := []struct {
		name    string
		sig     string
		wantErr bool
	}{
		{name: "valid", sig: hex.EncodeToString(make([]byte, crypto.SignatureSize))},
		{name: "short", sig: "abcd", wantErr: true},
		{name: "not hex", sig: "zz", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := authorization{Signatures: []signatureEntry{{Key: crypto.PublicKey{1}, Signature: tc.sig}}}
			entries, err := a.entries()
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	assert.Error(t, run([]string{"frobnicate"}))
	assert.Error(t, run(nil))
}
