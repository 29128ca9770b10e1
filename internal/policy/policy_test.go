package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/sigverify"
)

var (
	d1 = crypto.PublicKey{1}
	d2 = crypto.PublicKey{2}
	d3 = crypto.PublicKey{3}
	x  = crypto.PublicKey{0xEE}
)

func TestExact(t *testing.T) {
	tests := []struct {
		name    string
		policy  Exact
		signers []crypto.PublicKey
		wantErr bool
	}{
		{name: "distributor_signed", policy: Exact{d1}, signers: []crypto.PublicKey{d1}},
		{name: "other_signer", policy: Exact{d1}, signers: []crypto.PublicKey{x}, wantErr: true},
		{name: "no_signers", policy: Exact{d1}, signers: nil, wantErr: true},
		{name: "unconfigured", policy: Exact{}, signers: []crypto.PublicKey{{}}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.policy.Check(tc.signers)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrDistributorMismatch)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAllRequired(t *testing.T) {
	p := AllRequired{Distributors: []crypto.PublicKey{d1, d2, d3}}

	tests := []struct {
		name    string
		signers []crypto.PublicKey
		wantErr bool
	}{
		{name: "all_in_order", signers: []crypto.PublicKey{d1, d2, d3}},
		{name: "all_reordered", signers: []crypto.PublicKey{d3, d1, d2}},
		{name: "extra_signer_ignored", signers: []crypto.PublicKey{d1, x, d2, d3}},
		{name: "duplicates_ignored", signers: []crypto.PublicKey{d1, d1, d2, d3, d3}},
		{name: "one_missing", signers: []crypto.PublicKey{d1, d2}, wantErr: true},
		{name: "duplicate_does_not_cover_missing", signers: []crypto.PublicKey{d1, d1, d2}, wantErr: true},
		{name: "none", signers: nil, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := p.Check(tc.signers)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrDistributorMismatch)
				return
			}
			assert.NoError(t, err)
		})
	}

	// An empty distributor set never authorizes anything.
	assert.ErrorIs(t, AllRequired{}.Check([]crypto.PublicKey{d1}), ErrDistributorMismatch)
	assert.ErrorIs(t, AllRequired{}.Check(nil), ErrDistributorMismatch)
}

// Every strict subset of the distributor set is rejected.
func TestAllRequiredSubsets(t *testing.T) {
	all := []crypto.PublicKey{d1, d2, d3}
	p := AllRequired{Distributors: all}
	for mask := 0; mask < 1<<len(all)-1; mask++ {
		var subset []crypto.PublicKey
		for i, d := range all {
			if mask&(1<<i) != 0 {
				subset = append(subset, d)
			}
		}
		assert.ErrorIs(t, p.Check(append(subset, x)), ErrDistributorMismatch, "mask %b", mask)
	}
}

func TestFor(t *testing.T) {
	p, layout, err := For(ModeExact, []crypto.PublicKey{d1}, 129)
	require.NoError(t, err)
	assert.Equal(t, Exact{Distributor: d1}, p)
	assert.Equal(t, sigverify.Layout{Format: sigverify.FormatSingle, MessageSize: 129}, layout)

	p, layout, err = For(ModeAllRequired, []crypto.PublicKey{d1, d2}, 129)
	require.NoError(t, err)
	assert.Equal(t, AllRequired{Distributors: []crypto.PublicKey{d1, d2}}, p)
	assert.Equal(t, sigverify.FormatMulti, layout.Format)

	_, _, err = For(ModeExact, []crypto.PublicKey{d1, d2}, 129)
	assert.Error(t, err)
	_, _, err = For(ModeAllRequired, nil, 129)
	assert.ErrorIs(t, err, ErrNoDistributors)
	_, _, err = For(Mode(7), []crypto.PublicKey{d1}, 129)
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeExact, ModeAllRequired} {
		parsed, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	_, err := ParseMode("some")
	assert.ErrorIs(t, err, ErrUnknownMode)
}
