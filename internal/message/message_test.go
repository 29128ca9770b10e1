package message

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/sigclaim/internal/crypto"
)

var (
	programID = crypto.PublicKey{0xA1}
	recipient = crypto.PublicKey{0xB2}
	mint      = crypto.PublicKey{0xC3}
)

func validClaim() Claim {
	return Claim{
		Envelope: Envelope{ProgramID: programID, Version: SupportedVersion, Nonce: 7, Expiry: 1_000},
		Payload:  ClaimPayload{Recipient: recipient, Mint: mint, Project: 3, Amount: 100},
	}
}

func TestEncodeWireLayout(t *testing.T) {
	b, err := Encode(validClaim())
	require.NoError(t, err)
	require.Len(t, b, ClaimMessageSize)

	assert.Equal(t, programID[:], b[0:32])
	assert.Equal(t, SupportedVersion, b[32])
	assert.Equal(t, uint64(7), binary.LittleEndian.Uint64(b[33:41]))
	assert.Equal(t, uint64(1_000), binary.LittleEndian.Uint64(b[41:49]))
	assert.Equal(t, recipient[:], b[49:81])
	assert.Equal(t, mint[:], b[81:113])
	assert.Equal(t, uint64(3), binary.LittleEndian.Uint64(b[113:121]))
	assert.Equal(t, uint64(100), binary.LittleEndian.Uint64(b[121:129]))
}

func TestDecode(t *testing.T) {
	b, err := Encode(validClaim())
	require.NoError(t, err)

	msg, err := Decode[ClaimPayload](b)
	require.NoError(t, err)
	assert.Equal(t, validClaim(), msg)

	_, err = Decode[ClaimPayload](b[:ClaimMessageSize-1])
	assert.ErrorIs(t, err, ErrInvalidMessageEncoding)

	_, err = Decode[ClaimPayload](append(b, 0))
	assert.ErrorIs(t, err, ErrInvalidMessageEncoding)

	_, err = Decode[ClaimPayload](nil)
	assert.ErrorIs(t, err, ErrInvalidMessageEncoding)
}

func TestValidateEnvelopeOrder(t *testing.T) {
	policy := Policy{ProgramID: programID, Version: SupportedVersion}
	const now = 1_000

	tests := []struct {
		name    string
		mutate  func(e *Envelope)
		nonce   uint64
		wantErr error
	}{
		{name: "valid", mutate: func(e *Envelope) {}, nonce: 7},
		{name: "expiry_equals_now", mutate: func(e *Envelope) { e.Expiry = now }, nonce: 7},
		{name: "expiry_one_second_ago", mutate: func(e *Envelope) { e.Expiry = now - 1 }, nonce: 7, wantErr: ErrDeadlineExpired},
		{name: "wrong_program", mutate: func(e *Envelope) { e.ProgramID = crypto.PublicKey{0xFF} }, nonce: 7, wantErr: ErrProgramIDMismatch},
		{name: "wrong_version", mutate: func(e *Envelope) { e.Version = 2 }, nonce: 7, wantErr: ErrVersionMismatch},
		{name: "wrong_nonce", mutate: func(e *Envelope) {}, nonce: 8, wantErr: ErrNonceMismatch},
		{
			name: "program_checked_before_everything",
			mutate: func(e *Envelope) {
				e.ProgramID = crypto.PublicKey{0xFF}
				e.Version = 9
				e.Expiry = 0
			},
			nonce:   8,
			wantErr: ErrProgramIDMismatch,
		},
		{
			name:    "version_before_expiry",
			mutate:  func(e *Envelope) { e.Version = 9; e.Expiry = 0 },
			nonce:   8,
			wantErr: ErrVersionMismatch,
		},
		{
			name:    "expiry_before_nonce",
			mutate:  func(e *Envelope) { e.Expiry = 0 },
			nonce:   8,
			wantErr: ErrDeadlineExpired,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := validClaim().Envelope
			tc.mutate(&env)
			err := ValidateEnvelope(env, policy, now, tc.nonce)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidatePayload(t *testing.T) {
	policy := Policy{ProgramID: programID, Version: SupportedVersion}
	errPayload := errors.New("payload rejected")

	called := false
	err := Validate(validClaim(), policy, 0, 7, func(p ClaimPayload) error {
		called = true
		assert.Equal(t, recipient, p.Recipient)
		return errPayload
	})
	assert.True(t, called)
	assert.ErrorIs(t, err, errPayload)

	// The payload validator does not run when the envelope is invalid
	called = false
	err = Validate(validClaim(), policy, 0, 8, func(p ClaimPayload) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrNonceMismatch)
	assert.False(t, called)

	assert.NoError(t, Validate[ClaimPayload](validClaim(), policy, 0, 7, nil))
}
