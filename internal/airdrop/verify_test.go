package airdrop

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/sigclaim/internal/crypto/ed25519"
	"github.com/eigerco/sigclaim/internal/instruction"
	"github.com/eigerco/sigclaim/internal/message"
	"github.com/eigerco/sigclaim/internal/policy"
	"github.com/eigerco/sigclaim/internal/sigverify"
	"github.com/eigerco/sigclaim/internal/store"
)

func TestVerifyPayloadValidator(t *testing.T) {
	errPayload := errors.New("payload refused")
	stranger := keypair(t, 0xEE)

	tests := []struct {
		name       string
		mutate     func(m *message.Claim)
		stranger   bool
		validate   func(message.ClaimPayload) error
		wantErr    error
		wantCalled bool
	}{
		{
			name:       "accepted",
			validate:   func(message.ClaimPayload) error { return nil },
			wantCalled: true,
		},
		{
			name: "nil_validator",
		},
		{
			name:       "payload_refused",
			validate:   func(message.ClaimPayload) error { return errPayload },
			wantErr:    errPayload,
			wantCalled: true,
		},
		{
			name:     "envelope_first",
			mutate:   func(m *message.Claim) { m.Envelope.Expiry = testNow - 1 },
			validate: func(message.ClaimPayload) error { return errPayload },
			wantErr:  message.ErrDeadlineExpired,
		},
		{
			name:     "signers_before_payload",
			stranger: true,
			validate: func(message.ClaimPayload) error { return errPayload },
			wantErr:  policy.ErrDistributorMismatch,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, policy.ModeExact, 1)
			msg := f.claimMessage(7)
			if tc.mutate != nil {
				tc.mutate(&msg)
			}
			signers := f.distributors
			if tc.stranger {
				signers = []ed25519.Keypair{stranger}
			}
			b, err := message.Encode(msg)
			require.NoError(t, err)
			co, err := sigverify.Sign(b, signers...)
			require.NoError(t, err)
			claimIx, err := NewClaimInstruction(programID, f.recipient.Public, testProject, 7)
			require.NoError(t, err)

			var called bool
			var validate message.PayloadValidator[message.ClaimPayload]
			if tc.validate != nil {
				validate = func(p message.ClaimPayload) error {
					called = true
					assert.Equal(t, msg.Payload, p)
					return tc.validate(p)
				}
			}

			var got message.Claim
			err = f.ledger.Update(func(tx *store.Tx) error {
				ctx := f.context(tx, []instruction.Instruction{co, claimIx}, 1)
				got, err = Verify(f.program, ctx, 7, message.ClaimMessageSize, validate)
				return err
			})
			assert.Equal(t, tc.wantCalled, called)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, msg, got)
		})
	}
}
