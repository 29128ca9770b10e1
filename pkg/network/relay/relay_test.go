package relay

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/sigclaim/internal/airdrop"
	"github.com/eigerco/sigclaim/internal/config"
	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/crypto/ed25519"
	"github.com/eigerco/sigclaim/internal/message"
	"github.com/eigerco/sigclaim/internal/node"
	"github.com/eigerco/sigclaim/internal/policy"
	"github.com/eigerco/sigclaim/internal/runtime"
	"github.com/eigerco/sigclaim/internal/sigverify"
)

const testNow = int64(1_700_000_000)

var testMint = crypto.PublicKey{0xC0}

func keypair(t *testing.T, b byte) ed25519.Keypair {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = b
	}
	kp, err := ed25519.KeypairFromSeed(seed)
	require.NoError(t, err)
	return kp
}

type harness struct {
	node        *node.Node
	server      *Server
	client      *Client
	distributor ed25519.Keypair
	recipient   ed25519.Keypair
}

func newHarness(t *testing.T) *harness {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n, err := node.Open("", airdrop.DefaultProgramID, runtime.FixedClock(testNow))
	require.NoError(t, err)
	t.Cleanup(func() { _ = n.Close() })

	h := &harness{node: n, distributor: keypair(t, 0xD0), recipient: keypair(t, 0xB0)}
	cfg := config.Default()
	cfg.Distributors = config.DistributorsConfig{Mode: policy.ModeExact, Keys: []crypto.PublicKey{h.distributor.Public}}
	cfg.Projects = []config.ProjectConfig{{Nonce: 1, Mint: testMint, Funding: 1000}}
	require.NoError(t, n.Bootstrap(ctx, cfg, keypair(t, 0xA0)))

	h.server, err = NewServer(ServerConfig{
		Keypair:    keypair(t, 0x01),
		ListenAddr: "127.0.0.1:0",
		Runtime:    n.Runtime,
		ProgramID:  n.ProgramID,
	})
	require.NoError(t, err)
	require.NoError(t, h.server.Start())
	t.Cleanup(func() { _ = h.server.Stop() })

	h.client, err = Dial(ctx, h.server.Addr(), h.recipient)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.client.Close() })
	return h
}

func (h *harness) claimTx(t *testing.T, nonce, amount uint64) runtime.Transaction {
	raw, err := message.Encode(message.Claim{
		Envelope: message.Envelope{
			ProgramID: h.node.ProgramID,
			Version:   message.SupportedVersion,
			Nonce:     nonce,
			Expiry:    testNow + 60,
		},
		Payload: message.ClaimPayload{
			Recipient: h.recipient.Public,
			Mint:      testMint,
			Project:   1,
			Amount:    amount,
		},
	})
	require.NoError(t, err)
	co, err := sigverify.Sign(raw, h.distributor)
	require.NoError(t, err)
	ixs, err := airdrop.ClaimInstructions(h.node.ProgramID, h.recipient.Public, co, 1, nonce)
	require.NoError(t, err)
	tx, err := runtime.NewTransaction(ixs, h.recipient)
	require.NoError(t, err)
	return tx
}

func TestSubmitClaim(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	assert.Equal(t, keypair(t, 0x01).Public, h.client.Server())

	tx := h.claimTx(t, 7, 100)
	resp, err := h.client.Submit(ctx, tx)
	require.NoError(t, err)
	id, err := tx.ID()
	require.NoError(t, err)
	assert.Equal(t, id, resp.TxID)
	assert.Equal(t, testNow, resp.Now)

	bal, err := h.client.Balance(ctx, h.recipient.Public, testMint)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), bal.Amount)

	status, err := h.client.NullifierStatus(ctx, 1, 7)
	require.NoError(t, err)
	assert.True(t, status.Consumed)
	assert.Equal(t, h.recipient.Public, status.Claimant)
	assert.Equal(t, testNow, status.ConsumedAt)

	status, err = h.client.NullifierStatus(ctx, 1, 8)
	require.NoError(t, err)
	assert.False(t, status.Consumed)

	// replay
	resp, err = h.client.Submit(ctx, tx)
	require.Error(t, err)
	assert.ErrorIs(t, err, airdrop.ErrNonceAlreadyUsed)
	assert.Equal(t, airdrop.CodeNonceAlreadyUsed, resp.Code)
	var ixErr *runtime.InstructionError
	require.True(t, errors.As(err, &ixErr))
	assert.Equal(t, 1, ixErr.Index)

	bal, err = h.client.Balance(ctx, h.recipient.Public, testMint)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), bal.Amount)
}

func TestSubmitRejections(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tampered := h.claimTx(t, 9, 100)
	tampered.Signatures[0][0] ^= 0xff

	overdrawn := h.claimTx(t, 10, 5000)

	tests := []struct {
		name    string
		tx      runtime.Transaction
		wantErr error
		code    airdrop.Code
	}{
		{name: "bad transaction signature", tx: tampered, wantErr: ErrRemote, code: airdrop.CodeUnknown},
		{name: "insufficient project funds", tx: overdrawn, wantErr: airdrop.ErrTransferFailed, code: airdrop.CodeTransferFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := h.client.Submit(ctx, tc.tx)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, tc.code, resp.Code)
		})
	}

	status, err := h.client.NullifierStatus(ctx, 1, 10)
	require.NoError(t, err)
	assert.False(t, status.Consumed)
}

func TestSubmitUndecodable(t *testing.T) {
	h := newHarness(t)
	resp := h.server.Submit(context.Background(), SubmitRequest{Transaction: []byte{0x01}})
	assert.Equal(t, airdrop.CodeUnknown, resp.Code)
	assert.Equal(t, -1, resp.Instruction)
	assert.Contains(t, resp.Error, "decode transaction")
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := NullifierStatusRequest{Project: 3, Nonce: 9}
	require.NoError(t, WriteFrame(context.Background(), &buf, want))

	var got NullifierStatusRequest
	require.NoError(t, ReadFrame(context.Background(), &buf, &got))
	assert.Equal(t, want, got)
}

func TestReadFrameTooLarge(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(MaxFrameSize+1)))

	var got NullifierStatusRequest
	err := ReadFrame(context.Background(), &buf, &got)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestReadFrameCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var got NullifierStatusRequest
	err := ReadFrame(ctx, blockingReader{}, &got)
	assert.ErrorIs(t, err, context.Canceled)
}

type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) {
	select {}
}
