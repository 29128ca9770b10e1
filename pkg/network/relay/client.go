package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/eigerco/sigclaim/internal/airdrop"
	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/crypto/ed25519"
	"github.com/eigerco/sigclaim/internal/runtime"
	"github.com/eigerco/sigclaim/pkg/network/transport"
	"github.com/eigerco/sigclaim/pkg/serialization/codec/jam"
)

var ErrRemote = errors.New("relay error")

// Client talks to one relay server.
type Client struct {
	transport *transport.Transport
	conn      *transport.Conn
}

// Dial connects to the relay at addr, authenticating with kp.
func Dial(ctx context.Context, addr string, kp ed25519.Keypair) (*Client, error) {
	t, err := transport.NewTransport(transport.Config{Keypair: kp})
	if err != nil {
		return nil, err
	}
	conn, err := t.Connect(ctx, addr)
	if err != nil {
		return nil, err
	}
	return &Client{transport: t, conn: conn}, nil
}

// Server is the relay's key from its certificate.
func (c *Client) Server() crypto.PublicKey {
	return c.conn.PeerKey()
}

func (c *Client) Close() error {
	return c.transport.Stop()
}

func (c *Client) roundTrip(ctx context.Context, kind byte, req, resp any) error {
	stream, err := c.conn.OpenStream(ctx, kind)
	if err != nil {
		return err
	}
	defer stream.CancelRead(0)
	if err := WriteFrame(ctx, stream, req); err != nil {
		return err
	}
	if err := stream.Close(); err != nil {
		return err
	}
	return ReadFrame(ctx, stream, resp)
}

// Submit sends tx and waits for it to be executed. Rejections come back as
// errors matching the program's error values, wrapped in a
// runtime.InstructionError when an instruction failed.
func (c *Client) Submit(ctx context.Context, tx runtime.Transaction) (SubmitResponse, error) {
	raw, err := jam.Marshal(tx)
	if err != nil {
		return SubmitResponse{}, fmt.Errorf("encode transaction: %w", err)
	}
	var resp SubmitResponse
	if err := c.roundTrip(ctx, KindSubmit, SubmitRequest{Transaction: raw}, &resp); err != nil {
		return SubmitResponse{}, err
	}
	if resp.Code == airdrop.CodeOK {
		return resp, nil
	}

	err = airdrop.ErrorFromCode(resp.Code, resp.Error)
	if resp.Code == airdrop.CodeUnknown {
		err = fmt.Errorf("%w: %s", ErrRemote, resp.Error)
	}
	if resp.Instruction >= 0 {
		err = &runtime.InstructionError{Index: resp.Instruction, Err: err}
	}
	return resp, err
}

func (c *Client) NullifierStatus(ctx context.Context, project, nonce uint64) (NullifierStatus, error) {
	var resp NullifierStatus
	if err := c.roundTrip(ctx, KindNullifierStatus, NullifierStatusRequest{Project: project, Nonce: nonce}, &resp); err != nil {
		return NullifierStatus{}, err
	}
	if resp.Error != "" {
		return resp, fmt.Errorf("%w: %s", ErrRemote, resp.Error)
	}
	return resp, nil
}

func (c *Client) Balance(ctx context.Context, owner, mint crypto.PublicKey) (BalanceResponse, error) {
	var resp BalanceResponse
	if err := c.roundTrip(ctx, KindBalance, BalanceRequest{Owner: owner, Mint: mint}, &resp); err != nil {
		return BalanceResponse{}, err
	}
	if resp.Error != "" {
		return resp, fmt.Errorf("%w: %s", ErrRemote, resp.Error)
	}
	return resp, nil
}
