package transport

import (
	"context"
	"fmt"

	"github.com/quic-go/quic-go"

	"github.com/eigerco/sigclaim/internal/crypto"
)

// Conn represents a QUIC connection with a remote peer.
type Conn struct {
	qConn   quic.Connection
	peerKey crypto.PublicKey
	ctx     context.Context
	cancel  context.CancelFunc
}

func newConn(parent context.Context, qConn quic.Connection, peer crypto.PublicKey) *Conn {
	ctx, cancel := context.WithCancel(parent)
	return &Conn{
		qConn:   qConn,
		peerKey: peer,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// OpenStream opens a bidirectional stream and announces its kind.
func (c *Conn) OpenStream(ctx context.Context, kind byte) (quic.Stream, error) {
	stream, err := c.qConn.OpenStreamSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open QUIC stream: %w", err)
	}
	if _, err := stream.Write([]byte{kind}); err != nil {
		stream.CancelWrite(0)
		return nil, fmt.Errorf("failed to write stream kind: %w", err)
	}
	return stream, nil
}

// AcceptStream waits for the next stream opened by the peer.
func (c *Conn) AcceptStream() (quic.Stream, error) {
	stream, err := c.qConn.AcceptStream(c.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to accept QUIC stream: %w", err)
	}
	return stream, nil
}

// PeerKey is the key from the peer's certificate.
func (c *Conn) PeerKey() crypto.PublicKey {
	return c.peerKey
}

// Context is cancelled when the connection is closed.
func (c *Conn) Context() context.Context {
	return c.ctx
}

func (c *Conn) Close() error {
	c.cancel()
	return c.qConn.CloseWithError(0, "")
}
