// Package transport carries relay streams over QUIC. Both ends authenticate
// with self-signed ed25519 certificates, and the first byte of every stream
// selects its handler.
package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/crypto/ed25519"
	"github.com/eigerco/sigclaim/pkg/log"
	"github.com/eigerco/sigclaim/pkg/network/cert"
)

// ALPN is the only application protocol spoken by relay peers.
const ALPN = "sigclaim/0"

// MaxIdleTimeout defines the maximum duration a connection can be idle before timing out
const MaxIdleTimeout = 5 * time.Minute

// StreamHandler processes one inbound stream after its kind byte was read.
type StreamHandler interface {
	HandleStream(ctx context.Context, stream quic.Stream, peer crypto.PublicKey) error
}

// StreamHandlerFunc adapts a function to StreamHandler.
type StreamHandlerFunc func(ctx context.Context, stream quic.Stream, peer crypto.PublicKey) error

func (f StreamHandlerFunc) HandleStream(ctx context.Context, stream quic.Stream, peer crypto.PublicKey) error {
	return f(ctx, stream, peer)
}

// Config contains all configuration parameters for a Transport
type Config struct {
	Keypair    ed25519.Keypair
	ListenAddr string
	// Handlers maps stream kinds to their handlers. Only needed to accept.
	Handlers map[byte]StreamHandler
	// CertValidity defaults to cert.DefaultValidity.
	CertValidity time.Duration
}

// Transport manages QUIC connections and their lifecycles
type Transport struct {
	config   Config
	tlsCert  *tls.Certificate
	listener *quic.Listener
	mu       sync.Mutex
	conns    map[crypto.PublicKey]*Conn
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	done     chan struct{}
}

func NewTransport(config Config) (*Transport, error) {
	if len(config.Keypair.Private) != ed25519.PrivateKeySize {
		return nil, errors.New("transport keypair required")
	}
	tlsCert, err := cert.Generate(config.Keypair, config.CertValidity)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Transport{
		config:  config,
		tlsCert: tlsCert,
		conns:   make(map[crypto.PublicKey]*Conn),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

func (t *Transport) tlsConfig() *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{*t.tlsCert},
		NextProtos:   []string{ALPN},
		ClientAuth:   tls.RequireAnyClientCert,
		MinVersion:   tls.VersionTLS13,
		// Peers are self-signed; VerifyPeerCertificate does the checking.
		InsecureSkipVerify:    true,
		VerifyPeerCertificate: verifyPeer,
	}
}

func verifyPeer(rawCerts [][]byte, chains [][]*x509.Certificate) error {
	if err := cert.VerifyPeer(rawCerts, chains); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
	}
	return nil
}

func quicConfig() *quic.Config {
	return &quic.Config{MaxIdleTimeout: MaxIdleTimeout}
}

// Start listens on the configured address and serves inbound connections.
func (t *Transport) Start() error {
	listener, err := quic.ListenAddr(t.config.ListenAddr, t.tlsConfig(), quicConfig())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrListenerFailed, err)
	}
	t.listener = listener
	t.done = make(chan struct{})
	go func() {
		t.acceptLoop()
		close(t.done)
	}()
	log.Network.Info().Str("addr", listener.Addr().String()).Str("key", t.config.Keypair.Public.String()).Msg("relay listening")
	return nil
}

// Addr is the bound listen address, useful when listening on port 0.
func (t *Transport) Addr() (net.Addr, error) {
	if t.listener == nil {
		return nil, ErrNotStarted
	}
	return t.listener.Addr(), nil
}

// Stop closes every connection and the listener, then waits for in-flight
// stream handlers.
func (t *Transport) Stop() error {
	t.cancel()

	t.mu.Lock()
	for key, conn := range t.conns {
		if err := conn.Close(); err != nil {
			log.Network.Debug().Err(err).Str("peer", key.String()).Msg("failed to close connection")
		}
	}
	t.conns = make(map[crypto.PublicKey]*Conn)
	t.mu.Unlock()

	var err error
	if t.listener != nil {
		if cerr := t.listener.Close(); cerr != nil {
			err = fmt.Errorf("failed to close listener: %w", cerr)
		}
		<-t.done
	}
	t.wg.Wait()
	return err
}

// Connect dials a relay. The returned connection only opens streams.
func (t *Transport) Connect(ctx context.Context, addr string) (*Conn, error) {
	qConn, err := quic.DialAddr(ctx, addr, t.tlsConfig(), quicConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDialFailed, err)
	}
	peer, err := cert.PeerKey(qConn.ConnectionState().TLS)
	if err != nil {
		_ = qConn.CloseWithError(0, ErrInvalidCertificate.Error())
		return nil, fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
	}
	return newConn(t.ctx, qConn, peer), nil
}

func (t *Transport) acceptLoop() {
	for {
		qConn, err := t.listener.Accept(t.ctx)
		if err != nil {
			if t.ctx.Err() != nil {
				return
			}
			log.Network.Warn().Err(err).Msg("failed to accept connection")
			continue
		}
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.serveConnection(qConn)
		}()
	}
}

func (t *Transport) serveConnection(qConn quic.Connection) {
	peer, err := cert.PeerKey(qConn.ConnectionState().TLS)
	if err != nil {
		log.Network.Debug().Err(err).Str("remote", qConn.RemoteAddr().String()).Msg("rejecting connection")
		_ = qConn.CloseWithError(0, fmt.Sprintf("%s: %v", ErrInvalidCertificate, err))
		return
	}

	conn := t.manageConnection(peer, qConn)
	defer t.cleanup(peer, conn)
	logger := log.Network.With().Str("peer", peer.String()).Logger()
	logger.Debug().Str("remote", qConn.RemoteAddr().String()).Msg("connection accepted")

	for {
		stream, err := conn.AcceptStream()
		if err != nil {
			logger.Debug().Err(err).Msg("connection closed")
			return
		}
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.serveStream(conn, stream)
		}()
	}
}

func (t *Transport) serveStream(conn *Conn, stream quic.Stream) {
	defer stream.Close()
	logger := log.Network.With().Str("peer", conn.PeerKey().String()).Logger()

	kind := make([]byte, 1)
	if _, err := io.ReadFull(stream, kind); err != nil {
		logger.Debug().Err(err).Msg("failed to read stream kind")
		stream.CancelRead(0)
		return
	}
	handler, ok := t.config.Handlers[kind[0]]
	if !ok {
		logger.Debug().Err(ErrUnknownStreamKind).Uint8("kind", kind[0]).Msg("dropping stream")
		stream.CancelRead(0)
		return
	}
	if err := handler.HandleStream(conn.Context(), stream, conn.PeerKey()); err != nil {
		logger.Debug().Err(err).Uint8("kind", kind[0]).Msg("stream handler failed")
		stream.CancelRead(0)
	}
}

// manageConnection keeps one connection per peer key, replacing older ones.
func (t *Transport) manageConnection(peer crypto.PublicKey, qConn quic.Connection) *Conn {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.conns[peer]; ok {
		if err := existing.Close(); err != nil {
			log.Network.Debug().Err(err).Str("peer", peer.String()).Msg("failed to close replaced connection")
		}
	}
	conn := newConn(t.ctx, qConn, peer)
	t.conns[peer] = conn
	return conn
}

func (t *Transport) cleanup(peer crypto.PublicKey, conn *Conn) {
	t.mu.Lock()
	if t.conns[peer] == conn {
		delete(t.conns, peer)
	}
	t.mu.Unlock()
}
