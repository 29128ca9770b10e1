package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/quic-go/quic-go"

	"github.com/eigerco/sigclaim/internal/airdrop"
	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/crypto/ed25519"
	"github.com/eigerco/sigclaim/internal/runtime"
	"github.com/eigerco/sigclaim/internal/state"
	"github.com/eigerco/sigclaim/internal/store"
	"github.com/eigerco/sigclaim/pkg/log"
	"github.com/eigerco/sigclaim/pkg/network/transport"
	"github.com/eigerco/sigclaim/pkg/serialization/codec/jam"
)

type ServerConfig struct {
	Keypair    ed25519.Keypair
	ListenAddr string
	Runtime    *runtime.Runtime
	// ProgramID locates nullifiers for status queries.
	ProgramID crypto.PublicKey
}

// Server executes submitted transactions against its runtime. Every stream is
// served in its own goroutine; the ledger serializes the writes.
type Server struct {
	transport *transport.Transport
	rt        *runtime.Runtime
	programID crypto.PublicKey
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Runtime == nil {
		return nil, errors.New("relay: runtime required")
	}
	s := &Server{rt: cfg.Runtime, programID: cfg.ProgramID}
	t, err := transport.NewTransport(transport.Config{
		Keypair:    cfg.Keypair,
		ListenAddr: cfg.ListenAddr,
		Handlers: map[byte]transport.StreamHandler{
			KindSubmit:          transport.StreamHandlerFunc(s.handleSubmit),
			KindNullifierStatus: transport.StreamHandlerFunc(s.handleNullifierStatus),
			KindBalance:         transport.StreamHandlerFunc(s.handleBalance),
		},
	})
	if err != nil {
		return nil, err
	}
	s.transport = t
	return s, nil
}

func (s *Server) Start() error {
	return s.transport.Start()
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	addr, err := s.transport.Addr()
	if err != nil {
		return ""
	}
	return addr.String()
}

func (s *Server) Stop() error {
	return s.transport.Stop()
}

func (s *Server) handleSubmit(ctx context.Context, stream quic.Stream, peer crypto.PublicKey) error {
	var req SubmitRequest
	if err := ReadFrame(ctx, stream, &req); err != nil {
		return err
	}
	resp := s.Submit(ctx, req)
	log.Network.Debug().
		Str("peer", peer.String()).
		Str("tx", resp.TxID.String()).
		Uint32("code", uint32(resp.Code)).
		Msg("transaction submitted")
	return WriteFrame(ctx, stream, resp)
}

// Submit decodes and executes one transaction.
func (s *Server) Submit(ctx context.Context, req SubmitRequest) SubmitResponse {
	var tx runtime.Transaction
	if err := jam.Unmarshal(req.Transaction, &tx); err != nil {
		return SubmitResponse{
			Code:        airdrop.CodeUnknown,
			Error:       fmt.Sprintf("decode transaction: %v", err),
			Instruction: -1,
		}
	}

	receipt, err := s.rt.Execute(ctx, tx)
	if err != nil {
		resp := SubmitResponse{Code: airdrop.CodeOf(err), Error: err.Error(), Instruction: -1}
		resp.TxID, _ = tx.ID()
		var ixErr *runtime.InstructionError
		if errors.As(err, &ixErr) {
			resp.Instruction = ixErr.Index
			resp.Error = ixErr.Err.Error()
		}
		return resp
	}
	return SubmitResponse{TxID: receipt.ID, Code: airdrop.CodeOK, Instruction: -1, Now: receipt.Now}
}

func (s *Server) handleNullifierStatus(ctx context.Context, stream quic.Stream, _ crypto.PublicKey) error {
	var req NullifierStatusRequest
	if err := ReadFrame(ctx, stream, &req); err != nil {
		return err
	}
	return WriteFrame(ctx, stream, s.NullifierStatus(req))
}

// NullifierStatus looks up the replay ledger entry of a claim nonce.
func (s *Server) NullifierStatus(req NullifierStatusRequest) NullifierStatus {
	addr, _, err := state.NullifierAddress(s.programID, req.Project, req.Nonce)
	if err != nil {
		return NullifierStatus{Error: err.Error()}
	}
	n, err := s.rt.Ledger().Nullifier(addr)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return NullifierStatus{Address: addr}
	case err != nil:
		return NullifierStatus{Address: addr, Error: err.Error()}
	}
	return NullifierStatus{Address: addr, Consumed: true, Claimant: n.Claimant, ConsumedAt: n.ConsumedAt}
}

func (s *Server) handleBalance(ctx context.Context, stream quic.Stream, _ crypto.PublicKey) error {
	var req BalanceRequest
	if err := ReadFrame(ctx, stream, &req); err != nil {
		return err
	}
	return WriteFrame(ctx, stream, s.Balance(req))
}

// Balance reads a token account. A missing account has a zero balance.
func (s *Server) Balance(req BalanceRequest) BalanceResponse {
	addr, _, err := state.TokenAccountAddress(req.Owner, req.Mint)
	if err != nil {
		return BalanceResponse{Error: err.Error()}
	}
	acc, err := s.rt.Ledger().TokenAccount(addr)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return BalanceResponse{Account: addr}
	case err != nil:
		return BalanceResponse{Account: addr, Error: err.Error()}
	}
	return BalanceResponse{Account: addr, Amount: acc.Amount}
}
