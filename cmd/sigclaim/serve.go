package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eigerco/sigclaim/internal/config"
	"github.com/eigerco/sigclaim/internal/crypto/ed25519"
	"github.com/eigerco/sigclaim/internal/node"
	"github.com/eigerco/sigclaim/internal/runtime"
	"github.com/eigerco/sigclaim/pkg/log"
	"github.com/eigerco/sigclaim/pkg/network/relay"
)

func runServe(args []string) error {
	fs := newFlagSet("serve")
	configPath := fs.StringP("config", "c", "sigclaim.yaml", "node configuration file")
	logLevel := fs.String("log-level", "", "override log.level")
	listen := fs.String("listen", "", "override listen")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	opts, err := cfg.LogOptions()
	if err != nil {
		return err
	}
	opts.Output = os.Stderr
	log.Init(opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, err := node.Open(cfg.DataDir, cfg.ProgramID, runtime.SystemClock{})
	if err != nil {
		return err
	}
	defer func() {
		if err := n.Close(); err != nil {
			log.Root.Error().Err(err).Msg("failed to close ledger")
		}
	}()

	if cfg.AuthorityKey != "" {
		authority, err := ed25519.LoadKeypair(cfg.AuthorityKey)
		if err != nil {
			return fmt.Errorf("authority key: %w", err)
		}
		if err := n.Bootstrap(ctx, cfg, authority); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
	}

	nodeKey, err := loadOrGenerate(cfg.NodeKey)
	if err != nil {
		return fmt.Errorf("node key: %w", err)
	}
	server, err := relay.NewServer(relay.ServerConfig{
		Keypair:    nodeKey,
		ListenAddr: cfg.Listen,
		Runtime:    n.Runtime,
		ProgramID:  cfg.ProgramID,
	})
	if err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		return err
	}
	log.Root.Info().Str("program", cfg.ProgramID.String()).Str("addr", server.Addr()).Msg("node started")

	<-ctx.Done()
	log.Root.Info().Msg("shutting down")
	return server.Stop()
}

func loadOrGenerate(path string) (ed25519.Keypair, error) {
	if path == "" {
		return ed25519.GenerateKeypair(rand.Reader)
	}
	return ed25519.LoadKeypair(path)
}
