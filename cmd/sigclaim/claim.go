package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eigerco/sigclaim/internal/airdrop"
	"github.com/eigerco/sigclaim/internal/crypto/ed25519"
	"github.com/eigerco/sigclaim/internal/message"
	"github.com/eigerco/sigclaim/internal/runtime"
	"github.com/eigerco/sigclaim/internal/sigverify"
	"github.com/eigerco/sigclaim/pkg/network/relay"
)

func runClaim(args []string) error {
	fs := newFlagSet("claim")
	relayAddr := fs.String("relay", "127.0.0.1:7400", "relay address")
	keyPath := fs.String("key", "", "recipient key file, signs the transaction")
	auths := fs.StringSlice("auth", nil, "authorization files, merged in order")
	timeout := fs.Duration("timeout", 30*time.Second, "request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "key", "auth"); err != nil {
		return err
	}

	recipient, err := ed25519.LoadKeypair(*keyPath)
	if err != nil {
		return err
	}
	auth, err := mergeAuthorizations(*auths)
	if err != nil {
		return err
	}
	tx, err := buildClaim(auth, recipient)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	client, err := relay.Dial(ctx, *relayAddr, recipient)
	if err != nil {
		return err
	}
	defer client.Close()

	resp, err := client.Submit(ctx, tx)
	if err != nil {
		return fmt.Errorf("claim rejected (code %d): %w", resp.Code, err)
	}
	fmt.Printf("claimed in transaction %s\n", resp.TxID)
	return nil
}

// buildClaim turns an authorization into a transaction signed by recipient.
// The claim targets the program, project and nonce named by the message.
func buildClaim(auth authorization, recipient ed25519.Keypair) (runtime.Transaction, error) {
	raw, err := auth.message()
	if err != nil {
		return runtime.Transaction{}, fmt.Errorf("message: %w", err)
	}
	msg, err := message.Decode[message.ClaimPayload](raw)
	if err != nil {
		return runtime.Transaction{}, err
	}
	if msg.Payload.Recipient != recipient.Public {
		return runtime.Transaction{}, errors.New("authorization is for another recipient")
	}
	entries, err := auth.entries()
	if err != nil {
		return runtime.Transaction{}, err
	}
	co, err := sigverify.NewEd25519Instruction(raw, entries...)
	if err != nil {
		return runtime.Transaction{}, err
	}
	ixs, err := airdrop.ClaimInstructions(msg.Envelope.ProgramID, recipient.Public, co, msg.Payload.Project, msg.Envelope.Nonce)
	if err != nil {
		return runtime.Transaction{}, err
	}
	return runtime.NewTransaction(ixs, recipient)
}
