package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/crypto/ed25519"
	"github.com/eigerco/sigclaim/internal/message"
	"github.com/eigerco/sigclaim/pkg/network/relay"
	"github.com/eigerco/sigclaim/pkg/serialization/codec/cbor"
)

func runInspect(args []string) error {
	if len(args) == 0 {
		return errors.New("inspect: expected message, nullifier or balance")
	}
	switch args[0] {
	case "message":
		return inspectMessage(args[1:])
	case "nullifier":
		return inspectNullifier(args[1:])
	case "balance":
		return inspectBalance(args[1:])
	default:
		return fmt.Errorf("inspect: unknown target %q", args[0])
	}
}

func inspectMessage(args []string) error {
	fs := newFlagSet("inspect message")
	authPath := fs.String("auth", "", "read the message from an authorization file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var hexMsg string
	switch {
	case *authPath != "":
		a, err := readAuthorization(*authPath)
		if err != nil {
			return err
		}
		hexMsg = a.Message
	case fs.NArg() == 1:
		hexMsg = strings.TrimPrefix(fs.Arg(0), "0x")
	default:
		return errors.New("inspect message: pass a hex message or --auth")
	}

	raw, err := hex.DecodeString(hexMsg)
	if err != nil {
		return err
	}
	msg, err := message.Decode[message.ClaimPayload](raw)
	if err != nil {
		return err
	}
	fmt.Printf("program:   %s\n", msg.Envelope.ProgramID)
	fmt.Printf("version:   %d\n", msg.Envelope.Version)
	fmt.Printf("nonce:     %d\n", msg.Envelope.Nonce)
	fmt.Printf("expiry:    %d (%s)\n", msg.Envelope.Expiry, time.Unix(msg.Envelope.Expiry, 0).UTC().Format(time.RFC3339))
	fmt.Printf("recipient: %s\n", msg.Payload.Recipient)
	fmt.Printf("mint:      %s\n", msg.Payload.Mint)
	fmt.Printf("project:   %d\n", msg.Payload.Project)
	fmt.Printf("amount:    %d\n", msg.Payload.Amount)
	return nil
}

func dialEphemeral(ctx context.Context, addr string) (*relay.Client, error) {
	kp, err := ed25519.GenerateKeypair(rand.Reader)
	if err != nil {
		return nil, err
	}
	return relay.Dial(ctx, addr, kp)
}

func printFrame(v any) error {
	raw, err := cbor.Marshal(v)
	if err != nil {
		return err
	}
	diag, err := cbor.Diagnose(raw)
	if err != nil {
		return err
	}
	fmt.Println(diag)
	return nil
}

func inspectNullifier(args []string) error {
	fs := newFlagSet("inspect nullifier")
	relayAddr := fs.String("relay", "127.0.0.1:7400", "relay address")
	project := fs.Uint64("project", 0, "project nonce")
	nonce := fs.Uint64("nonce", 0, "claim nonce")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "project", "nonce"); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client, err := dialEphemeral(ctx, *relayAddr)
	if err != nil {
		return err
	}
	defer client.Close()

	status, err := client.NullifierStatus(ctx, *project, *nonce)
	if err != nil {
		return err
	}
	return printFrame(status)
}

func inspectBalance(args []string) error {
	var owner, mint crypto.PublicKey
	fs := newFlagSet("inspect balance")
	relayAddr := fs.String("relay", "127.0.0.1:7400", "relay address")
	fs.Var(newKeyValue(&owner), "owner", "account owner")
	fs.Var(newKeyValue(&mint), "mint", "token mint")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "owner", "mint"); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client, err := dialEphemeral(ctx, *relayAddr)
	if err != nil {
		return err
	}
	defer client.Close()

	bal, err := client.Balance(ctx, owner, mint)
	if err != nil {
		return err
	}
	fmt.Printf("%s %d\n", bal.Account, bal.Amount)
	return nil
}
