package main

import (
	"encoding/hex"
	"time"

	"github.com/eigerco/sigclaim/internal/airdrop"
	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/crypto/ed25519"
	"github.com/eigerco/sigclaim/internal/message"
)

func runSign(args []string) error {
	var (
		programID = airdrop.DefaultProgramID
		recipient crypto.PublicKey
		mint      crypto.PublicKey
	)
	fs := newFlagSet("sign")
	keyPath := fs.String("key", "", "distributor key file")
	fs.Var(newKeyValue(&programID), "program", "airdrop program id")
	fs.Var(newKeyValue(&recipient), "recipient", "wallet allowed to claim")
	fs.Var(newKeyValue(&mint), "mint", "token mint")
	project := fs.Uint64("project", 0, "project nonce")
	nonce := fs.Uint64("nonce", 0, "claim nonce, single use within the project")
	amount := fs.Uint64("amount", 0, "amount to release")
	expiry := fs.Int64("expiry", 0, "last unix second the claim is valid")
	ttl := fs.Duration("ttl", time.Hour, "validity from now when --expiry is not set")
	out := fs.StringP("out", "o", "-", "authorization file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "key", "recipient", "mint", "project", "nonce", "amount"); err != nil {
		return err
	}

	kp, err := ed25519.LoadKeypair(*keyPath)
	if err != nil {
		return err
	}
	if !fs.Changed("expiry") {
		*expiry = time.Now().Add(*ttl).Unix()
	}

	raw, err := message.Encode(message.Claim{
		Envelope: message.Envelope{
			ProgramID: programID,
			Version:   message.SupportedVersion,
			Nonce:     *nonce,
			Expiry:    *expiry,
		},
		Payload: message.ClaimPayload{
			Recipient: recipient,
			Mint:      mint,
			Project:   *project,
			Amount:    *amount,
		},
	})
	if err != nil {
		return err
	}
	sig := kp.Sign(raw)

	return writeAuthorization(*out, authorization{
		Message:    hex.EncodeToString(raw),
		Signatures: []signatureEntry{{Key: kp.Public, Signature: hex.EncodeToString(sig[:])}},
	})
}
