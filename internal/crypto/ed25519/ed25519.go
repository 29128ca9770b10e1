// Package ed25519 wraps crypto/ed25519 with ZIP-215 compliant verification
// and keypair helpers over crypto.PublicKey and crypto.Signature.
package ed25519

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hdevalence/ed25519consensus"

	"github.com/eigerco/sigclaim/internal/crypto"
)

type PrivateKey = ed25519.PrivateKey

const (
	PrivateKeySize = ed25519.PrivateKeySize
	SeedSize       = ed25519.SeedSize
)

// Keypair holds a signing key and its public half.
type Keypair struct {
	Public  crypto.PublicKey
	Private PrivateKey
}

// GenerateKeypair uses the standard library's key generation.
func GenerateKeypair(rand io.Reader) (Keypair, error) {
	pub, prv, err := ed25519.GenerateKey(rand)
	if err != nil {
		return Keypair{}, err
	}
	return Keypair{Public: crypto.PublicKey(pub), Private: prv}, nil
}

// KeypairFromSeed derives a keypair from a 32 byte seed.
func KeypairFromSeed(seed []byte) (Keypair, error) {
	if len(seed) != SeedSize {
		return Keypair{}, fmt.Errorf("invalid seed length %d", len(seed))
	}
	prv := ed25519.NewKeyFromSeed(seed)
	return Keypair{Public: crypto.PublicKey(prv.Public().(ed25519.PublicKey)), Private: prv}, nil
}

// Sign uses the standard library's signing function.
func (k Keypair) Sign(message []byte) crypto.Signature {
	return crypto.Signature(ed25519.Sign(k.Private, message))
}

// Verify uses the hdevalence/ed25519consensus library for
// ZIP-215 compliant verification.
func Verify(publicKey crypto.PublicKey, message []byte, sig crypto.Signature) bool {
	return ed25519consensus.Verify(publicKey[:], message, sig[:])
}

// LoadKeypair reads a hex encoded seed from path.
func LoadKeypair(path string) (Keypair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Keypair{}, fmt.Errorf("read key file: %w", err)
	}
	seed, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return Keypair{}, fmt.Errorf("decode key file %s: %w", path, err)
	}
	return KeypairFromSeed(seed)
}

// SaveKeypair writes the seed of k to path as hex, readable by the owner only.
func SaveKeypair(path string, k Keypair) error {
	return os.WriteFile(path, []byte(hex.EncodeToString(k.Private.Seed())+"\n"), 0o600)
}
