// Package cert issues and checks the self-signed ed25519 certificates that
// identify relay peers. A certificate carries its own public key in its single
// DNS name so the key can be checked without a CA.
package cert

import (
	stded25519 "crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base32"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/crypto/ed25519"
)

// DNSNamePrefix is prepended to all encoded public keys in certificate DNS names
const DNSNamePrefix = "e"

const DefaultValidity = 24 * time.Hour

var (
	ErrSignatureAlgorithm = errors.New("invalid signature algorithm: expected Ed25519")
	ErrNotEd25519         = errors.New("certificate public key is not Ed25519")
	ErrDNSName            = errors.New("invalid certificate DNS name")
	ErrExpired            = errors.New("certificate outside its validity period")
)

// base32Encoding defines the custom base32 alphabet used for encoding public keys
var base32Encoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// EncodePubKeyToDNS returns "e" followed by the base32 form of key.
func EncodePubKeyToDNS(key crypto.PublicKey) string {
	return DNSNamePrefix + base32Encoding.EncodeToString(key[:])
}

// Generate creates a certificate for kp valid for the given period, usable
// for both server and client authentication.
func Generate(kp ed25519.Keypair, validity time.Duration) (*tls.Certificate, error) {
	if validity <= 0 {
		validity = DefaultValidity
	}
	dnsName := EncodePubKeyToDNS(kp.Public)

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serialNumber,
		Subject:      pkix.Name{CommonName: dnsName},
		DNSNames:     []string{dnsName},
		// Tolerate small clock differences between peers.
		NotBefore: now.Add(-time.Minute),
		NotAfter:  now.Add(validity),
		KeyUsage:  x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{
			x509.ExtKeyUsageServerAuth,
			x509.ExtKeyUsageClientAuth,
		},
		SignatureAlgorithm:    x509.PureEd25519,
		PublicKeyAlgorithm:    x509.Ed25519,
		BasicConstraintsValid: true,
	}

	pub := stded25519.PublicKey(kp.Public[:])
	der, err := x509.CreateCertificate(rand.Reader, template, template, pub, kp.Private)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	return &tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  kp.Private,
		Leaf:        leaf,
	}, nil
}

// Validate checks that c is an ed25519 certificate whose only DNS name
// encodes its key and that it is valid at now. It returns the key.
func Validate(c *x509.Certificate, now time.Time) (crypto.PublicKey, error) {
	if c.SignatureAlgorithm != x509.PureEd25519 {
		return crypto.PublicKey{}, ErrSignatureAlgorithm
	}
	raw, ok := c.PublicKey.(stded25519.PublicKey)
	if !ok {
		return crypto.PublicKey{}, ErrNotEd25519
	}
	key, err := crypto.PublicKeyFromBytes(raw)
	if err != nil {
		return crypto.PublicKey{}, err
	}

	if len(c.DNSNames) != 1 {
		return crypto.PublicKey{}, fmt.Errorf("%w: %d names", ErrDNSName, len(c.DNSNames))
	}
	name := c.DNSNames[0]
	if !strings.HasPrefix(name, DNSNamePrefix) || name != EncodePubKeyToDNS(key) {
		return crypto.PublicKey{}, fmt.Errorf("%w: %s", ErrDNSName, name)
	}

	if now.Before(c.NotBefore) || now.After(c.NotAfter) {
		return crypto.PublicKey{}, ErrExpired
	}
	return key, nil
}

// VerifyPeer is a tls.Config.VerifyPeerCertificate callback that accepts any
// self-signed certificate passing Validate.
func VerifyPeer(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return errors.New("no peer certificate")
	}
	c, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return fmt.Errorf("parse peer certificate: %w", err)
	}
	if err := c.CheckSignatureFrom(c); err != nil {
		return fmt.Errorf("peer certificate signature: %w", err)
	}
	_, err = Validate(c, time.Now())
	return err
}

// PeerKey returns the key of the first peer certificate of a handshake.
func PeerKey(state tls.ConnectionState) (crypto.PublicKey, error) {
	if len(state.PeerCertificates) == 0 {
		return crypto.PublicKey{}, errors.New("no peer certificate")
	}
	return Validate(state.PeerCertificates[0], time.Now())
}
