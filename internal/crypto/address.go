package crypto

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrTooManySeeds    = errors.New("too many seeds")
	ErrSeedTooLong     = errors.New("seed too long")
	ErrAddressOnCurve  = errors.New("derived address lies on the ed25519 curve")
	ErrNoViableAddress = errors.New("no viable bump seed")
)

// CreateProgramAddress derives an address owned by owner from seeds. Derived
// addresses are never valid ed25519 points, so no private key exists for them
// and only the owning program can act for them by presenting the seeds.
func CreateProgramAddress(seeds [][]byte, owner PublicKey) (PublicKey, error) {
	if len(seeds) > MaxSeeds {
		return PublicKey{}, ErrTooManySeeds
	}
	size := len(owner) + len(derivedAddressTag)
	for _, s := range seeds {
		if len(s) > MaxSeedLength {
			return PublicKey{}, fmt.Errorf("%w: %d bytes", ErrSeedTooLong, len(s))
		}
		size += len(s)
	}

	buf := make([]byte, 0, size)
	for _, s := range seeds {
		buf = append(buf, s...)
	}
	buf = append(buf, owner[:]...)
	buf = append(buf, derivedAddressTag...)

	addr := PublicKey(blake2b.Sum256(buf))
	if IsOnCurve(addr) {
		return PublicKey{}, ErrAddressOnCurve
	}
	return addr, nil
}

// FindProgramAddress searches bump seeds from 255 downwards and returns the
// first off-curve address together with its bump.
func FindProgramAddress(seeds [][]byte, owner PublicKey) (PublicKey, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return PublicKey{}, 0, ErrTooManySeeds
	}
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{uint8(bump)}
		addr, err := CreateProgramAddress(withBump, owner)
		if errors.Is(err, ErrAddressOnCurve) {
			continue
		}
		if err != nil {
			return PublicKey{}, 0, err
		}
		return addr, uint8(bump), nil
	}
	return PublicKey{}, 0, ErrNoViableAddress
}

// IsOnCurve reports whether pk decodes to a valid ed25519 point.
func IsOnCurve(pk PublicKey) bool {
	_, err := new(edwards25519.Point).SetBytes(pk[:])
	return err == nil
}
