package state

import (
	"encoding/binary"

	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/instruction"
)

const (
	ConfigSeed    = "global_config"
	ProjectSeed   = "project"
	NullifierSeed = "nullifier"
)

func le64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func ConfigSeeds() [][]byte {
	return [][]byte{[]byte(ConfigSeed)}
}

func ProjectSeeds(nonce uint64) [][]byte {
	return [][]byte{[]byte(ProjectSeed), le64(nonce)}
}

// NullifierSeeds binds a nonce to its project so nonces of different
// projects never collide.
func NullifierSeeds(project, nonce uint64) [][]byte {
	return [][]byte{[]byte(NullifierSeed), le64(project), le64(nonce)}
}

func TokenAccountSeeds(owner, mint crypto.PublicKey) [][]byte {
	return [][]byte{owner[:], instruction.TokenProgramID[:], mint[:]}
}

// WithBump appends the bump seed, giving the seeds that prove ownership of a
// derived address.
func WithBump(seeds [][]byte, bump uint8) [][]byte {
	out := make([][]byte, len(seeds), len(seeds)+1)
	copy(out, seeds)
	return append(out, []byte{bump})
}

func ConfigAddress(programID crypto.PublicKey) (crypto.PublicKey, uint8, error) {
	return crypto.FindProgramAddress(ConfigSeeds(), programID)
}

func ProjectAddress(programID crypto.PublicKey, nonce uint64) (crypto.PublicKey, uint8, error) {
	return crypto.FindProgramAddress(ProjectSeeds(nonce), programID)
}

func NullifierAddress(programID crypto.PublicKey, project, nonce uint64) (crypto.PublicKey, uint8, error) {
	return crypto.FindProgramAddress(NullifierSeeds(project, nonce), programID)
}

// TokenAccountAddress returns the associated token account of owner for mint.
func TokenAccountAddress(owner, mint crypto.PublicKey) (crypto.PublicKey, uint8, error) {
	return crypto.FindProgramAddress(TokenAccountSeeds(owner, mint), instruction.AssociatedTokenProgramID)
}
