package airdrop

import (
	"fmt"

	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/instruction"
	"github.com/eigerco/sigclaim/internal/policy"
	"github.com/eigerco/sigclaim/pkg/serialization/codec/jam"
)

// Instruction tags.
const (
	TagCreateGlobalConfig uint8 = iota
	TagUpdateDistributors
	TagCreateProject
	TagClaim
)

// ConfigArgs carries the distributor set for CreateGlobalConfig and
// UpdateDistributors.
type ConfigArgs struct {
	Mode         policy.Mode
	Distributors []crypto.PublicKey
}

type CreateProjectArgs struct {
	Nonce uint64
}

// ClaimArgs are the call arguments a signed claim message is bound to.
type ClaimArgs struct {
	Project uint64
	Nonce   uint64
}

func encode(tag uint8, args interface{}) ([]byte, error) {
	b, err := jam.Marshal(args)
	if err != nil {
		return nil, err
	}
	return append([]byte{tag}, b...), nil
}

func decode(data []byte, args interface{}) error {
	if err := jam.Unmarshal(data, args); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
	}
	return nil
}

func newConfigInstruction(tag uint8, programID, authority crypto.PublicKey, mode policy.Mode, distributors []crypto.PublicKey) (instruction.Instruction, error) {
	data, err := encode(tag, ConfigArgs{Mode: mode, Distributors: distributors})
	if err != nil {
		return instruction.Instruction{}, err
	}
	return instruction.Instruction{
		ProgramID: programID,
		Accounts:  []instruction.AccountMeta{{Key: authority, IsSigner: true, IsWritable: true}},
		Data:      data,
	}, nil
}

func NewCreateGlobalConfigInstruction(programID, authority crypto.PublicKey, mode policy.Mode, distributors []crypto.PublicKey) (instruction.Instruction, error) {
	return newConfigInstruction(TagCreateGlobalConfig, programID, authority, mode, distributors)
}

func NewUpdateDistributorsInstruction(programID, authority crypto.PublicKey, mode policy.Mode, distributors []crypto.PublicKey) (instruction.Instruction, error) {
	return newConfigInstruction(TagUpdateDistributors, programID, authority, mode, distributors)
}

func NewCreateProjectInstruction(programID, authority, mint crypto.PublicKey, nonce uint64) (instruction.Instruction, error) {
	data, err := encode(TagCreateProject, CreateProjectArgs{Nonce: nonce})
	if err != nil {
		return instruction.Instruction{}, err
	}
	return instruction.Instruction{
		ProgramID: programID,
		Accounts: []instruction.AccountMeta{
			{Key: authority, IsSigner: true, IsWritable: true},
			{Key: mint},
		},
		Data: data,
	}, nil
}

// NewClaimInstruction builds the claim. It must directly follow the ed25519
// co-instruction carrying the distributor signatures.
func NewClaimInstruction(programID, recipient crypto.PublicKey, project, nonce uint64) (instruction.Instruction, error) {
	data, err := encode(TagClaim, ClaimArgs{Project: project, Nonce: nonce})
	if err != nil {
		return instruction.Instruction{}, err
	}
	return instruction.Instruction{
		ProgramID: programID,
		Accounts:  []instruction.AccountMeta{{Key: recipient, IsSigner: true, IsWritable: true}},
		Data:      data,
	}, nil
}

// ClaimInstructions pairs the co-instruction with the claim in the order
// the claim expects.
func ClaimInstructions(programID, recipient crypto.PublicKey, co instruction.Instruction, project, nonce uint64) ([]instruction.Instruction, error) {
	claim, err := NewClaimInstruction(programID, recipient, project, nonce)
	if err != nil {
		return nil, err
	}
	return []instruction.Instruction{co, claim}, nil
}
