package token

import (
	"fmt"

	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/instruction"
	"github.com/eigerco/sigclaim/internal/program"
	"github.com/eigerco/sigclaim/pkg/serialization/codec/jam"
)

// Instruction tags.
const (
	TagInitializeMint uint8 = iota
	TagMintTo
	TagTransfer
)

type MintToArgs struct {
	Amount uint64
}

type TransferArgs struct {
	Mint   crypto.PublicKey
	To     crypto.PublicKey
	Amount uint64
}

func encode(tag uint8, args interface{}) ([]byte, error) {
	b, err := jam.Marshal(args)
	if err != nil {
		return nil, err
	}
	return append([]byte{tag}, b...), nil
}

// NewInitializeMintInstruction builds an InitializeMint instruction.
func NewInitializeMintInstruction(mint, authority crypto.PublicKey) instruction.Instruction {
	return instruction.Instruction{
		ProgramID: instruction.TokenProgramID,
		Accounts: []instruction.AccountMeta{
			{Key: mint, IsWritable: true},
			{Key: authority, IsSigner: true},
		},
		Data: []byte{TagInitializeMint},
	}
}

func NewMintToInstruction(mint, owner, authority crypto.PublicKey, amount uint64) (instruction.Instruction, error) {
	data, err := encode(TagMintTo, MintToArgs{Amount: amount})
	if err != nil {
		return instruction.Instruction{}, err
	}
	return instruction.Instruction{
		ProgramID: instruction.TokenProgramID,
		Accounts: []instruction.AccountMeta{
			{Key: mint, IsWritable: true},
			{Key: owner, IsWritable: true},
			{Key: authority, IsSigner: true},
		},
		Data: data,
	}, nil
}

func NewTransferInstruction(owner, mint, to crypto.PublicKey, amount uint64) (instruction.Instruction, error) {
	data, err := encode(TagTransfer, TransferArgs{Mint: mint, To: to, Amount: amount})
	if err != nil {
		return instruction.Instruction{}, err
	}
	return instruction.Instruction{
		ProgramID: instruction.TokenProgramID,
		Accounts: []instruction.AccountMeta{
			{Key: owner, IsSigner: true, IsWritable: true},
		},
		Data: data,
	}, nil
}

// Process decodes and executes one token instruction.
func (p *Program) Process(ctx *program.Context, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty", program.ErrInvalidInstructionData)
	}
	tag, args := data[0], data[1:]

	switch tag {
	case TagInitializeMint:
		mint, err := ctx.Account(0)
		if err != nil {
			return err
		}
		authority, err := ctx.Signer(1)
		if err != nil {
			return err
		}
		return p.InitializeMint(ctx.Tx, mint.Key, authority)
	case TagMintTo:
		var a MintToArgs
		if err := jam.Unmarshal(args, &a); err != nil {
			return fmt.Errorf("%w: %v", program.ErrInvalidInstructionData, err)
		}
		mint, err := ctx.Account(0)
		if err != nil {
			return err
		}
		owner, err := ctx.Account(1)
		if err != nil {
			return err
		}
		authority, err := ctx.Signer(2)
		if err != nil {
			return err
		}
		return p.MintTo(ctx.Tx, mint.Key, owner.Key, SignerAuthority(authority), a.Amount)
	case TagTransfer:
		var a TransferArgs
		if err := jam.Unmarshal(args, &a); err != nil {
			return fmt.Errorf("%w: %v", program.ErrInvalidInstructionData, err)
		}
		owner, err := ctx.Signer(0)
		if err != nil {
			return err
		}
		return p.Transfer(ctx.Tx, Transfer{
			Mint:      a.Mint,
			From:      owner,
			To:        a.To,
			Amount:    a.Amount,
			Authority: SignerAuthority(owner),
		})
	default:
		return fmt.Errorf("%w: unknown tag %d", program.ErrInvalidInstructionData, tag)
	}
}
