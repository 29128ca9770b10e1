package airdrop

import (
	"errors"
	"fmt"

	"github.com/eigerco/sigclaim/internal/message"
	"github.com/eigerco/sigclaim/internal/policy"
	"github.com/eigerco/sigclaim/internal/sigverify"
)

var (
	ErrRecipientMismatch  = errors.New("recipient mismatch in message")
	ErrProjectMismatch    = errors.New("project nonce mismatch")
	ErrAssetMismatch      = errors.New("mint mismatch")
	ErrNonceAlreadyUsed   = errors.New("nonce already used")
	ErrTransferFailed     = errors.New("transfer failed")
	ErrProjectNotFound    = errors.New("project not found")
	ErrConfigNotFound     = errors.New("global config not found")
	ErrUnauthorized       = errors.New("signer is not the config authority")
	ErrInvalidInstruction = errors.New("invalid instruction")
	ErrAlreadyInitialized = errors.New("account already initialized")
)

// Code is the stable numeric form of an error, used on the wire.
type Code uint32

const (
	CodeOK      Code = 0
	CodeUnknown Code = 1
)

// Program error codes start at 6000.
const (
	CodeMalformedCoInstruction Code = 6000 + iota
	CodeInvalidMessageEncoding
	CodeProgramIDMismatch
	CodeVersionMismatch
	CodeDeadlineExpired
	CodeNonceMismatch
	CodeDistributorMismatch
	CodeRecipientMismatch
	CodeProjectMismatch
	CodeAssetMismatch
	CodeNonceAlreadyUsed
	CodeTransferFailed
	CodeProjectNotFound
	CodeConfigNotFound
	CodeUnauthorized
	CodeInvalidInstruction
	CodeAlreadyInitialized
)

var codes = []struct {
	code Code
	err  error
}{
	{CodeMalformedCoInstruction, sigverify.ErrMalformedCoInstruction},
	{CodeInvalidMessageEncoding, message.ErrInvalidMessageEncoding},
	{CodeProgramIDMismatch, message.ErrProgramIDMismatch},
	{CodeVersionMismatch, message.ErrVersionMismatch},
	{CodeDeadlineExpired, message.ErrDeadlineExpired},
	{CodeNonceMismatch, message.ErrNonceMismatch},
	{CodeDistributorMismatch, policy.ErrDistributorMismatch},
	{CodeRecipientMismatch, ErrRecipientMismatch},
	{CodeProjectMismatch, ErrProjectMismatch},
	{CodeAssetMismatch, ErrAssetMismatch},
	{CodeNonceAlreadyUsed, ErrNonceAlreadyUsed},
	{CodeTransferFailed, ErrTransferFailed},
	{CodeProjectNotFound, ErrProjectNotFound},
	{CodeConfigNotFound, ErrConfigNotFound},
	{CodeUnauthorized, ErrUnauthorized},
	{CodeInvalidInstruction, ErrInvalidInstruction},
	{CodeAlreadyInitialized, ErrAlreadyInitialized},
}

// CodeOf maps err to its code. Errors outside the program's vocabulary map
// to CodeUnknown.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeUnknown
}

// ErrorFromCode rebuilds an error matching the sentinel behind code, with
// detail as its message suffix.
func ErrorFromCode(code Code, detail string) error {
	if code == CodeOK {
		return nil
	}
	for _, c := range codes {
		if c.code == code {
			return fmt.Errorf("%w: %s", c.err, detail)
		}
	}
	return fmt.Errorf("error code %d: %s", code, detail)
}
