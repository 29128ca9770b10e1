package airdrop

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eigerco/sigclaim/internal/message"
	"github.com/eigerco/sigclaim/internal/sigverify"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeOK, CodeOf(nil))
	assert.Equal(t, CodeUnknown, CodeOf(errors.New("disk on fire")))
	assert.Equal(t, CodeMalformedCoInstruction, CodeOf(fmt.Errorf("load: %w", sigverify.ErrMalformedCoInstruction)))
	assert.Equal(t, CodeDeadlineExpired, CodeOf(message.ErrDeadlineExpired))
	assert.Equal(t, CodeAlreadyInitialized, CodeOf(ErrAlreadyInitialized))
}

func TestCodesAreUniqueAndReversible(t *testing.T) {
	seen := make(map[Code]bool)
	for _, c := range codes {
		assert.False(t, seen[c.code], "duplicate code %d", c.code)
		seen[c.code] = true

		err := ErrorFromCode(c.code, "detail")
		assert.ErrorIs(t, err, c.err)
		assert.Equal(t, c.code, CodeOf(err))
	}

	assert.NoError(t, ErrorFromCode(CodeOK, ""))
	assert.EqualError(t, ErrorFromCode(CodeUnknown, "boom"), "error code 1: boom")
}
