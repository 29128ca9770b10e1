package sigverify

import (
	"github.com/eigerco/sigclaim/internal/crypto"
)

// Extract returns the signer keys in offset-table order, duplicates kept, and
// a copy of the shared message. The offsets must come from ParseOffsets over
// the same data.
func Extract(data []byte, entries []Offsets) ([]crypto.PublicKey, []byte) {
	signers := make([]crypto.PublicKey, 0, len(entries))
	for _, o := range entries {
		var pk crypto.PublicKey
		copy(pk[:], data[o.PublicKeyOffset:int(o.PublicKeyOffset)+crypto.PublicKeySize])
		signers = append(signers, pk)
	}
	if len(entries) == 0 {
		return signers, nil
	}

	first := entries[0]
	message := make([]byte, first.MessageDataSize)
	copy(message, data[first.MessageDataOffset:int(first.MessageDataOffset)+int(first.MessageDataSize)])
	return signers, message
}
