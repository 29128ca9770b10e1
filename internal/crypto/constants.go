package crypto

const (
	HashSize          = 32
	PublicKeySize     = 32
	SignatureSize     = 64
	Ed25519SeedSize   = 32
	MaxSeeds          = 16
	MaxSeedLength     = 32
	derivedAddressTag = "ProgramDerivedAddress"
)
