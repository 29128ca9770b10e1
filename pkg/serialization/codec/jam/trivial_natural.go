package jam

// serializeTrivialNatural writes x as l little-endian octets.
// This is the encoding of every fixed-width integer on the wire.
func serializeTrivialNatural(x uint64, l uint) []byte {
	bytes := make([]byte, l)
	for i := uint(0); i < l && i < 8; i++ {
		bytes[i] = byte(x >> (8 * i))
	}
	return bytes
}

// deserializeTrivialNatural reads a little-endian integer of len(serialized) octets.
func deserializeTrivialNatural(serialized []byte) uint64 {
	var u uint64
	for i := 0; i < len(serialized) && i < 8; i++ {
		u |= uint64(serialized[i]) << (8 * i)
	}
	return u
}
