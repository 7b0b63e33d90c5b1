package dice

import (
	"encoding/binary"
	"fmt"
)

// EncodedLen is the byte length of a packed ledger: one 4-byte big-endian
// unsigned integer per denomination, ascending order.
const EncodedLen = 4 * NumDenominations

// Pack serializes the ledger into its persisted 24-byte form.
//
// Precondition: every count fits in an unsigned 32-bit integer.
// Postcondition: Unpack(c.Pack()) reproduces c exactly.
func (c Counts) Pack() []byte {
	buf := make([]byte, EncodedLen)
	for i, n := range c {
		if n < 0 || int64(n) > int64(^uint32(0)) {
			panic(fmt.Sprintf("dice: count %d out of range for packing: %d", i, n))
		}
		binary.BigEndian.PutUint32(buf[i*4:], uint32(n))
	}
	return buf
}

// Unpack deserializes a 24-byte packed ledger.
//
// Postcondition: returns an error iff len(data) != EncodedLen.
func Unpack(data []byte) (Counts, error) {
	if len(data) != EncodedLen {
		return Counts{}, fmt.Errorf("unpacking dice counts: want %d bytes, got %d", EncodedLen, len(data))
	}
	var c Counts
	for i := range c {
		c[i] = int(binary.BigEndian.Uint32(data[i*4:]))
	}
	return c, nil
}
