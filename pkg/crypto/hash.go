// Package crypto provides cryptographic primitives for Huntnet.
package crypto

import (
	"github.com/huntnet-tech/huntnet-chain/pkg/types"
	"github.com/zeebo/blake3"
)

// Hash160Size is the length of a truncated 160-bit hash in bytes.
// Name registration commitments are Hash160 values.
const Hash160Size = 20

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// Hash160 computes the 20-byte truncation of BLAKE3-256.
// Used for the salted name-registration commitment Hash160(rand || name).
func Hash160(data []byte) [Hash160Size]byte {
	h := blake3.Sum256(data)
	var out [Hash160Size]byte
	copy(out[:], h[:Hash160Size])
	return out
}

// NameCommitment computes the registration commitment for a name with
// the given salt: Hash160(rand || name).
func NameCommitment(rand, name []byte) [Hash160Size]byte {
	buf := make([]byte, 0, len(rand)+len(name))
	buf = append(buf, rand...)
	buf = append(buf, name...)
	return Hash160(buf)
}
