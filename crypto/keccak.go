// Package crypto provides the hashing and signature-recovery primitives the
// interpreter and its precompiles need: Keccak256 for hashing and address
// derivation, and secp256k1 ECDSA recovery for the ECRECOVER precompile.
package crypto

import (
	"github.com/berlinvm/berlinvm/common/types"
	"golang.org/x/crypto/sha3"
)

// Keccak256 hashes the concatenation of data with Keccak-256 (not NIST
// SHA3-256 -- Ethereum uses the original Keccak padding).
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash hashes data and returns the result as a types.Hash.
func Keccak256Hash(data ...[]byte) types.Hash {
	return types.BytesToHash(Keccak256(data...))
}
