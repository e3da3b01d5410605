package crypto

import (
	"errors"
	"math/big"

	"github.com/berlinvm/berlinvm/common/types"
	dcrecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// secp256k1N is the order of the secp256k1 curve.
var secp256k1N, _ = new(big.Int).SetString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)

// secp256k1halfN is half the curve order, used by the EIP-2 low-S check.
var secp256k1halfN = new(big.Int).Rsh(secp256k1N, 1)

// Ecrecover recovers the 65-byte uncompressed public key ([0x04 || X || Y])
// that produced sig over hash. sig is 65 bytes: [R || S || V] with V in
// {0, 1}.
func Ecrecover(hash, sig []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, errors.New("crypto: hash must be 32 bytes")
	}
	if len(sig) != 65 {
		return nil, errors.New("crypto: signature must be 65 bytes [R || S || V]")
	}
	v := sig[64]
	if v > 3 {
		return nil, errors.New("crypto: invalid recovery id")
	}
	// decred's compact format puts the recovery code (27 + v, possibly +4
	// for a compressed-key hint) before R and S.
	compact := make([]byte, 65)
	compact[0] = 27 + v
	copy(compact[1:], sig[:64])

	pub, _, err := dcrecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, err
	}
	return pub.SerializeUncompressed(), nil
}

// ValidateSignatureValues reports whether (r, s) are signature components
// secp256k1 would accept for v in {0, 1}. When homestead is true the
// EIP-2 low-S rule is also enforced.
func ValidateSignatureValues(v byte, r, s *big.Int, homestead bool) bool {
	if r == nil || s == nil {
		return false
	}
	if v > 1 {
		return false
	}
	if r.Sign() <= 0 || s.Sign() <= 0 {
		return false
	}
	if r.Cmp(secp256k1N) >= 0 || s.Cmp(secp256k1N) >= 0 {
		return false
	}
	if homestead && s.Cmp(secp256k1halfN) > 0 {
		return false
	}
	return true
}

// PubkeyToAddress derives the address for a 65-byte uncompressed public
// key: the low 20 bytes of Keccak256(pubkey[1:]).
func PubkeyToAddress(pub []byte) types.Address {
	if len(pub) != 65 || pub[0] != 0x04 {
		return types.Address{}
	}
	hash := Keccak256(pub[1:])
	return types.BytesToAddress(hash[12:])
}
