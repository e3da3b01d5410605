package vm

import (
	"crypto/sha256"
	"math/big"

	"github.com/berlinvm/berlinvm/common/types"
	"github.com/berlinvm/berlinvm/crypto"
	"golang.org/x/crypto/ripemd160" //lint:ignore SA1019 required for the RIPEMD160 precompile's exact digest
)

// PrecompiledContract is a contract whose behavior is implemented natively
// rather than as EVM bytecode. Run is charged RequiredGas(input) before it
// is invoked; a precompile that runs out of gas never executes.
type PrecompiledContract interface {
	RequiredGas(input []byte) uint64
	Run(input []byte) ([]byte, error)
}

// DefaultPrecompiles returns the precompile set active at addresses
// 0x01-0x04: ECRECOVER and SHA256 (the two the signature requires), plus
// RIPEMD160 and IDENTITY since both are trivial to implement correctly
// and a contract compiled against mainnet will call them.
func DefaultPrecompiles() map[types.Address]PrecompiledContract {
	return map[types.Address]PrecompiledContract{
		precompileAddr(1): ecrecoverPrecompile{},
		precompileAddr(2): sha256Precompile{},
		precompileAddr(3): ripemd160Precompile{},
		precompileAddr(4): identityPrecompile{},
	}
}

func precompileAddr(n byte) types.Address {
	var a types.Address
	a[len(a)-1] = n
	return a
}

// wordCount returns ceil(len/32), the unit EIP-2929-era precompile gas
// schedules bill by.
func wordCount(n int) uint64 {
	return (uint64(n) + 31) / 32
}

// --- 0x01: ECRECOVER ---

type ecrecoverPrecompile struct{}

func (ecrecoverPrecompile) RequiredGas(input []byte) uint64 { return 3000 }

func (ecrecoverPrecompile) Run(input []byte) ([]byte, error) {
	const inputLen = 128
	padded := make([]byte, inputLen)
	copy(padded, input)

	hash := padded[:32]
	v := padded[63]
	if v != 27 && v != 28 {
		return nil, nil
	}
	rInt := new(big.Int).SetBytes(padded[64:96])
	sInt := new(big.Int).SetBytes(padded[96:128])

	if !crypto.ValidateSignatureValues(v-27, rInt, sInt, false) {
		return nil, nil
	}

	sig := make([]byte, 65)
	copy(sig[:32], padded[64:96])
	copy(sig[32:64], padded[96:128])
	sig[64] = v - 27

	pub, err := crypto.Ecrecover(hash, sig)
	if err != nil {
		return nil, nil
	}
	addr := crypto.PubkeyToAddress(pub)
	out := make([]byte, 32)
	copy(out[12:], addr.Bytes())
	return out, nil
}

// --- 0x02: SHA256 ---

type sha256Precompile struct{}

func (sha256Precompile) RequiredGas(input []byte) uint64 {
	return 60 + 12*wordCount(len(input))
}

func (sha256Precompile) Run(input []byte) ([]byte, error) {
	h := sha256.Sum256(input)
	return h[:], nil
}

// --- 0x03: RIPEMD160 ---

type ripemd160Precompile struct{}

func (ripemd160Precompile) RequiredGas(input []byte) uint64 {
	return 600 + 120*wordCount(len(input))
}

func (ripemd160Precompile) Run(input []byte) ([]byte, error) {
	h := ripemd160.New()
	h.Write(input)
	digest := h.Sum(nil)
	out := make([]byte, 32)
	copy(out[12:], digest)
	return out, nil
}

// --- 0x04: IDENTITY ---

type identityPrecompile struct{}

func (identityPrecompile) RequiredGas(input []byte) uint64 {
	return 15 + 3*wordCount(len(input))
}

func (identityPrecompile) Run(input []byte) ([]byte, error) {
	out := make([]byte, len(input))
	copy(out, input)
	return out, nil
}
