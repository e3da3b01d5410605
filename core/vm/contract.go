package vm

import (
	"github.com/berlinvm/berlinvm/common/types"
	"github.com/holiman/uint256"
)

// Frame is a single call activation: the code currently executing, its
// calldata, the gas available to it, and the addresses the CALL-family
// opcodes need to distinguish (code source vs. storage/balance owner vs.
// caller).
type Frame struct {
	// Caller is the account that initiated this frame (msg.sender).
	Caller types.Address
	// Address is the account whose storage and balance this frame acts
	// against (address(this)). For DELEGATECALL it is inherited from the
	// parent frame rather than being the code's own address.
	Address types.Address
	// CodeAddress is the account the executing code was loaded from. It
	// differs from Address for CALLCODE and DELEGATECALL.
	CodeAddress types.Address

	Code     []byte
	CodeHash types.Hash
	Input    []byte

	Gas   uint64
	Value *uint256.Int

	Static bool // true inside a STATICCALL (or any of its descendants)

	jumpdests bitvec // lazily computed valid-JUMPDEST bitmap
}

// NewFrame builds a Frame for code running at codeAddr on behalf of
// address addr, called by caller.
func NewFrame(caller, addr, codeAddr types.Address, code []byte, codeHash types.Hash, input []byte, gas uint64, value *uint256.Int, static bool) *Frame {
	if value == nil {
		value = new(uint256.Int)
	}
	return &Frame{
		Caller:      caller,
		Address:     addr,
		CodeAddress: codeAddr,
		Code:        code,
		CodeHash:    codeHash,
		Input:       input,
		Gas:         gas,
		Value:       value,
		Static:      static,
	}
}

// GetOp returns the opcode at position n, or STOP if n is past the end of
// the code (the Yellow Paper treats code as implicitly STOP-padded).
func (f *Frame) GetOp(n uint64) OpCode {
	if n < uint64(len(f.Code)) {
		return OpCode(f.Code[n])
	}
	return STOP
}

// UseGas deducts gas from the frame, returning false (and leaving Gas
// unchanged) if that would make it negative.
func (f *Frame) UseGas(gas uint64) bool {
	if f.Gas < gas {
		return false
	}
	f.Gas -= gas
	return true
}

// ValidJumpdest reports whether dest is both in range and lands on a
// JUMPDEST instruction rather than inside a PUSH immediate.
func (f *Frame) ValidJumpdest(dest uint64) bool {
	if dest >= uint64(len(f.Code)) {
		return false
	}
	if OpCode(f.Code[dest]) != JUMPDEST {
		return false
	}
	if f.jumpdests == nil {
		f.jumpdests = analyzeJumpdests(f.Code)
	}
	return f.jumpdests.isCode(dest)
}

// bitvec is a bit-per-byte map: bit set means "this byte is an
// instruction opcode", unset means "this byte is PUSH immediate data".
type bitvec []byte

func (bits bitvec) isCode(pos uint64) bool {
	return bits[pos/8]&(1<<(pos%8)) != 0
}

func (bits bitvec) setCode(pos uint64) {
	bits[pos/8] |= 1 << (pos % 8)
}

// analyzeJumpdests walks code once, marking every byte that is a real
// instruction (as opposed to PUSH immediate data) so JUMP/JUMPI can reject
// jumps into the middle of a PUSH argument.
func analyzeJumpdests(code []byte) bitvec {
	bits := make(bitvec, len(code)/8+1)
	for pc := uint64(0); pc < uint64(len(code)); {
		op := OpCode(code[pc])
		bits.setCode(pc)
		if op.IsPush() {
			pc += op.PushSize() + 1
		} else {
			pc++
		}
	}
	return bits
}
