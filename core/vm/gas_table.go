package vm

import (
	"math"

	"github.com/berlinvm/berlinvm/common/types"
	"github.com/holiman/uint256"
)

// Berlin (EIP-2929 / EIP-2200 / EIP-3529) gas constants.
const (
	ColdAccountAccessCost uint64 = 2600
	ColdSloadCost         uint64 = 2100
	WarmStorageReadCost   uint64 = 100

	CallStipend   uint64 = 2300
	MaxCallDepth  uint64 = 1024
	CallGasFraction uint64 = 64 // EIP-150 63/64 rule divisor

	CallValueTransferGas uint64 = 9000
	CallNewAccountGas    uint64 = 25000

	SstoreSetGas           uint64 = 20000 // zero -> non-zero
	SstoreResetGas         uint64 = 2900  // non-zero -> non-zero (cold-adjusted via ColdSloadCost)
	SstoreClearRefund      uint64 = 4800  // EIP-3529 Berlin+London refund for clearing a slot to zero
	MaxRefundQuotient      uint64 = 5     // total refund capped at gasUsed/5 (EIP-3529)
	SelfdestructRefund     uint64 = 24000 // pre-London refund for a first-time SELFDESTRUCT; Berlin retains it

	MaxCodeSize     uint64 = 24576 // EIP-170
	MaxInitCodeSize uint64 = 49152 // EIP-3860 limit, enforced by gasCreate/gasCreate2
	InitCodeWordGas uint64 = 2     // EIP-3860

	ExpByteGas uint64 = 50
)

// toWordSize returns ceil(size / 32), or MaxUint64/32 when size+31 would
// overflow.
func toWordSize(size uint64) uint64 {
	if size > math.MaxUint64-31 {
		return math.MaxUint64 / 32
	}
	return (size + 31) / 32
}

// MemoryGasCost returns the total quadratic memory-expansion cost for a
// memory region of wordCount 32-byte words: 3*W + floor(W^2/512). No
// realistic block gas limit lets memory grow anywhere near the point
// where W^2 overflows uint64, but the guard keeps the formula total.
func MemoryGasCost(wordCount uint64) uint64 {
	if wordCount > 0xFFFFFFFF {
		return math.MaxUint64
	}
	linear := GasMemoryWord * wordCount
	quad := (wordCount * wordCount) / 512
	return linear + quad
}

// MemoryExpansionGas returns the incremental gas needed to grow memory
// from oldSize to newSize bytes (both already word-aligned). Returns 0 if
// newSize does not exceed oldSize.
func MemoryExpansionGas(oldSize, newSize uint64) uint64 {
	if newSize <= oldSize {
		return 0
	}
	oldCost := MemoryGasCost(toWordSize(oldSize))
	newCost := MemoryGasCost(toWordSize(newSize))
	if newCost <= oldCost {
		return 0
	}
	return newCost - oldCost
}

// CallGas implements the EIP-150 63/64 rule: of the gas available in the
// calling frame, at most 63/64 may be forwarded to a CALL-family
// instruction; the rest stays with the caller.
func CallGas(availableGas, requestedGas uint64) uint64 {
	avail := availableGas - availableGas/CallGasFraction
	if requestedGas > avail {
		return avail
	}
	return requestedGas
}

// ExpGas returns the dynamic portion of EXP's gas cost: 50 gas per byte of
// the exponent's big-endian encoding (minimal length, no leading zeros).
func ExpGas(expByteLen int) uint64 {
	return uint64(expByteLen) * ExpByteGas
}

// CopyGas returns the dynamic cost of a *COPY opcode: 3 gas per word of
// the copied region, rounded up.
func CopyGas(size uint64) uint64 {
	return GasCopyWord * toWordSize(size)
}

// Sha3Gas returns the dynamic cost of KECCAK256: 6 gas per word of input.
func Sha3Gas(size uint64) uint64 {
	return GasKeccak256Word * toWordSize(size)
}

// LogGas returns the dynamic cost of a LOGn instruction: 375 gas per
// topic plus 8 gas per byte of data.
func LogGas(topics int, dataSize uint64) uint64 {
	return uint64(topics)*GasLogTopic + dataSize*GasLogData
}

// SstoreGas implements the EIP-2200/EIP-2929/EIP-3529 net-gas metering
// for SSTORE. original is the value the slot held before the current
// transaction began; current is the value it holds right now (possibly
// already modified earlier in this transaction); newVal is the value
// about to be written. cold indicates the slot has not yet been touched
// in this transaction (EIP-2929). Returns the gas to charge and the
// refund delta (which may be negative, undoing an earlier refund).
func SstoreGas(original, current, newVal types.Hash, cold bool) (gas uint64, refund int64) {
	if current == newVal {
		// No-op write: dirty or not, this only costs a warm read.
		gas = WarmStorageReadCost
		if cold {
			gas += ColdSloadCost
		}
		return gas, 0
	}

	if original == current {
		// First write to this slot in the transaction.
		if original == (types.Hash{}) {
			gas = SstoreSetGas
		} else {
			gas = SstoreResetGas
			if newVal == (types.Hash{}) {
				refund += int64(SstoreClearRefund)
			}
		}
	} else {
		// Slot was already dirtied earlier in the transaction.
		gas = WarmStorageReadCost
		if original != (types.Hash{}) {
			if current == (types.Hash{}) {
				// Undoing an earlier clear-to-zero.
				refund -= int64(SstoreClearRefund)
			}
			if newVal == (types.Hash{}) {
				// Clearing it now.
				refund += int64(SstoreClearRefund)
			}
		}
		if newVal == original {
			if original == (types.Hash{}) {
				refund += int64(SstoreSetGas - WarmStorageReadCost)
			} else {
				refund += int64(SstoreResetGas - WarmStorageReadCost)
			}
		}
	}

	if cold {
		gas += ColdSloadCost
	}
	return gas, refund
}

// ApplyRefundCap returns the refund actually granted for a transaction
// that used gasUsed gas: min(refundCounter, gasUsed/MaxRefundQuotient).
func ApplyRefundCap(gasUsed, refundCounter uint64) uint64 {
	limit := gasUsed / MaxRefundQuotient
	if refundCounter > limit {
		return limit
	}
	return refundCounter
}

// --- dynamicGasFunc adapters wired into the jump table. ---

func gasExp(in *Interpreter, frame *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	exponent, err := stack.Back(1)
	if err != nil {
		return 0, err
	}
	return ExpGas(byteLen(exponent)), nil
}

// byteLen returns the length, in bytes, of v's minimal big-endian
// encoding (0 for the zero value).
func byteLen(v *uint256.Int) int {
	b := v.Bytes32()
	n := 32
	for n > 0 && b[32-n] == 0 {
		n--
	}
	return n
}

func gasKeccak256(in *Interpreter, frame *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	memGas, err := memoryGasDelta(mem, memorySize)
	if err != nil {
		return 0, err
	}
	size, err := stack.Back(1)
	if err != nil {
		return 0, err
	}
	if !size.IsUint64() {
		return 0, ErrOutOfGas
	}
	return memGas + Sha3Gas(size.Uint64()), nil
}

func gasMemCopy(in *Interpreter, frame *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	memGas, err := memoryGasDelta(mem, memorySize)
	if err != nil {
		return 0, err
	}
	size, err := stack.Back(2)
	if err != nil {
		return 0, err
	}
	if !size.IsUint64() {
		return 0, ErrOutOfGas
	}
	return memGas + CopyGas(size.Uint64()), nil
}

func gasExtCodeCopy(in *Interpreter, frame *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	memGas, err := memoryGasDelta(mem, memorySize)
	if err != nil {
		return 0, err
	}
	addrWord, err := stack.Back(0)
	if err != nil {
		return 0, err
	}
	size, err := stack.Back(3)
	if err != nil {
		return 0, err
	}
	if !size.IsUint64() {
		return 0, ErrOutOfGas
	}
	accessGas := accountAccessGas(in, addressFromWord(addrWord))
	return memGas + CopyGas(size.Uint64()) + accessGas, nil
}

func makeGasLog(n int) dynamicGasFunc {
	return func(in *Interpreter, frame *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		memGas, err := memoryGasDelta(mem, memorySize)
		if err != nil {
			return 0, err
		}
		size, err := stack.Back(1)
		if err != nil {
			return 0, err
		}
		if !size.IsUint64() {
			return 0, ErrOutOfGas
		}
		return memGas + LogGas(n, size.Uint64()), nil
	}
}

// accountAccessGas returns the extra EIP-2929 surcharge (on top of the
// operation's WarmStorageReadCost constantGas) for touching addr: 0 if
// already warm, ColdAccountAccessCost-WarmStorageReadCost if this is the
// first access this transaction, and it marks addr warm as a side effect.
func accountAccessGas(in *Interpreter, addr types.Address) uint64 {
	if in.Host.AddressInAccessList(addr) {
		return 0
	}
	in.Host.AddAddressToAccessList(addr)
	return ColdAccountAccessCost - WarmStorageReadCost
}

func gasEIP2929AccountCheck(in *Interpreter, frame *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	addrWord, err := stack.Back(0)
	if err != nil {
		return 0, err
	}
	return accountAccessGas(in, addressFromWord(addrWord)), nil
}

func gasSloadEIP2929(in *Interpreter, frame *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	keyWord, err := stack.Back(0)
	if err != nil {
		return 0, err
	}
	key := types.Hash(keyWord.Bytes32())
	_, slotWarm := in.Host.SlotInAccessList(frame.Address, key)
	if slotWarm {
		return 0, nil
	}
	in.Host.AddSlotToAccessList(frame.Address, key)
	return ColdSloadCost - WarmStorageReadCost, nil
}

func gasSstoreEIP2929(in *Interpreter, frame *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	keyWord, err := stack.Back(0)
	if err != nil {
		return 0, err
	}
	newWord, err := stack.Back(1)
	if err != nil {
		return 0, err
	}
	key := types.Hash(keyWord.Bytes32())
	newVal := types.Hash(newWord.Bytes32())

	_, slotWarm := in.Host.SlotInAccessList(frame.Address, key)
	cold := !slotWarm
	if cold {
		in.Host.AddSlotToAccessList(frame.Address, key)
	}

	original := in.Host.GetCommittedState(frame.Address, key)
	current := in.Host.GetState(frame.Address, key)
	gas, refund := SstoreGas(original, current, newVal, cold)
	if refund > 0 {
		in.Host.AddRefund(uint64(refund))
	} else if refund < 0 {
		in.Host.SubRefund(uint64(-refund))
	}
	return gas, nil
}

func gasCreate(in *Interpreter, frame *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	memGas, err := memoryGasDelta(mem, memorySize)
	if err != nil {
		return 0, err
	}
	size, err := stack.Back(2)
	if err != nil {
		return 0, err
	}
	if !size.IsUint64() || size.Uint64() > MaxInitCodeSize {
		return 0, ErrMaxInitCodeSizeExceeded
	}
	return memGas + InitCodeWordGas*toWordSize(size.Uint64()), nil
}

func gasCreate2(in *Interpreter, frame *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	memGas, err := memoryGasDelta(mem, memorySize)
	if err != nil {
		return 0, err
	}
	size, err := stack.Back(2)
	if err != nil {
		return 0, err
	}
	if !size.IsUint64() || size.Uint64() > MaxInitCodeSize {
		return 0, ErrMaxInitCodeSizeExceeded
	}
	words := toWordSize(size.Uint64())
	return memGas + Sha3Gas(size.Uint64()) + InitCodeWordGas*words, nil
}

func callValueTransferGas(valueWord *uint256.Int, target types.Address, in *Interpreter) uint64 {
	if valueWord.IsZero() {
		return 0
	}
	gas := CallValueTransferGas
	if in.Host.Empty(target) {
		gas += CallNewAccountGas
	}
	return gas
}

func gasCallEIP2929(in *Interpreter, frame *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	memGas, err := memoryGasDelta(mem, memorySize)
	if err != nil {
		return 0, err
	}
	addrWord, err := stack.Back(1)
	if err != nil {
		return 0, err
	}
	valueWord, err := stack.Back(2)
	if err != nil {
		return 0, err
	}
	addr := addressFromWord(addrWord)
	gas := memGas + accountAccessGas(in, addr) + callValueTransferGas(valueWord, addr, in)
	return gas, nil
}

func gasCallCodeEIP2929(in *Interpreter, frame *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	memGas, err := memoryGasDelta(mem, memorySize)
	if err != nil {
		return 0, err
	}
	addrWord, err := stack.Back(1)
	if err != nil {
		return 0, err
	}
	valueWord, err := stack.Back(2)
	if err != nil {
		return 0, err
	}
	addr := addressFromWord(addrWord)
	gas := memGas + accountAccessGas(in, addr)
	if !valueWord.IsZero() {
		gas += CallValueTransferGas
	}
	return gas, nil
}

func gasDelegateCallEIP2929(in *Interpreter, frame *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	memGas, err := memoryGasDelta(mem, memorySize)
	if err != nil {
		return 0, err
	}
	addrWord, err := stack.Back(1)
	if err != nil {
		return 0, err
	}
	return memGas + accountAccessGas(in, addressFromWord(addrWord)), nil
}

func gasStaticCallEIP2929(in *Interpreter, frame *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	memGas, err := memoryGasDelta(mem, memorySize)
	if err != nil {
		return 0, err
	}
	addrWord, err := stack.Back(1)
	if err != nil {
		return 0, err
	}
	return memGas + accountAccessGas(in, addressFromWord(addrWord)), nil
}

func gasSelfdestructEIP2929(in *Interpreter, frame *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	beneficiaryWord, err := stack.Back(0)
	if err != nil {
		return 0, err
	}
	beneficiary := addressFromWord(beneficiaryWord)
	var gas uint64
	if !in.Host.AddressInAccessList(beneficiary) {
		in.Host.AddAddressToAccessList(beneficiary)
		gas += ColdAccountAccessCost
	}
	if !in.Host.HasSelfDestructed(frame.Address) && !in.Host.GetBalance(frame.Address).IsZero() && in.Host.Empty(beneficiary) {
		gas += CallNewAccountGas
	}
	return gas, nil
}

func addressFromWord(w *uint256.Int) types.Address {
	b := w.Bytes20()
	return types.Address(b)
}
