package vm

import (
	"github.com/berlinvm/berlinvm/common/types"
	"github.com/berlinvm/berlinvm/crypto"
	"github.com/holiman/uint256"
)

// --- arithmetic (0x01-0x0b) ---

func opAdd(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	x, _ := stack.Pop()
	y, _ := stack.Peek()
	y.Add(&x, y)
	return nil, nil
}

func opSub(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	x, _ := stack.Pop()
	y, _ := stack.Peek()
	y.Sub(&x, y)
	return nil, nil
}

func opMul(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	x, _ := stack.Pop()
	y, _ := stack.Peek()
	y.Mul(&x, y)
	return nil, nil
}

// opDiv divides truncating towards zero; EVM defines division by zero as 0.
func opDiv(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	x, _ := stack.Pop()
	y, _ := stack.Peek()
	y.Div(&x, y)
	return nil, nil
}

func opSdiv(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	x, _ := stack.Pop()
	y, _ := stack.Peek()
	y.SDiv(&x, y)
	return nil, nil
}

func opMod(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	x, _ := stack.Pop()
	y, _ := stack.Peek()
	y.Mod(&x, y)
	return nil, nil
}

func opSmod(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	x, _ := stack.Pop()
	y, _ := stack.Peek()
	y.SMod(&x, y)
	return nil, nil
}

// opAddmod computes (x+y) mod m with the addition carried out at full
// (unbounded, not-truncated-to-256-bit) precision before the modulus is
// applied -- outer-mod semantics, matching the Yellow Paper.
func opAddmod(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	x, _ := stack.Pop()
	y, _ := stack.Pop()
	z, _ := stack.Peek()
	z.AddMod(&x, &y, z)
	return nil, nil
}

func opMulmod(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	x, _ := stack.Pop()
	y, _ := stack.Pop()
	z, _ := stack.Peek()
	z.MulMod(&x, &y, z)
	return nil, nil
}

func opExp(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	base, _ := stack.Pop()
	exponent, _ := stack.Peek()
	exponent.Exp(&base, exponent)
	return nil, nil
}

func opSignExtend(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	back, _ := stack.Pop()
	num, _ := stack.Peek()
	num.ExtendSign(num, &back)
	return nil, nil
}

// --- comparison and bitwise (0x10-0x1d) ---

func opLt(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	x, _ := stack.Pop()
	y, _ := stack.Peek()
	if x.Lt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opGt(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	x, _ := stack.Pop()
	y, _ := stack.Peek()
	if x.Gt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSlt(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	x, _ := stack.Pop()
	y, _ := stack.Peek()
	if x.Slt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSgt(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	x, _ := stack.Pop()
	y, _ := stack.Peek()
	if x.Sgt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opEq(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	x, _ := stack.Pop()
	y, _ := stack.Peek()
	if x.Eq(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opIszero(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	x, _ := stack.Peek()
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil, nil
}

func opAnd(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	x, _ := stack.Pop()
	y, _ := stack.Peek()
	y.And(&x, y)
	return nil, nil
}

func opOr(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	x, _ := stack.Pop()
	y, _ := stack.Peek()
	y.Or(&x, y)
	return nil, nil
}

func opXor(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	x, _ := stack.Pop()
	y, _ := stack.Peek()
	y.Xor(&x, y)
	return nil, nil
}

func opNot(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	x, _ := stack.Peek()
	x.Not(x)
	return nil, nil
}

func opByte(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	th, _ := stack.Pop()
	val, _ := stack.Peek()
	val.Byte(&th)
	return nil, nil
}

func opShl(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	shift, _ := stack.Pop()
	val, _ := stack.Peek()
	if shift.LtUint64(256) {
		val.Lsh(val, uint(shift.Uint64()))
	} else {
		val.Clear()
	}
	return nil, nil
}

func opShr(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	shift, _ := stack.Pop()
	val, _ := stack.Peek()
	if shift.LtUint64(256) {
		val.Rsh(val, uint(shift.Uint64()))
	} else {
		val.Clear()
	}
	return nil, nil
}

func opSar(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	shift, _ := stack.Pop()
	val, _ := stack.Peek()
	if shift.GtUint64(255) {
		if val.Sign() >= 0 {
			val.Clear()
		} else {
			val.SetAllOne()
		}
		return nil, nil
	}
	val.SRsh(val, uint(shift.Uint64()))
	return nil, nil
}

// --- KECCAK256 (0x20) ---

func opKeccak256(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	offset, _ := stack.Pop()
	size, _ := stack.Peek()
	data := mem.GetPtr(offset.Uint64(), size.Uint64())
	hash := crypto.Keccak256(data)
	size.SetBytes(hash)
	return nil, nil
}

// --- environment (0x30-0x3f) ---

func opAddress(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	return nil, stack.Push(addressToWord(frame.Address))
}

func opBalance(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	slot, _ := stack.Peek()
	addr := addressFromWord(slot)
	slot.Set(in.Host.GetBalance(addr))
	return nil, nil
}

func opOrigin(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	return nil, stack.Push(addressToWord(in.TxCtx.Origin))
}

func opCaller(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	return nil, stack.Push(addressToWord(frame.Caller))
}

func opCallValue(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	v := new(uint256.Int).Set(frame.Value)
	return nil, stack.Push(v)
}

func opCallDataLoad(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	x, _ := stack.Peek()
	if offset, overflow := x.Uint64WithOverflow(); !overflow {
		data := getDataBE(frame.Input, offset, 32)
		x.SetBytes(data)
	} else {
		x.Clear()
	}
	return nil, nil
}

func opCallDataSize(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	return nil, stack.Push(uint256.NewInt(uint64(len(frame.Input))))
}

func opCallDataCopy(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	memOffset, _ := stack.Pop()
	dataOffset, _ := stack.Pop()
	length, _ := stack.Pop()
	off, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		off = ^uint64(0)
	}
	data := getDataBE(frame.Input, off, length.Uint64())
	mem.Set(memOffset.Uint64(), length.Uint64(), data)
	return nil, nil
}

func opCodeSize(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	return nil, stack.Push(uint256.NewInt(uint64(len(frame.Code))))
}

func opCodeCopy(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	memOffset, _ := stack.Pop()
	codeOffset, _ := stack.Pop()
	length, _ := stack.Pop()
	off, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		off = ^uint64(0)
	}
	data := getDataBE(frame.Code, off, length.Uint64())
	mem.Set(memOffset.Uint64(), length.Uint64(), data)
	return nil, nil
}

func opGasPrice(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	v := new(uint256.Int).Set(in.TxCtx.GasPrice)
	return nil, stack.Push(v)
}

func opExtCodeSize(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	slot, _ := stack.Peek()
	addr := addressFromWord(slot)
	slot.SetUint64(uint64(in.Host.GetCodeSize(addr)))
	return nil, nil
}

func opExtCodeCopy(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	addrWord, _ := stack.Pop()
	memOffset, _ := stack.Pop()
	codeOffset, _ := stack.Pop()
	length, _ := stack.Pop()
	addr := addressFromWord(&addrWord)
	code := in.Host.GetCode(addr)
	off, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		off = ^uint64(0)
	}
	data := getDataBE(code, off, length.Uint64())
	mem.Set(memOffset.Uint64(), length.Uint64(), data)
	return nil, nil
}

func opReturnDataSize(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	return nil, stack.Push(uint256.NewInt(uint64(len(in.returnData))))
}

func opReturnDataCopy(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	memOffset, _ := stack.Pop()
	dataOffset, _ := stack.Pop()
	length, _ := stack.Pop()
	off, overflow := dataOffset.Uint64WithOverflow()
	end := off + length.Uint64()
	if overflow || end < off || end > uint64(len(in.returnData)) {
		return nil, ErrInvalidMemoryAccess
	}
	mem.Set(memOffset.Uint64(), length.Uint64(), in.returnData[off:end])
	return nil, nil
}

func opExtCodeHash(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	slot, _ := stack.Peek()
	addr := addressFromWord(slot)
	if !in.Host.Exist(addr) || in.Host.Empty(addr) {
		slot.Clear()
		return nil, nil
	}
	slot.SetBytes(in.Host.GetCodeHash(addr).Bytes())
	return nil, nil
}

// --- block information (0x40-0x47) ---

func opBlockHash(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	num, _ := stack.Peek()
	if !num.IsUint64() {
		num.Clear()
		return nil, nil
	}
	n := num.Uint64()
	if n+256 < in.BlockCtx.BlockNumber || n >= in.BlockCtx.BlockNumber || in.BlockCtx.GetHash == nil {
		num.Clear()
		return nil, nil
	}
	num.SetBytes(in.BlockCtx.GetHash(n).Bytes())
	return nil, nil
}

func opCoinbase(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	return nil, stack.Push(addressToWord(in.BlockCtx.Coinbase))
}

func opTimestamp(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	return nil, stack.Push(uint256.NewInt(in.BlockCtx.Time))
}

func opNumber(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	return nil, stack.Push(uint256.NewInt(in.BlockCtx.BlockNumber))
}

func opDifficulty(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	v := new(uint256.Int).Set(in.BlockCtx.Difficulty)
	return nil, stack.Push(v)
}

func opGasLimit(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	return nil, stack.Push(uint256.NewInt(in.BlockCtx.GasLimit))
}

func opChainID(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	v := new(uint256.Int).Set(in.ChainID)
	return nil, stack.Push(v)
}

func opSelfBalance(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	v := in.Host.GetBalance(frame.Address)
	return nil, stack.Push(new(uint256.Int).Set(v))
}

func opBaseFee(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	v := new(uint256.Int).Set(in.BlockCtx.BaseFee)
	return nil, stack.Push(v)
}

// --- stack, memory, storage, flow (0x50-0x5b) ---

func opPop(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	_, err := stack.Pop()
	return nil, err
}

func opMload(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	offset, _ := stack.Peek()
	data := mem.GetPtr(offset.Uint64(), 32)
	offset.SetBytes(data)
	return nil, nil
}

func opMstore(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	offset, _ := stack.Pop()
	val, _ := stack.Pop()
	mem.Set32(offset.Uint64(), &val)
	return nil, nil
}

func opMstore8(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	offset, _ := stack.Pop()
	val, _ := stack.Pop()
	mem.store[offset.Uint64()] = byte(val.Uint64())
	return nil, nil
}

func opSload(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	loc, _ := stack.Peek()
	key := types.Hash(loc.Bytes32())
	val := in.Host.GetState(frame.Address, key)
	loc.SetBytes(val.Bytes())
	return nil, nil
}

func opSstore(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	if frame.Static {
		return nil, ErrWriteProtection
	}
	loc, _ := stack.Pop()
	val, _ := stack.Pop()
	key := types.Hash(loc.Bytes32())
	in.Host.SetState(frame.Address, key, types.Hash(val.Bytes32()))
	return nil, nil
}

func opJump(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	dest, _ := stack.Pop()
	if !dest.IsUint64() || !frame.ValidJumpdest(dest.Uint64()) {
		return nil, ErrInvalidJump
	}
	*pc = dest.Uint64()
	return nil, nil
}

func opJumpi(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	dest, _ := stack.Pop()
	cond, _ := stack.Pop()
	if cond.IsZero() {
		*pc++
		return nil, nil
	}
	if !dest.IsUint64() || !frame.ValidJumpdest(dest.Uint64()) {
		return nil, ErrInvalidJump
	}
	*pc = dest.Uint64()
	return nil, nil
}

func opPc(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	return nil, stack.Push(uint256.NewInt(*pc))
}

func opMsize(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	return nil, stack.Push(uint256.NewInt(uint64(mem.Len())))
}

func opGas(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	return nil, stack.Push(uint256.NewInt(frame.Gas))
}

func opJumpdest(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	return nil, nil
}

// --- PUSH/DUP/SWAP (0x60-0x9f) ---

func makeOpPush(size uint64) executionFunc {
	return func(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
		start := *pc + 1
		data := getDataBE(frame.Code, start, size)
		val := new(uint256.Int).SetBytes(data)
		*pc += size
		return nil, stack.Push(val)
	}
}

func makeOpDup(n int) executionFunc {
	return func(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
		return nil, stack.Dup(n)
	}
}

func makeOpSwap(n int) executionFunc {
	return func(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
		return nil, stack.Swap(n)
	}
}

// --- LOG0-4 (0xa0-0xa4) ---

func makeOpLog(n int) executionFunc {
	return func(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
		if frame.Static {
			return nil, ErrWriteProtection
		}
		offset, _ := stack.Pop()
		size, _ := stack.Pop()
		topics := make([]types.Hash, n)
		for i := 0; i < n; i++ {
			t, _ := stack.Pop()
			topics[i] = types.Hash(t.Bytes32())
		}
		data := mem.Get(offset.Uint64(), size.Uint64())
		in.Host.AddLog(&types.Log{Address: frame.Address, Topics: topics, Data: data})
		return nil, nil
	}
}

// --- halting (0xf3, 0xfd, 0xfe) ---

func opStop(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	return nil, nil
}

func opReturn(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	offset, _ := stack.Pop()
	size, _ := stack.Pop()
	return mem.Get(offset.Uint64(), size.Uint64()), nil
}

func opRevert(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	offset, _ := stack.Pop()
	size, _ := stack.Pop()
	ret := mem.Get(offset.Uint64(), size.Uint64())
	return ret, ErrExecutionReverted
}

func opInvalid(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	return nil, ErrInvalidOpCode
}

func opSelfdestruct(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	if frame.Static {
		return nil, ErrWriteProtection
	}
	beneficiary, _ := stack.Pop()
	beneficiaryAddr := addressFromWord(&beneficiary)
	balance := in.Host.GetBalance(frame.Address)
	if !in.Host.HasSelfDestructed(frame.Address) {
		in.Host.AddRefund(SelfdestructRefund)
	}
	in.Host.AddBalance(beneficiaryAddr, balance)
	in.Host.SelfDestruct(frame.Address)
	return nil, nil
}

// --- helpers ---

func addressToWord(a types.Address) *uint256.Int {
	return new(uint256.Int).SetBytes(a.Bytes())
}

// getDataBE returns size bytes of data starting at offset, zero-padding
// past the end (or on an offset that has already overflowed a uint64).
func getDataBE(data []byte, offset, size uint64) []byte {
	out := make([]byte, size)
	if offset >= uint64(len(data)) {
		return out
	}
	end := offset + size
	if end > uint64(len(data)) {
		end = uint64(len(data))
	}
	copy(out, data[offset:end])
	return out
}
