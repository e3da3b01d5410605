package vm

import (
	"github.com/berlinvm/berlinvm/common/types"
	"github.com/berlinvm/berlinvm/crypto"
	"github.com/holiman/uint256"
)

func (in *Interpreter) canTransfer(from types.Address, value *uint256.Int) bool {
	return in.Host.GetBalance(from).Cmp(value) >= 0
}

func (in *Interpreter) transfer(from, to types.Address, value *uint256.Int) {
	if value.IsZero() {
		return
	}
	in.Host.SubBalance(from, value)
	in.Host.AddBalance(to, value)
}

func runPrecompile(p PrecompiledContract, input []byte, gas uint64) ([]byte, uint64, error) {
	gasCost := p.RequiredGas(input)
	if gas < gasCost {
		return nil, 0, ErrOutOfGas
	}
	output, err := p.Run(input)
	return output, gas - gasCost, err
}

// Call executes the code at addr on behalf of caller, transferring value
// from caller to addr first. It is the semantics behind the CALL opcode
// and a message-call transaction's top-level invocation.
func (in *Interpreter) Call(caller, addr types.Address, input []byte, gas uint64, value *uint256.Int) (ret []byte, leftOverGas uint64, err error) {
	if in.depth > int(MaxCallDepth) {
		return nil, gas, ErrMaxCallDepthExceeded
	}
	if !value.IsZero() && !in.canTransfer(caller, value) {
		return nil, gas, ErrInsufficientBalance
	}
	snapshot := in.Host.Snapshot()

	p, isPrecompile := in.Precompiles[addr]
	if !in.Host.Exist(addr) {
		if !isPrecompile && value.IsZero() {
			return nil, gas, nil
		}
		in.Host.CreateAccount(addr)
	}
	in.transfer(caller, addr, value)

	if isPrecompile {
		ret, gas, err = runPrecompile(p, input, gas)
	} else {
		code := in.Host.GetCode(addr)
		if len(code) == 0 {
			return nil, gas, nil
		}
		frame := NewFrame(caller, addr, addr, code, in.Host.GetCodeHash(addr), input, gas, value, false)
		in.depth++
		ret, err = in.Run(frame)
		in.returnData = ret
		in.depth--
		gas = frame.Gas
	}
	if err != nil {
		in.Host.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			gas = 0
		}
	}
	return ret, gas, err
}

// CallCode executes the code at addr but against the calling frame's own
// storage and balance (self = caller). Despite checking the caller's
// balance against value, no value is actually transferred -- this mirrors
// CALLCODE's long-standing quirk in production EVMs.
func (in *Interpreter) CallCode(caller types.Address, addr types.Address, input []byte, gas uint64, value *uint256.Int) (ret []byte, leftOverGas uint64, err error) {
	if in.depth > int(MaxCallDepth) {
		return nil, gas, ErrMaxCallDepthExceeded
	}
	if !value.IsZero() && !in.canTransfer(caller, value) {
		return nil, gas, ErrInsufficientBalance
	}
	snapshot := in.Host.Snapshot()

	p, isPrecompile := in.Precompiles[addr]
	if isPrecompile {
		ret, gas, err = runPrecompile(p, input, gas)
	} else {
		code := in.Host.GetCode(addr)
		frame := NewFrame(caller, caller, addr, code, in.Host.GetCodeHash(addr), input, gas, value, false)
		in.depth++
		ret, err = in.Run(frame)
		in.returnData = ret
		in.depth--
		gas = frame.Gas
	}
	if err != nil {
		in.Host.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			gas = 0
		}
	}
	return ret, gas, err
}

// DelegateCall executes the code at addr against parent's own storage,
// balance, caller and call-value -- only the code (and CodeAddress for
// EXTCODE* bookkeeping) changes.
func (in *Interpreter) DelegateCall(parent *Frame, addr types.Address, input []byte, gas uint64) (ret []byte, leftOverGas uint64, err error) {
	if in.depth > int(MaxCallDepth) {
		return nil, gas, ErrMaxCallDepthExceeded
	}
	snapshot := in.Host.Snapshot()

	p, isPrecompile := in.Precompiles[addr]
	if isPrecompile {
		ret, gas, err = runPrecompile(p, input, gas)
	} else {
		code := in.Host.GetCode(addr)
		frame := NewFrame(parent.Caller, parent.Address, addr, code, in.Host.GetCodeHash(addr), input, gas, parent.Value, parent.Static)
		in.depth++
		ret, err = in.Run(frame)
		in.returnData = ret
		in.depth--
		gas = frame.Gas
	}
	if err != nil {
		in.Host.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			gas = 0
		}
	}
	return ret, gas, err
}

// StaticCall executes the code at addr like Call, but with the static
// flag set: SSTORE, LOG*, CREATE*, and SELFDESTRUCT all fail inside it
// (and inside anything it calls), and no value is transferred.
func (in *Interpreter) StaticCall(caller, addr types.Address, input []byte, gas uint64) (ret []byte, leftOverGas uint64, err error) {
	if in.depth > int(MaxCallDepth) {
		return nil, gas, ErrMaxCallDepthExceeded
	}
	snapshot := in.Host.Snapshot()

	p, isPrecompile := in.Precompiles[addr]
	if isPrecompile {
		ret, gas, err = runPrecompile(p, input, gas)
	} else {
		code := in.Host.GetCode(addr)
		frame := NewFrame(caller, addr, addr, code, in.Host.GetCodeHash(addr), input, gas, new(uint256.Int), true)
		in.depth++
		ret, err = in.Run(frame)
		in.returnData = ret
		in.depth--
		gas = frame.Gas
	}
	if err != nil {
		in.Host.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			gas = 0
		}
	}
	return ret, gas, err
}

// --- contract creation ---

// createAddress derives the address of a contract created via CREATE:
// the low 20 bytes of Keccak256(RLP([sender, nonce])).
func createAddress(sender types.Address, nonce uint64) types.Address {
	data := wrapRLPList(encodeRLPBytes(sender.Bytes()), encodeRLPUint(nonce))
	hash := crypto.Keccak256(data)
	return types.BytesToAddress(hash[12:])
}

// create2Address derives the address of a contract created via CREATE2:
// the low 20 bytes of Keccak256(0xff ++ sender ++ salt ++ Keccak256(initCode)).
func create2Address(sender types.Address, salt [32]byte, initCode []byte) types.Address {
	codeHash := crypto.Keccak256(initCode)
	data := make([]byte, 0, 85)
	data = append(data, 0xff)
	data = append(data, sender.Bytes()...)
	data = append(data, salt[:]...)
	data = append(data, codeHash...)
	hash := crypto.Keccak256(data)
	return types.BytesToAddress(hash[12:])
}

// Create deploys initCode as a new contract called by caller, at the
// address determined by caller's current nonce.
func (in *Interpreter) Create(caller types.Address, initCode []byte, gas uint64, value *uint256.Int) (ret []byte, contractAddr types.Address, leftOverGas uint64, err error) {
	nonce := in.Host.GetNonce(caller)
	contractAddr = createAddress(caller, nonce)
	return in.create(caller, initCode, gas, value, contractAddr)
}

// Create2 deploys initCode as a new contract at an address derived from
// caller, salt, and the init code itself -- reproducible independent of
// caller's nonce.
func (in *Interpreter) Create2(caller types.Address, initCode []byte, gas uint64, value *uint256.Int, salt [32]byte) (ret []byte, contractAddr types.Address, leftOverGas uint64, err error) {
	contractAddr = create2Address(caller, salt, initCode)
	return in.create(caller, initCode, gas, value, contractAddr)
}

func (in *Interpreter) create(caller types.Address, initCode []byte, gas uint64, value *uint256.Int, contractAddr types.Address) (ret []byte, addr types.Address, leftOverGas uint64, err error) {
	if in.depth > int(MaxCallDepth) {
		return nil, types.Address{}, gas, ErrMaxCallDepthExceeded
	}
	if !value.IsZero() && !in.canTransfer(caller, value) {
		return nil, types.Address{}, gas, ErrInsufficientBalance
	}
	if in.Host.GetNonce(caller)+1 == 0 {
		return nil, types.Address{}, gas, ErrNonceUintOverflow
	}
	in.Host.SetNonce(caller, in.Host.GetNonce(caller)+1)
	in.Host.AddAddressToAccessList(contractAddr)

	if in.Host.Exist(contractAddr) && (in.Host.GetCodeSize(contractAddr) > 0 || in.Host.GetNonce(contractAddr) > 0) {
		return nil, types.Address{}, gas, ErrContractAddressCollision
	}

	snapshot := in.Host.Snapshot()
	in.Host.CreateAccount(contractAddr)
	in.Host.SetNonce(contractAddr, 1)
	in.transfer(caller, contractAddr, value)

	frame := NewFrame(caller, contractAddr, contractAddr, initCode, types.Hash{}, nil, gas, value, false)
	ret, err = in.Run(frame)
	gasLeft := frame.Gas

	if err == nil && uint64(len(ret)) > MaxCodeSize {
		err = ErrMaxCodeSizeExceeded
	}
	if err == nil {
		codeGas := uint64(len(ret)) * 200
		if gasLeft < codeGas {
			err = ErrOutOfGas
		} else {
			gasLeft -= codeGas
			in.Host.SetCode(contractAddr, ret)
		}
	}

	if err != nil {
		in.Host.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			gasLeft = 0
		}
		if err == ErrExecutionReverted {
			return ret, contractAddr, gasLeft, err
		}
		return nil, contractAddr, gasLeft, err
	}
	return nil, contractAddr, gasLeft, nil
}

// --- minimal RLP encoding, used only to derive CREATE addresses. ---

func encodeRLPBytes(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return b
	}
	return append(rlpLenPrefix(0x80, len(b)), b...)
}

func encodeRLPUint(n uint64) []byte {
	return encodeRLPBytes(uintToMinBytes(n))
}

func wrapRLPList(items ...[]byte) []byte {
	var body []byte
	for _, it := range items {
		body = append(body, it...)
	}
	return append(rlpLenPrefix(0xc0, len(body)), body...)
}

func rlpLenPrefix(base byte, n int) []byte {
	if n < 56 {
		return []byte{base + byte(n)}
	}
	lenBytes := uintToMinBytes(uint64(n))
	return append([]byte{base + 55 + byte(len(lenBytes))}, lenBytes...)
}

func uintToMinBytes(n uint64) []byte {
	if n == 0 {
		return nil
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte(n)}, b...)
		n >>= 8
	}
	return b
}
