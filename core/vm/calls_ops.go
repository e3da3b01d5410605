package vm

import "github.com/holiman/uint256"

// --- CALL-family and CREATE-family opcode bodies (0xf0-0xf5) ---

func pushCallResult(stack *Stack, success bool) {
	if success {
		stack.Push(uint256.NewInt(1))
	} else {
		stack.Push(new(uint256.Int))
	}
}

func writeCallReturnData(mem *Memory, retOffset, retLength uint64, ret []byte) {
	if retLength == 0 {
		return
	}
	n := retLength
	if uint64(len(ret)) < n {
		n = uint64(len(ret))
	}
	if n == 0 {
		return
	}
	mem.Set(retOffset, n, ret[:n])
}

func opCall(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	gasWord, _ := stack.Pop()
	addrWord, _ := stack.Pop()
	valueWord, _ := stack.Pop()
	argsOffset, _ := stack.Pop()
	argsLength, _ := stack.Pop()
	retOffset, _ := stack.Pop()
	retLength, _ := stack.Pop()

	if frame.Static && !valueWord.IsZero() {
		return nil, ErrWriteProtection
	}

	addr := addressFromWord(&addrWord)
	args := mem.Get(argsOffset.Uint64(), argsLength.Uint64())

	gas := CallGas(frame.Gas, gasWord.Uint64())
	frame.Gas -= gas
	if !valueWord.IsZero() {
		gas += CallStipend
	}

	ret, returnGas, err := in.Call(frame.Address, addr, args, gas, &valueWord)
	frame.Gas += returnGas
	in.returnData = ret

	pushCallResult(stack, err == nil)
	if err == nil || err == ErrExecutionReverted {
		writeCallReturnData(mem, retOffset.Uint64(), retLength.Uint64(), ret)
	}
	return nil, nil
}

func opCallCode(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	gasWord, _ := stack.Pop()
	addrWord, _ := stack.Pop()
	valueWord, _ := stack.Pop()
	argsOffset, _ := stack.Pop()
	argsLength, _ := stack.Pop()
	retOffset, _ := stack.Pop()
	retLength, _ := stack.Pop()

	addr := addressFromWord(&addrWord)
	args := mem.Get(argsOffset.Uint64(), argsLength.Uint64())

	gas := CallGas(frame.Gas, gasWord.Uint64())
	frame.Gas -= gas
	if !valueWord.IsZero() {
		gas += CallStipend
	}

	ret, returnGas, err := in.CallCode(frame.Address, addr, args, gas, &valueWord)
	frame.Gas += returnGas
	in.returnData = ret

	pushCallResult(stack, err == nil)
	if err == nil || err == ErrExecutionReverted {
		writeCallReturnData(mem, retOffset.Uint64(), retLength.Uint64(), ret)
	}
	return nil, nil
}

func opDelegateCall(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	gasWord, _ := stack.Pop()
	addrWord, _ := stack.Pop()
	argsOffset, _ := stack.Pop()
	argsLength, _ := stack.Pop()
	retOffset, _ := stack.Pop()
	retLength, _ := stack.Pop()

	addr := addressFromWord(&addrWord)
	args := mem.Get(argsOffset.Uint64(), argsLength.Uint64())

	gas := CallGas(frame.Gas, gasWord.Uint64())
	frame.Gas -= gas

	ret, returnGas, err := in.DelegateCall(frame, addr, args, gas)
	frame.Gas += returnGas
	in.returnData = ret

	pushCallResult(stack, err == nil)
	if err == nil || err == ErrExecutionReverted {
		writeCallReturnData(mem, retOffset.Uint64(), retLength.Uint64(), ret)
	}
	return nil, nil
}

func opStaticCall(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	gasWord, _ := stack.Pop()
	addrWord, _ := stack.Pop()
	argsOffset, _ := stack.Pop()
	argsLength, _ := stack.Pop()
	retOffset, _ := stack.Pop()
	retLength, _ := stack.Pop()

	addr := addressFromWord(&addrWord)
	args := mem.Get(argsOffset.Uint64(), argsLength.Uint64())

	gas := CallGas(frame.Gas, gasWord.Uint64())
	frame.Gas -= gas

	ret, returnGas, err := in.StaticCall(frame.Address, addr, args, gas)
	frame.Gas += returnGas
	in.returnData = ret

	pushCallResult(stack, err == nil)
	if err == nil || err == ErrExecutionReverted {
		writeCallReturnData(mem, retOffset.Uint64(), retLength.Uint64(), ret)
	}
	return nil, nil
}

func opCreate(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	if frame.Static {
		return nil, ErrWriteProtection
	}
	valueWord, _ := stack.Pop()
	offset, _ := stack.Pop()
	size, _ := stack.Pop()

	initCode := mem.Get(offset.Uint64(), size.Uint64())
	gas := frame.Gas - frame.Gas/CallGasFraction
	frame.Gas -= gas

	ret, addr, returnGas, err := in.Create(frame.Address, initCode, gas, &valueWord)
	frame.Gas += returnGas
	in.returnData = ret
	if err == nil {
		stack.Push(addressToWord(addr))
	} else {
		stack.Push(new(uint256.Int))
	}
	return nil, nil
}

func opCreate2(pc *uint64, in *Interpreter, frame *Frame, mem *Memory, stack *Stack) ([]byte, error) {
	if frame.Static {
		return nil, ErrWriteProtection
	}
	valueWord, _ := stack.Pop()
	offset, _ := stack.Pop()
	size, _ := stack.Pop()
	saltWord, _ := stack.Pop()

	initCode := mem.Get(offset.Uint64(), size.Uint64())
	gas := frame.Gas - frame.Gas/CallGasFraction
	frame.Gas -= gas

	salt := saltWord.Bytes32()
	ret, addr, returnGas, err := in.Create2(frame.Address, initCode, gas, &valueWord, salt)
	frame.Gas += returnGas
	in.returnData = ret
	if err == nil {
		stack.Push(addressToWord(addr))
	} else {
		stack.Push(new(uint256.Int))
	}
	return nil, nil
}
