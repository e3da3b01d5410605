package vm

import (
	"github.com/berlinvm/berlinvm/common/types"
	"github.com/berlinvm/berlinvm/log"
	"github.com/holiman/uint256"
)

// GetHashFunc returns the hash of the ancestor block at the given number,
// used by the BLOCKHASH opcode.
type GetHashFunc func(uint64) types.Hash

// BlockContext carries the per-block values every frame can read.
type BlockContext struct {
	Coinbase    types.Address
	GasLimit    uint64
	BlockNumber uint64
	Time        uint64
	Difficulty  *uint256.Int
	BaseFee     *uint256.Int
	GetHash     GetHashFunc
}

// TxContext carries the per-transaction values every frame can read.
type TxContext struct {
	Origin   types.Address
	GasPrice *uint256.Int
}

// Interpreter drives execution of EVM bytecode: it owns the jump table,
// the world-state Host, and the block/transaction context, and runs the
// fetch-decode-execute loop one Frame at a time. It is single-threaded --
// a single Interpreter never runs two frames concurrently -- matching the
// synchronous, recursive nature of EVM call semantics.
type Interpreter struct {
	Host        Host
	Table       *JumpTable
	Precompiles map[types.Address]PrecompiledContract

	ChainID  *uint256.Int
	BlockCtx BlockContext
	TxCtx    TxContext

	depth      int
	returnData []byte
	readOnly   bool // set while a static frame (and everything it calls) runs

	log *log.Logger
}

// NewInterpreter builds an Interpreter wired to host with the given chain
// ID and block/transaction context, using the Berlin instruction set and
// the minimum precompile set (ECRECOVER, SHA256, RIPEMD160, IDENTITY).
func NewInterpreter(host Host, chainID uint64, blockCtx BlockContext, txCtx TxContext) *Interpreter {
	return &Interpreter{
		Host:        host,
		Table:       NewBerlinJumpTable(),
		Precompiles: DefaultPrecompiles(),
		ChainID:     uint256.NewInt(chainID),
		BlockCtx:    blockCtx,
		TxCtx:       txCtx,
		log:         log.Default().Module("vm"),
	}
}

// Run executes frame's code to completion, returning the data passed to
// RETURN/REVERT (or nil for STOP/SELFDESTRUCT/falling off the end of
// code) and any execution error. Run itself leaves frame.Gas at whatever
// remained when the failing instruction stopped; the Call/Create wrappers
// treat any error other than ErrExecutionReverted as consuming all of it.
func (in *Interpreter) Run(frame *Frame) ([]byte, error) {
	var (
		pc     uint64
		mem    = NewMemory()
		stack  = NewStack()
		ret    []byte
		err    error
	)

	if frame.Static && !in.readOnly {
		in.readOnly = true
		defer func() { in.readOnly = false }()
	}
	frame.Static = frame.Static || in.readOnly

	for {
		op := frame.GetOp(pc)
		in.log.Debug("step", "pc", pc, "op", op.String(), "gas", frame.Gas, "depth", in.depth)
		opInfo := in.Table[op]
		if opInfo == nil {
			return nil, ErrInvalidOpCode
		}
		if err = stack.Require(opInfo.minStack); err != nil {
			return nil, err
		}
		if stack.Len() > opInfo.maxStack {
			return nil, ErrStackOverflow
		}
		if frame.Static && opInfo.writes {
			return nil, ErrWriteProtection
		}
		if !frame.UseGas(opInfo.constantGas) {
			return nil, ErrOutOfGas
		}

		var memorySize uint64
		if opInfo.memorySize != nil {
			size, ok := opInfo.memorySize(stack)
			if !ok {
				return nil, ErrOutOfGas
			}
			memorySize = toWordSize(size) * 32
		}

		if opInfo.dynamicGas != nil {
			dGas, gasErr := opInfo.dynamicGas(in, frame, stack, mem, memorySize)
			if gasErr != nil {
				return nil, gasErr
			}
			if !frame.UseGas(dGas) {
				return nil, ErrOutOfGas
			}
		}

		if memorySize > uint64(mem.Len()) {
			mem.Resize(memorySize)
		}

		ret, err = opInfo.execute(&pc, in, frame, mem, stack)
		if err != nil {
			return ret, err
		}
		if opInfo.halts {
			return ret, nil
		}
		if !opInfo.jumps {
			pc++
		}
	}
}
