// Package core wires the interpreter and the state database together into
// a single-transaction execution entry point: intrinsic gas, the upfront
// balance check, dispatch to CALL or CREATE, and gas refund/return at the
// end. Block assembly, receipts, and anything involving a trie are out of
// scope -- this is the function signature a pool or a block processor
// would call once per transaction.
package core

import (
	"errors"

	"github.com/berlinvm/berlinvm/common/types"
	"github.com/berlinvm/berlinvm/core/vm"
	"github.com/holiman/uint256"
)

// Intrinsic gas constants (Berlin: EIP-2028 non-zero byte pricing, EIP-2930
// access list pricing; no EIP-3860, EIP-7623 or EIP-7702 surcharges).
const (
	TxGas                   uint64 = 21000
	TxCreateGas             uint64 = 32000
	TxDataZeroGas           uint64 = 4
	TxDataNonZeroGas        uint64 = 16
	AccessListAddressGas    uint64 = 2400
	AccessListStorageKeyGas uint64 = 1900
)

var (
	ErrIntrinsicGasTooLow = errors.New("core: intrinsic gas exceeds gas limit")
	ErrInsufficientFunds  = errors.New("core: sender balance too low to cover gas and value")
	ErrNonceMismatch      = errors.New("core: transaction nonce does not match account nonce")
)

// AccessTuple is an EIP-2930 access-list entry: an address plus the
// storage slots within it to pre-warm.
type AccessTuple struct {
	Address     types.Address
	StorageKeys []types.Hash
}

// Message is everything a transaction needs to be executed: either To is
// set (a CALL) or it is nil (a CREATE, with Data as init code).
type Message struct {
	From       types.Address
	To         *types.Address
	Nonce      uint64
	Value      *uint256.Int
	GasLimit   uint64
	GasPrice   *uint256.Int
	Data       []byte
	AccessList []AccessTuple
}

// Result is the outcome of executing a single Message.
type Result struct {
	UsedGas         uint64
	ReturnData      []byte
	ContractAddress types.Address // set only when the message created a contract
	Reverted        bool
	Err             error
}

// IntrinsicGas computes the gas a message costs before the interpreter
// executes a single instruction: the flat per-transaction base, the
// per-byte calldata cost, contract-creation overhead, and the EIP-2930
// access-list surcharge.
func IntrinsicGas(msg *Message) uint64 {
	gas := TxGas
	if msg.To == nil {
		gas += TxCreateGas
	}
	for _, b := range msg.Data {
		if b == 0 {
			gas += TxDataZeroGas
		} else {
			gas += TxDataNonZeroGas
		}
	}
	for _, tuple := range msg.AccessList {
		gas += AccessListAddressGas
		gas += uint64(len(tuple.StorageKeys)) * AccessListStorageKeyGas
	}
	return gas
}

// ExecuteTransaction runs msg to completion against host via interp: it
// validates the nonce and upfront balance, pre-warms the sender, the
// recipient (for a CREATE, Create warms the new address itself), every
// precompile, and the EIP-2930 access list, deducts the gas cost from the sender's
// balance upfront, dispatches to Call or Create, applies the capped gas
// refund, and credits unspent gas back to the sender.
func ExecuteTransaction(interp *vm.Interpreter, host vm.Host, msg *Message) (*Result, error) {
	if host.GetNonce(msg.From) != msg.Nonce {
		return nil, ErrNonceMismatch
	}

	intrinsic := IntrinsicGas(msg)
	if msg.GasLimit < intrinsic {
		return nil, ErrIntrinsicGasTooLow
	}

	gasCost := new(uint256.Int).Mul(msg.GasPrice, uint256.NewInt(msg.GasLimit))
	upfrontCost := new(uint256.Int).Add(gasCost, msg.Value)
	if host.GetBalance(msg.From).Cmp(upfrontCost) < 0 {
		return nil, ErrInsufficientFunds
	}
	host.SubBalance(msg.From, gasCost)

	host.AddAddressToAccessList(msg.From)
	if msg.To != nil {
		host.AddAddressToAccessList(*msg.To)
	}
	for addr := range interp.Precompiles {
		host.AddAddressToAccessList(addr)
	}
	for _, tuple := range msg.AccessList {
		host.AddAddressToAccessList(tuple.Address)
		for _, key := range tuple.StorageKeys {
			host.AddSlotToAccessList(tuple.Address, key)
		}
	}

	host.SetNonce(msg.From, msg.Nonce+1)

	gasAvailable := msg.GasLimit - intrinsic
	res := &Result{}

	if msg.To == nil {
		ret, contractAddr, leftOverGas, err := interp.Create(msg.From, msg.Data, gasAvailable, msg.Value)
		res.ContractAddress = contractAddr
		res.ReturnData = ret
		res.Reverted = err == vm.ErrExecutionReverted
		res.Err = sanitizeTopLevelErr(err)
		gasAvailable = leftOverGas
	} else {
		ret, leftOverGas, err := interp.Call(msg.From, *msg.To, msg.Data, gasAvailable, msg.Value)
		res.ReturnData = ret
		res.Reverted = err == vm.ErrExecutionReverted
		res.Err = sanitizeTopLevelErr(err)
		gasAvailable = leftOverGas
	}

	gasUsed := msg.GasLimit - gasAvailable
	refund := vm.ApplyRefundCap(gasUsed, host.GetRefund())
	gasAvailable += refund
	gasUsed = msg.GasLimit - gasAvailable

	leftover := new(uint256.Int).Mul(msg.GasPrice, uint256.NewInt(gasAvailable))
	host.AddBalance(msg.From, leftover)

	res.UsedGas = gasUsed
	return res, nil
}

// sanitizeTopLevelErr reports ErrExecutionReverted as a non-error outcome
// (the Result.Reverted flag already carries that information); any other
// VM error is surfaced as-is.
func sanitizeTopLevelErr(err error) error {
	if err == vm.ErrExecutionReverted {
		return nil
	}
	return err
}
