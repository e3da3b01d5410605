package vm

import (
	"github.com/berlinvm/berlinvm/common/types"
	"github.com/holiman/uint256"
)

// Host abstracts the world state the interpreter reads and mutates: account
// balances, nonces, code, storage, the EIP-2929 access list, logs, the gas
// refund counter, and snapshot/revert. contract.go/interpreter.go never touch
// world state directly except through this interface, so any store
// (in-memory, trie-backed, or otherwise) can back an Interpreter.
type Host interface {
	// Accounts.
	CreateAccount(addr types.Address)
	Exist(addr types.Address) bool
	Empty(addr types.Address) bool

	GetBalance(addr types.Address) *uint256.Int
	AddBalance(addr types.Address, amount *uint256.Int)
	SubBalance(addr types.Address, amount *uint256.Int)

	GetNonce(addr types.Address) uint64
	SetNonce(addr types.Address, nonce uint64)

	GetCode(addr types.Address) []byte
	SetCode(addr types.Address, code []byte)
	GetCodeHash(addr types.Address) types.Hash
	GetCodeSize(addr types.Address) int

	// Storage.
	GetState(addr types.Address, key types.Hash) types.Hash
	SetState(addr types.Address, key, value types.Hash)
	GetCommittedState(addr types.Address, key types.Hash) types.Hash

	// SELFDESTRUCT.
	SelfDestruct(addr types.Address)
	HasSelfDestructed(addr types.Address) bool

	// Host context stack: snapshot/revert. There is no explicit commit; a
	// snapshot that is never reverted simply stays in effect.
	Snapshot() int
	RevertToSnapshot(id int)

	// Gas refund counter.
	AddRefund(gas uint64)
	SubRefund(gas uint64)
	GetRefund() uint64

	// EIP-2929 access list.
	AddressInAccessList(addr types.Address) bool
	SlotInAccessList(addr types.Address, slot types.Hash) (addressOk, slotOk bool)
	AddAddressToAccessList(addr types.Address)
	AddSlotToAccessList(addr types.Address, slot types.Hash)

	// Logs.
	AddLog(log *types.Log)

	// BlockHash returns the hash of the ancestor block at the given
	// number, or the zero hash if it is out of the retrievable window.
	BlockHash(num uint64) types.Hash
}
