// Package state provides an in-memory implementation of vm.Host: account
// balances, nonces, code and storage kept in Go maps, with journal-backed
// snapshot/revert and EIP-2929 access-list tracking. There is no trie and
// nothing is ever persisted to disk -- only the interface the interpreter
// depends on is in scope here, not durable world-state storage.
package state

import (
	"github.com/berlinvm/berlinvm/common/types"
	"github.com/berlinvm/berlinvm/core/vm"
	"github.com/berlinvm/berlinvm/crypto"
	"github.com/holiman/uint256"
)

// stateObject is one account's mutable state.
type stateObject struct {
	balance        *uint256.Int
	nonce          uint64
	code           []byte
	codeHash       types.Hash
	dirtyStorage   map[types.Hash]types.Hash
	committedStorage map[types.Hash]types.Hash
	selfDestructed bool
}

func newStateObject() *stateObject {
	return &stateObject{
		balance:          new(uint256.Int),
		codeHash:         types.EmptyCodeHash,
		dirtyStorage:     make(map[types.Hash]types.Hash),
		committedStorage: make(map[types.Hash]types.Hash),
	}
}

// GetHashFn resolves a block number to its hash, backing BlockHash/BLOCKHASH.
type GetHashFn func(num uint64) types.Hash

// MemoryStateDB is an in-memory vm.Host: every account lives in a Go map,
// every mutation is journaled, and Snapshot/RevertToSnapshot rewind the
// journal rather than any persistent store.
type MemoryStateDB struct {
	objects    map[types.Address]*stateObject
	journal    *journal
	logs       map[types.Hash][]*types.Log
	refund     uint64
	accessList *accessList

	getHash GetHashFn

	txHash  types.Hash
	txIndex int
}

// NewMemoryStateDB returns an empty state database. getHash may be nil if
// the caller never runs code that executes BLOCKHASH.
func NewMemoryStateDB(getHash GetHashFn) *MemoryStateDB {
	return &MemoryStateDB{
		objects:    make(map[types.Address]*stateObject),
		journal:    newJournal(),
		logs:       make(map[types.Hash][]*types.Log),
		accessList: newAccessList(),
		getHash:    getHash,
	}
}

func (s *MemoryStateDB) getObject(addr types.Address) *stateObject {
	return s.objects[addr]
}

func (s *MemoryStateDB) getOrNewObject(addr types.Address) *stateObject {
	if obj := s.objects[addr]; obj != nil {
		return obj
	}
	obj := newStateObject()
	s.objects[addr] = obj
	return obj
}

// --- accounts ---

func (s *MemoryStateDB) CreateAccount(addr types.Address) {
	prev := s.objects[addr]
	s.journal.append(createAccountChange{addr: addr, prev: prev})
	s.objects[addr] = newStateObject()
}

func (s *MemoryStateDB) Exist(addr types.Address) bool {
	return s.objects[addr] != nil
}

func (s *MemoryStateDB) Empty(addr types.Address) bool {
	obj := s.getObject(addr)
	if obj == nil {
		return true
	}
	return obj.nonce == 0 && obj.balance.IsZero() && obj.codeHash == types.EmptyCodeHash
}

func (s *MemoryStateDB) GetBalance(addr types.Address) *uint256.Int {
	if obj := s.getObject(addr); obj != nil {
		return new(uint256.Int).Set(obj.balance)
	}
	return new(uint256.Int)
}

func (s *MemoryStateDB) AddBalance(addr types.Address, amount *uint256.Int) {
	obj := s.getOrNewObject(addr)
	s.journal.append(balanceChange{addr: addr, prev: new(uint256.Int).Set(obj.balance)})
	obj.balance = new(uint256.Int).Add(obj.balance, amount)
}

func (s *MemoryStateDB) SubBalance(addr types.Address, amount *uint256.Int) {
	obj := s.getOrNewObject(addr)
	s.journal.append(balanceChange{addr: addr, prev: new(uint256.Int).Set(obj.balance)})
	obj.balance = new(uint256.Int).Sub(obj.balance, amount)
}

func (s *MemoryStateDB) GetNonce(addr types.Address) uint64 {
	if obj := s.getObject(addr); obj != nil {
		return obj.nonce
	}
	return 0
}

func (s *MemoryStateDB) SetNonce(addr types.Address, nonce uint64) {
	obj := s.getOrNewObject(addr)
	s.journal.append(nonceChange{addr: addr, prev: obj.nonce})
	obj.nonce = nonce
}

func (s *MemoryStateDB) GetCode(addr types.Address) []byte {
	if obj := s.getObject(addr); obj != nil {
		return obj.code
	}
	return nil
}

func (s *MemoryStateDB) SetCode(addr types.Address, code []byte) {
	obj := s.getOrNewObject(addr)
	s.journal.append(codeChange{addr: addr, prevCode: obj.code, prevHash: obj.codeHash})
	obj.code = code
	obj.codeHash = types.BytesToHash(crypto.Keccak256(code))
}

func (s *MemoryStateDB) GetCodeHash(addr types.Address) types.Hash {
	if obj := s.getObject(addr); obj != nil {
		return obj.codeHash
	}
	return types.Hash{}
}

func (s *MemoryStateDB) GetCodeSize(addr types.Address) int {
	if obj := s.getObject(addr); obj != nil {
		return len(obj.code)
	}
	return 0
}

// --- self-destruct ---

func (s *MemoryStateDB) SelfDestruct(addr types.Address) {
	obj := s.getObject(addr)
	if obj == nil {
		return
	}
	s.journal.append(selfDestructChange{
		addr:           addr,
		prevDestructed: obj.selfDestructed,
		prevBalance:    new(uint256.Int).Set(obj.balance),
	})
	obj.selfDestructed = true
	obj.balance = new(uint256.Int)
}

func (s *MemoryStateDB) HasSelfDestructed(addr types.Address) bool {
	if obj := s.getObject(addr); obj != nil {
		return obj.selfDestructed
	}
	return false
}

// --- storage ---

func (s *MemoryStateDB) GetState(addr types.Address, key types.Hash) types.Hash {
	obj := s.getObject(addr)
	if obj == nil {
		return types.Hash{}
	}
	if val, ok := obj.dirtyStorage[key]; ok {
		return val
	}
	return obj.committedStorage[key]
}

func (s *MemoryStateDB) SetState(addr types.Address, key, value types.Hash) {
	obj := s.getOrNewObject(addr)
	prevDirty, prevExists := obj.dirtyStorage[key]
	prev := obj.committedStorage[key]
	if prevExists {
		prev = prevDirty
	}
	s.journal.append(storageChange{addr: addr, key: key, prev: prev, prevExists: prevExists})
	obj.dirtyStorage[key] = value
}

func (s *MemoryStateDB) GetCommittedState(addr types.Address, key types.Hash) types.Hash {
	if obj := s.getObject(addr); obj != nil {
		return obj.committedStorage[key]
	}
	return types.Hash{}
}

// FinalizePreState folds current dirty storage into committed storage. Call
// this once after loading an account's pre-transaction state so that
// SSTORE's "original value" gas accounting sees the right baseline.
func (s *MemoryStateDB) FinalizePreState() {
	for _, obj := range s.objects {
		for key, val := range obj.dirtyStorage {
			obj.committedStorage[key] = val
		}
		obj.dirtyStorage = make(map[types.Hash]types.Hash)
	}
}

// --- snapshot / revert ---

func (s *MemoryStateDB) Snapshot() int {
	return s.journal.snapshot()
}

func (s *MemoryStateDB) RevertToSnapshot(id int) {
	s.journal.revertToSnapshot(id, s)
}

// --- logs ---

func (s *MemoryStateDB) SetTxContext(txHash types.Hash, txIndex int) {
	s.txHash = txHash
	s.txIndex = txIndex
}

func (s *MemoryStateDB) AddLog(log *types.Log) {
	txHash := s.txHash
	s.journal.append(logChange{txHash: txHash, prevLen: len(s.logs[txHash])})
	s.logs[txHash] = append(s.logs[txHash], log)
}

func (s *MemoryStateDB) GetLogs(txHash types.Hash) []*types.Log {
	return s.logs[txHash]
}

// --- refund counter ---

func (s *MemoryStateDB) AddRefund(gas uint64) {
	s.journal.append(refundChange{prev: s.refund})
	s.refund += gas
}

func (s *MemoryStateDB) SubRefund(gas uint64) {
	s.journal.append(refundChange{prev: s.refund})
	if gas > s.refund {
		s.refund = 0
		return
	}
	s.refund -= gas
}

func (s *MemoryStateDB) GetRefund() uint64 {
	return s.refund
}

// --- EIP-2929 access list ---

func (s *MemoryStateDB) AddAddressToAccessList(addr types.Address) {
	if !s.accessList.AddAddress(addr) {
		s.journal.append(accessListAddAccountChange{addr: addr})
	}
}

func (s *MemoryStateDB) AddSlotToAccessList(addr types.Address, slot types.Hash) {
	addrPresent, slotPresent := s.accessList.AddSlot(addr, slot)
	if !addrPresent {
		s.journal.append(accessListAddAccountChange{addr: addr})
	}
	if !slotPresent {
		s.journal.append(accessListAddSlotChange{addr: addr, slot: slot})
	}
}

func (s *MemoryStateDB) AddressInAccessList(addr types.Address) bool {
	return s.accessList.ContainsAddress(addr)
}

func (s *MemoryStateDB) SlotInAccessList(addr types.Address, slot types.Hash) (addressOk, slotOk bool) {
	return s.accessList.ContainsSlot(addr, slot)
}

// --- block hash ---

func (s *MemoryStateDB) BlockHash(num uint64) types.Hash {
	if s.getHash == nil {
		return types.Hash{}
	}
	return s.getHash(num)
}

var _ vm.Host = (*MemoryStateDB)(nil)
