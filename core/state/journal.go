package state

import (
	"github.com/berlinvm/berlinvm/common/types"
	"github.com/holiman/uint256"
)

// journalEntry is a single revertible state mutation.
type journalEntry interface {
	revert(s *MemoryStateDB)
}

// journal tracks every state mutation made during a transaction so any
// snapshot taken along the way can be unwound in reverse order.
type journal struct {
	entries   []journalEntry
	snapshots map[int]int // snapshot ID -> entry index at the time it was taken
	nextID    int
}

func newJournal() *journal {
	return &journal{snapshots: make(map[int]int)}
}

func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
}

func (j *journal) snapshot() int {
	id := j.nextID
	j.nextID++
	j.snapshots[id] = len(j.entries)
	return id
}

func (j *journal) revertToSnapshot(id int, s *MemoryStateDB) {
	idx, ok := j.snapshots[id]
	if !ok {
		return
	}
	for i := len(j.entries) - 1; i >= idx; i-- {
		j.entries[i].revert(s)
	}
	j.entries = j.entries[:idx]
	for sid := range j.snapshots {
		if sid >= id {
			delete(j.snapshots, sid)
		}
	}
}

// --- concrete journal entries ---

type createAccountChange struct {
	addr types.Address
	prev *stateObject // nil if the account did not already exist
}

func (ch createAccountChange) revert(s *MemoryStateDB) {
	if ch.prev == nil {
		delete(s.objects, ch.addr)
	} else {
		s.objects[ch.addr] = ch.prev
	}
}

type balanceChange struct {
	addr types.Address
	prev *uint256.Int
}

func (ch balanceChange) revert(s *MemoryStateDB) {
	s.objects[ch.addr].balance = ch.prev
}

type nonceChange struct {
	addr types.Address
	prev uint64
}

func (ch nonceChange) revert(s *MemoryStateDB) {
	s.objects[ch.addr].nonce = ch.prev
}

type codeChange struct {
	addr     types.Address
	prevCode []byte
	prevHash types.Hash
}

func (ch codeChange) revert(s *MemoryStateDB) {
	obj := s.objects[ch.addr]
	obj.code = ch.prevCode
	obj.codeHash = ch.prevHash
}

type storageChange struct {
	addr       types.Address
	key        types.Hash
	prev       types.Hash
	prevExists bool
}

func (ch storageChange) revert(s *MemoryStateDB) {
	obj := s.objects[ch.addr]
	if ch.prevExists {
		obj.dirtyStorage[ch.key] = ch.prev
	} else {
		delete(obj.dirtyStorage, ch.key)
	}
}

type selfDestructChange struct {
	addr           types.Address
	prevDestructed bool
	prevBalance    *uint256.Int
}

func (ch selfDestructChange) revert(s *MemoryStateDB) {
	obj := s.objects[ch.addr]
	obj.selfDestructed = ch.prevDestructed
	obj.balance = ch.prevBalance
}

type logChange struct {
	txHash  types.Hash
	prevLen int
}

func (ch logChange) revert(s *MemoryStateDB) {
	s.logs[ch.txHash] = s.logs[ch.txHash][:ch.prevLen]
}

type refundChange struct {
	prev uint64
}

func (ch refundChange) revert(s *MemoryStateDB) {
	s.refund = ch.prev
}

type accessListAddAccountChange struct {
	addr types.Address
}

func (ch accessListAddAccountChange) revert(s *MemoryStateDB) {
	s.accessList.DeleteAddress(ch.addr)
}

type accessListAddSlotChange struct {
	addr types.Address
	slot types.Hash
}

func (ch accessListAddSlotChange) revert(s *MemoryStateDB) {
	s.accessList.DeleteSlot(ch.addr, ch.slot)
}
