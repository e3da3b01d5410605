package state

import "github.com/berlinvm/berlinvm/common/types"

// accessList tracks warm addresses and storage slots per EIP-2929: every
// address and slot a transaction touches is added once and stays warm for
// the rest of that transaction, which is what makes repeated access cheap.
type accessList struct {
	addresses map[types.Address]int     // address -> index into slots, or -1 if it has none
	slots     []map[types.Hash]struct{} // slot sets indexed by address entry
}

func newAccessList() *accessList {
	return &accessList{addresses: make(map[types.Address]int)}
}

// AddAddress marks addr warm. Returns true if it was already warm.
func (al *accessList) AddAddress(addr types.Address) bool {
	if _, ok := al.addresses[addr]; ok {
		return true
	}
	al.addresses[addr] = -1
	return false
}

// AddSlot marks (addr, slot) warm. Returns whether the address and the slot
// were already warm.
func (al *accessList) AddSlot(addr types.Address, slot types.Hash) (addrPresent bool, slotPresent bool) {
	idx, addrPresent := al.addresses[addr]
	if addrPresent && idx != -1 {
		if _, ok := al.slots[idx][slot]; ok {
			return true, true
		}
		al.slots[idx][slot] = struct{}{}
		return true, false
	}
	al.addresses[addr] = len(al.slots)
	al.slots = append(al.slots, map[types.Hash]struct{}{slot: {}})
	return addrPresent, false
}

func (al *accessList) ContainsAddress(addr types.Address) bool {
	_, ok := al.addresses[addr]
	return ok
}

func (al *accessList) ContainsSlot(addr types.Address, slot types.Hash) (addressOk bool, slotOk bool) {
	idx, ok := al.addresses[addr]
	if !ok {
		return false, false
	}
	if idx == -1 {
		return true, false
	}
	_, slotOk = al.slots[idx][slot]
	return true, slotOk
}

// DeleteAddress removes addr from the access list. Used only by journal revert.
func (al *accessList) DeleteAddress(addr types.Address) {
	delete(al.addresses, addr)
}

// DeleteSlot removes a slot from an address's warm set. Used only by journal revert.
func (al *accessList) DeleteSlot(addr types.Address, slot types.Hash) {
	idx, ok := al.addresses[addr]
	if !ok || idx == -1 {
		return
	}
	delete(al.slots[idx], slot)
}
