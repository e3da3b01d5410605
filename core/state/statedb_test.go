package state

import (
	"testing"

	"github.com/berlinvm/berlinvm/common/types"
	"github.com/holiman/uint256"
)

func TestSnapshotRevertRestoresBalanceNonceAndStorage(t *testing.T) {
	db := NewMemoryStateDB(nil)
	addr := types.HexToAddress("0x01")
	db.CreateAccount(addr)
	db.AddBalance(addr, uint256.NewInt(100))
	db.SetNonce(addr, 1)
	var key, val types.Hash
	key[31] = 1
	val[31] = 42
	db.SetState(addr, key, val)

	snap := db.Snapshot()

	db.AddBalance(addr, uint256.NewInt(900))
	db.SetNonce(addr, 2)
	var val2 types.Hash
	val2[31] = 99
	db.SetState(addr, key, val2)

	db.RevertToSnapshot(snap)

	if got := db.GetBalance(addr); got.Uint64() != 100 {
		t.Fatalf("balance after revert = %d, want 100", got.Uint64())
	}
	if got := db.GetNonce(addr); got != 1 {
		t.Fatalf("nonce after revert = %d, want 1", got)
	}
	if got := db.GetState(addr, key); got != val {
		t.Fatalf("storage after revert = %x, want %x", got, val)
	}
}

func TestSnapshotRevertUndoesAccountCreation(t *testing.T) {
	db := NewMemoryStateDB(nil)
	addr := types.HexToAddress("0x02")

	snap := db.Snapshot()
	db.CreateAccount(addr)
	db.AddBalance(addr, uint256.NewInt(1))
	db.RevertToSnapshot(snap)

	if db.Exist(addr) {
		t.Fatalf("account created after the snapshot must not exist post-revert")
	}
}

func TestSnapshotRevertUndoesAccessList(t *testing.T) {
	db := NewMemoryStateDB(nil)
	addr := types.HexToAddress("0x03")
	var slot types.Hash
	slot[31] = 1

	snap := db.Snapshot()
	db.AddSlotToAccessList(addr, slot)
	addrOK, slotOK := db.SlotInAccessList(addr, slot)
	if !addrOK || !slotOK {
		t.Fatalf("expected address and slot to be warm before revert")
	}
	db.RevertToSnapshot(snap)

	addrOK, slotOK = db.SlotInAccessList(addr, slot)
	if addrOK || slotOK {
		t.Fatalf("access-list additions must be undone on revert")
	}
}

func TestNestedSnapshotsRevertIndependently(t *testing.T) {
	db := NewMemoryStateDB(nil)
	addr := types.HexToAddress("0x04")
	db.CreateAccount(addr)

	outer := db.Snapshot()
	db.SetNonce(addr, 1)
	inner := db.Snapshot()
	db.SetNonce(addr, 2)

	db.RevertToSnapshot(inner)
	if got := db.GetNonce(addr); got != 1 {
		t.Fatalf("reverting the inner snapshot should leave the outer write intact: nonce = %d, want 1", got)
	}

	db.RevertToSnapshot(outer)
	if got := db.GetNonce(addr); got != 0 {
		t.Fatalf("reverting the outer snapshot should undo everything after it: nonce = %d, want 0", got)
	}
}

func TestRefundCounterTracksAddAndSub(t *testing.T) {
	db := NewMemoryStateDB(nil)
	db.AddRefund(100)
	db.AddRefund(50)
	db.SubRefund(30)
	if got := db.GetRefund(); got != 120 {
		t.Fatalf("refund = %d, want 120", got)
	}
}

func TestFinalizePreStateFoldsDirtyIntoCommitted(t *testing.T) {
	db := NewMemoryStateDB(nil)
	addr := types.HexToAddress("0x05")
	db.CreateAccount(addr)
	var key, val types.Hash
	key[31] = 7
	val[31] = 1
	db.SetState(addr, key, val)

	if got := db.GetCommittedState(addr, key); got != (types.Hash{}) {
		t.Fatalf("committed state must not see an uncommitted dirty write, got %x", got)
	}

	db.FinalizePreState()

	if got := db.GetCommittedState(addr, key); got != val {
		t.Fatalf("FinalizePreState must fold dirty storage into committed, got %x want %x", got, val)
	}
}
