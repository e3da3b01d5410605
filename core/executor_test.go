package core_test

import (
	"testing"

	"github.com/berlinvm/berlinvm/common/types"
	"github.com/berlinvm/berlinvm/core"
	"github.com/berlinvm/berlinvm/core/state"
	"github.com/berlinvm/berlinvm/core/vm"
	"github.com/holiman/uint256"
)

func newInterp(db *state.MemoryStateDB) *vm.Interpreter {
	return vm.NewInterpreter(db, 1, vm.BlockContext{
		GasLimit:    30_000_000,
		BlockNumber: 1,
		Difficulty:  new(uint256.Int),
		BaseFee:     new(uint256.Int),
		GetHash:     func(uint64) types.Hash { return types.Hash{} },
	}, vm.TxContext{
		Origin:   types.Address{},
		GasPrice: uint256.NewInt(1),
	})
}

func deploy(db *state.MemoryStateDB, addr types.Address, code []byte) {
	db.CreateAccount(addr)
	db.SetCode(addr, code)
}

// Scenario 1: PUSH1 5, PUSH1 10, ADD, PUSH1 10, SSTORE, STOP against a
// fresh cold slot. Expects storage[10] = 15 and an exact gas total.
func TestAddAndSstoreToFreshSlot(t *testing.T) {
	db := state.NewMemoryStateDB(nil)
	sender := types.HexToAddress("0x01")
	contract := types.HexToAddress("0x02")
	db.CreateAccount(sender)
	db.AddBalance(sender, uint256.NewInt(1_000_000))
	deploy(db, contract, []byte{
		0x60, 0x05, // PUSH1 5
		0x60, 0x0a, // PUSH1 10
		0x01,       // ADD
		0x60, 0x0a, // PUSH1 10
		0x55, // SSTORE
		0x00, // STOP
	})

	interp := newInterp(db)
	msg := &core.Message{
		From:     sender,
		To:       &contract,
		Nonce:    0,
		Value:    new(uint256.Int),
		GasLimit: 50000,
		GasPrice: uint256.NewInt(1),
	}
	res, err := core.ExecuteTransaction(interp, db, msg)
	if err != nil {
		t.Fatalf("ExecuteTransaction: %v", err)
	}
	if res.Reverted || res.Err != nil {
		t.Fatalf("unexpected failure: reverted=%v err=%v", res.Reverted, res.Err)
	}

	var slot types.Hash
	slot[31] = 10
	got := db.GetState(contract, slot)
	var want types.Hash
	want[31] = 15
	if got != want {
		t.Fatalf("storage[10] = %x, want %x", got, want)
	}

	const wantGas = 21000 + 3 + 3 + 3 + 3 + (2100 + 20000)
	if res.UsedGas != wantGas {
		t.Fatalf("gas used = %d, want %d", res.UsedGas, wantGas)
	}
}

// Scenario 2: PUSH1 0x20, PUSH1 0, MSTORE with a gas limit below intrinsic
// plus the MSTORE cost. Expects a fatal out-of-gas error and no storage
// side effects.
func TestOutOfGasOnMstoreConsumesAllGas(t *testing.T) {
	db := state.NewMemoryStateDB(nil)
	sender := types.HexToAddress("0x01")
	contract := types.HexToAddress("0x02")
	db.CreateAccount(sender)
	db.AddBalance(sender, uint256.NewInt(1_000_000))
	deploy(db, contract, []byte{
		0x60, 0x20, // PUSH1 32
		0x60, 0x00, // PUSH1 0
		0x52, // MSTORE
	})

	interp := newInterp(db)
	msg := &core.Message{
		From:     sender,
		To:       &contract,
		Nonce:    0,
		Value:    new(uint256.Int),
		GasLimit: 21006, // intrinsic (21000) + 3 + 3, short of MSTORE's memory+op cost
		GasPrice: uint256.NewInt(1),
	}
	res, err := core.ExecuteTransaction(interp, db, msg)
	if err != nil {
		t.Fatalf("ExecuteTransaction: %v", err)
	}
	if res.Err == nil {
		t.Fatalf("expected an out-of-gas error, got success")
	}
	if res.UsedGas != msg.GasLimit {
		t.Fatalf("out-of-gas must consume the entire gas limit: used %d, limit %d", res.UsedGas, msg.GasLimit)
	}
}

// Scenario 3: A calls B; B writes storage then REVERTs. A observes a
// failed sub-call (its CALL pushes 0), B's write never commits, and A's
// own later SSTORE still takes effect.
func TestNestedCallRevertDiscardsCalleeWrites(t *testing.T) {
	db := state.NewMemoryStateDB(nil)
	caller := types.HexToAddress("0x01")
	a := types.HexToAddress("0x0a")
	b := types.HexToAddress("0x0b")
	db.CreateAccount(caller)
	deploy(db, b, []byte{
		0x60, 0x63, // PUSH1 99
		0x60, 0x01, // PUSH1 1
		0x55,       // SSTORE
		0x60, 0x00, 0x60, 0x00, 0xfd, // PUSH1 0, PUSH1 0, REVERT
	})
	deploy(db, a, []byte{
		0x60, 0x00, 0x60, 0x00, 0x60, 0x00, 0x60, 0x00, // retLen, retOff, argsLen, argsOff
		0x60, 0x00, // PUSH1 0 (value)
		0x60, 0x0b, // PUSH1 B
		0x5a,       // GAS
		0xf1,       // CALL
		0x60, 0x00, 0x52, // PUSH1 0, MSTORE (call result)
		0x60, 0x07, 0x60, 0x02, 0x55, // SSTORE slot 2 = 7
		0x60, 0x20, 0x60, 0x00, 0xf3, // PUSH1 32, PUSH1 0, RETURN
	})

	interp := newInterp(db)
	ret, _, err := interp.Call(caller, a, nil, 1_000_000, new(uint256.Int))
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got := new(uint256.Int).SetBytes(ret); !got.IsZero() {
		t.Fatalf("CALL into a reverting callee must push 0, got %x", got)
	}

	var slot types.Hash
	slot[31] = 1
	if got := db.GetState(b, slot); got != (types.Hash{}) {
		t.Fatalf("reverted write must not be observable: got %x", got)
	}
	var slotA, wantA types.Hash
	slotA[31] = 2
	wantA[31] = 7
	if got := db.GetState(a, slotA); got != wantA {
		t.Fatalf("caller's own SSTORE after the failed call must persist: got %x, want %x", got, wantA)
	}
}

// Scenario 4: CREATE2 address derivation is deterministic and matches
// keccak256(0xff || sender || salt || keccak256(initcode))[12:].
func TestCreate2AddressIsDeterministic(t *testing.T) {
	db := state.NewMemoryStateDB(nil)
	sender := types.HexToAddress("0x01")
	db.CreateAccount(sender)
	db.AddBalance(sender, uint256.NewInt(1_000_000))

	interp := newInterp(db)
	var salt [32]byte

	// init code: PUSH1 0, PUSH1 0, RETURN (returns empty bytes).
	initCode := []byte{0x60, 0x00, 0x60, 0x00, 0xf3}

	_, addr1, _, err := interp.Create2(sender, initCode, 1_000_000, new(uint256.Int), salt)
	if err != nil {
		t.Fatalf("create2: %v", err)
	}

	db2 := state.NewMemoryStateDB(nil)
	db2.CreateAccount(sender)
	db2.AddBalance(sender, uint256.NewInt(1_000_000))
	interp2 := newInterp(db2)
	_, addr2, _, err := interp2.Create2(sender, initCode, 1_000_000, new(uint256.Int), salt)
	if err != nil {
		t.Fatalf("create2 (second run): %v", err)
	}

	if addr1 != addr2 {
		t.Fatalf("CREATE2 address must be deterministic: got %x and %x", addr1, addr2)
	}
}

// Scenario 5: STATICCALL into code that attempts SSTORE must fail with a
// static-context violation and consume the callee's forwarded gas, while
// the caller observes only a failed call (push 0), not a fatal error.
func TestStaticCallBlocksSstore(t *testing.T) {
	db := state.NewMemoryStateDB(nil)
	caller := types.HexToAddress("0x01")
	callee := types.HexToAddress("0x02")
	db.CreateAccount(caller)
	deploy(db, callee, []byte{
		0x60, 0x01, // PUSH1 1
		0x60, 0x00, // PUSH1 0
		0x55, // SSTORE
		0x00, // STOP
	})

	interp := newInterp(db)
	_, _, err := interp.StaticCall(caller, callee, nil, 100000)
	if err != vm.ErrWriteProtection {
		t.Fatalf("STATICCALL into an SSTORE must fail with ErrWriteProtection, got %v", err)
	}
}

// Scenario 6: SAR of 0x80...00 (the minimal negative value) by 1 sign-
// extends to 0xC0...00.
func TestSarSignExtends(t *testing.T) {
	db := state.NewMemoryStateDB(nil)
	caller := types.HexToAddress("0x01")
	callee := types.HexToAddress("0x02")
	db.CreateAccount(caller)

	var msb [32]byte
	msb[0] = 0x80
	code := []byte{0x7f} // PUSH32
	code = append(code, msb[:]...)
	code = append(code, 0x60, 0x01) // PUSH1 1
	code = append(code, 0x1d)       // SAR
	code = append(code, 0x60, 0x00) // PUSH1 0
	code = append(code, 0x52)       // MSTORE
	code = append(code, 0x60, 0x20, 0x60, 0x00, 0xf3) // PUSH1 32 PUSH1 0 RETURN
	deploy(db, callee, code)

	interp := newInterp(db)
	ret, _, err := interp.Call(caller, callee, nil, 100000, new(uint256.Int))
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	got := new(uint256.Int).SetBytes(ret)
	want := new(uint256.Int).SetBytes([]byte{0xc0})
	want.Lsh(want, 248)
	if !got.Eq(want) {
		t.Fatalf("SAR(0x80...00, 1) = %x, want %x", got, want)
	}
}

// Scenario 7: CREATE whose init code REVERTs must push 0, not the derived
// contract address, onto the stack (spec §4.7 and the §7 error table:
// revert -> push 0).
func TestCreateRevertPushesZeroNotAddress(t *testing.T) {
	db := state.NewMemoryStateDB(nil)
	caller := types.HexToAddress("0x01")
	callee := types.HexToAddress("0x02")
	db.CreateAccount(caller)
	db.AddBalance(caller, uint256.NewInt(1_000_000))

	// init code: PUSH1 0, PUSH1 0, REVERT.
	initCode := []byte{0x60, 0x00, 0x60, 0x00, 0xfd}

	var code []byte
	for i, b := range initCode {
		code = append(code, 0x60, b)       // PUSH1 <byte>
		code = append(code, 0x60, byte(i)) // PUSH1 <offset>
		code = append(code, 0x53)          // MSTORE8
	}
	code = append(code, 0x60, byte(len(initCode))) // PUSH1 size
	code = append(code, 0x60, 0x00)                // PUSH1 offset
	code = append(code, 0x60, 0x00)                // PUSH1 value
	code = append(code, 0xf0)                       // CREATE
	code = append(code, 0x60, 0x00, 0x52)           // PUSH1 0, MSTORE
	code = append(code, 0x60, 0x20, 0x60, 0x00, 0xf3) // PUSH1 32, PUSH1 0, RETURN
	deploy(db, callee, code)

	interp := newInterp(db)
	ret, _, err := interp.Call(caller, callee, nil, 1_000_000, new(uint256.Int))
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	got := new(uint256.Int).SetBytes(ret)
	if !got.IsZero() {
		t.Fatalf("CREATE with reverting init code must push 0, got %x", got)
	}
}
