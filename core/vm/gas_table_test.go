package vm

import (
	"testing"

	"github.com/berlinvm/berlinvm/common/types"
)

func TestCallGasForwardsAtMost63Of64(t *testing.T) {
	// EIP-150: of 6400 available, at most 6400 - 6400/64 = 6300 may forward.
	got := CallGas(6400, 6400)
	want := uint64(6300)
	if got != want {
		t.Fatalf("CallGas(6400, 6400) = %d, want %d", got, want)
	}
}

func TestCallGasCapsAtRequested(t *testing.T) {
	got := CallGas(6400, 100)
	if got != 100 {
		t.Fatalf("requesting less than the 63/64 cap should forward exactly the request, got %d", got)
	}
}

func TestSstoreGasZeroToNonZeroIsSet(t *testing.T) {
	var zero, one types.Hash
	one[31] = 1
	gas, refund := SstoreGas(zero, zero, one, true)
	if gas != SstoreSetGas+ColdSloadCost {
		t.Fatalf("zero->nonzero on a cold slot: gas = %d, want %d", gas, SstoreSetGas+ColdSloadCost)
	}
	if refund != 0 {
		t.Fatalf("zero->nonzero grants no refund, got %d", refund)
	}
}

func TestSstoreGasNonZeroToZeroRefunds(t *testing.T) {
	var zero, one types.Hash
	one[31] = 1
	gas, refund := SstoreGas(one, one, zero, false)
	if gas != SstoreResetGas {
		t.Fatalf("nonzero->zero on a warm slot: gas = %d, want %d", gas, SstoreResetGas)
	}
	if refund != int64(SstoreClearRefund) {
		t.Fatalf("clearing a slot to zero should refund %d, got %d", SstoreClearRefund, refund)
	}
}

func TestSstoreGasNoopIsWarmReadOnly(t *testing.T) {
	var one types.Hash
	one[31] = 1
	gas, refund := SstoreGas(one, one, one, false)
	if gas != WarmStorageReadCost {
		t.Fatalf("no-op SSTORE on a warm slot costs %d, got %d", WarmStorageReadCost, gas)
	}
	if refund != 0 {
		t.Fatalf("no-op SSTORE grants no refund, got %d", refund)
	}
}

func TestApplyRefundCapIsOneFifth(t *testing.T) {
	got := ApplyRefundCap(1000, 1000)
	if got != 200 {
		t.Fatalf("refund cap at gasUsed=1000 should be 200, got %d", got)
	}
	got = ApplyRefundCap(1000, 50)
	if got != 50 {
		t.Fatalf("refund below the cap should pass through unchanged, got %d", got)
	}
}
