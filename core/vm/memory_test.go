package vm

import (
	"bytes"
	"testing"

	"github.com/holiman/uint256"
)

func TestMemoryResizeZeroFills(t *testing.T) {
	m := NewMemory()
	m.Resize(64)
	if m.Len() != 64 {
		t.Fatalf("resize: want len 64, got %d", m.Len())
	}
	got := m.Get(0, 64)
	if !bytes.Equal(got, make([]byte, 64)) {
		t.Fatalf("fresh memory must be zero-filled, got %x", got)
	}
}

func TestMemorySet32RoundTrip(t *testing.T) {
	m := NewMemory()
	m.Resize(32)
	val := uint256.NewInt(0xdeadbeef)
	m.Set32(0, val)
	got := new(uint256.Int).SetBytes(m.Get(0, 32))
	if !got.Eq(val) {
		t.Fatalf("round trip: got %s, want %s", got, val)
	}
}

func TestMemoryNeverShrinks(t *testing.T) {
	m := NewMemory()
	m.Resize(96)
	m.Resize(32)
	if m.Len() != 96 {
		t.Fatalf("resize to a smaller size must be a no-op, got len %d", m.Len())
	}
}

func TestMemoryGasCostQuadratic(t *testing.T) {
	// mcost(W) = 3*W + W^2/512
	got := MemoryGasCost(1)
	if got != 3 {
		t.Fatalf("mcost(1) = %d, want 3", got)
	}
	got = MemoryGasCost(512)
	want := uint64(3*512 + 512*512/512)
	if got != want {
		t.Fatalf("mcost(512) = %d, want %d", got, want)
	}
}

func TestMemoryExpansionGasIsDelta(t *testing.T) {
	cost := MemoryExpansionGas(0, 32)
	if cost != MemoryGasCost(1) {
		t.Fatalf("expanding from empty to one word should cost mcost(1), got %d", cost)
	}
	noGrowth := MemoryExpansionGas(64, 32)
	if noGrowth != 0 {
		t.Fatalf("shrinking request must cost 0, got %d", noGrowth)
	}
}
