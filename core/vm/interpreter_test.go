package vm

import (
	"testing"

	"github.com/berlinvm/berlinvm/common/types"
)

// PUSH2 0x5B5B (two bytes that look like JUMPDEST) must never be a valid
// jump target: both bytes are PUSH immediate data, not instructions.
func TestPushImmediateNeverValidJumpdest(t *testing.T) {
	code := []byte{byte(PUSH2), 0x5b, 0x5b, byte(JUMPDEST)}
	frame := NewFrame(types.Address{}, types.Address{}, types.Address{}, code, types.Hash{}, nil, 1_000_000, nil, false)

	if frame.ValidJumpdest(1) {
		t.Fatalf("position 1 is a PUSH2 immediate byte, must not be a valid jumpdest")
	}
	if frame.ValidJumpdest(2) {
		t.Fatalf("position 2 is a PUSH2 immediate byte, must not be a valid jumpdest")
	}
	if !frame.ValidJumpdest(3) {
		t.Fatalf("position 3 is a real JUMPDEST instruction, must be valid")
	}
}

func TestGetOpPastEndOfCodeIsStop(t *testing.T) {
	frame := NewFrame(types.Address{}, types.Address{}, types.Address{}, []byte{byte(ADD)}, types.Hash{}, nil, 0, nil, false)
	if frame.GetOp(5) != STOP {
		t.Fatalf("reading past the end of code must yield implicit STOP")
	}
}
