package vm

import (
	"bytes"
	"crypto/sha256"
	"testing"
)

func TestDefaultPrecompilesAddresses(t *testing.T) {
	set := DefaultPrecompiles()
	for _, n := range []byte{1, 2, 3, 4} {
		if _, ok := set[precompileAddr(n)]; !ok {
			t.Fatalf("missing precompile at address 0x%02x", n)
		}
	}
}

func TestSha256PrecompileDigest(t *testing.T) {
	p := sha256Precompile{}
	input := []byte("the quick brown fox")
	out, err := p.Run(input)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := sha256.Sum256(input)
	if !bytes.Equal(out, want[:]) {
		t.Fatalf("digest mismatch: got %x, want %x", out, want)
	}
}

func TestSha256PrecompileGas(t *testing.T) {
	p := sha256Precompile{}
	if g := p.RequiredGas(make([]byte, 0)); g != 60 {
		t.Fatalf("empty input: gas = %d, want 60", g)
	}
	if g := p.RequiredGas(make([]byte, 32)); g != 72 {
		t.Fatalf("one word: gas = %d, want 72", g)
	}
	if g := p.RequiredGas(make([]byte, 33)); g != 84 {
		t.Fatalf("one word + 1 byte rounds up to two words: gas = %d, want 84", g)
	}
}

func TestIdentityPrecompileEchoesInput(t *testing.T) {
	p := identityPrecompile{}
	input := []byte{1, 2, 3, 4, 5}
	out, err := p.Run(input)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !bytes.Equal(out, input) {
		t.Fatalf("identity must echo its input: got %x, want %x", out, input)
	}
}

func TestEcrecoverRejectsInvalidRecoveryID(t *testing.T) {
	p := ecrecoverPrecompile{}
	input := make([]byte, 128)
	input[63] = 29 // not 27 or 28
	out, err := p.Run(input)
	if err != nil {
		t.Fatalf("an invalid signature is a soft failure, not a Go error: got %v", err)
	}
	if out != nil {
		t.Fatalf("invalid recovery id must yield empty output, got %x", out)
	}
}

func TestEcrecoverRejectsZeroSignature(t *testing.T) {
	p := ecrecoverPrecompile{}
	input := make([]byte, 128)
	input[63] = 27 // valid v, but r = s = 0
	out, err := p.Run(input)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != nil {
		t.Fatalf("r=s=0 is not a valid signature, must yield empty output, got %x", out)
	}
}

func TestEcrecoverGasIsFlat(t *testing.T) {
	p := ecrecoverPrecompile{}
	if g := p.RequiredGas(nil); g != 3000 {
		t.Fatalf("ECRECOVER gas = %d, want flat 3000", g)
	}
	if g := p.RequiredGas(make([]byte, 1000)); g != 3000 {
		t.Fatalf("ECRECOVER gas must not vary with input size, got %d", g)
	}
}
