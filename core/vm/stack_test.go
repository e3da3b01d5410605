package vm

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestStackPushPopOrder(t *testing.T) {
	s := NewStack()
	for i := uint64(0); i < 5; i++ {
		if err := s.Push(uint256.NewInt(i)); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	for i := uint64(4); ; i-- {
		v, err := s.Pop()
		if err != nil {
			t.Fatalf("pop: %v", err)
		}
		if v.Uint64() != i {
			t.Fatalf("pop order: got %d, want %d", v.Uint64(), i)
		}
		if i == 0 {
			break
		}
	}
}

func TestStackOverflow(t *testing.T) {
	s := NewStack()
	for i := 0; i < stackLimit; i++ {
		if err := s.Push(uint256.NewInt(1)); err != nil {
			t.Fatalf("unexpected push failure at %d: %v", i, err)
		}
	}
	if err := s.Push(uint256.NewInt(1)); err != ErrStackOverflow {
		t.Fatalf("want ErrStackOverflow, got %v", err)
	}
}

func TestStackUnderflow(t *testing.T) {
	s := NewStack()
	if _, err := s.Pop(); err != ErrStackUnderflow {
		t.Fatalf("want ErrStackUnderflow, got %v", err)
	}
	if _, err := s.Back(0); err != ErrStackUnderflow {
		t.Fatalf("want ErrStackUnderflow from Back, got %v", err)
	}
}

func TestStackSwap(t *testing.T) {
	s := NewStack()
	s.Push(uint256.NewInt(1))
	s.Push(uint256.NewInt(2))
	s.Push(uint256.NewInt(3))
	if err := s.Swap(2); err != nil {
		t.Fatalf("swap: %v", err)
	}
	top, _ := s.Back(0)
	bottom, _ := s.Back(2)
	if top.Uint64() != 1 || bottom.Uint64() != 3 {
		t.Fatalf("swap(2) did not exchange top and third: top=%d bottom=%d", top.Uint64(), bottom.Uint64())
	}
}

func TestStackDup(t *testing.T) {
	s := NewStack()
	s.Push(uint256.NewInt(42))
	if err := s.Dup(1); err != nil {
		t.Fatalf("dup: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("dup should grow stack by one, got len %d", s.Len())
	}
	top, _ := s.Back(0)
	if top.Uint64() != 42 {
		t.Fatalf("dup did not copy value: got %d", top.Uint64())
	}
}
