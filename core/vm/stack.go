package vm

import "github.com/holiman/uint256"

// stackLimit is the maximum number of items the EVM operand stack may hold.
const stackLimit = 1024

// Stack is the EVM operand stack: up to 1024 256-bit words, last-in
// first-out. It is backed by a fixed array so Push/Pop never allocate on
// the hot path.
type Stack struct {
	data [stackLimit]uint256.Int
	top  int // number of items currently on the stack
}

// NewStack returns a new, empty Stack.
func NewStack() *Stack {
	return &Stack{}
}

// Push pushes val onto the stack, copying it so later mutation of the
// caller's Word cannot alias stack state.
func (s *Stack) Push(val *uint256.Int) error {
	if s.top >= stackLimit {
		return ErrStackOverflow
	}
	s.data[s.top].Set(val)
	s.top++
	return nil
}

// Pop removes and returns the top element.
func (s *Stack) Pop() (uint256.Int, error) {
	if s.top == 0 {
		return uint256.Int{}, ErrStackUnderflow
	}
	s.top--
	return s.data[s.top], nil
}

// Peek returns a pointer to the top element without removing it. The
// pointer aliases stack storage and must not be retained past the next
// stack mutation.
func (s *Stack) Peek() (*uint256.Int, error) {
	return s.Back(0)
}

// Back returns the n-th element from the top (0 = top) without removing it.
func (s *Stack) Back(n int) (*uint256.Int, error) {
	if n < 0 || n >= s.top {
		return nil, ErrStackUnderflow
	}
	return &s.data[s.top-1-n], nil
}

// Swap exchanges the top element with the n-th element from the top
// (1 <= n <= 16, matching SWAP1..SWAP16).
func (s *Stack) Swap(n int) error {
	if n < 1 || n > 16 {
		return ErrInvalidOpCode
	}
	if s.top <= n {
		return ErrStackUnderflow
	}
	top := s.top - 1
	s.data[top], s.data[top-n] = s.data[top-n], s.data[top]
	return nil
}

// Dup duplicates the n-th element from the top and pushes the copy
// (1 <= n <= 16, matching DUP1..DUP16).
func (s *Stack) Dup(n int) error {
	if n < 1 || n > 16 {
		return ErrInvalidOpCode
	}
	if s.top < n {
		return ErrStackUnderflow
	}
	if s.top >= stackLimit {
		return ErrStackOverflow
	}
	s.data[s.top].Set(&s.data[s.top-n])
	s.top++
	return nil
}

// Len returns the number of items currently on the stack.
func (s *Stack) Len() int { return s.top }

// Require returns ErrStackUnderflow if the stack holds fewer than n items.
func (s *Stack) Require(n int) error {
	if s.top < n {
		return ErrStackUnderflow
	}
	return nil
}
