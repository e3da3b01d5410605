package vm

import "github.com/holiman/uint256"

// Memory is the EVM's byte-addressable, word-aligned scratch space. It
// starts empty and grows only via Resize, which zero-fills the new region;
// the interpreter always passes Resize a whole number of 32-byte words.
type Memory struct {
	store []byte
}

// NewMemory returns a new, empty Memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Len returns the current size of memory in bytes.
func (m *Memory) Len() int { return len(m.store) }

// Resize grows memory to size bytes if it is currently smaller. size must
// already be a multiple of 32 (callers compute this via toWordSize before
// calling Resize); it is never shrunk.
func (m *Memory) Resize(size uint64) {
	if uint64(len(m.store)) < size {
		m.store = append(m.store, make([]byte, size-uint64(len(m.store)))...)
	}
}

// Set writes value into memory at offset. The caller must have already
// grown memory to cover [offset, offset+size) via Resize.
func (m *Memory) Set(offset, size uint64, value []byte) {
	if size == 0 {
		return
	}
	if offset+size > uint64(len(m.store)) {
		panic("vm: memory write out of bounds")
	}
	copy(m.store[offset:offset+size], value)
}

// Set32 writes a 256-bit word at offset, right-aligned within the 32-byte
// slot (i.e. the word's big-endian encoding).
func (m *Memory) Set32(offset uint64, val *uint256.Int) {
	if offset+32 > uint64(len(m.store)) {
		panic("vm: memory write out of bounds")
	}
	b := val.Bytes32()
	copy(m.store[offset:offset+32], b[:])
}

// Get returns a copy of size bytes starting at offset. Reads past the end
// of memory are not possible by construction: callers must Resize first.
func (m *Memory) Get(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	cpy := make([]byte, size)
	copy(cpy, m.store[offset:offset+size])
	return cpy
}

// GetPtr returns a slice into memory's backing array without copying.
// Callers must not retain it past the next Resize.
func (m *Memory) GetPtr(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	return m.store[offset : offset+size]
}

// Data returns the full backing array.
func (m *Memory) Data() []byte { return m.store }
