// Package types defines the core value types shared by the interpreter, the
// host state, and the transaction executor: 32-byte hashes, 20-byte
// addresses, accounts and logs.
package types

import (
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	HashLength    = 32
	AddressLength = 20
)

// Hash is a 32-byte Keccak256 digest.
type Hash [HashLength]byte

// Address is a 20-byte account address.
type Address [AddressLength]byte

// BytesToHash converts b to a Hash, left-padding if shorter than 32 bytes
// and truncating from the left if longer.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash converts a hex string (with or without 0x prefix) to a Hash.
func HexToHash(s string) Hash { return BytesToHash(fromHex(s)) }

func (h Hash) Bytes() []byte { return h[:] }
func (h Hash) Hex() string   { return fmt.Sprintf("0x%x", h[:]) }
func (h Hash) String() string { return h.Hex() }
func (h Hash) IsZero() bool { return h == Hash{} }

func (h *Hash) SetBytes(b []byte) {
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// BytesToAddress converts b to an Address, left-padding if shorter than 20
// bytes and truncating from the left if longer.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// HexToAddress converts a hex string (with or without 0x prefix) to an Address.
func HexToAddress(s string) Address { return BytesToAddress(fromHex(s)) }

func (a Address) Bytes() []byte  { return a[:] }
func (a Address) Hex() string    { return fmt.Sprintf("0x%x", a[:]) }
func (a Address) String() string { return a.Hex() }
func (a Address) IsZero() bool   { return a == Address{} }

func (a *Address) SetBytes(b []byte) {
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// Account is the state the interpreter's Host exposes for a single address:
// nonce, balance and the hash of its code (empty for externally owned
// accounts).
type Account struct {
	Nonce    uint64
	Balance  *big.Int
	CodeHash Hash
}

// NewAccount returns a freshly created account with zero balance and the
// hash of empty code.
func NewAccount() Account {
	return Account{Balance: new(big.Int), CodeHash: EmptyCodeHash}
}

// Log is a single event emitted by LOG0..LOG4.
type Log struct {
	Address Address
	Topics  []Hash
	Data    []byte
}

var (
	// EmptyCodeHash is Keccak256 of the empty byte string, i.e. the
	// CodeHash of every account that has no code.
	EmptyCodeHash = HexToHash("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")
)

func fromHex(s string) []byte {
	if has0xPrefix(s) {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, _ := hex.DecodeString(s)
	return b
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
