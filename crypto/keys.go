package crypto

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/crypto"
)

// AddressPrefix defines the human-readable prefix used in bech32 addresses.
type AddressPrefix string

const (
	VCHPrefix AddressPrefix = "vch"
)

// Address represents a 20-byte account or contract address with a specific
// prefix.
type Address struct {
	prefix AddressPrefix
	bytes  []byte
}

func NewAddress(prefix AddressPrefix, b []byte) (Address, error) {
	if len(b) != 20 {
		return Address{}, fmt.Errorf("address must be 20 bytes long, got %d", len(b))
	}
	return Address{prefix: prefix, bytes: append([]byte(nil), b...)}, nil
}

// MustNewAddress is NewAddress for inputs already known to be 20 bytes.
func MustNewAddress(prefix AddressPrefix, b []byte) Address {
	addr, err := NewAddress(prefix, b)
	if err != nil {
		panic(err)
	}
	return addr
}

func (a Address) String() string {
	conv, err := bech32.ConvertBits(a.bytes, 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(string(a.prefix), conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

func (a Address) Bytes() []byte {
	return a.bytes
}

// Prefix returns the human-readable prefix associated with the address.
func (a Address) Prefix() AddressPrefix {
	return a.prefix
}

// Account returns the address as the fixed-size array used throughout the
// contracts.
func (a Address) Account() [20]byte {
	var out [20]byte
	copy(out[:], a.bytes)
	return out
}

func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("error converting bits: %w", err)
	}
	return NewAddress(AddressPrefix(prefix), conv)
}

// ParseAccount decodes a vch bech32 string into a raw account.
func ParseAccount(addrStr string) ([20]byte, error) {
	var out [20]byte
	addr, err := DecodeAddress(addrStr)
	if err != nil {
		return out, err
	}
	if addr.Prefix() != VCHPrefix {
		return out, fmt.Errorf("unsupported address prefix %q", addr.Prefix())
	}
	return addr.Account(), nil
}

// FormatAccount renders a raw account with the vch prefix.
func FormatAccount(account [20]byte) string {
	return MustNewAddress(VCHPrefix, account[:]).String()
}

// IsZero reports whether the account is the all-zero address.
func IsZero(account [20]byte) bool {
	return account == [20]byte{}
}

// --- Deterministic contract addresses ---

// ContractAddress derives the address of a contract instance from the
// deploying principal, a salt and the hash of the deployed code:
// keccak256(0xff || deployer || salt || codeHash)[12:].
func ContractAddress(deployer [20]byte, salt [32]byte, codeHash [32]byte) [20]byte {
	hash := crypto.Keccak256([]byte{0xff}, deployer[:], salt[:], codeHash[:])
	var out [20]byte
	copy(out[:], hash[12:])
	return out
}

// CounterSalt encodes a monotonic counter into the last four bytes of a salt.
func CounterSalt(counter uint32) [32]byte {
	var salt [32]byte
	binary.BigEndian.PutUint32(salt[28:], counter)
	return salt
}

// AccountFromSeed derives a stable account from an arbitrary seed string.
// Intended for fixtures and tooling, not for key material.
func AccountFromSeed(seed string) [20]byte {
	hash := crypto.Keccak256([]byte(seed))
	var out [20]byte
	copy(out[:], hash[12:])
	return out
}

// LabelSalt derives a salt from a human-readable label.
func LabelSalt(label string) [32]byte {
	var salt [32]byte
	copy(salt[:], crypto.Keccak256([]byte(label)))
	return salt
}
