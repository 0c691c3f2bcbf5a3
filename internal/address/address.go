package address

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidAddress is returned when an identifier is not a 20-byte hex account.
var ErrInvalidAddress = errors.New("invalid address")

// hexLength is the number of hex digits in an EVM account identifier.
const hexLength = 2 * common.AddressLength

// Address is a canonical account identifier: lowercase, single "0x" prefix,
// 40 hex digits. The zero value is the empty address and never matches.
type Address string

// Normalize canonicalizes a raw identifier.
func Normalize(raw string) (Address, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	for strings.HasPrefix(s, "0x") {
		s = s[2:]
	}
	if len(s) != hexLength {
		return "", fmt.Errorf("%w: %q has %d hex digits, want %d", ErrInvalidAddress, raw, len(s), hexLength)
	}
	canonical := "0x" + s
	if !common.IsHexAddress(canonical) {
		return "", fmt.Errorf("%w: %q is not hexadecimal", ErrInvalidAddress, raw)
	}
	return Address(canonical), nil
}

// MustNormalize is Normalize for constants and tests.
func MustNormalize(raw string) Address {
	addr, err := Normalize(raw)
	if err != nil {
		panic(err)
	}
	return addr
}

// Collect normalizes inputs and drops empty, invalid and duplicate values,
// preserving first-seen order.
func Collect(inputs ...string) []Address {
	out := make([]Address, 0, len(inputs))
	seen := make(map[Address]struct{}, len(inputs))
	for _, input := range inputs {
		addr, err := Normalize(input)
		if err != nil {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}

// String returns the canonical form.
func (a Address) String() string { return string(a) }

// IsZero reports whether a is the empty address.
func (a Address) IsZero() bool { return a == "" }

// Common converts a to a go-ethereum address for RPC calls.
func (a Address) Common() common.Address {
	return common.HexToAddress(string(a))
}

// Contains reports whether target is one of set.
func Contains(set []Address, target Address) bool {
	if target.IsZero() {
		return false
	}
	for _, a := range set {
		if a == target {
			return true
		}
	}
	return false
}
