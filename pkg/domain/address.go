// Package domain holds identity primitives shared across modules.
package domain

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	dErrors "credo/pkg/domain-errors"
)

// AddressLength is the byte length of an account identity.
const AddressLength = 20

// Address identifies a caller, issuer, owner or credential subject.
// The zero value is the null identity: it is what the owner becomes after
// renunciation and is never a valid transfer target.
type Address [AddressLength]byte

// ZeroAddress is the null identity.
var ZeroAddress Address

// ParseAddress parses a 0x-prefixed, 40 hex digit address.
//
// All-lowercase and all-uppercase input is accepted as is. Mixed-case input must
// carry a valid EIP-55 checksum.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	raw, ok := strings.CutPrefix(s, "0x")
	if !ok {
		raw, ok = strings.CutPrefix(s, "0X")
	}
	if !ok {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address must start with 0x")
	}
	if len(raw) != 2*AddressLength {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address must be 40 hex characters")
	}

	var a Address
	if _, err := hex.Decode(a[:], []byte(raw)); err != nil {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address contains non-hex characters")
	}

	if raw != strings.ToLower(raw) && raw != strings.ToUpper(raw) {
		if a.checksumHex() != raw {
			return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address checksum mismatch")
		}
	}
	return a, nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromBytes converts a stored 20-byte value.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLength {
		return a, dErrors.New(dErrors.CodeInvalidInput, "address must be 20 bytes")
	}
	copy(a[:], b)
	return a, nil
}

// Bytes returns a copy of the raw 20 bytes.
func (a Address) Bytes() []byte {
	return append([]byte(nil), a[:]...)
}

// IsZero reports whether a is the null identity.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// String renders the EIP-55 checksummed form.
func (a Address) String() string {
	return "0x" + a.checksumHex()
}

// Hex renders the lowercase form used as a storage key.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// checksumHex applies EIP-55: a hex letter is uppercased when the matching nibble
// of keccak256(lowercase hex) is 8 or more.
func (a Address) checksumHex() string {
	lower := hex.EncodeToString(a[:])

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := h.Sum(nil)

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] = c - ('a' - 'A')
		}
	}
	return string(out)
}
