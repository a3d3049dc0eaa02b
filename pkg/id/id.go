// Package id implements the 32-byte content identifier used to address every
// object in a dechst repository.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Width is the fixed size of an Id in bytes.
const Width = 32

// Id is an opaque 32-byte content identifier. The zero value is the reserved
// ZERO id used for the singleton Config object.
type Id [Width]byte

// Zero is the reserved id for the singleton Config object.
var Zero = Id{}

// FromBytes copies up to Width bytes from b into a new Id, zero-padding any
// remainder.
func FromBytes(b []byte) Id {
	var out Id
	n := len(b)
	if n > Width {
		n = Width
	}
	copy(out[:n], b[:n])
	return out
}

// Random returns an Id filled with CSPRNG output, used for nonces and salts
// that are not content-derived.
func Random() (Id, error) {
	var out Id
	if _, err := rand.Read(out[:]); err != nil {
		return Id{}, fmt.Errorf("id: generate random id: %w", err)
	}
	return out, nil
}

// Bytes returns a copy of the underlying bytes.
func (i Id) Bytes() []byte {
	out := make([]byte, Width)
	copy(out, i[:])
	return out
}

// IsZero reports whether this is the reserved ZERO id.
func (i Id) IsZero() bool {
	return i == Zero
}

// String renders the id as lowercase hex, the on-disk and command-line
// representation.
func (i Id) String() string {
	return hex.EncodeToString(i[:])
}

// ErrInvalidHex is returned by Parse when the input is not exactly Width*2
// hex digits.
var ErrInvalidHex = fmt.Errorf("id: invalid hex id, expected %d hex characters", Width*2)

// Parse decodes a full lowercase (or uppercase) hex id string.
func Parse(s string) (Id, error) {
	if len(s) != Width*2 {
		return Id{}, ErrInvalidHex
	}
	b, err := hex.DecodeString(strings.ToLower(s))
	if err != nil {
		return Id{}, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	return FromBytes(b), nil
}

// MarshalCBOR encodes the id as a CBOR text string, matching the repository's
// canonical, hex-addressable on-disk representation.
func (i Id) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(i.String())
}

// UnmarshalCBOR decodes an id from a CBOR text string.
func (i *Id) UnmarshalCBOR(data []byte) error {
	var s string
	if err := cbor.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("id: unmarshal: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
