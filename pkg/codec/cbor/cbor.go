// Package cbor provides the canonical CBOR serializer used to encode every
// pipelined object in a dechst repository: deterministic key order, no
// indefinite-length items, byte-for-byte reproducible output.
package cbor

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Mode is the shared canonical encoding mode: deterministic map key order
// and definite-length items, so two readers of the same struct always
// produce the same bytes.
var Mode cbor.EncMode

func init() {
	var err error
	Mode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor: failed to build canonical encoding mode: %v", err))
	}
}

// Marshal encodes v into canonical CBOR bytes.
func Marshal(v interface{}) ([]byte, error) {
	b, err := Mode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cbor: marshal: %w", err)
	}
	return b, nil
}

// Unmarshal decodes canonical CBOR data into v.
func Unmarshal(data []byte, v interface{}) error {
	if err := cbor.Unmarshal(data, v); err != nil {
		return fmt.Errorf("cbor: unmarshal: %w", err)
	}
	return nil
}

// IsCanonical reports whether data is already in canonical form, by decoding
// and re-encoding it and comparing the bytes.
func IsCanonical(data []byte) bool {
	var v interface{}
	if err := cbor.Unmarshal(data, &v); err != nil {
		return false
	}
	canonical, err := Mode.Marshal(v)
	if err != nil {
		return false
	}
	return bytes.Equal(data, canonical)
}
