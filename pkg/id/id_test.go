package id

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func randomData(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return b
}

func TestFromBytesPads(t *testing.T) {
	data := randomData(t, Width)
	for i := 0; i <= Width; i++ {
		got := FromBytes(data[:i])
		if !bytes.Equal(got[:i], data[:i]) {
			t.Fatalf("prefix mismatch at len %d", i)
		}
		for _, b := range got[i:] {
			if b != 0 {
				t.Fatalf("expected zero padding after %d bytes", i)
			}
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	for i := 0; i < 16; i++ {
		data := randomData(t, Width)
		want := FromBytes(data)
		s := want.String()
		if len(s) != Width*2 {
			t.Fatalf("hex string length = %d, want %d", len(s), Width*2)
		}
		got, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if got != want {
			t.Fatalf("round trip mismatch: got %x want %x", got, want)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []string{"", "ab", "zz" + string(make([]byte, Width*2-2))}
	for _, c := range cases {
		if _, err := Parse(c); err == nil {
			t.Fatalf("Parse(%q): expected error", c)
		}
	}
}

func TestZeroIsReserved(t *testing.T) {
	if !Zero.IsZero() {
		t.Fatal("Zero.IsZero() = false")
	}
	nonZero := FromBytes([]byte{1})
	if nonZero.IsZero() {
		t.Fatal("non-zero id reported as zero")
	}
}

func TestRandomIsUnique(t *testing.T) {
	a, err := Random()
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	b, err := Random()
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	if a == b {
		t.Fatal("two calls to Random produced the same id")
	}
}

func TestCBORRoundTrip(t *testing.T) {
	want := FromBytes(randomData(t, Width))
	data, err := want.MarshalCBOR()
	if err != nil {
		t.Fatalf("MarshalCBOR: %v", err)
	}
	var got Id
	if err := got.UnmarshalCBOR(data); err != nil {
		t.Fatalf("UnmarshalCBOR: %v", err)
	}
	if got != want {
		t.Fatalf("cbor round trip mismatch: got %x want %x", got, want)
	}
}
