package cbor

import (
	"reflect"
	"testing"
)

type sample struct {
	B string `cbor:"b"`
	A int    `cbor:"a"`
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	want := sample{A: 7, B: "hello"}
	data, err := Marshal(want)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got sample
	if err := Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

func TestCanonicalKeyOrderIsDeterministic(t *testing.T) {
	a, err := Marshal(sample{A: 1, B: "x"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	b, err := Marshal(sample{A: 1, B: "x"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("encoding of identical values differs: %x vs %x", a, b)
	}
	if !IsCanonical(a) {
		t.Fatal("freshly marshaled bytes are not canonical")
	}
}
