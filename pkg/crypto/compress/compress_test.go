package compress

import (
	"bytes"
	"crypto/rand"
	"strings"
	"testing"
)

func TestRoundTripZstd(t *testing.T) {
	data := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog\n", 500))
	tag, compressed, err := Compress(Zstd, data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if tag != Zstd {
		t.Fatalf("expected Zstd tag for compressible input, got %q", tag)
	}
	if len(compressed) >= len(data) {
		t.Fatalf("compressed form (%d) did not shrink input (%d)", len(compressed), len(data))
	}
	out, err := Decompress(tag, compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatal("round trip did not reproduce input")
	}
}

func TestIncompressibleFallsBackToNone(t *testing.T) {
	data := make([]byte, 4096)
	if _, err := rand.Read(data); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	tag, stored, err := Compress(Zstd, data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if tag != None {
		t.Fatalf("expected fallback to None for incompressible input, got %q", tag)
	}
	out, err := Decompress(tag, stored)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatal("None round trip did not reproduce input")
	}
}

func TestNoneRoundTrip(t *testing.T) {
	data := []byte("arbitrary bytes")
	tag, stored, err := Compress(None, data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if tag != None || !bytes.Equal(stored, data) {
		t.Fatal("None compression must be a no-op")
	}
	out, err := Decompress(tag, stored)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatal("round trip did not reproduce input")
	}
}

func TestUnknownAlgorithmRejected(t *testing.T) {
	if _, _, err := Compress("bogus", []byte("x")); err == nil {
		t.Fatal("expected error for unknown compression algorithm")
	}
	if _, err := Decompress("bogus", []byte("x")); err == nil {
		t.Fatal("expected error for unknown decompression algorithm")
	}
}
