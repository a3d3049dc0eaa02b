package pipeline

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dechst-go/dechst/pkg/crypto/compress"
	"github.com/dechst-go/dechst/pkg/crypto/encrypt"
	"github.com/dechst-go/dechst/pkg/crypto/verify"
	"github.com/dechst-go/dechst/pkg/obj"
)

func testPipeline(t *testing.T) ChunkPipeline {
	t.Helper()
	key, err := obj.RandomKey()
	if err != nil {
		t.Fatalf("RandomKey: %v", err)
	}
	opts := obj.ProcessOptions{
		Compression: compress.Zstd,
		Encryption:  encrypt.ChaCha20,
		Verifier:    verify.Blake3,
	}
	return New(key, opts)
}

func TestProcessUnprocessRoundTrip(t *testing.T) {
	p := testPipeline(t)
	plaintext := []byte(strings.Repeat("repository bytes ", 200))

	processed, err := p.Process(plaintext)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if bytes.Equal(processed, plaintext) {
		t.Fatal("processed bytes must not equal plaintext")
	}
	out, err := p.Unprocess(processed)
	if err != nil {
		t.Fatalf("Unprocess: %v", err)
	}
	if !bytes.Equal(out, plaintext) {
		t.Fatal("round trip did not reproduce plaintext")
	}
}

func TestUnprocessRejectsTamperedBytes(t *testing.T) {
	p := testPipeline(t)
	processed, err := p.Process([]byte("hello pipeline"))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	tampered := bytes.Clone(processed)
	tampered[len(tampered)-1] ^= 0xff
	if _, err := p.Unprocess(tampered); err == nil {
		t.Fatal("expected Unprocess to reject tampered bytes")
	}
}

func TestDifferentKeysProduceDifferentCiphertext(t *testing.T) {
	p1 := testPipeline(t)
	p2 := testPipeline(t)
	plaintext := []byte("same plaintext, different keys")

	out1, err := p1.Process(plaintext)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	out2, err := p2.Process(plaintext)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if bytes.Equal(out1, out2) {
		t.Fatal("two different keys produced identical processed output")
	}
	if _, err := p2.Unprocess(out1); err == nil {
		t.Fatal("expected p2 to fail verifying p1's output")
	}
}
