// ABOUTME: Tests for the chunk byte decoder
// ABOUTME: Covers valid, empty, and malformed base64 payloads
package audio

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestDecodeChunk(t *testing.T) {
	raw := []byte{0x01, 0x02, 0x03, 0x04}
	encoded := base64.StdEncoding.EncodeToString(raw)

	got := DecodeChunk(encoded)
	if !bytes.Equal(got, raw) {
		t.Errorf("expected %v, got %v", raw, got)
	}
}

func TestDecodeChunkEmpty(t *testing.T) {
	got := DecodeChunk("")
	if got == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(got) != 0 {
		t.Errorf("expected zero-length slice, got %d bytes", len(got))
	}
}

func TestDecodeChunkMalformed(t *testing.T) {
	// Must absorb garbage without panicking or returning data
	inputs := []string{"!!!not base64!!!", "====", "ab\x00cd"}

	for _, in := range inputs {
		got := DecodeChunk(in)
		if len(got) != 0 {
			t.Errorf("input %q: expected zero-length slice, got %d bytes", in, len(got))
		}
	}
}
