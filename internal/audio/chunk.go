// ABOUTME: Transport chunk byte decoder
// ABOUTME: Turns base64 chunk payloads into raw byte slices, never failing the caller
package audio

import (
	"encoding/base64"
	"log"
)

// DecodeChunk decodes a base64-encoded chunk payload into raw bytes.
// Empty or malformed input yields an empty slice: a corrupt chunk is
// skipped rather than allowed to interrupt playback. Failures are logged
// as recoverable events.
func DecodeChunk(encoded string) []byte {
	if encoded == "" {
		return []byte{}
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		log.Printf("Skipping malformed audio chunk: %v", err)
		return []byte{}
	}

	return data
}
