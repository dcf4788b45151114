// ABOUTME: PCM buffer builder
// ABOUTME: Interprets interleaved 16-bit PCM bytes as normalized multi-channel buffers
package audio

import (
	"encoding/binary"
	"log"
)

const bytesPerSample = 2 // fixed 16-bit assumption

// BuildBuffer interprets data as interleaved 16-bit little-endian PCM at the
// given sample rate and channel count. It always returns a usable buffer:
// zero input produces a one-frame silent buffer so downstream scheduling
// never special-cases "no buffer", and trailing partial-frame bytes are
// dropped with a warning. Samples map to float via sample/32768.0; any index
// past the input's bounds reads as silence, guarding against upstream
// channel/length mismatches.
func BuildBuffer(data []byte, sampleRate, channels int) Buffer {
	if channels < 1 {
		channels = 1
	}

	frameBytes := bytesPerSample * channels
	frameCount := len(data) / frameBytes

	if len(data)%frameBytes != 0 {
		log.Printf("PCM chunk length %d not aligned to %d-byte frames, dropping tail", len(data), frameBytes)
	}

	if frameCount == 0 {
		return silentBuffer(sampleRate, channels)
	}

	out := make([][]float32, channels)
	for ch := 0; ch < channels; ch++ {
		out[ch] = make([]float32, frameCount)
	}

	for frame := 0; frame < frameCount; frame++ {
		for ch := 0; ch < channels; ch++ {
			off := (frame*channels + ch) * bytesPerSample
			if off+bytesPerSample > len(data) {
				continue // out of bounds reads as silence
			}
			sample := int16(binary.LittleEndian.Uint16(data[off:]))
			out[ch][frame] = float32(sample) / 32768.0
		}
	}

	return Buffer{Data: out, SampleRate: sampleRate}
}

// silentBuffer returns a minimal one-frame silent buffer.
func silentBuffer(sampleRate, channels int) Buffer {
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, 1)
	}
	return Buffer{Data: out, SampleRate: sampleRate}
}
