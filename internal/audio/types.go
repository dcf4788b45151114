// ABOUTME: Audio type definitions
// ABOUTME: Defines stream formats and decoded multi-channel sample buffers
package audio

// Format describes the PCM stream format established by the session handshake.
type Format struct {
	SampleRate int
	Channels   int
}

// Buffer holds decoded PCM audio as per-channel float32 samples in [-1, 1].
// Immutable after construction; owned by the playback scheduler once built.
type Buffer struct {
	Data       [][]float32 // one slice per channel, equal lengths
	SampleRate int
}

// FrameCount returns the number of frames per channel.
func (b Buffer) FrameCount() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Duration returns the buffer length in seconds.
func (b Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.FrameCount()) / float64(b.SampleRate)
}
