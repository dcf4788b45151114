// ABOUTME: Generation session message type definitions
// ABOUTME: Defines JSON structs for the realtime music WebSocket protocol
package protocol

// ClientMessage is the top-level wrapper for all outbound messages.
// Exactly one field is set per message.
type ClientMessage struct {
	Setup                 *Setup            `json:"setup,omitempty"`
	ClientContent         *ClientContent    `json:"clientContent,omitempty"`
	MusicGenerationConfig *GenerationConfig `json:"musicGenerationConfig,omitempty"`
	PlaybackControl       string            `json:"playbackControl,omitempty"`
}

// Playback control verbs
const (
	ControlPlay  = "PLAY"
	ControlPause = "PAUSE"
	ControlStop  = "STOP"
)

// Setup opens a generation session for the given model.
type Setup struct {
	Model string `json:"model"`
}

// WeightedPrompt is a text descriptor with a steering weight.
type WeightedPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

// ClientContent carries the full weighted-prompt set (last write wins).
type ClientContent struct {
	WeightedPrompts []WeightedPrompt `json:"weightedPrompts"`
}

// GenerationConfig holds session-level generation parameters.
type GenerationConfig struct {
	BPM         int     `json:"bpm,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	Guidance    float64 `json:"guidance,omitempty"`
}

// ServerMessage is the top-level wrapper for all inbound messages.
type ServerMessage struct {
	SetupComplete  *SetupComplete  `json:"setupComplete,omitempty"`
	ServerContent  *ServerContent  `json:"serverContent,omitempty"`
	FilteredPrompt *FilteredPrompt `json:"filteredPrompt,omitempty"`
}

// SetupComplete acknowledges the session handshake and fixes the stream
// format for the rest of the connection.
type SetupComplete struct {
	SampleRateHertz int `json:"sampleRateHertz"`
	Channels        int `json:"channels"`
}

// AudioChunk carries one base64-encoded PCM payload.
type AudioChunk struct {
	Data string `json:"data"`
}

// ServerContent carries generated audio.
type ServerContent struct {
	AudioChunks []AudioChunk `json:"audioChunks"`
}

// FilteredPrompt reports a prompt the backend refused to steer by.
type FilteredPrompt struct {
	Text           string `json:"text"`
	FilteredReason string `json:"filteredReason"`
}
