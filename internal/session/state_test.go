// ABOUTME: Tests for state string representations
// ABOUTME: Ensures every state renders a stable name
package session

import "testing"

func TestPlaybackStateString(t *testing.T) {
	tests := []struct {
		state PlaybackState
		want  string
	}{
		{PlaybackStopped, "stopped"},
		{PlaybackLoading, "loading"},
		{PlaybackPlaying, "playing"},
		{PlaybackPaused, "paused"},
		{PlaybackState(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestConnStateString(t *testing.T) {
	tests := []struct {
		state ConnState
		want  string
	}{
		{ConnAbsent, "absent"},
		{ConnConnecting, "connecting"},
		{ConnActive, "active"},
		{ConnState(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}
