// ABOUTME: Session and playback state definitions
// ABOUTME: Defines the reachable playback x connection state space
package session

// PlaybackState drives the UI and gates whether incoming audio is scheduled.
type PlaybackState int

const (
	PlaybackStopped PlaybackState = iota
	PlaybackLoading
	PlaybackPlaying
	PlaybackPaused
)

// String returns the string representation of the state.
func (s PlaybackState) String() string {
	switch s {
	case PlaybackStopped:
		return "stopped"
	case PlaybackLoading:
		return "loading"
	case PlaybackPlaying:
		return "playing"
	case PlaybackPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// ConnState tracks the generation session handle.
type ConnState int

const (
	ConnAbsent ConnState = iota
	ConnConnecting
	ConnActive
)

// String returns the string representation of the state.
func (s ConnState) String() string {
	switch s {
	case ConnAbsent:
		return "absent"
	case ConnConnecting:
		return "connecting"
	case ConnActive:
		return "active"
	default:
		return "unknown"
	}
}

// StateChange is a snapshot published to subscribers on every transition.
type StateChange struct {
	Playback PlaybackState
	Conn     ConnState
}
