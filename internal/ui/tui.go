// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the user-intent event channel
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// EventKind identifies a user intent from the control surface.
type EventKind int

const (
	EventPlayPause EventKind = iota
	EventStop
	EventWeight
	EventLearn
	EventQuit
)

// Event is one user intent delivered to the application.
type Event struct {
	Kind  EventKind
	Index int     // prompt index for EventWeight / EventLearn
	Delta float64 // weight delta for EventWeight
}

// Control holds channels for user-intent communication.
type Control struct {
	Events chan Event
	Quit   chan struct{}
}

// NewControl creates a new control handler.
func NewControl() *Control {
	return &Control{
		Events: make(chan Event, 32),
		Quit:   make(chan struct{}, 1),
	}
}

// NewModel creates a new TUI model.
func NewModel(control *Control) Model {
	return Model{
		playback: "stopped",
		conn:     "absent",
		control:  control,
	}
}

// Run starts the TUI
func Run(control *Control) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(control), tea.WithAltScreen())
	return p, nil
}
