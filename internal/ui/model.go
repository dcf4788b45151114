// ABOUTME: Bubbletea model for the control surface TUI
// ABOUTME: Renders prompt knobs, session state, and toast notices
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const weightStep = 0.1

// PromptView is the render-side projection of one prompt.
type PromptView struct {
	Text   string
	Weight float64
	Color  string
	CC     int
}

// Model represents the TUI state
type Model struct {
	prompts  []PromptView
	selected int

	playback string
	conn     string

	toast      string
	midiDevice string
	learning   bool

	width  int
	height int

	control *Control
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle      = lipgloss.NewStyle().Faint(true)
	toastStyle    = lipgloss.NewStyle().Italic(true)
)

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("PromptDJ"))
	b.WriteString(fmt.Sprintf("  %s / %s", m.playback, m.conn))
	if m.midiDevice != "" {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  [MIDI: %s]", m.midiDevice)))
	}
	b.WriteString("\n\n")

	for i, p := range m.prompts {
		b.WriteString(m.renderPrompt(i, p))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.toast != "" {
		b.WriteString(toastStyle.Render(m.toast))
		b.WriteString("\n")
	}
	if m.learning {
		b.WriteString(toastStyle.Render("Move a MIDI control to bind it..."))
		b.WriteString("\n")
	}

	b.WriteString(dimStyle.Render("↑/↓:Select  ←/→:Weight  space:Play/Pause  s:Stop  l:MIDI-learn  q:Quit"))
	b.WriteString("\n")

	return b.String()
}

// renderPrompt renders one knob row with its weight bar.
func (m Model) renderPrompt(i int, p PromptView) string {
	marker := "  "
	if i == m.selected {
		marker = "▸ "
	}

	name := p.Text
	if i == m.selected {
		name = selectedStyle.Render(name)
	}
	if p.Color != "" {
		name = lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Render(p.Text)
		if i == m.selected {
			name = selectedStyle.Foreground(lipgloss.Color(p.Color)).Render(p.Text)
		}
	}

	return fmt.Sprintf("%s%-32s [%s] %.2f  %s",
		marker, name, renderBar(p.Weight, 2.0, 12), p.Weight,
		dimStyle.Render(fmt.Sprintf("CC %d", p.CC)))
}

// renderBar renders a fixed-width meter for a 0..max value.
func renderBar(value, max float64, width int) string {
	filled := int(value / max * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.send(Event{Kind: EventQuit})
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.prompts)-1 {
			m.selected++
		}
	case "left":
		m.send(Event{Kind: EventWeight, Index: m.selected, Delta: -weightStep})
	case "right":
		m.send(Event{Kind: EventWeight, Index: m.selected, Delta: weightStep})
	case " ":
		m.send(Event{Kind: EventPlayPause})
	case "s":
		m.send(Event{Kind: EventStop})
	case "l":
		m.learning = true
		m.send(Event{Kind: EventLearn, Index: m.selected})
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Prompts != nil {
		m.prompts = msg.Prompts
		if m.selected >= len(m.prompts) {
			m.selected = len(m.prompts) - 1
		}
	}
	if msg.Playback != "" {
		m.playback = msg.Playback
	}
	if msg.Conn != "" {
		m.conn = msg.Conn
	}
	if msg.Toast != "" {
		m.toast = msg.Toast
	}
	if msg.MIDIDevice != "" {
		m.midiDevice = msg.MIDIDevice
	}
	if msg.LearnDone {
		m.learning = false
	}
}

func (m Model) send(ev Event) {
	if m.control != nil {
		select {
		case m.control.Events <- ev:
		default:
		}
	}
}

// StatusMsg updates TUI state
type StatusMsg struct {
	Prompts    []PromptView
	Playback   string
	Conn       string
	Toast      string
	MIDIDevice string
	LearnDone  bool
}
