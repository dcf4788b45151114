// ABOUTME: Session lifecycle state machine
// ABOUTME: Mediates connect, playback, and reconnect-and-resume against the backend
package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/promptdj/promptdj-go/internal/audio"
	"github.com/promptdj/promptdj-go/internal/protocol"
)

const (
	defaultSampleRate = 48000
	defaultChannels   = 2
)

// Conn is one live connection to the generation backend.
type Conn interface {
	AudioChunks() <-chan string
	SetupComplete() <-chan protocol.SetupComplete
	FilteredPrompts() <-chan protocol.FilteredPrompt
	Closed() <-chan error

	SetWeightedPrompts([]protocol.WeightedPrompt) error
	SetConfig(protocol.GenerationConfig) error
	Play() error
	Pause() error
	Stop() error
	Close()
}

// Dialer opens a new connection attempt.
type Dialer func(ctx context.Context) (Conn, error)

// Scheduler is the playback scheduler surface the manager drives.
type Scheduler interface {
	ScheduleBuffer(audio.Buffer)
	SetOpen(open bool)
	Reset()
	SetCallbacks(warmedUp, underrun func())
}

// Config wires the manager's collaborators.
type Config struct {
	Dial      Dialer
	Scheduler Scheduler

	// Weights supplies the current weighted-prompt set on demand.
	Weights func() []protocol.WeightedPrompt

	// OnState is called after every state transition.
	OnState func(StateChange)

	// OnNotice is called with human-visible notifications (connection loss,
	// filtered prompts). The next user-initiated play drives reconnection;
	// no automatic retry loop runs here.
	OnNotice func(string)

	// OnFiltered is called when the backend rejects a prompt.
	OnFiltered func(protocol.FilteredPrompt)

	// OnFormat is called once per connection when the handshake fixes the
	// stream format, before any buffer is built with it.
	OnFormat func(audio.Format) error
}

// Manager owns the session lifecycle. Exactly one connection handle is
// active at a time; a generation counter invalidates continuations from
// stale handles so callbacks from an old session cannot resurrect a stopped
// pipeline.
type Manager struct {
	cfg Config

	mu          sync.Mutex
	playback    PlaybackState
	conn        ConnState
	handle      Conn
	gen         int
	format      audio.Format
	genConfig   protocol.GenerationConfig
	pendingPlay bool
}

// NewManager creates a session manager.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		cfg:      cfg,
		playback: PlaybackStopped,
		conn:     ConnAbsent,
		format:   audio.Format{SampleRate: defaultSampleRate, Channels: defaultChannels},
	}
	cfg.Scheduler.SetCallbacks(m.handleWarmedUp, m.handleUnderrun)
	return m
}

// State returns the current state snapshot.
func (m *Manager) State() StateChange {
	m.mu.Lock()
	defer m.mu.Unlock()
	return StateChange{Playback: m.playback, Conn: m.conn}
}

// Format returns the stream format captured at the last handshake.
func (m *Manager) Format() audio.Format {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.format
}

// Connect opens a session. Only one attempt may be in flight; a Connect
// while already connecting or active is a no-op.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.conn != ConnAbsent {
		m.mu.Unlock()
		return nil
	}
	m.conn = ConnConnecting
	gen := m.gen
	change := StateChange{Playback: m.playback, Conn: m.conn}
	m.mu.Unlock()
	m.notify(change)

	conn, err := m.cfg.Dial(ctx)
	if err != nil {
		m.mu.Lock()
		if gen != m.gen || m.conn != ConnConnecting {
			// Stopped while dialing; state already settled.
			m.mu.Unlock()
			return fmt.Errorf("connect failed: %w", err)
		}
		m.conn = ConnAbsent
		m.playback = PlaybackStopped
		m.pendingPlay = false
		change = StateChange{Playback: m.playback, Conn: m.conn}
		m.mu.Unlock()
		m.notify(change)
		return fmt.Errorf("connect failed: %w", err)
	}

	m.mu.Lock()
	if gen != m.gen || m.conn != ConnConnecting {
		// A Stop arrived while the dial was in flight: the session is no
		// longer wanted. Close the connection instead of installing it.
		m.mu.Unlock()
		conn.Close()
		return nil
	}
	m.gen++
	gen = m.gen
	m.handle = conn
	m.mu.Unlock()

	go m.run(gen, conn)

	return nil
}

// Play starts or resumes playback. Requires at least one non-zero-weight
// prompt. If no session is active the full connect path runs first and
// playback starts only after a successful handshake; play never silently
// resumes with stale server-side state.
func (m *Manager) Play(ctx context.Context) error {
	if !m.hasActiveWeights() {
		return fmt.Errorf("no prompts with non-zero weight")
	}

	m.mu.Lock()
	switch m.conn {
	case ConnActive:
		gen := m.gen
		handle := m.handle
		m.playback = PlaybackLoading
		change := StateChange{Playback: m.playback, Conn: m.conn}
		m.cfg.Scheduler.SetOpen(true)
		m.mu.Unlock()
		m.notify(change)

		if err := handle.Play(); err != nil {
			m.fatal(gen, fmt.Errorf("play failed: %w", err))
			return err
		}
		return nil

	case ConnConnecting:
		// A connect attempt is already in flight; queue the play instead of
		// starting a second concurrent attempt.
		m.pendingPlay = true
		m.playback = PlaybackLoading
		change := StateChange{Playback: m.playback, Conn: m.conn}
		m.mu.Unlock()
		m.notify(change)
		return nil

	default: // ConnAbsent
		m.pendingPlay = true
		m.playback = PlaybackLoading
		change := StateChange{Playback: m.playback, Conn: m.conn}
		m.mu.Unlock()
		m.notify(change)
		return m.Connect(ctx)
	}
}

// Pause pauses playback but keeps the session handle so resuming does not
// require a full reconnect. Chunks arriving while paused are discarded.
// A no-op unless playback is loading or playing.
func (m *Manager) Pause() {
	m.mu.Lock()
	if m.playback != PlaybackLoading && m.playback != PlaybackPlaying {
		m.mu.Unlock()
		return
	}
	gen := m.gen
	handle := m.handle
	m.playback = PlaybackPaused
	m.pendingPlay = false
	change := StateChange{Playback: m.playback, Conn: m.conn}
	m.cfg.Scheduler.SetOpen(false)
	m.cfg.Scheduler.Reset()
	m.mu.Unlock()
	m.notify(change)

	if handle != nil {
		if err := handle.Pause(); err != nil {
			m.fatal(gen, fmt.Errorf("pause failed: %w", err))
		}
	}
}

// Stop tears the session down completely.
func (m *Manager) Stop() {
	m.mu.Lock()
	handle := m.handle
	m.gen++ // invalidate in-flight continuations
	m.handle = nil
	m.conn = ConnAbsent
	m.playback = PlaybackStopped
	m.pendingPlay = false
	change := StateChange{Playback: m.playback, Conn: m.conn}
	m.cfg.Scheduler.SetOpen(false)
	m.cfg.Scheduler.Reset()
	m.mu.Unlock()
	m.notify(change)

	if handle != nil {
		if err := handle.Stop(); err != nil {
			log.Printf("Error stopping session: %v", err)
		}
		handle.Close()
	}
}

// PushWeights sends the current weighted-prompt set to the active session.
// Called from the throttled update path; a send failure is fatal.
func (m *Manager) PushWeights() {
	m.mu.Lock()
	gen := m.gen
	handle := m.handle
	active := m.conn == ConnActive
	m.mu.Unlock()

	if !active || handle == nil {
		return
	}

	if err := handle.SetWeightedPrompts(m.cfg.Weights()); err != nil {
		m.fatal(gen, fmt.Errorf("failed to send prompt weights: %w", err))
	}
}

// SetGenerationConfig stores session-level parameters and forwards them to
// the active session. The stored copy is re-applied on reconnect.
func (m *Manager) SetGenerationConfig(cfg protocol.GenerationConfig) {
	m.mu.Lock()
	m.genConfig = cfg
	gen := m.gen
	handle := m.handle
	active := m.conn == ConnActive
	m.mu.Unlock()

	if !active || handle == nil {
		return
	}

	if err := handle.SetConfig(cfg); err != nil {
		m.fatal(gen, fmt.Errorf("failed to send generation config: %w", err))
	}
}

// run services one connection until it dies. Every continuation re-checks
// the generation so stale handles are ignored.
func (m *Manager) run(gen int, conn Conn) {
	for {
		select {
		case ack := <-conn.SetupComplete():
			m.handleSetup(gen, conn, ack)

		case data := <-conn.AudioChunks():
			m.handleChunk(gen, data)

		case fp := <-conn.FilteredPrompts():
			log.Printf("Prompt filtered by backend: %q (%s)", fp.Text, fp.FilteredReason)
			if m.cfg.OnFiltered != nil {
				m.cfg.OnFiltered(fp)
			}
			m.noticef("Prompt %q was filtered: %s", fp.Text, fp.FilteredReason)

		case err := <-conn.Closed():
			m.handleClosed(gen, err)
			return
		}
	}
}

// handleSetup promotes the session to active and resumes a queued play.
func (m *Manager) handleSetup(gen int, conn Conn, ack protocol.SetupComplete) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return // stale handle
	}

	m.conn = ConnActive
	m.format = audio.Format{SampleRate: ack.SampleRateHertz, Channels: ack.Channels}
	if m.format.SampleRate == 0 {
		m.format.SampleRate = defaultSampleRate
	}
	if m.format.Channels == 0 {
		m.format.Channels = defaultChannels
	}
	format := m.format
	genConfig := m.genConfig
	resume := m.pendingPlay
	m.pendingPlay = false
	change := StateChange{Playback: m.playback, Conn: m.conn}
	m.mu.Unlock()

	log.Printf("Session setup complete: %dHz, %d channels", format.SampleRate, format.Channels)

	if m.cfg.OnFormat != nil {
		if err := m.cfg.OnFormat(format); err != nil {
			m.fatal(gen, fmt.Errorf("failed to prepare audio output: %w", err))
			return
		}
	}

	m.notify(change)

	if !resume {
		return
	}

	// Reconnect-and-resume: re-apply current weights and session config
	// before starting playback so the server never runs with stale state.
	if err := conn.SetWeightedPrompts(m.cfg.Weights()); err != nil {
		m.fatal(gen, fmt.Errorf("failed to send prompt weights: %w", err))
		return
	}
	if genConfig != (protocol.GenerationConfig{}) {
		if err := conn.SetConfig(genConfig); err != nil {
			m.fatal(gen, fmt.Errorf("failed to send generation config: %w", err))
			return
		}
	}

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.cfg.Scheduler.SetOpen(true)
	m.mu.Unlock()

	if err := conn.Play(); err != nil {
		m.fatal(gen, fmt.Errorf("play failed: %w", err))
	}
}

// handleChunk decodes and schedules one audio chunk. Chunks arriving while
// stopped or paused are discarded, not buffered.
func (m *Manager) handleChunk(gen int, encoded string) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	if m.playback != PlaybackLoading && m.playback != PlaybackPlaying {
		m.mu.Unlock()
		return
	}
	format := m.format
	m.mu.Unlock()

	data := audio.DecodeChunk(encoded)
	buf := audio.BuildBuffer(data, format.SampleRate, format.Channels)
	m.cfg.Scheduler.ScheduleBuffer(buf)
}

// handleClosed handles transport loss: immediately fatal to this handle.
func (m *Manager) handleClosed(gen int, err error) {
	if err == nil {
		return // clean local close, state already settled
	}
	m.fatal(gen, err)
}

// handleWarmedUp flips loading to playing once the warm-up window elapses.
func (m *Manager) handleWarmedUp() {
	m.mu.Lock()
	if m.playback != PlaybackLoading || m.conn != ConnActive {
		m.mu.Unlock()
		return
	}
	m.playback = PlaybackPlaying
	change := StateChange{Playback: m.playback, Conn: m.conn}
	m.mu.Unlock()
	m.notify(change)
}

// handleUnderrun reverts playing to loading while the pipeline catches up.
func (m *Manager) handleUnderrun() {
	m.mu.Lock()
	if m.playback != PlaybackPlaying {
		m.mu.Unlock()
		return
	}
	m.playback = PlaybackLoading
	change := StateChange{Playback: m.playback, Conn: m.conn}
	m.mu.Unlock()
	m.notify(change)
}

// fatal invalidates the current handle and forces stopped x absent. No
// automatic retry runs; the notice is the only recovery prompt.
func (m *Manager) fatal(gen int, err error) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return // a newer session already exists
	}
	handle := m.handle
	m.gen++
	m.handle = nil
	m.conn = ConnAbsent
	m.playback = PlaybackStopped
	m.pendingPlay = false
	change := StateChange{Playback: m.playback, Conn: m.conn}
	m.cfg.Scheduler.SetOpen(false)
	m.cfg.Scheduler.Reset()
	m.mu.Unlock()

	log.Printf("Session error: %v", err)
	m.notify(change)
	m.noticef("Connection lost: %v", err)

	if handle != nil {
		handle.Close()
	}
}

func (m *Manager) hasActiveWeights() bool {
	for _, p := range m.cfg.Weights() {
		if p.Weight > 0 {
			return true
		}
	}
	return false
}

func (m *Manager) notify(change StateChange) {
	if m.cfg.OnState != nil {
		m.cfg.OnState(change)
	}
}

func (m *Manager) noticef(format string, args ...interface{}) {
	if m.cfg.OnNotice != nil {
		m.cfg.OnNotice(fmt.Sprintf(format, args...))
	}
}
