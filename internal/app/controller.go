// ABOUTME: Main application orchestration
// ABOUTME: Wires prompts, session, scheduler, MIDI, and UI together
package app

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/promptdj/promptdj-go/internal/audio"
	"github.com/promptdj/promptdj-go/internal/genclient"
	"github.com/promptdj/promptdj-go/internal/midicc"
	"github.com/promptdj/promptdj-go/internal/player"
	"github.com/promptdj/promptdj-go/internal/prompts"
	"github.com/promptdj/promptdj-go/internal/protocol"
	"github.com/promptdj/promptdj-go/internal/session"
	"github.com/promptdj/promptdj-go/internal/ui"
)

const weightThrottle = 200 * time.Millisecond

// Config holds application configuration
type Config struct {
	Endpoint  string
	APIKey    string
	Model     string
	StorePath string
	UseMIDI   bool

	// UpdateUI delivers status snapshots to the UI layer.
	UpdateUI func(ui.StatusMsg)
}

// Controller owns the application state and mediates between the control
// surface and the session machinery.
type Controller struct {
	config Config

	mu      sync.Mutex
	prompts []prompts.Prompt

	store    *prompts.Store
	output   *player.Output
	sched    *player.Scheduler
	manager  *session.Manager
	throttle *session.Throttle
	midi     *midicc.Watcher
}

// New creates the controller and wires all components.
func New(config Config) (*Controller, error) {
	c := &Controller{
		config: config,
		store:  prompts.NewStore(config.StorePath),
		output: player.NewOutput(),
	}

	c.prompts = c.store.Load()
	c.sched = player.NewScheduler(c.output, c.output)

	c.manager = session.NewManager(session.Config{
		Dial:       c.dial,
		Scheduler:  c.sched,
		Weights:    c.weighted,
		OnState:    c.handleState,
		OnNotice:   c.handleNotice,
		OnFiltered: c.handleFiltered,
		OnFormat:   c.output.Initialize,
	})

	c.throttle = session.NewThrottle(weightThrottle, c.flushWeights)

	if config.UseMIDI {
		watcher, err := midicc.NewWatcher(c.handleCC)
		if err != nil {
			log.Printf("MIDI unavailable: %v", err)
		} else {
			c.midi = watcher
			if err := watcher.AutoConnect(); err != nil {
				log.Printf("No MIDI device connected: %v", err)
			}
		}
	}

	c.pushStatus(ui.StatusMsg{})
	return c, nil
}

// HandleEvent services one user intent from the control surface.
func (c *Controller) HandleEvent(ev ui.Event) {
	switch ev.Kind {
	case ui.EventPlayPause:
		state := c.manager.State()
		if state.Playback == session.PlaybackPlaying || state.Playback == session.PlaybackLoading {
			c.manager.Pause()
		} else if err := c.manager.Play(context.Background()); err != nil {
			c.handleNotice(err.Error())
		}

	case ui.EventStop:
		c.manager.Stop()

	case ui.EventWeight:
		c.adjustWeight(ev.Index, ev.Delta)

	case ui.EventLearn:
		c.learnCC(ev.Index)

	case ui.EventQuit:
		// handled by the main loop
	}
}

// SetGenerationConfig forwards session-level parameters.
func (c *Controller) SetGenerationConfig(cfg protocol.GenerationConfig) {
	c.manager.SetGenerationConfig(cfg)
}

// Close flushes state and releases resources.
func (c *Controller) Close() {
	c.throttle.Stop()
	c.manager.Stop()
	c.output.Close()

	if c.midi != nil {
		c.midi.Close()
	}

	c.mu.Lock()
	list := append([]prompts.Prompt(nil), c.prompts...)
	c.mu.Unlock()
	if err := c.store.Save(list); err != nil {
		log.Printf("Failed to save prompts: %v", err)
	}
}

// dial opens one connection attempt to the generation backend.
func (c *Controller) dial(ctx context.Context) (session.Conn, error) {
	client := genclient.NewClient(genclient.Config{
		Endpoint: c.config.Endpoint,
		APIKey:   c.config.APIKey,
		Model:    c.config.Model,
	})
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// weighted snapshots the current non-zero weighted prompts.
func (c *Controller) weighted() []protocol.WeightedPrompt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return prompts.ToWeighted(c.prompts)
}

// adjustWeight nudges one prompt and triggers a throttled send.
func (c *Controller) adjustWeight(index int, delta float64) {
	c.mu.Lock()
	if index < 0 || index >= len(c.prompts) {
		c.mu.Unlock()
		return
	}
	w := c.prompts[index].Weight + delta
	if w < 0 {
		w = 0
	}
	if w > prompts.MaxWeight {
		w = prompts.MaxWeight
	}
	c.prompts[index].Weight = w
	c.mu.Unlock()

	c.throttle.Trigger()
	c.pushStatus(ui.StatusMsg{})
}

// setWeightByCC applies a MIDI CC value to the bound prompt.
func (c *Controller) handleCC(cc int, value uint8) {
	c.mu.Lock()
	found := -1
	for i := range c.prompts {
		if c.prompts[i].CC == cc {
			found = i
			break
		}
	}
	if found < 0 {
		c.mu.Unlock()
		return
	}
	c.prompts[found].Weight = midicc.WeightForCC(value)
	c.mu.Unlock()

	c.throttle.Trigger()
	c.pushStatus(ui.StatusMsg{})
}

// learnCC arms MIDI learn mode for the selected prompt.
func (c *Controller) learnCC(index int) {
	if c.midi == nil {
		c.pushStatus(ui.StatusMsg{Toast: "No MIDI device connected", LearnDone: true})
		return
	}

	c.midi.Learn(func(cc int) {
		c.mu.Lock()
		if index >= 0 && index < len(c.prompts) {
			c.prompts[index].CC = cc
		}
		c.mu.Unlock()
		c.pushStatus(ui.StatusMsg{Toast: "Bound", LearnDone: true})
	})
}

// flushWeights is the throttled last-write-wins weight sender.
func (c *Controller) flushWeights() {
	c.manager.PushWeights()
}

// handleState forwards session transitions to the UI.
func (c *Controller) handleState(change session.StateChange) {
	c.pushStatus(ui.StatusMsg{
		Playback: change.Playback.String(),
		Conn:     change.Conn.String(),
	})
}

// handleNotice surfaces a human-visible notification.
func (c *Controller) handleNotice(notice string) {
	c.pushStatus(ui.StatusMsg{Toast: notice})
}

// handleFiltered marks a rejected prompt so it stops steering the stream.
func (c *Controller) handleFiltered(fp protocol.FilteredPrompt) {
	c.mu.Lock()
	for i := range c.prompts {
		if c.prompts[i].Text == fp.Text {
			c.prompts[i].Weight = 0
			break
		}
	}
	c.mu.Unlock()

	c.throttle.Trigger()
	c.pushStatus(ui.StatusMsg{})
}

// pushStatus sends a status snapshot, always refreshing the prompt views.
func (c *Controller) pushStatus(msg ui.StatusMsg) {
	if c.config.UpdateUI == nil {
		return
	}

	c.mu.Lock()
	views := make([]ui.PromptView, len(c.prompts))
	for i, p := range c.prompts {
		views[i] = ui.PromptView{Text: p.Text, Weight: p.Weight, Color: p.Color, CC: p.CC}
	}
	c.mu.Unlock()

	msg.Prompts = views
	if c.midi != nil {
		msg.MIDIDevice = c.midi.Device()
	}
	c.config.UpdateUI(msg)
}

// Format returns the active stream format, for logging and diagnostics.
func (c *Controller) Format() audio.Format {
	return c.manager.Format()
}
