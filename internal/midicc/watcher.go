// ABOUTME: MIDI CC input binding
// ABOUTME: Watches MIDI inputs and maps control-change values to prompt weights
package midicc

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Virtual/system ports that are never auto-connected.
var excludedPatterns = []string{"Midi Through", "Through Port", "Dummy"}

const (
	ccMax       = 127
	weightRange = 2.0
)

// WeightForCC maps a 7-bit controller value onto the prompt weight range.
func WeightForCC(value uint8) float64 {
	if value > ccMax {
		value = ccMax
	}
	return float64(value) / ccMax * weightRange
}

// Watcher maintains a connection to one MIDI input and delivers CC messages.
// Anything beyond CC parsing is ignored.
type Watcher struct {
	mu           sync.Mutex
	drv          *rtmididrv.Driver
	inPort       drivers.In
	stopFn       func()
	connected    bool
	selectedName string
	learn        func(cc int) // one-shot capture for learn mode

	onCC func(cc int, value uint8)
}

// NewWatcher initialises the rtmidi driver. onCC is called for every
// control-change message while a device is connected. Call Close when done.
func NewWatcher(onCC func(cc int, value uint8)) (*Watcher, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	return &Watcher{drv: drv, onCC: onCC}, nil
}

// Inputs lists connectable input port names.
func (w *Watcher) Inputs() []string {
	ins, err := w.drv.Ins()
	if err != nil {
		log.Printf("Failed to list MIDI inputs: %v", err)
		return nil
	}

	var names []string
	for _, in := range ins {
		if excluded(in.String()) {
			continue
		}
		names = append(names, in.String())
	}
	return names
}

// AutoConnect connects to the first usable input, if any.
func (w *Watcher) AutoConnect() error {
	names := w.Inputs()
	if len(names) == 0 {
		return fmt.Errorf("no MIDI inputs available")
	}
	return w.Connect(names[0])
}

// Connect opens the named input and starts listening for CC messages.
func (w *Watcher) Connect(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closeConn()

	ins, err := w.drv.Ins()
	if err != nil {
		return fmt.Errorf("failed to list inputs: %w", err)
	}

	var found drivers.In
	for _, in := range ins {
		if in.String() == name {
			found = in
			break
		}
	}
	if found == nil {
		return fmt.Errorf("input %q not found", name)
	}
	if err := found.Open(); err != nil {
		return fmt.Errorf("open %q: %w", name, err)
	}

	stop, err := midi.ListenTo(found, func(msg midi.Message, _ int32) {
		var ch, cc, val uint8
		if !msg.GetControlChange(&ch, &cc, &val) {
			return
		}
		w.handleCC(cc, val)
	}, midi.HandleError(func(listenErr error) {
		log.Printf("MIDI listener error on %q: %v", name, listenErr)
	}))
	if err != nil {
		_ = found.Close()
		return fmt.Errorf("listen %q: %w", name, err)
	}

	w.inPort = found
	w.stopFn = stop
	w.connected = true
	w.selectedName = name
	log.Printf("MIDI connected: %s", name)
	return nil
}

// Learn arms a one-shot capture: the next CC message is delivered to fn
// instead of the normal binding path.
func (w *Watcher) Learn(fn func(cc int)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.learn = fn
}

// Device returns the connected input name, or empty.
func (w *Watcher) Device() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selectedName
}

// Close shuts down the active connection and the driver.
func (w *Watcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeConn()
	w.drv.Close()
}

func (w *Watcher) handleCC(cc, val uint8) {
	w.mu.Lock()
	learn := w.learn
	w.learn = nil
	w.mu.Unlock()

	if learn != nil {
		learn(int(cc))
		return
	}
	if w.onCC != nil {
		w.onCC(int(cc), val)
	}
}

func (w *Watcher) closeConn() {
	if w.stopFn != nil {
		w.stopFn()
		w.stopFn = nil
	}
	if w.inPort != nil {
		_ = w.inPort.Close()
		w.inPort = nil
	}
	w.connected = false
	w.selectedName = ""
}

func excluded(name string) bool {
	for _, pat := range excludedPatterns {
		if strings.Contains(strings.ToLower(name), strings.ToLower(pat)) {
			return true
		}
	}
	return false
}
