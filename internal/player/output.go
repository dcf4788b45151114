// ABOUTME: Audio output using the oto library
// ABOUTME: Implements the scheduler's Sink and Clock over real hardware
package player

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/promptdj/promptdj-go/internal/audio"
)

const fadeSteps = 10

// Output is the single mixing point into system audio. It implements both
// Sink and Clock; the clock epoch is the moment Initialize succeeds.
type Output struct {
	mu        sync.Mutex
	otoCtx    *oto.Context
	format    audio.Format
	epoch     time.Time
	suspended bool
	ready     bool

	pending []*time.Timer
	playing []*oto.Player
}

// NewOutput creates an uninitialized audio output. Initialize must be called
// once the session handshake has fixed the stream format.
func NewOutput() *Output {
	return &Output{}
}

// Initialize sets up oto with the handshake format and starts the clock.
func (o *Output) Initialize(format audio.Format) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ready && o.format == format {
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.format = format
	o.epoch = time.Now()
	o.suspended = false
	o.ready = true

	log.Printf("Audio output initialized: %dHz, %d channels",
		format.SampleRate, format.Channels)

	return nil
}

// Now returns seconds since the output clock epoch.
func (o *Output) Now() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.ready {
		return 0
	}
	return time.Since(o.epoch).Seconds()
}

// StartAt schedules buf to begin playing at the given clock time.
func (o *Output) StartAt(buf audio.Buffer, when float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.ready {
		return fmt.Errorf("output not initialized")
	}

	data := interleave(buf)
	delay := time.Duration((when-time.Since(o.epoch).Seconds())*float64(time.Second)) - time.Millisecond

	if delay <= 0 {
		o.startLocked(data)
		return nil
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.removePending(timer)
		o.startLocked(data)
	})
	o.pending = append(o.pending, timer)

	return nil
}

// Resume wakes the context after a suspension.
func (o *Output) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.ready || !o.suspended {
		return nil
	}
	if err := o.otoCtx.Resume(); err != nil {
		return fmt.Errorf("failed to resume audio context: %w", err)
	}
	o.suspended = false
	return nil
}

// FadeOut cancels pending starts and ramps active players to silence over d,
// then stops them. Avoids the click of cutting mid-sample.
func (o *Output) FadeOut(d time.Duration) {
	o.mu.Lock()

	for _, t := range o.pending {
		t.Stop()
	}
	o.pending = nil

	players := o.playing
	o.playing = nil
	o.mu.Unlock()

	if len(players) == 0 {
		return
	}

	go func() {
		step := d / fadeSteps
		for i := 1; i <= fadeSteps; i++ {
			vol := 1.0 - float64(i)/fadeSteps
			for _, p := range players {
				p.SetVolume(vol)
			}
			time.Sleep(step)
		}
		for _, p := range players {
			p.Pause()
			if err := p.Close(); err != nil {
				log.Printf("Error closing audio player: %v", err)
			}
		}
	}()
}

// Close suspends the context.
func (o *Output) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, t := range o.pending {
		t.Stop()
	}
	o.pending = nil

	if o.otoCtx != nil && !o.suspended {
		if err := o.otoCtx.Suspend(); err != nil {
			log.Printf("Error suspending audio context: %v", err)
		}
		o.suspended = true
	}
	o.ready = false
}

// startLocked begins playback of interleaved bytes; callers hold o.mu.
func (o *Output) startLocked(data []byte) {
	player := o.otoCtx.NewPlayer(bytes.NewReader(data))
	player.Play()
	o.playing = append(o.playing, player)
	o.pruneLocked()
}

// pruneLocked drops finished players; callers hold o.mu.
func (o *Output) pruneLocked() {
	kept := o.playing[:0]
	for _, p := range o.playing {
		if p.IsPlaying() {
			kept = append(kept, p)
		} else if err := p.Close(); err != nil {
			log.Printf("Error closing audio player: %v", err)
		}
	}
	o.playing = kept
}

// removePending drops a fired timer; callers hold o.mu.
func (o *Output) removePending(t *time.Timer) {
	kept := o.pending[:0]
	for _, pt := range o.pending {
		if pt != t {
			kept = append(kept, pt)
		}
	}
	o.pending = kept
}

// interleave converts per-channel float samples to interleaved 16-bit LE
// bytes for oto, clipping to the int16 range.
func interleave(buf audio.Buffer) []byte {
	frames := buf.FrameCount()
	channels := len(buf.Data)
	out := make([]byte, frames*channels*2)

	for frame := 0; frame < frames; frame++ {
		for ch := 0; ch < channels; ch++ {
			v := buf.Data[ch][frame]
			if v > 1.0 {
				v = 1.0
			} else if v < -1.0 {
				v = -1.0
			}
			sample := int16(v * 32767.0)
			binary.LittleEndian.PutUint16(out[(frame*channels+ch)*2:], uint16(sample))
		}
	}

	return out
}
