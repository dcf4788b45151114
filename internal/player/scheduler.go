// ABOUTME: Gapless playback scheduler
// ABOUTME: Owns the next-start-time cursor and schedules buffers back to back
package player

import (
	"log"
	"sync"
	"time"

	"github.com/promptdj/promptdj-go/internal/audio"
)

const (
	// warmupTime is the lookahead applied to the first buffer of a session,
	// giving the pipeline a cushion before audible playback begins.
	warmupTime = 1.0

	// underrunEpsilon keeps a stalled cursor slightly ahead of the clock so
	// the sink is never asked to start a buffer in the past.
	underrunEpsilon = 0.1

	// fadeWindow is the gain ramp used on reset to avoid audible clicks.
	fadeWindow = 100 * time.Millisecond
)

// Clock reports the current audio-clock time in seconds. Injected so the
// scheduler is testable without real audio hardware.
type Clock interface {
	Now() float64
}

// Sink accepts decoded buffers for playback at a scheduled time.
type Sink interface {
	// StartAt schedules buf to begin at the given audio-clock time.
	StartAt(buf audio.Buffer, when float64) error

	// FadeOut ramps output gain to zero over d and stops pending starts.
	FadeOut(d time.Duration)

	// Resume wakes a suspended output before scheduling real playback.
	Resume() error
}

// SchedulerStats tracks scheduler metrics
type SchedulerStats struct {
	Scheduled int64
	Discarded int64
	Underruns int64
}

// Scheduler is the single writer of the playback cursor. Buffers are started
// strictly in arrival order; there is no reordering queue, an ordered
// transport is assumed.
type Scheduler struct {
	mu    sync.Mutex
	clock Clock
	sink  Sink

	next float64 // audio-clock time for the next buffer start; 0 means idle
	open bool    // closed while stopped/paused: arriving buffers are discarded

	warmup *time.Timer
	after  func(time.Duration, func()) *time.Timer

	onWarmedUp func()
	onUnderrun func()

	stats SchedulerStats
}

// NewScheduler creates a playback scheduler over the given clock and sink.
func NewScheduler(clock Clock, sink Sink) *Scheduler {
	return &Scheduler{
		clock: clock,
		sink:  sink,
		after: time.AfterFunc,
	}
}

// SetCallbacks registers the warm-up-elapsed and underrun notifications.
// warmedUp fires once the first-buffer cushion has elapsed (loading->playing);
// underrun fires when the cursor falls behind real time (playing->loading).
func (s *Scheduler) SetCallbacks(warmedUp, underrun func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onWarmedUp = warmedUp
	s.onUnderrun = underrun
}

// SetOpen gates scheduling. While closed, incoming buffers are discarded
// rather than held for later.
func (s *Scheduler) SetOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = open
}

// ScheduleBuffer schedules buf immediately after the previously scheduled
// buffer, guaranteeing gapless, monotonically ordered playback as long as
// chunks arrive in order and the consumer keeps up.
func (s *Scheduler) ScheduleBuffer(buf audio.Buffer) {
	s.mu.Lock()

	if !s.open {
		s.stats.Discarded++
		s.mu.Unlock()
		return
	}

	if err := s.sink.Resume(); err != nil {
		log.Printf("Failed to resume audio output: %v", err)
	}

	now := s.clock.Now()

	if s.next == 0 {
		// First buffer since (re)start: schedule past the warm-up cushion
		// and arrange the deferred loading->playing transition.
		s.next = now + warmupTime
		s.armWarmup()
	}

	var underrun func()
	if s.next < now {
		// The cursor fell behind real time (network stall). Recoverable:
		// report the underrun, never schedule into the past, and re-arm the
		// warm-up deferral so playback reports healthy again once the
		// cushion elapses.
		s.stats.Underruns++
		s.next = now + underrunEpsilon
		underrun = s.onUnderrun
		s.armWarmup()
	}

	when := s.next
	if err := s.sink.StartAt(buf, when); err != nil {
		log.Printf("Failed to start buffer at %.3fs: %v", when, err)
	}
	s.advanceCursor(buf.Duration())
	s.stats.Scheduled++
	s.mu.Unlock()

	if underrun != nil {
		underrun()
	}
}

// Reset ramps output gain down and zeroes the cursor. Called on stop, pause,
// and any fatal connection error.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.warmup != nil {
		s.warmup.Stop()
		s.warmup = nil
	}
	s.sink.FadeOut(fadeWindow)
	s.resetCursor()
}

// Cursor returns the current next-start-time in seconds.
func (s *Scheduler) Cursor() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Stats returns scheduler statistics
func (s *Scheduler) Stats() SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// armWarmup (re)schedules the deferred warmed-up notification; callers hold
// s.mu. Any earlier pending deferral is replaced.
func (s *Scheduler) armWarmup() {
	if s.warmup != nil {
		s.warmup.Stop()
	}
	warmedUp := s.onWarmedUp
	s.warmup = s.after(time.Duration(warmupTime*float64(time.Second)), func() {
		if warmedUp != nil {
			warmedUp()
		}
	})
}

// advanceCursor moves the cursor forward; callers hold s.mu. The cursor is
// monotonically non-decreasing between resets.
func (s *Scheduler) advanceCursor(d float64) {
	s.next += d
}

// resetCursor zeroes the cursor; callers hold s.mu.
func (s *Scheduler) resetCursor() {
	s.next = 0
}
