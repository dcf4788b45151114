// ABOUTME: Tests for the playback scheduler
// ABOUTME: Uses a fake clock and sink to verify gapless and underrun behavior
package player

import (
	"testing"
	"time"

	"github.com/promptdj/promptdj-go/internal/audio"
)

type fakeClock struct {
	now float64
}

func (c *fakeClock) Now() float64 { return c.now }

type startRecord struct {
	when     float64
	duration float64
}

type fakeSink struct {
	starts  []startRecord
	faded   bool
	resumed int
}

func (s *fakeSink) StartAt(buf audio.Buffer, when float64) error {
	s.starts = append(s.starts, startRecord{when: when, duration: buf.Duration()})
	return nil
}

func (s *fakeSink) FadeOut(d time.Duration) { s.faded = true }
func (s *fakeSink) Resume() error           { s.resumed++; return nil }

// testBuffer builds a buffer of the given duration in seconds at 48kHz mono.
func testBuffer(seconds float64) audio.Buffer {
	frames := int(seconds * 48000)
	return audio.Buffer{Data: [][]float32{make([]float32, frames)}, SampleRate: 48000}
}

// noTimer swallows the warm-up timer so tests control transitions directly.
func noTimer(d time.Duration, f func()) *time.Timer {
	return time.NewTimer(time.Hour)
}

func TestScheduleGapless(t *testing.T) {
	clock := &fakeClock{now: 5.0}
	sink := &fakeSink{}
	s := NewScheduler(clock, sink)
	s.after = noTimer
	s.SetOpen(true)

	durations := []float64{0.5, 0.25, 1.0, 0.125}
	for _, d := range durations {
		s.ScheduleBuffer(testBuffer(d))
	}

	if len(sink.starts) != len(durations) {
		t.Fatalf("expected %d starts, got %d", len(durations), len(sink.starts))
	}

	// First start is now + warm-up; the rest follow at cumulative sums
	want := clock.now + warmupTime
	for i, rec := range sink.starts {
		if rec.when != want {
			t.Errorf("buffer %d: expected start %v, got %v", i, want, rec.when)
		}
		want += rec.duration
	}

	if s.Cursor() != want {
		t.Errorf("expected cursor %v, got %v", want, s.Cursor())
	}
}

func TestScheduleDiscardsWhileClosed(t *testing.T) {
	clock := &fakeClock{}
	sink := &fakeSink{}
	s := NewScheduler(clock, sink)
	s.after = noTimer

	s.ScheduleBuffer(testBuffer(0.5))

	if len(sink.starts) != 0 {
		t.Errorf("expected no starts while closed, got %d", len(sink.starts))
	}
	if s.Cursor() != 0 {
		t.Errorf("expected cursor to stay 0, got %v", s.Cursor())
	}
	if s.Stats().Discarded != 1 {
		t.Errorf("expected 1 discarded, got %d", s.Stats().Discarded)
	}
}

func TestScheduleResumesSink(t *testing.T) {
	clock := &fakeClock{}
	sink := &fakeSink{}
	s := NewScheduler(clock, sink)
	s.after = noTimer
	s.SetOpen(true)

	s.ScheduleBuffer(testBuffer(0.5))

	if sink.resumed != 1 {
		t.Errorf("expected one resume call, got %d", sink.resumed)
	}
}

func TestUnderrunRecovery(t *testing.T) {
	clock := &fakeClock{now: 1.0}
	sink := &fakeSink{}
	s := NewScheduler(clock, sink)
	s.after = noTimer
	s.SetOpen(true)

	underruns := 0
	s.SetCallbacks(nil, func() { underruns++ })

	s.ScheduleBuffer(testBuffer(0.5)) // cursor = 2.0 + 0.5

	// Simulate a network stall: the clock races past the cursor
	clock.now = 10.0
	s.ScheduleBuffer(testBuffer(0.5))

	if underruns != 1 {
		t.Fatalf("expected 1 underrun notification, got %d", underruns)
	}

	last := sink.starts[len(sink.starts)-1]
	if last.when < clock.now {
		t.Errorf("scheduled into the past: start %v < clock %v", last.when, clock.now)
	}
	if s.Stats().Underruns != 1 {
		t.Errorf("expected 1 recorded underrun, got %d", s.Stats().Underruns)
	}
}

func TestUnderrunRearmsWarmup(t *testing.T) {
	clock := &fakeClock{now: 1.0}
	sink := &fakeSink{}
	s := NewScheduler(clock, sink)
	s.SetOpen(true)

	warmed := 0
	underruns := 0
	s.SetCallbacks(func() { warmed++ }, func() { underruns++ })

	// Capture each deferred warm-up transition instead of waiting it out
	var deferred func()
	s.after = func(d time.Duration, f func()) *time.Timer {
		deferred = f
		return time.NewTimer(time.Hour)
	}

	s.ScheduleBuffer(testBuffer(0.5))
	deferred() // cushion elapses, steady playback
	if warmed != 1 {
		t.Fatalf("expected 1 warmed-up notification, got %d", warmed)
	}
	deferred = nil

	// Stall: the clock races past the cursor
	clock.now = 10.0
	s.ScheduleBuffer(testBuffer(0.5))
	if underruns != 1 {
		t.Fatalf("expected 1 underrun, got %d", underruns)
	}
	if deferred == nil {
		t.Fatal("expected warm-up deferral re-armed after underrun")
	}

	// Healthy chunks keep arriving; once the cushion elapses playback must
	// report healthy again, not stay loading forever.
	s.ScheduleBuffer(testBuffer(0.5))
	deferred()
	if warmed != 2 {
		t.Errorf("expected warmed-up notification after recovery, got %d", warmed)
	}
}

func TestWarmupCallback(t *testing.T) {
	clock := &fakeClock{}
	sink := &fakeSink{}
	s := NewScheduler(clock, sink)
	s.SetOpen(true)

	var fired chan struct{} = make(chan struct{}, 1)
	s.SetCallbacks(func() { fired <- struct{}{} }, nil)

	// Fire deferred transitions immediately instead of waiting a second
	s.after = func(d time.Duration, f func()) *time.Timer {
		if d != time.Second {
			t.Errorf("expected warm-up deferral of 1s, got %v", d)
		}
		f()
		return time.NewTimer(time.Hour)
	}

	s.ScheduleBuffer(testBuffer(0.5))

	select {
	case <-fired:
	default:
		t.Error("expected warm-up callback to fire")
	}
}

func TestReset(t *testing.T) {
	clock := &fakeClock{now: 3.0}
	sink := &fakeSink{}
	s := NewScheduler(clock, sink)
	s.after = noTimer
	s.SetOpen(true)

	s.ScheduleBuffer(testBuffer(0.5))
	if s.Cursor() == 0 {
		t.Fatal("expected non-zero cursor after scheduling")
	}

	s.Reset()

	if s.Cursor() != 0 {
		t.Errorf("expected cursor 0 after reset, got %v", s.Cursor())
	}
	if !sink.faded {
		t.Error("expected sink fade-out on reset")
	}

	// Next buffer after reset gets the warm-up cushion again
	s.ScheduleBuffer(testBuffer(0.5))
	last := sink.starts[len(sink.starts)-1]
	if last.when != clock.now+warmupTime {
		t.Errorf("expected restart at %v, got %v", clock.now+warmupTime, last.when)
	}
}
