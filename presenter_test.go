package avplayer

import (
	"testing"
	"time"
)

// fakeSink is a hand-written stand-in for the platform VideoSink.
type fakeSink struct {
	created     bool
	renderCalls int
	lastRect    Rect
	winW, winH  int
}

func (s *fakeSink) CreateWindow(w, h int) error { s.winW, s.winH = w, h; return nil }
func (s *fakeSink) CreateRenderer() error       { return nil }
func (s *fakeSink) CreateTexture(PixelFormat, int, int) error {
	s.created = true
	return nil
}
func (s *fakeSink) UpdateYUV([][]byte, []int) error { return nil }
func (s *fakeSink) RenderRect(dst Rect) error {
	s.renderCalls++
	s.lastRect = dst
	return nil
}
func (s *fakeSink) WindowSize() (int, int) { return s.winW, s.winH }
func (s *fakeSink) Close() error           { return nil }

// fakeTimer records PostTimer delays instead of scheduling real events.
type fakeTimer struct {
	delays []time.Duration
	quit   bool
}

func (t *fakeTimer) PostTimer(d time.Duration) { t.delays = append(t.delays, d) }
func (t *fakeTimer) WaitEvent() EventKind      { return EventNone }
func (t *fakeTimer) PostQuit()                 { t.quit = true }

func newTestPresenter(t *testing.T, ring *FrameRing, hasVideo bool) (*Presenter, *fakeSink, *fakeTimer, *VideoSyncState, *MasterClock, *int) {
	t.Helper()
	sink := &fakeSink{winW: 800, winH: 600}
	timer := &fakeTimer{}
	sync := NewVideoSyncState(0)
	audio := NewAudioState()
	clock := NewMasterClock(audio, sync, true)
	drainCount := 0

	cfg := DefaultConfig()
	p := NewPresenter(ring, sink, timer, clock, sync, cfg, hasVideo, func() { drainCount++ }, discardLog())
	p.nowSeconds = func() float64 { return 0 }
	return p, sink, timer, sync, clock, &drainCount
}

func TestPresenterTickStoppingIsNoop(t *testing.T) {
	ring := NewFrameRing(2)
	p, sink, timer, _, _, _ := newTestPresenter(t, ring, true)

	p.Tick(true)

	if sink.renderCalls != 0 || len(timer.delays) != 0 {
		t.Fatal("Tick(stopping=true) must not render or reschedule")
	}
}

func TestPresenterTickAudioOnlyRetriesVideoBind(t *testing.T) {
	p, _, timer, _, _, _ := newTestPresenter(t, nil, false)

	p.Tick(false)

	if len(timer.delays) != 1 || timer.delays[0] != p.cfg.VideoStreamBindRetry {
		t.Fatalf("audio-only Tick should reschedule at VideoStreamBindRetry, got %v", timer.delays)
	}
}

func TestPresenterTickDrainedRingCallsOnDrainedOnce(t *testing.T) {
	ring := NewFrameRing(1)
	ring.Close()
	p, _, _, _, _, drainCount := newTestPresenter(t, ring, true)

	p.Tick(false)

	if *drainCount != 1 {
		t.Fatalf("onDrained call count = %d, want 1", *drainCount)
	}
}

func TestPresenterTickRendersAndAdvances(t *testing.T) {
	ring := NewFrameRing(2)
	slot := ring.PeekWritable()
	slot.Frame.Width, slot.Frame.Height = 64, 48
	slot.Frame.PTSSeconds = 0
	ring.AdvanceWrite()

	p, sink, _, _, _, _ := newTestPresenter(t, ring, true)
	p.Tick(false)

	if sink.renderCalls != 1 {
		t.Fatalf("RenderRect call count = %d, want 1", sink.renderCalls)
	}
	if !sink.created {
		t.Fatal("CreateTexture was never called before the first render")
	}
	if got := ring.Size(); got != 0 {
		t.Fatalf("ring size after Tick = %d, want 0 (frame consumed)", got)
	}
}

func TestPresenterDropsFrameWhenFarBehind(t *testing.T) {
	ring := NewFrameRing(1)
	slot := ring.PeekWritable()
	slot.Frame.Width, slot.Frame.Height = 64, 48
	slot.Frame.PTSSeconds = 0.0
	ring.AdvanceWrite()

	p, sink, timer, _, clock, _ := newTestPresenter(t, ring, true)
	// Push the master clock far ahead of the frame's PTS so diff <=
	// -syncThreshold, forcing the drop branch.
	clock.audio.setClock(5.0)

	p.Tick(false)

	if sink.renderCalls != 0 {
		t.Fatal("a badly-behind frame must be dropped, not rendered")
	}
	if len(timer.delays) != 1 || timer.delays[0] != 0 {
		t.Fatalf("drop branch must reschedule immediately (delay 0), got %v", timer.delays)
	}
	if got := ring.Size(); got != 0 {
		t.Fatalf("ring size after drop = %d, want 0 (frame consumed)", got)
	}
}
