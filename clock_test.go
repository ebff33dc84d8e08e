package avplayer

import (
	"math"
	"testing"
)

func TestAtomicFloat64StoreLoad(t *testing.T) {
	var a atomicFloat64
	a.Store(3.25)
	if got := a.Load(); got != 3.25 {
		t.Fatalf("Load() = %v, want 3.25", got)
	}
}

func TestNewAudioStateClockStartsUnavailable(t *testing.T) {
	s := NewAudioState()
	if !math.IsNaN(s.ClockSeconds()) {
		t.Fatalf("ClockSeconds() = %v, want NaN before any frame decoded", s.ClockSeconds())
	}
	s.setClock(1.5)
	if got := s.ClockSeconds(); got != 1.5 {
		t.Fatalf("ClockSeconds() = %v, want 1.5", got)
	}
	s.markClockUnavailable()
	if !math.IsNaN(s.ClockSeconds()) {
		t.Fatal("markClockUnavailable did not reset clock to NaN")
	}
}

func TestVideoSyncStateSeededAtNow(t *testing.T) {
	s := NewVideoSyncState(100.0)
	if s.FrameTimer != 100.0 {
		t.Fatalf("FrameTimer = %v, want 100.0", s.FrameTimer)
	}
	s.SetClockSeconds(5.0)
	if got := s.ClockSeconds(); got != 5.0 {
		t.Fatalf("ClockSeconds() = %v, want 5.0", got)
	}
}

func TestMasterClockPrefersAudioWhenPresent(t *testing.T) {
	audio := NewAudioState()
	audio.setClock(2.0)
	video := NewVideoSyncState(0)
	video.SetClockSeconds(9.0)

	withAudio := NewMasterClock(audio, video, true)
	if got := withAudio.Seconds(); got != 2.0 {
		t.Fatalf("Seconds() with audio present = %v, want audio clock 2.0", got)
	}

	videoOnly := NewMasterClock(nil, video, false)
	if got := videoOnly.Seconds(); got != 9.0 {
		t.Fatalf("Seconds() without audio = %v, want video clock 9.0", got)
	}
}
