package avplayer

import (
	"math"
	"sync/atomic"
)

// atomicFloat64 is a cross-thread-safe float64 scalar. A bare float64
// write/read pair across goroutines without synchronization is a data race
// even though it is only staleness that the sync hysteresis thresholds
// already tolerate.
type atomicFloat64 struct {
	bits atomic.Uint64
}

func (a *atomicFloat64) Store(v float64) { a.bits.Store(math.Float64bits(v)) }
func (a *atomicFloat64) Load() float64   { return math.Float64frombits(a.bits.Load()) }

// AudioState is the audio decode path's mutable state: residual PCM
// buffer, read cursor, filled length, and the audio clock.
// Every field except clock is touched exclusively by the audio callback
// thread; clock is written there and read by the Presenter.
type AudioState struct {
	buffer      []byte // residual PCM produced by the last decode_audio_frame call
	bufferSize  int    // valid length of buffer
	bufferIndex int     // read cursor into buffer

	clock atomicFloat64 // audio_clock_seconds; NaN when not-a-number (no valid PTS yet)
}

// NewAudioState returns an AudioState with the clock marked unavailable.
func NewAudioState() *AudioState {
	s := &AudioState{}
	s.clock.Store(math.NaN())
	return s
}

// ClockSeconds returns the current audio clock, or NaN if unavailable.
func (s *AudioState) ClockSeconds() float64 { return s.clock.Load() }

// setClock updates the audio clock after a fully decoded and resampled
// frame has been attributed; never updated speculatively beforehand.
func (s *AudioState) setClock(seconds float64) { s.clock.Store(seconds) }

// markClockUnavailable marks the audio clock NaN, done when a decoded
// frame lacks a valid PTS.
func (s *AudioState) markClockUnavailable() { s.clock.Store(math.NaN()) }

// VideoSyncState is the Presenter/VideoDecoder's shared sync bookkeeping.
// FrameTimer, LastFramePTS, LastFrameDelay are owned by the Presenter
// goroutine alone; videoClock is written by the VideoDecoder goroutine and
// read by the Presenter only when no audio stream is present.
type VideoSyncState struct {
	FrameTimer      float64 // ideal wall-clock timetable for the next render, seconds
	LastFramePTS    float64
	LastFrameDelay  float64

	videoClock atomicFloat64
}

// NewVideoSyncState returns a VideoSyncState with FrameTimer seeded to
// now (seconds), calibrated at stream-open time.
func NewVideoSyncState(nowSeconds float64) *VideoSyncState {
	s := &VideoSyncState{FrameTimer: nowSeconds}
	return s
}

// ClockSeconds returns the current video clock.
func (s *VideoSyncState) ClockSeconds() float64 { return s.videoClock.Load() }

// SetClockSeconds updates the video clock. Called only from the
// VideoDecoder stage's sync law.
func (s *VideoSyncState) SetClockSeconds(seconds float64) { s.videoClock.Store(seconds) }

// MasterClock resolves to the audio clock when an audio stream is
// present, else the video clock.
type MasterClock struct {
	audio    *AudioState
	video    *VideoSyncState
	hasAudio bool
}

// NewMasterClock builds a MasterClock. video may be nil only if hasAudio
// is true (an audio-only stream has no VideoSyncState).
func NewMasterClock(audio *AudioState, video *VideoSyncState, hasAudio bool) *MasterClock {
	return &MasterClock{audio: audio, video: video, hasAudio: hasAudio}
}

// Seconds returns the current reference clock for A/V sync decisions.
func (c *MasterClock) Seconds() float64 {
	if c.hasAudio {
		return c.audio.ClockSeconds()
	}
	return c.video.ClockSeconds()
}
