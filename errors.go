package avplayer

import "errors"

// ErrClosed names the closed condition of a queue or ring. The queue and
// ring operations do not return it: they report closure as ok=false or a
// nil slot.
var ErrClosed = errors.New("avplayer: closed")

// ErrEAGAIN mirrors the codec's "needs more input before another output is
// available" signal. It is never surfaced to callers outside this module;
// each stage handles it inline.
var ErrEAGAIN = errors.New("avplayer: eagain")

// ErrEOF mirrors a demuxer/decoder end-of-stream signal distinct from a Go
// io.EOF so that callers don't need to reason about io semantics that don't
// apply to packet/frame handles.
var ErrEOF = errors.New("avplayer: eof")

// ErrNoStreams is a startup-fatal error: neither an audio nor a video
// stream could be found in the input.
var ErrNoStreams = errors.New("avplayer: no audio or video stream found")

// ErrNotRunning describes an operation that needs the player in the
// Running state. No Player method currently returns it.
var ErrNotRunning = errors.New("avplayer: player not running")
