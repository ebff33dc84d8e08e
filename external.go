package avplayer

import "time"

// This file defines the interfaces avplayer consumes from external
// collaborators: the demuxer, the codec decoders, the resampler, the audio
// device, the video sink, and the timer/event queue.
// Concrete implementations live outside this package: internal/nativeav,
// internal/sdlsink, internal/rtmpsource, and are wired in by cmd/avplayer.
// None of the core pipeline types import those packages; they only depend
// on the interfaces declared here.

// SampleFormat identifies a decoded audio frame's native sample layout.
type SampleFormat int

const (
	SampleFormatUnknown SampleFormat = iota
	SampleFormatS16                  // interleaved signed 16-bit PCM
	SampleFormatFLTP                 // planar 32-bit float
)

// CodecParams describes a stream's decode parameters, as extracted by the
// Demuxer from the container: per-stream time base, average frame rate,
// and codec parameters.
type CodecParams struct {
	CodecName string // decoder to open, e.g. "h264", "aac"; opaque to the core
	Extra     []byte // codec extradata (e.g. SPS/PPS, AudioSpecificConfig)

	// Video
	Width, Height int
	PixelFormat   PixelFormat

	// Audio
	SampleRate int
	Channels   int
	SampleFmt  SampleFormat
}

// StreamInfo describes one demuxed stream.
type StreamInfo struct {
	Index        int
	Kind         StreamKind
	TimeBase     Rational
	AvgFrameRate Rational // video only; zero value if unknown
	Params       CodecParams
}

// Demuxer reads packets from a container, one at a time, in demux order.
// ReadPacket returns ErrEOF at end of stream.
type Demuxer interface {
	// Streams returns the discovered streams. Called once after Open.
	Streams() []StreamInfo

	// ReadPacket reads the next packet from any stream. The returned
	// Packet owns its Data: it stays valid after later ReadPacket calls,
	// so the Reader queues it without copying.
	ReadPacket() (Packet, error)

	Close() error
}

// DecodedVideoFrame is what a VideoCodecDecoder.Receive produces: data for
// up to 3 planes plus the PTS/repeat-hint metadata synchronize_video needs.
type DecodedVideoFrame struct {
	Data       [][]byte
	Stride     []int
	Width      int
	Height     int
	Format     PixelFormat
	SAR        Rational
	PTS        int64 // stream time_base units; NoPTS if missing
	RepeatHint int
}

// VideoCodecDecoder wraps one opened video decoder context. Submit(nil)
// requests a flush.
type VideoCodecDecoder interface {
	Submit(pkt *Packet) error
	Receive() (*DecodedVideoFrame, error) // returns ErrEAGAIN or ErrEOF
	Close() error
}

// DecodedAudioFrame is what an AudioCodecDecoder.Receive produces.
type DecodedAudioFrame struct {
	Data       [][]byte // one slice per plane; packed formats use Data[0] only
	SampleRate int
	Channels   int
	Format     SampleFormat
	NumSamples int   // samples per channel
	PTS        int64 // stream time_base units; NoPTS if missing
}

// AudioCodecDecoder wraps one opened audio decoder context.
type AudioCodecDecoder interface {
	Submit(pkt *Packet) error
	Receive() (*DecodedAudioFrame, error) // returns ErrEAGAIN or ErrEOF
	Close() error
}

// Resampler converts decoded audio into the device output format. out
// must be large enough for outCapSamples
// samples per channel at the resampler's configured output format/layout;
// Convert returns the number of samples per channel actually produced.
type Resampler interface {
	Convert(inPlanes [][]byte, inSamples int, out []byte, outCapSamples int) (samplesPerChannel int, err error)
	Close() error
}

// AudioDeviceSpec describes a requested (or actual, once opened) audio
// device format.
type AudioDeviceSpec struct {
	SampleRate    int
	Channels      int
	BufferSamples int
	Callback      func(out []byte) // must never block; fills out with interleaved S16 PCM
}

// AudioDevice is the platform audio output layer. Open returns the actual
// spec the device settled on, which may differ from the request.
type AudioDevice interface {
	Open(spec AudioDeviceSpec) (AudioDeviceSpec, error)
	Pause(pause bool)
	Close() error
}

// Rect is a display rectangle in window coordinates.
type Rect struct {
	X, Y, W, H int
}

// VideoSink is the platform windowing/rendering layer.
type VideoSink interface {
	CreateWindow(width, height int) error
	CreateRenderer() error
	CreateTexture(format PixelFormat, width, height int) error
	UpdateYUV(planes [][]byte, strides []int) error
	RenderRect(dst Rect) error
	WindowSize() (width, height int)
	Close() error
}

// EventKind identifies what WaitEvent returned.
type EventKind int

const (
	EventNone EventKind = iota
	EventRefresh
	EventQuit
)

// Timer is the platform timer/event queue. PostTimer arranges for a REFRESH event to be delivered through WaitEvent
// after delay; PostQuit arranges for a QUIT event to be delivered.
type Timer interface {
	PostTimer(delay time.Duration)
	WaitEvent() EventKind
	PostQuit()
}
