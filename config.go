package avplayer

import "time"

// Config holds the player's tunable defaults. Zero-value Config is not usable; construct with DefaultConfig and
// override individual fields.
type Config struct {
	// WindowWidth/WindowHeight is the initial render target size.
	WindowWidth  int
	WindowHeight int

	// FrameRingCapacity is the number of decoded video frames buffered for
	// presentation. Clamped to [1, MaxFrameRingCapacity] by NewFrameRing.
	FrameRingCapacity int

	// PacketQueueMaxBytes is the memory ceiling and backpressure point for
	// each of the audio and video packet queues, independently.
	PacketQueueMaxBytes int

	// AudioDeviceSamples is the callback chunk size requested from the
	// audio device, in samples per channel.
	AudioDeviceSamples int

	// AudioOutputChannels/AudioOutputSampleRate describe the device format
	// the resampler converts into. Sample rate of 0 means "use the input
	// audio stream's sample rate", which is then requested from the audio
	// device; the rate reported back by the device is not consulted.
	AudioOutputChannels   int
	AudioOutputSampleRate int

	// MinSyncThreshold/MaxSyncThreshold bound the Presenter's A/V sync
	// hysteresis band in seconds.
	MinSyncThreshold float64
	MaxSyncThreshold float64

	// NoSyncThreshold suppresses sync correction entirely when the A/V
	// drift is implausibly large (e.g. a clock that hasn't been set yet).
	NoSyncThreshold float64

	// PresenterWarmup is the delay before the first Presenter tick.
	PresenterWarmup time.Duration

	// MinActualDelay floors the Presenter's computed reschedule delay to
	// avoid a busy loop while catching up.
	MinActualDelay time.Duration

	// ReaderBackpressureSleep is how long the Reader sleeps when either
	// packet queue is over its byte ceiling.
	ReaderBackpressureSleep time.Duration

	// VideoStreamBindRetry is how long the Presenter waits before
	// re-checking for a bound video stream.
	VideoStreamBindRetry time.Duration

	// FallbackFrameDuration is used for synchronize_video when the stream's
	// average frame rate is unavailable or zero.
	FallbackFrameDuration time.Duration
}

// MaxFrameRingCapacity is the hard maximum for FrameRingCapacity.
const MaxFrameRingCapacity = 16

// DefaultConfig returns the built-in tuning defaults.
func DefaultConfig() Config {
	return Config{
		WindowWidth:             1920,
		WindowHeight:            1080,
		FrameRingCapacity:       3,
		PacketQueueMaxBytes:     15 * 1024 * 1024,
		AudioDeviceSamples:      1024,
		AudioOutputChannels:     2,
		AudioOutputSampleRate:   0,
		MinSyncThreshold:        0.040,
		MaxSyncThreshold:        0.100,
		NoSyncThreshold:         10.0,
		PresenterWarmup:         40 * time.Millisecond,
		MinActualDelay:          10 * time.Millisecond,
		ReaderBackpressureSleep: 10 * time.Millisecond,
		VideoStreamBindRetry:    100 * time.Millisecond,
		FallbackFrameDuration:   40 * time.Millisecond,
	}
}
