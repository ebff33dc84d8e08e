package avplayer

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// PlayerState is the supervisor's lifecycle state.
type PlayerState int32

const (
	StateUninit PlayerState = iota
	StateOpening
	StateRunning
	StateDraining
	StateStopped
)

func (s PlayerState) String() string {
	switch s {
	case StateUninit:
		return "uninit"
	case StateOpening:
		return "opening"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stats is a diagnostic snapshot, not gated on by any control decision.
type Stats struct {
	VideoQueueBytes    int
	AudioQueueBytes    int
	VideoQueueDuration int64
	AudioQueueDuration int64
	FramesBuffered     int
	State              PlayerState
}

// PlayerConfig bundles everything Player.Open needs from its caller:
// the already-opened external collaborators plus tuning.
type PlayerConfig struct {
	Demux    Demuxer
	Sink     VideoSink
	Timer    Timer
	AudioDev AudioDevice
	Cfg      Config

	// OpenVideoDecoder/OpenAudioDecoder/OpenResampler construct the codec
	// contexts for the streams Player selects; they're injected so Player
	// never imports internal/nativeav directly.
	OpenVideoDecoder func(CodecParams) (VideoCodecDecoder, error)
	OpenAudioDecoder func(CodecParams) (AudioCodecDecoder, error)
	OpenResampler    func(in CodecParams, outChannels, outSampleRate int) (Resampler, error)
}

// Player is the top-level supervisor: it opens the container, binds
// streams to decoders, wires the queues/ring/clock together, spawns the
// Reader and VideoDecoder goroutines, drives the audio device, and runs
// the UI event loop that ticks the Presenter.
type Player struct {
	cfg   Config
	demux Demuxer
	sink  VideoSink
	timer Timer

	audioDev AudioDevice

	videoQ *PacketQueue
	audioQ *PacketQueue
	ring   *FrameRing

	audioState *AudioState
	videoSync  *VideoSyncState
	clock      *MasterClock

	videoDecoderCtx VideoCodecDecoder
	audioDecoderCtx AudioCodecDecoder
	resampler       Resampler
	audioDecoder    *AudioDecoder

	hasVideo bool
	hasAudio bool

	presenter *Presenter

	state atomic.Int32
	wg    sync.WaitGroup

	stopOnce sync.Once

	log *logrus.Entry
}

// NewPlayer constructs an unopened Player in Uninit state.
func NewPlayer(log *logrus.Entry) *Player {
	p := &Player{log: log.WithField("stage", "player")}
	p.state.Store(int32(StateUninit))
	return p
}

// State returns the current lifecycle state.
func (p *Player) State() PlayerState { return PlayerState(p.state.Load()) }

func (p *Player) setState(s PlayerState) {
	p.log.WithField("from", p.State()).WithField("to", s).Info("state transition")
	p.state.Store(int32(s))
}

// Open finds one video and/or one audio stream (first match of each
// type), opens decoders/resampler/audio device, allocates the queues and
// ring, and spawns the Reader and VideoDecoder goroutines. It does not
// start the UI event loop; call Run for that. On any failure, everything
// acquired so far is torn down and an error is returned with Player left
// in Stopped.
func (p *Player) Open(pc PlayerConfig) error {
	p.setState(StateOpening)

	p.cfg = pc.Cfg
	p.demux = pc.Demux
	p.sink = pc.Sink
	p.timer = pc.Timer
	p.audioDev = pc.AudioDev

	var videoInfo, audioInfo *StreamInfo
	for _, s := range pc.Demux.Streams() {
		switch s.Kind {
		case StreamKindVideo:
			if videoInfo == nil {
				si := s
				videoInfo = &si
			}
		case StreamKindAudio:
			if audioInfo == nil {
				si := s
				audioInfo = &si
			}
		}
	}
	if videoInfo == nil && audioInfo == nil {
		p.setState(StateStopped)
		return fmt.Errorf("open player: %w", ErrNoStreams)
	}

	p.videoQ = NewPacketQueue(p.cfg.PacketQueueMaxBytes)
	p.audioQ = NewPacketQueue(p.cfg.PacketQueueMaxBytes)

	videoIdx, audioIdx := -1, -1

	if videoInfo != nil {
		p.log.WithField("codec", videoInfo.Params.CodecName).Info("opening video component")
		dec, err := pc.OpenVideoDecoder(videoInfo.Params)
		if err != nil {
			p.teardownPartial()
			p.setState(StateStopped)
			return fmt.Errorf("open video decoder: %w", err)
		}
		p.videoDecoderCtx = dec
		videoIdx = videoInfo.Index
		p.hasVideo = true

		if err := p.sink.CreateWindow(p.cfg.WindowWidth, p.cfg.WindowHeight); err != nil {
			p.teardownPartial()
			p.setState(StateStopped)
			return fmt.Errorf("create window: %w", err)
		}
		if err := p.sink.CreateRenderer(); err != nil {
			p.teardownPartial()
			p.setState(StateStopped)
			return fmt.Errorf("create renderer: %w", err)
		}

		p.ring = NewFrameRing(p.cfg.FrameRingCapacity)
		// frame_timer is calibrated the instant the video decoder opens,
		// not deferred to the Presenter's first tick.
		p.videoSync = NewVideoSyncState(wallClockSeconds())
	}

	if audioInfo != nil {
		p.log.WithField("codec", audioInfo.Params.CodecName).Info("opening audio component")
		dec, err := pc.OpenAudioDecoder(audioInfo.Params)
		if err != nil {
			p.teardownPartial()
			p.setState(StateStopped)
			return fmt.Errorf("open audio decoder: %w", err)
		}
		p.audioDecoderCtx = dec
		audioIdx = audioInfo.Index
		p.hasAudio = true

		outRate := p.cfg.AudioOutputSampleRate
		if outRate == 0 {
			outRate = audioInfo.Params.SampleRate
		}
		resampler, err := pc.OpenResampler(audioInfo.Params, p.cfg.AudioOutputChannels, outRate)
		if err != nil {
			p.teardownPartial()
			p.setState(StateStopped)
			return fmt.Errorf("open resampler: %w", err)
		}
		p.resampler = resampler

		p.audioState = NewAudioState()
		p.audioDecoder = NewAudioDecoder(p.audioQ, p.audioDecoderCtx, p.resampler, p.audioState, audioInfo.TimeBase, p.cfg.AudioOutputChannels, p.log)

		actual, err := p.audioDev.Open(AudioDeviceSpec{
			SampleRate:    outRate,
			Channels:      p.cfg.AudioOutputChannels,
			BufferSamples: p.cfg.AudioDeviceSamples,
			Callback:      p.audioDecoder.AudioCallback,
		})
		if err != nil {
			p.teardownPartial()
			p.setState(StateStopped)
			return fmt.Errorf("open audio device: %w", err)
		}
		_ = actual
	}

	p.clock = NewMasterClock(p.audioState, p.videoSync, p.hasAudio)

	// Every fallible acquisition has succeeded; only now are the stage
	// goroutines spawned, so a failed Open never leaves one running
	// against a half-torn-down Player.
	reader := NewReader(p.demux, p.videoQ, p.audioQ, videoIdx, audioIdx, p.cfg.ReaderBackpressureSleep, p.beginDraining, p.log)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		reader.Run()
	}()

	if p.hasVideo {
		vd := NewVideoDecoder(p.videoQ, p.ring, p.videoDecoderCtx, p.videoSync, videoInfo.TimeBase, videoInfo.AvgFrameRate, p.cfg.FallbackFrameDuration, p.log)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			vd.Run()
		}()
		p.presenter = NewPresenter(p.ring, p.sink, p.timer, p.clock, p.videoSync, p.cfg, true, p.onPresenterDrained, p.log)
	} else {
		p.presenter = NewPresenter(nil, p.sink, p.timer, p.clock, p.videoSync, p.cfg, false, p.onPresenterDrained, p.log)
	}

	if p.hasAudio {
		p.audioDev.Pause(false)
	}

	p.setState(StateRunning)
	p.timer.PostTimer(p.cfg.PresenterWarmup)

	if p.hasAudio {
		// Without video, the FrameRing never populates or closes, so the
		// Presenter alone can't observe end-of-playback; and even with
		// video, the ring can drain before the audio queue does. Either
		// way a poller is needed to notice when audio also finishes.
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.audioDrainWatchdog()
		}()
	}

	return nil
}

// onPresenterDrained is called by the Presenter exactly once when the
// frame ring closes and empties, the video side's contribution to the
// Running -> Draining -> Stopped transition.
func (p *Player) onPresenterDrained() {
	p.beginDraining()
	p.tryFinishDraining()
}

// audioDrainWatchdog polls the audio queue's closed-and-empty state,
// flushes the audio decoder once reached, and drives Draining -> Stopped
// once every input this player cares about has gone quiet.
func (p *Player) audioDrainWatchdog() {
	ticker := time.NewTicker(p.cfg.VideoStreamBindRetry)
	defer ticker.Stop()

	flushed := false
	for range ticker.C {
		if p.State() != StateRunning && p.State() != StateDraining {
			return
		}
		if p.audioQ.Closed() && p.audioQ.BytesQueued() == 0 {
			p.beginDraining()
			if !flushed && p.audioDecoderCtx != nil {
				flushed = true
				_ = p.audioDecoderCtx.Submit(nil)
			}
			p.tryFinishDraining()
			return
		}
	}
}

func (p *Player) beginDraining() {
	if p.State() == StateRunning {
		p.setState(StateDraining)
	}
}

// tryFinishDraining transitions Draining -> Stopped once every input this
// player cares about has gone closed-and-empty: the frame ring (if there
// is video) and the audio queue (if there is audio).
func (p *Player) tryFinishDraining() {
	if p.State() != StateDraining {
		return
	}
	if p.hasVideo && !(p.ring.Closed() && p.ring.Size() == 0) {
		return
	}
	if p.hasAudio && !(p.audioQ.Closed() && p.audioQ.BytesQueued() == 0) {
		return
	}
	p.setState(StateStopped)
	p.timer.PostQuit()
}

// Run drives the UI event loop until a QUIT event is observed, i.e.
// until the player reaches Stopped or the user requests exit. It must be
// called from the platform's UI thread, matching the Timer/VideoSink
// contract.
func (p *Player) Run() {
	for {
		switch p.timer.WaitEvent() {
		case EventQuit:
			p.Close()
			return
		case EventRefresh:
			p.presenter.Tick(p.State() == StateStopped)
		case EventNone:
		}
	}
}

// Close requests shutdown and waits for every stage goroutine to exit,
// releasing resources in reverse construction order. It is safe to call
// more than once and from any goroutine.
func (p *Player) Close() error {
	var result error
	p.stopOnce.Do(func() {
		p.setState(StateStopped)

		if p.videoQ != nil {
			p.videoQ.Close()
		}
		if p.audioQ != nil {
			p.audioQ.Close()
		}
		if p.ring != nil {
			p.ring.Close()
		}

		p.wg.Wait()

		var merr *multierror.Error
		if p.hasAudio && p.audioDev != nil {
			p.audioDev.Pause(true)
			if err := p.audioDev.Close(); err != nil {
				merr = multierror.Append(merr, fmt.Errorf("close audio device: %w", err))
			}
		}
		if p.resampler != nil {
			if err := p.resampler.Close(); err != nil {
				merr = multierror.Append(merr, fmt.Errorf("close resampler: %w", err))
			}
		}
		if p.audioDecoderCtx != nil {
			if err := p.audioDecoderCtx.Close(); err != nil {
				merr = multierror.Append(merr, fmt.Errorf("close audio decoder: %w", err))
			}
		}
		if p.sink != nil {
			if err := p.sink.Close(); err != nil {
				merr = multierror.Append(merr, fmt.Errorf("close video sink: %w", err))
			}
		}
		if p.videoDecoderCtx != nil {
			if err := p.videoDecoderCtx.Close(); err != nil {
				merr = multierror.Append(merr, fmt.Errorf("close video decoder: %w", err))
			}
		}
		if p.demux != nil {
			if err := p.demux.Close(); err != nil {
				merr = multierror.Append(merr, fmt.Errorf("close demuxer: %w", err))
			}
		}

		if merr != nil {
			result = merr.ErrorOrNil()
		}
	})
	return result
}

// teardownPartial releases whatever was acquired before a failed Open
// call, best-effort, logging rather than returning errors (the caller
// already has the real error to return).
func (p *Player) teardownPartial() {
	if p.resampler != nil {
		if err := p.resampler.Close(); err != nil {
			p.log.WithError(err).Warn("close resampler failed")
		}
	}
	if p.audioDecoderCtx != nil {
		if err := p.audioDecoderCtx.Close(); err != nil {
			p.log.WithError(err).Warn("close audio decoder failed")
		}
	}
	if p.videoDecoderCtx != nil {
		if err := p.videoDecoderCtx.Close(); err != nil {
			p.log.WithError(err).Warn("close video decoder failed")
		}
	}
	if p.sink != nil {
		if err := p.sink.Close(); err != nil {
			p.log.WithError(err).Warn("close video sink failed")
		}
	}
}

// Stats returns a diagnostic snapshot; safe to call from any goroutine.
func (p *Player) Stats() Stats {
	s := Stats{State: p.State()}
	if p.videoQ != nil {
		s.VideoQueueBytes = p.videoQ.BytesQueued()
		s.VideoQueueDuration = p.videoQ.Duration()
	}
	if p.audioQ != nil {
		s.AudioQueueBytes = p.audioQ.BytesQueued()
		s.AudioQueueDuration = p.audioQ.Duration()
	}
	if p.ring != nil {
		s.FramesBuffered = p.ring.Size()
	}
	return s
}
