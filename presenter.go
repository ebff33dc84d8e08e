package avplayer

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// Presenter is the timer-driven UI-thread loop that paces video
// presentation against the master clock. Tick is called
// once per REFRESH event; it is never called concurrently with itself, and
// it never blocks; every wait is expressed as a rescheduled timer, not a
// sleep.
type Presenter struct {
	ring     *FrameRing
	sink     VideoSink
	timer    Timer
	clock    *MasterClock
	sync     *VideoSyncState
	cfg      Config
	hasVideo bool

	textureCreated bool

	nowSeconds  func() float64 // injectable for tests; defaults to wall clock
	onDrained   func()         // called once when the ring is closed-and-empty

	log *logrus.Entry
}

// NewPresenter builds a Presenter. hasVideo must be false for an
// audio-only stream. In that case Tick never advances past the
// stream-not-bound retry.
func NewPresenter(ring *FrameRing, sink VideoSink, timer Timer, clock *MasterClock, sync *VideoSyncState, cfg Config, hasVideo bool, onDrained func(), log *logrus.Entry) *Presenter {
	return &Presenter{
		ring:       ring,
		sink:       sink,
		timer:      timer,
		clock:      clock,
		sync:       sync,
		cfg:        cfg,
		hasVideo:   hasVideo,
		nowSeconds: wallClockSeconds,
		onDrained:  onDrained,
		log:        log.WithField("stage", "presenter"),
	}
}

func wallClockSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// clamp restricts v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Tick executes one Presenter refresh. stopping, when true, makes Tick a
// no-op.
func (p *Presenter) Tick(stopping bool) {
	if stopping {
		return
	}

	if !p.hasVideo {
		p.timer.PostTimer(p.cfg.VideoStreamBindRetry)
		return
	}

	if p.ring.Size() == 0 && !p.ring.Closed() {
		// Nothing decoded yet: hold the last frame and retry at the floor
		// delay rather than blocking the UI thread in PeekReadable.
		p.timer.PostTimer(p.cfg.MinActualDelay)
		return
	}

	slot := p.ring.PeekReadable()
	if slot == nil {
		p.log.Debug("all video frames rendered, draining complete")
		p.onDrained()
		return
	}
	frame := &slot.Frame

	pts := frame.PTSSeconds
	delay := 0.0
	if p.sync.LastFramePTS != 0 {
		delay = pts - p.sync.LastFramePTS
	}
	if delay <= 0 || delay >= 1.0 {
		delay = p.sync.LastFrameDelay
	}
	p.sync.LastFrameDelay = delay
	p.sync.LastFramePTS = pts

	refClock := p.clock.Seconds()
	diff := pts - refClock
	syncThreshold := clamp(delay, p.cfg.MinSyncThreshold, p.cfg.MaxSyncThreshold)

	if !math.IsNaN(diff) && math.Abs(diff) < p.cfg.NoSyncThreshold {
		if diff <= -syncThreshold {
			// Video is badly behind: drop this frame to catch up. Audio
			// cannot slow down without pitch artifacts, so the correction
			// burden falls entirely on video.
			p.ring.AdvanceRead()
			p.timer.PostTimer(0)
			return
		}
		if diff >= syncThreshold {
			// Video is ahead: wait longer. Doubling converges faster than
			// adding diff directly while remaining stable.
			delay *= 2
		}
	}

	p.sync.FrameTimer += delay
	actualDelay := p.sync.FrameTimer - p.nowSeconds()
	if actualDelay < p.cfg.MinActualDelay.Seconds() {
		actualDelay = p.cfg.MinActualDelay.Seconds()
	}
	p.timer.PostTimer(time.Duration(actualDelay * float64(time.Second)))

	p.render(frame)
	p.ring.AdvanceRead()
}

func (p *Presenter) render(frame *RawFrame) {
	if !p.textureCreated {
		if err := p.sink.CreateTexture(frame.Format, frame.Width, frame.Height); err != nil {
			p.log.WithError(err).Error("create texture failed")
			return
		}
		p.textureCreated = true
	}

	if err := p.sink.UpdateYUV(frame.Data, frame.Stride); err != nil {
		p.log.WithError(err).Error("update texture failed")
		return
	}

	winW, winH := p.sink.WindowSize()
	rect := CalculateDisplayRect(winW, winH, frame.Width, frame.Height, frame.SAR)
	if err := p.sink.RenderRect(rect); err != nil {
		p.log.WithError(err).Error("render failed")
	}
}
