package avplayer

import (
	"time"

	"github.com/sirupsen/logrus"
)

// VideoDecoder is the single-thread stage that pulls video packets,
// decodes them, attaches PTS/duration, updates the video clock via
// synchronizeVideo, and pushes decoded frames into a FrameRing.
type VideoDecoder struct {
	pktQ   *PacketQueue
	ring   *FrameRing
	codec  VideoCodecDecoder
	sync   *VideoSyncState
	timeBase     Rational
	avgFrameRate Rational
	fallbackDuration float64 // seconds, used when avgFrameRate is unavailable

	log *logrus.Entry
}

// NewVideoDecoder builds a VideoDecoder.
func NewVideoDecoder(pktQ *PacketQueue, ring *FrameRing, codec VideoCodecDecoder, sync *VideoSyncState, timeBase, avgFrameRate Rational, fallbackDuration time.Duration, log *logrus.Entry) *VideoDecoder {
	return &VideoDecoder{
		pktQ:             pktQ,
		ring:             ring,
		codec:            codec,
		sync:             sync,
		timeBase:         timeBase,
		avgFrameRate:     avgFrameRate,
		fallbackDuration: fallbackDuration.Seconds(),
		log:              log.WithField("stage", "video_decoder"),
	}
}

// Run executes the VideoDecoder loop until the packet queue is closed and
// drained and the codec is flushed, or a fatal decode error occurs. It
// always closes the frame ring on exit.
func (d *VideoDecoder) Run() {
	d.log.Info("video decoder started")
	defer d.log.Info("video decoder stopped")

	for {
		pkt, ok := d.pktQ.Pop()
		if !ok {
			// Queue closed and empty: submit a local flush (null) packet to
			// drain any frames the codec buffered internally, then close the
			// ring regardless of what drain reports.
			d.log.Info("video packet queue closed, flushing decoder")
			if err := d.codec.Submit(nil); err != nil {
				d.log.WithError(err).Warn("flush submit failed")
			}
			d.drain()
			d.ring.Close()
			return
		}

		if err := d.codec.Submit(&pkt); err != nil {
			d.log.WithError(err).Warn("send-packet failed, continuing")
		}

		switch d.drain() {
		case drainFatal:
			d.ring.Close()
			return
		case drainEOF:
			d.log.Info("video decoder reached eof before queue closed")
			d.ring.Close()
			return
		}
	}
}

type drainResult int

const (
	drainNeedMore drainResult = iota
	drainEOF
	drainFatal
)

// drain repeatedly receives decoded frames until EAGAIN (more input
// needed), EOF, or a fatal error. Per step 4 of the end-of-stream
// handling, an EOF closes the ring and ends the decoder loop even before
// the packet queue itself closes.
func (d *VideoDecoder) drain() drainResult {
	for {
		frame, err := d.codec.Receive()
		switch err {
		case ErrEAGAIN:
			return drainNeedMore
		case ErrEOF:
			d.log.Info("video decoder reached eof")
			return drainEOF
		case nil:
			d.publish(frame)
		default:
			d.log.WithError(err).Error("video decode error")
			return drainFatal
		}
	}
}

func (d *VideoDecoder) publish(frame *DecodedVideoFrame) {
	ptsSeconds := 0.0
	if frame.PTS != NoPTS {
		ptsSeconds = float64(frame.PTS) * d.timeBase.Float64()
	}
	ptsSeconds = d.synchronizeVideo(frame, ptsSeconds)

	duration := d.fallbackDuration
	if d.avgFrameRate.Valid() {
		duration = 1.0 / d.avgFrameRate.Float64()
	}

	slot := d.ring.PeekWritable()
	if slot == nil {
		d.log.Info("frame ring closed, video decoder exiting")
		return
	}
	slot.Frame.Data = frame.Data
	slot.Frame.Stride = frame.Stride
	slot.Frame.Width = frame.Width
	slot.Frame.Height = frame.Height
	slot.Frame.Format = frame.Format
	slot.Frame.SAR = frame.SAR
	slot.Frame.PTSSeconds = ptsSeconds
	slot.Frame.DurationSeconds = duration
	slot.Frame.RepeatHint = frame.RepeatHint
	slot.Frame.Pos = -1
	d.ring.AdvanceWrite()
}

// synchronizeVideo implements the video clock update law:
//
//	if pts != 0: video_clock = pts
//	else:        pts = video_clock
//	base_delay = (frame_rate > 0) ? 1/frame_rate : 0.04
//	frame_delay = base_delay + frame.repeat_hint * (base_delay * 0.5)
//	video_clock += frame_delay
//	return pts
func (d *VideoDecoder) synchronizeVideo(frame *DecodedVideoFrame, pts float64) float64 {
	if pts != 0 {
		d.sync.SetClockSeconds(pts)
	} else {
		pts = d.sync.ClockSeconds()
	}

	baseDelay := d.fallbackDuration
	if d.avgFrameRate.Valid() {
		baseDelay = 1.0 / d.avgFrameRate.Float64()
	}
	frameDelay := baseDelay + float64(frame.RepeatHint)*(baseDelay*0.5)
	d.sync.SetClockSeconds(d.sync.ClockSeconds() + frameDelay)

	return pts
}
