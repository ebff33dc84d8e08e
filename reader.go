package avplayer

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Reader is the single-thread stage that pulls compressed packets from a
// Demuxer and routes them onto the selected audio/video PacketQueue.
type Reader struct {
	demux    Demuxer
	videoQ   *PacketQueue
	audioQ   *PacketQueue
	videoIdx int // selected video stream index, or -1
	audioIdx int // selected audio stream index, or -1

	backpressureSleep time.Duration
	onEOF             func() // optional; called once on clean end-of-stream, before queues close
	log               *logrus.Entry
}

// NewReader builds a Reader. videoIdx/audioIdx may be -1 if that stream
// kind isn't present; at least one must be >= 0. onEOF may be nil.
func NewReader(demux Demuxer, videoQ, audioQ *PacketQueue, videoIdx, audioIdx int, backpressureSleep time.Duration, onEOF func(), log *logrus.Entry) *Reader {
	return &Reader{
		demux:             demux,
		videoQ:            videoQ,
		audioQ:            audioQ,
		videoIdx:          videoIdx,
		audioIdx:          audioIdx,
		backpressureSleep: backpressureSleep,
		onEOF:             onEOF,
		log:               log.WithField("stage", "reader"),
	}
}

// Run executes the Reader loop until end-of-stream, a read error, or the
// demuxer is closed out from under it. It always closes both packet
// queues on exit, the only EOF signal decoders observe.
func (r *Reader) Run() {
	r.log.Info("reader started")
	defer func() {
		r.videoQ.Close()
		r.audioQ.Close()
		r.log.Info("reader stopped, packet queues closed")
	}()

	for {
		if r.videoQ.BytesQueued() > r.videoQ.maxBytes || r.audioQ.BytesQueued() > r.audioQ.maxBytes {
			time.Sleep(r.backpressureSleep)
			continue
		}

		pkt, err := r.demux.ReadPacket()
		if err != nil {
			if err == ErrEOF {
				r.log.Info("end of stream reached")
				if r.onEOF != nil {
					r.onEOF()
				}
			} else {
				r.log.WithError(err).Error("packet read failed")
			}
			return
		}

		switch pkt.StreamID {
		case r.videoIdx:
			pkt.Kind = StreamKindVideo
			r.videoQ.Push(pkt)
		case r.audioIdx:
			pkt.Kind = StreamKindAudio
			r.audioQ.Push(pkt)
		default:
			// not a selected stream; discard
		}
	}
}
