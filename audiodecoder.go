package avplayer

import "github.com/sirupsen/logrus"

// bytesPerSampleS16 is the device output sample width; the device format
// is fixed at S16.
const bytesPerSampleS16 = 2

// resampleSafetyMargin is added to the input sample count when sizing the
// resampler's output buffer, covering the resampler's internal latency
// covering the resampler's internal latency.
const resampleSafetyMargin = 256

// AudioDecoder is the pulled audio decode path. It is
// driven entirely by AudioCallback, invoked on the audio device's own
// thread; AudioCallback must never block, so decodeAudioFrame uses
// PacketQueue.TryPop rather than the blocking Pop.
type AudioDecoder struct {
	pktQ      *PacketQueue
	codec     AudioCodecDecoder
	resampler Resampler // nil if the source is already S16 at matching parameters
	state     *AudioState
	timeBase  Rational

	outChannels int

	log *logrus.Entry
}

// NewAudioDecoder builds an AudioDecoder. resampler may be nil for the
// passthrough case.
func NewAudioDecoder(pktQ *PacketQueue, codec AudioCodecDecoder, resampler Resampler, state *AudioState, timeBase Rational, outChannels int, log *logrus.Entry) *AudioDecoder {
	return &AudioDecoder{
		pktQ:        pktQ,
		codec:       codec,
		resampler:   resampler,
		state:       state,
		timeBase:    timeBase,
		outChannels: outChannels,
		log:         log.WithField("stage", "audio_decoder"),
	}
}

// AudioCallback fills out with interleaved S16 PCM. It
// never blocks: on transient queue emptiness or decoder error it leaves
// the remainder of out silent (already zeroed).
func (d *AudioDecoder) AudioCallback(out []byte) {
	for i := range out {
		out[i] = 0
	}

	for len(out) > 0 {
		if d.state.bufferIndex >= d.state.bufferSize {
			n, err := d.decodeAudioFrame()
			if n <= 0 {
				if err != nil && err != ErrEOF {
					d.log.WithError(err).Trace("audio decode produced no data")
				}
				return
			}
			d.state.bufferSize = n
			d.state.bufferIndex = 0
		}

		toCopy := len(out)
		if remaining := d.state.bufferSize - d.state.bufferIndex; remaining < toCopy {
			toCopy = remaining
		}
		copy(out[:toCopy], d.state.buffer[d.state.bufferIndex:d.state.bufferIndex+toCopy])
		out = out[toCopy:]
		d.state.bufferIndex += toCopy
	}
}

// decodeAudioFrame is the non-blocking decode step. It returns the
// number of PCM bytes produced, or
// <= 0 when this iteration should produce silence (0, transient emptiness
// or EAGAIN) or stop entirely (negative, EOF/fatal error).
func (d *AudioDecoder) decodeAudioFrame() (int, error) {
	pkt, ok := d.pktQ.TryPop()
	if !ok {
		return 0, nil
	}

	if err := d.codec.Submit(&pkt); err != nil && err != ErrEAGAIN {
		d.log.WithError(err).Error("audio send-packet failed")
		return -1, err
	}

	for {
		frame, err := d.codec.Receive()
		switch err {
		case ErrEAGAIN:
			return 0, nil
		case ErrEOF:
			d.log.Info("audio decoder reached eof")
			return -1, ErrEOF
		case nil:
			return d.resampleAndUpdateClock(frame)
		default:
			d.log.WithError(err).Error("audio receive-frame failed")
			return -1, err
		}
	}
}

func (d *AudioDecoder) resampleAndUpdateClock(frame *DecodedAudioFrame) (int, error) {
	outCapSamples := frame.NumSamples + resampleSafetyMargin
	outSize := outCapSamples * d.outChannels * bytesPerSampleS16
	if cap(d.state.buffer) < outSize {
		d.state.buffer = make([]byte, outSize)
	} else {
		d.state.buffer = d.state.buffer[:outSize]
	}

	var samplesPerChannel int
	if d.resampler != nil {
		n, err := d.resampler.Convert(frame.Data, frame.NumSamples, d.state.buffer, outCapSamples)
		if err != nil {
			return -1, err
		}
		samplesPerChannel = n
	} else {
		// Passthrough: source is already S16 at the device's channel count
		// and sample rate.
		samplesPerChannel = frame.NumSamples
		copy(d.state.buffer, frame.Data[0])
	}

	dataBytes := samplesPerChannel * d.outChannels * bytesPerSampleS16

	if frame.PTS != NoPTS {
		duration := float64(frame.NumSamples) / float64(frame.SampleRate)
		d.state.setClock(float64(frame.PTS)*d.timeBase.Float64() + duration)
	} else {
		d.state.markClockUnavailable()
	}

	return dataBytes, nil
}
