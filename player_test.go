package avplayer

import (
	"testing"
	"time"
)

type fakeAudioDevice struct {
	paused bool
	closed bool
}

func (d *fakeAudioDevice) Open(spec AudioDeviceSpec) (AudioDeviceSpec, error) { return spec, nil }
func (d *fakeAudioDevice) Pause(pause bool)                                  { d.paused = pause }
func (d *fakeAudioDevice) Close() error                                      { d.closed = true; return nil }

type fakeResampler struct{ closed bool }

func (r *fakeResampler) Convert(in [][]byte, inSamples int, out []byte, outCap int) (int, error) {
	return inSamples, nil
}
func (r *fakeResampler) Close() error { r.closed = true; return nil }

func streamsDemuxer(streams []StreamInfo, packets []Packet) *fakeDemuxer {
	d := &fakeDemuxer{packets: packets}
	d.streams = streams
	return d
}

func TestPlayerOpenWithNoStreamsFails(t *testing.T) {
	p := NewPlayer(discardLog())
	err := p.Open(PlayerConfig{
		Demux: &fakeDemuxer{},
		Cfg:   DefaultConfig(),
	})
	if err == nil {
		t.Fatal("Open with no streams must fail")
	}
	if p.State() != StateStopped {
		t.Fatalf("State() after failed Open = %v, want Stopped", p.State())
	}
}

func TestPlayerAudioOnlyDrainsToStopped(t *testing.T) {
	demux := streamsDemuxer(
		[]StreamInfo{{Index: 0, Kind: StreamKindAudio, TimeBase: Rational{1, 48000}, Params: CodecParams{CodecName: "aac", SampleRate: 48000, Channels: 2}}},
		[]Packet{{StreamID: 0, PTS: 0, Size: 0}},
	)

	cfg := DefaultConfig()
	cfg.VideoStreamBindRetry = 5 * time.Millisecond

	p := NewPlayer(discardLog())
	timer := &fakeTimer{}
	err := p.Open(PlayerConfig{
		Demux:    demux,
		Sink:     &fakeSink{},
		Timer:    timer,
		AudioDev: &fakeAudioDevice{},
		Cfg:      cfg,
		OpenVideoDecoder: func(CodecParams) (VideoCodecDecoder, error) { return nil, nil },
		OpenAudioDecoder: func(CodecParams) (AudioCodecDecoder, error) { return &fakeAudioCodec{}, nil },
		OpenResampler:    func(CodecParams, int, int) (Resampler, error) { return &fakeResampler{}, nil },
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if p.State() != StateRunning {
		t.Fatalf("State() after successful Open = %v, want Running", p.State())
	}

	deadline := time.After(2 * time.Second)
	for p.State() != StateStopped {
		select {
		case <-deadline:
			t.Fatalf("player never reached Stopped, stuck at %v", p.State())
		case <-time.After(10 * time.Millisecond):
		}
	}

	if !timer.quit {
		t.Fatal("reaching Stopped must post a quit event for the UI loop")
	}
}

func TestPlayerCloseIsIdempotent(t *testing.T) {
	demux := streamsDemuxer(
		[]StreamInfo{{Index: 0, Kind: StreamKindAudio, Params: CodecParams{SampleRate: 48000, Channels: 2}}},
		nil,
	)
	cfg := DefaultConfig()

	p := NewPlayer(discardLog())
	err := p.Open(PlayerConfig{
		Demux:    demux,
		Sink:     &fakeSink{},
		Timer:    &fakeTimer{},
		AudioDev: &fakeAudioDevice{},
		Cfg:      cfg,
		OpenVideoDecoder: func(CodecParams) (VideoCodecDecoder, error) { return nil, nil },
		OpenAudioDecoder: func(CodecParams) (AudioCodecDecoder, error) { return &fakeAudioCodec{}, nil },
		OpenResampler:    func(CodecParams, int, int) (Resampler, error) { return &fakeResampler{}, nil },
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("first Close returned error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
	if p.State() != StateStopped {
		t.Fatalf("State() after Close = %v, want Stopped", p.State())
	}
}
