package rtmpsource

import (
	"testing"

	"github.com/avcore/avplayer"
)

func TestParseAudioSpecificConfig(t *testing.T) {
	cases := []struct {
		name         string
		asc          []byte
		wantRate     int
		wantChannels int
	}{
		{"48kHz stereo", []byte{0x11, 0x90}, 48000, 2},
		{"44.1kHz stereo", []byte{0x12, 0x10}, 44100, 2},
		{"too short falls back", []byte{0x11}, 44100, 2},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rate, channels := parseAudioSpecificConfig(c.asc)
			if rate != c.wantRate || channels != c.wantChannels {
				t.Fatalf("parseAudioSpecificConfig(%v) = (%d, %d), want (%d, %d)", c.asc, rate, channels, c.wantRate, c.wantChannels)
			}
		})
	}
}

func TestDemuxerStreamsEmptyBeforeHeaders(t *testing.T) {
	d := &Demuxer{}
	if got := d.Streams(); len(got) != 0 {
		t.Fatalf("Streams() before any sequence header = %v, want empty", got)
	}
}

func TestDemuxerStreamsReportsVideoAndAudio(t *testing.T) {
	d := &Demuxer{
		videoExtra: []byte{0x01, 0x64, 0x00, 0x1f},
		width:      1920,
		height:     1080,
		audioExtra: []byte{0x11, 0x90},
		sampleRate: 48000,
		channels:   2,
	}

	streams := d.Streams()
	if len(streams) != 2 {
		t.Fatalf("Streams() returned %d streams, want 2", len(streams))
	}
	if streams[0].Kind != avplayer.StreamKindVideo || streams[0].Params.Width != 1920 {
		t.Fatalf("video stream = %+v, want 1920x1080 h264", streams[0])
	}
	if streams[1].Kind != avplayer.StreamKindAudio || streams[1].Params.SampleRate != 48000 {
		t.Fatalf("audio stream = %+v, want 48000Hz aac", streams[1])
	}
}

func TestDemuxerPushDropsWhenChannelFull(t *testing.T) {
	d := &Demuxer{packets: make(chan avplayer.Packet, 1)}
	d.push(avplayer.Packet{PTS: 1})
	d.push(avplayer.Packet{PTS: 2}) // must not block

	if len(d.packets) != 1 {
		t.Fatalf("packets buffered = %d, want 1 (second push dropped)", len(d.packets))
	}
}

func TestDemuxerReadPacketReturnsEOFAfterClose(t *testing.T) {
	d := &Demuxer{packets: make(chan avplayer.Packet, 1)}
	d.closeOnce.Do(func() { close(d.packets) })

	if _, err := d.ReadPacket(); err == nil {
		t.Fatal("ReadPacket after close should return an error")
	}
}

func TestDemuxerSignalHeaderSeenIsIdempotent(t *testing.T) {
	d := &Demuxer{firstHeader: make(chan struct{})}
	d.signalHeaderSeen()
	d.signalHeaderSeen() // must not panic on double-close

	select {
	case <-d.firstHeader:
	default:
		t.Fatal("firstHeader was not closed")
	}
}
