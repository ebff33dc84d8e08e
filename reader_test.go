package avplayer

import (
	"testing"
	"time"
)

// fakeDemuxer replays a fixed packet list, then returns ErrEOF.
type fakeDemuxer struct {
	packets []Packet
	streams []StreamInfo
	index   int
}

func (d *fakeDemuxer) Streams() []StreamInfo { return d.streams }

func (d *fakeDemuxer) ReadPacket() (Packet, error) {
	if d.index >= len(d.packets) {
		return Packet{}, ErrEOF
	}
	pkt := d.packets[d.index]
	d.index++
	return pkt, nil
}

func (d *fakeDemuxer) Close() error { return nil }

func TestReaderRoutesPacketsByStreamIndex(t *testing.T) {
	demux := &fakeDemuxer{packets: []Packet{
		{StreamID: 0, Size: 1},
		{StreamID: 1, Size: 1},
		{StreamID: 0, Size: 1},
		{StreamID: 2, Size: 1}, // not selected; discarded
	}}
	videoQ := NewPacketQueue(1 << 20)
	audioQ := NewPacketQueue(1 << 20)

	r := NewReader(demux, videoQ, audioQ, 0, 1, 10*time.Millisecond, nil, discardLog())
	r.Run()

	if !videoQ.Closed() || !audioQ.Closed() {
		t.Fatal("Reader.Run must close both queues on exit")
	}
	if got := videoQ.BytesQueued(); got != 2 {
		t.Fatalf("video queue bytes = %d, want 2", got)
	}
	if got := audioQ.BytesQueued(); got != 1 {
		t.Fatalf("audio queue bytes = %d, want 1", got)
	}
}

func TestReaderCallsOnEOFBeforeClosingQueues(t *testing.T) {
	demux := &fakeDemuxer{}
	videoQ := NewPacketQueue(1024)
	audioQ := NewPacketQueue(1024)

	var sawEOF, closedAtEOF bool
	r := NewReader(demux, videoQ, audioQ, 0, 1, time.Millisecond, func() {
		sawEOF = true
		closedAtEOF = videoQ.Closed() || audioQ.Closed()
	}, discardLog())
	r.Run()

	if !sawEOF {
		t.Fatal("onEOF callback was not invoked on clean end-of-stream")
	}
	if closedAtEOF {
		t.Fatal("onEOF callback ran after a packet queue was already closed")
	}
}
