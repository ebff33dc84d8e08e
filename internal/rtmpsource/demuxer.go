package rtmpsource

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/avcore/avplayer"
	"github.com/yutopp/go-rtmp"
	rtmpmsg "github.com/yutopp/go-rtmp/message"
)

const (
	videoStreamIndex = 0
	audioStreamIndex = 1

	// publishTimeout bounds how long Open waits for a publisher to show
	// up and send its first sequence header.
	publishTimeout = 30 * time.Second

	// headerGrace is how long Open waits after the first sequence header
	// for a companion audio or video header published in the same
	// handshake before finalizing the stream list.
	headerGrace = 200 * time.Millisecond
)

// Demuxer implements avplayer.Demuxer over a single RTMP publish. It
// listens, accepts exactly one active publisher at a time, and demuxes
// FLV video/audio tags straight into AVCC H.264 and raw AAC packets.
type Demuxer struct {
	ln net.Listener

	mu         sync.Mutex
	videoExtra []byte
	audioExtra []byte
	width      int
	height     int
	sampleRate int
	channels   int

	firstHeader chan struct{}
	firstOnce   sync.Once

	packets   chan avplayer.Packet
	closeOnce sync.Once
}

// Listen opens addr (e.g. ":1935") for RTMP connections and blocks until a
// publisher's sequence header(s) arrive or publishTimeout elapses.
func Listen(addr string) (*Demuxer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("rtmpsource: listen %s: %w", addr, err)
	}

	d := &Demuxer{
		ln:          ln,
		firstHeader: make(chan struct{}),
		packets:     make(chan avplayer.Packet, 256),
	}

	srv := rtmp.NewServer(&rtmp.ServerConfig{
		OnConnect: func(conn net.Conn) (io.ReadWriteCloser, *rtmp.ConnConfig) {
			return conn, &rtmp.ConnConfig{
				Handler: &rtmpHandler{d: d},
				ControlState: rtmp.StreamControlStateConfig{
					DefaultBandwidthWindowSize: 6 * 1024 * 1024,
				},
			}
		},
	})
	go srv.Serve(ln)

	select {
	case <-d.firstHeader:
		time.Sleep(headerGrace)
	case <-time.After(publishTimeout):
		ln.Close()
		return nil, fmt.Errorf("rtmpsource: no publisher connected to %s within %s", addr, publishTimeout)
	}
	return d, nil
}

func (d *Demuxer) Streams() []avplayer.StreamInfo {
	d.mu.Lock()
	defer d.mu.Unlock()

	var streams []avplayer.StreamInfo
	if d.videoExtra != nil {
		streams = append(streams, avplayer.StreamInfo{
			Index:    videoStreamIndex,
			Kind:     avplayer.StreamKindVideo,
			TimeBase: avplayer.Rational{Num: 1, Den: 1000},
			Params: avplayer.CodecParams{
				CodecName: "h264",
				Extra:     d.videoExtra,
				Width:     d.width,
				Height:    d.height,
			},
		})
	}
	if d.audioExtra != nil {
		streams = append(streams, avplayer.StreamInfo{
			Index:    audioStreamIndex,
			Kind:     avplayer.StreamKindAudio,
			TimeBase: avplayer.Rational{Num: 1, Den: 1000},
			Params: avplayer.CodecParams{
				CodecName:  "aac",
				Extra:      d.audioExtra,
				SampleRate: d.sampleRate,
				Channels:   d.channels,
			},
		})
	}
	return streams
}

func (d *Demuxer) ReadPacket() (avplayer.Packet, error) {
	pkt, ok := <-d.packets
	if !ok {
		return avplayer.Packet{}, avplayer.ErrEOF
	}
	return pkt, nil
}

func (d *Demuxer) Close() error {
	d.closeOnce.Do(func() { d.ln.Close() })
	return nil
}

func (d *Demuxer) push(pkt avplayer.Packet) {
	select {
	case d.packets <- pkt:
	default:
		// Reader has fallen behind; dropping keeps the publisher's
		// socket from backing up. Live ingest has no retransmit path.
	}
}

func (d *Demuxer) signalHeaderSeen() {
	d.firstOnce.Do(func() { close(d.firstHeader) })
}

func (d *Demuxer) onClose() {
	d.closeOnce.Do(func() { close(d.packets) })
}

type rtmpHandler struct {
	rtmp.DefaultHandler
	d *Demuxer
}

func (h *rtmpHandler) OnPublish(_ *rtmp.StreamContext, _ uint32, cmd *rtmpmsg.NetStreamPublish) error {
	return nil
}

func (h *rtmpHandler) OnVideo(timestamp uint32, payload io.Reader) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, payload); err != nil {
		return nil
	}
	data := buf.Bytes()
	if len(data) < 5 {
		return nil
	}

	codecID := data[0] & 0x0F
	if codecID != 7 { // AVC/H.264 only
		return nil
	}

	avcType := data[1]
	avcData := data[5:]

	switch avcType {
	case 0: // AVCDecoderConfigurationRecord
		d := h.d
		d.mu.Lock()
		if d.videoExtra == nil {
			d.videoExtra = append([]byte{}, avcData...)
			d.width, d.height = 1920, 1080 // default; real dims need SPS parsing
		}
		d.mu.Unlock()
		d.signalHeaderSeen()

	case 1: // one or more AVCC length-prefixed NALUs
		d := h.d
		d.mu.Lock()
		ready := d.videoExtra != nil
		d.mu.Unlock()
		if !ready {
			return nil
		}
		d.push(avplayer.Packet{
			StreamID: videoStreamIndex,
			Kind:     avplayer.StreamKindVideo,
			Data:     append([]byte{}, avcData...),
			Size:     len(avcData),
			PTS:      int64(timestamp),
			DTS:      int64(timestamp),
		})
	}
	return nil
}

func (h *rtmpHandler) OnAudio(timestamp uint32, payload io.Reader) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, payload); err != nil {
		return nil
	}
	data := buf.Bytes()
	if len(data) < 2 {
		return nil
	}

	soundFormat := (data[0] >> 4) & 0x0F
	if soundFormat != 10 { // AAC only
		return nil
	}

	aacPacketType := data[1]
	aacData := data[2:]

	switch aacPacketType {
	case 0: // AudioSpecificConfig
		d := h.d
		sampleRate, channels := parseAudioSpecificConfig(aacData)
		d.mu.Lock()
		if d.audioExtra == nil {
			d.audioExtra = append([]byte{}, aacData...)
			d.sampleRate, d.channels = sampleRate, channels
		}
		d.mu.Unlock()
		d.signalHeaderSeen()

	case 1: // raw AAC frame
		d := h.d
		d.mu.Lock()
		ready := d.audioExtra != nil
		d.mu.Unlock()
		if !ready {
			return nil
		}
		d.push(avplayer.Packet{
			StreamID: audioStreamIndex,
			Kind:     avplayer.StreamKindAudio,
			Data:     append([]byte{}, aacData...),
			Size:     len(aacData),
			PTS:      int64(timestamp),
			DTS:      int64(timestamp),
		})
	}
	return nil
}

func (h *rtmpHandler) OnClose() {
	h.d.onClose()
}

// parseAudioSpecificConfig reads the sampling-frequency-index and
// channel-configuration fields out of a 2-byte MPEG-4 AudioSpecificConfig;
// it does not handle the 13-15 explicit-frequency escape values.
func parseAudioSpecificConfig(asc []byte) (sampleRate, channels int) {
	if len(asc) < 2 {
		return 44100, 2
	}
	freqIdx := ((asc[0] & 0x07) << 1) | (asc[1] >> 7)
	chanCfg := (asc[1] >> 3) & 0x0F

	rates := [...]int{96000, 88200, 64000, 48000, 44100, 32000, 24000, 22050, 16000, 12000, 11025, 8000, 7350}
	sampleRate = 44100
	if int(freqIdx) < len(rates) {
		sampleRate = rates[freqIdx]
	}
	channels = int(chanCfg)
	if channels == 0 {
		channels = 2
	}
	return sampleRate, channels
}
