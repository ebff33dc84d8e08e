//go:build darwin || linux

package nativeav

import (
	"fmt"
	"unsafe"

	"github.com/avcore/avplayer"
)

// FileDemuxer opens a local file or any URL libavformat's protocol layer
// understands (file://, http://, rtsp://, ...) through libavshim and
// implements avplayer.Demuxer over it.
type FileDemuxer struct {
	handle  uint64
	streams []avplayer.StreamInfo
}

// OpenFileDemuxer opens url and probes its streams. Callers that only need
// local playback pass a plain filesystem path.
func OpenFileDemuxer(url string) (*FileDemuxer, error) {
	if err := loadAvshim(); err != nil {
		return nil, err
	}

	urlPtr, keepAlive := cString(url)
	handle := avshimDemuxerOpen(urlPtr)
	keepAlive()
	if handle == 0 {
		return nil, fmt.Errorf("nativeav: open %q: %s", url, lastAvshimError())
	}

	d := &FileDemuxer{handle: handle}
	d.streams = d.probeStreams()
	return d, nil
}

func (d *FileDemuxer) probeStreams() []avplayer.StreamInfo {
	count := int(avshimDemuxerStreamCount(d.handle))
	streams := make([]avplayer.StreamInfo, 0, count)

	for i := 0; i < count; i++ {
		kind := avplayer.StreamKind(avshimDemuxerStreamKind(d.handle, int32(i)))
		if kind != avplayer.StreamKindVideo && kind != avplayer.StreamKindAudio {
			continue
		}

		var tbNum, tbDen, frNum, frDen int32
		avshimDemuxerStreamTimeBase(d.handle, int32(i), uintptr(unsafe.Pointer(&tbNum)), uintptr(unsafe.Pointer(&tbDen)))
		avshimDemuxerStreamFrameRate(d.handle, int32(i), uintptr(unsafe.Pointer(&frNum)), uintptr(unsafe.Pointer(&frDen)))

		codecName := goStringFromPtr(avshimDemuxerStreamCodecName(d.handle, int32(i)))

		var extraLen int32
		extraPtr := avshimDemuxerStreamExtradata(d.handle, int32(i), uintptr(unsafe.Pointer(&extraLen)))
		extra := goBytesFromPtr(extraPtr, int(extraLen))

		params := avplayer.CodecParams{CodecName: codecName, Extra: extra}
		switch kind {
		case avplayer.StreamKindVideo:
			var w, h, pixfmt int32
			avshimDemuxerStreamVideo(d.handle, int32(i), uintptr(unsafe.Pointer(&w)), uintptr(unsafe.Pointer(&h)), uintptr(unsafe.Pointer(&pixfmt)))
			params.Width, params.Height = int(w), int(h)
			params.PixelFormat = nativePixelFormat(pixfmt)
		case avplayer.StreamKindAudio:
			var sampleRate, channels, sampleFmt int32
			avshimDemuxerStreamAudio(d.handle, int32(i), uintptr(unsafe.Pointer(&sampleRate)), uintptr(unsafe.Pointer(&channels)), uintptr(unsafe.Pointer(&sampleFmt)))
			params.SampleRate, params.Channels = int(sampleRate), int(channels)
			params.SampleFmt = nativeSampleFormat(sampleFmt)
		}

		streams = append(streams, avplayer.StreamInfo{
			Index:        i,
			Kind:         kind,
			TimeBase:     avplayer.Rational{Num: int(tbNum), Den: int(tbDen)},
			AvgFrameRate: avplayer.Rational{Num: int(frNum), Den: int(frDen)},
			Params:       params,
		})
	}
	return streams
}

func (d *FileDemuxer) Streams() []avplayer.StreamInfo { return d.streams }

// ReadPacket reads the next demuxed packet. The returned Packet.Data is a
// fresh copy owned by the caller; libavshim reuses its internal packet
// buffer across calls and cannot hand out a reference to it.
func (d *FileDemuxer) ReadPacket() (avplayer.Packet, error) {
	var dataPtr uintptr
	var size, streamIdx int32
	var pts, dts, duration int64

	ret := avshimDemuxerReadPacket(d.handle,
		uintptr(unsafe.Pointer(&dataPtr)),
		uintptr(unsafe.Pointer(&size)),
		uintptr(unsafe.Pointer(&streamIdx)),
		uintptr(unsafe.Pointer(&pts)),
		uintptr(unsafe.Pointer(&dts)),
		uintptr(unsafe.Pointer(&duration)),
	)
	switch {
	case ret == 1:
		return avplayer.Packet{}, avplayer.ErrEOF
	case ret < 0:
		return avplayer.Packet{}, fmt.Errorf("nativeav: read packet: %s", lastAvshimError())
	}

	data := goBytesFromPtr(dataPtr, int(size))
	return avplayer.Packet{
		StreamID: int(streamIdx),
		Data:     data,
		Size:     len(data),
		Duration: duration,
		PTS:      pts,
		DTS:      dts,
	}, nil
}

func (d *FileDemuxer) Close() error {
	avshimDemuxerClose(d.handle)
	return nil
}

func nativePixelFormat(raw int32) avplayer.PixelFormat {
	switch raw {
	case 1:
		return avplayer.PixelFormatI420
	case 2:
		return avplayer.PixelFormatNV12
	default:
		return avplayer.PixelFormatUnknown
	}
}

func nativeSampleFormat(raw int32) avplayer.SampleFormat {
	switch raw {
	case 1:
		return avplayer.SampleFormatS16
	case 2:
		return avplayer.SampleFormatFLTP
	default:
		return avplayer.SampleFormatUnknown
	}
}
