//go:build darwin || linux

package nativeav

import (
	"fmt"
	"unsafe"

	"github.com/avcore/avplayer"
)

const maxAudioPlanes = 8

// AudioDecoder wraps one libavcodec audio decoder context opened through
// libavshim. It implements avplayer.AudioCodecDecoder.
type AudioDecoder struct {
	handle uint64
}

// OpenAudioDecoder opens a decoder for params.CodecName, suitable for use
// as a avplayer.PlayerConfig.OpenAudioDecoder callback.
func OpenAudioDecoder(params avplayer.CodecParams) (avplayer.AudioCodecDecoder, error) {
	if err := loadAvshim(); err != nil {
		return nil, err
	}

	namePtr, keepAlive := cString(params.CodecName)
	defer keepAlive()

	var extraPtr uintptr
	if len(params.Extra) > 0 {
		extraPtr = uintptr(unsafe.Pointer(&params.Extra[0]))
	}

	handle := avshimAudioDecoderOpen(namePtr, extraPtr, int32(len(params.Extra)), int32(params.SampleRate), int32(params.Channels), int32(nativeSampleFormatCode(params.SampleFmt)))
	if handle == 0 {
		return nil, fmt.Errorf("nativeav: open audio decoder %q: %s", params.CodecName, lastAvshimError())
	}
	return &AudioDecoder{handle: handle}, nil
}

func (d *AudioDecoder) Submit(pkt *avplayer.Packet) error {
	if pkt == nil {
		ret := avshimAudioDecoderSubmit(d.handle, 0, 0, avplayer.NoPTS)
		if ret < 0 {
			return fmt.Errorf("nativeav: audio flush: %s", lastAvshimError())
		}
		return nil
	}

	var dataPtr uintptr
	if len(pkt.Data) > 0 {
		dataPtr = uintptr(unsafe.Pointer(&pkt.Data[0]))
	}
	ret := avshimAudioDecoderSubmit(d.handle, dataPtr, int32(len(pkt.Data)), pkt.PTS)
	if ret < 0 {
		return fmt.Errorf("nativeav: audio submit: %s", lastAvshimError())
	}
	return nil
}

func (d *AudioDecoder) Receive() (*avplayer.DecodedAudioFrame, error) {
	var sampleRate, channels, format, numSamples int32
	var pts int64
	var planes [maxAudioPlanes]uintptr
	var planeBytes [maxAudioPlanes]int32

	ret := avshimAudioDecoderReceive(d.handle,
		uintptr(unsafe.Pointer(&sampleRate)),
		uintptr(unsafe.Pointer(&channels)),
		uintptr(unsafe.Pointer(&format)),
		uintptr(unsafe.Pointer(&numSamples)),
		uintptr(unsafe.Pointer(&pts)),
		uintptr(unsafe.Pointer(&planes[0])),
		uintptr(unsafe.Pointer(&planeBytes[0])),
	)
	switch {
	case ret == 1:
		return nil, avplayer.ErrEAGAIN
	case ret == 2:
		return nil, avplayer.ErrEOF
	case ret < 0:
		return nil, fmt.Errorf("nativeav: audio receive: %s", lastAvshimError())
	}

	sampleFmt := nativeSampleFormat(format)
	planeCount := int(channels)
	if sampleFmt == avplayer.SampleFormatS16 {
		planeCount = 1 // interleaved
	}
	if planeCount > maxAudioPlanes {
		planeCount = maxAudioPlanes
	}

	frame := &avplayer.DecodedAudioFrame{
		SampleRate: int(sampleRate),
		Channels:   int(channels),
		Format:     sampleFmt,
		NumSamples: int(numSamples),
		PTS:        pts,
		Data:       make([][]byte, planeCount),
	}
	for i := 0; i < planeCount; i++ {
		frame.Data[i] = goBytesFromPtr(planes[i], int(planeBytes[i]))
	}
	return frame, nil
}

func (d *AudioDecoder) Close() error {
	avshimAudioDecoderClose(d.handle)
	return nil
}

func nativeSampleFormatCode(f avplayer.SampleFormat) int {
	switch f {
	case avplayer.SampleFormatS16:
		return 1
	case avplayer.SampleFormatFLTP:
		return 2
	default:
		return 0
	}
}
