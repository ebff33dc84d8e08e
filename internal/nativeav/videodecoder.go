//go:build darwin || linux

package nativeav

import (
	"fmt"
	"unsafe"

	"github.com/avcore/avplayer"
)

// VideoDecoder wraps one libavcodec video decoder context opened through
// libavshim. It implements avplayer.VideoCodecDecoder.
type VideoDecoder struct {
	handle uint64
}

// OpenVideoDecoder opens a decoder for params.CodecName, suitable for use
// as a avplayer.PlayerConfig.OpenVideoDecoder callback.
func OpenVideoDecoder(params avplayer.CodecParams) (avplayer.VideoCodecDecoder, error) {
	if err := loadAvshim(); err != nil {
		return nil, err
	}

	namePtr, keepAlive := cString(params.CodecName)
	defer keepAlive()

	var extraPtr uintptr
	if len(params.Extra) > 0 {
		extraPtr = uintptr(unsafe.Pointer(&params.Extra[0]))
	}

	handle := avshimVideoDecoderOpen(namePtr, extraPtr, int32(len(params.Extra)), int32(params.Width), int32(params.Height), int32(nativePixelFormatCode(params.PixelFormat)))
	if handle == 0 {
		return nil, fmt.Errorf("nativeav: open video decoder %q: %s", params.CodecName, lastAvshimError())
	}
	return &VideoDecoder{handle: handle}, nil
}

func (d *VideoDecoder) Submit(pkt *avplayer.Packet) error {
	if pkt == nil {
		ret := avshimVideoDecoderSubmit(d.handle, 0, 0, avplayer.NoPTS, avplayer.NoPTS)
		if ret < 0 {
			return fmt.Errorf("nativeav: video flush: %s", lastAvshimError())
		}
		return nil
	}

	var dataPtr uintptr
	if len(pkt.Data) > 0 {
		dataPtr = uintptr(unsafe.Pointer(&pkt.Data[0]))
	}
	ret := avshimVideoDecoderSubmit(d.handle, dataPtr, int32(len(pkt.Data)), pkt.PTS, pkt.DTS)
	if ret < 0 {
		return fmt.Errorf("nativeav: video submit: %s", lastAvshimError())
	}
	return nil
}

func (d *VideoDecoder) Receive() (*avplayer.DecodedVideoFrame, error) {
	var width, height, format, sarNum, sarDen, repeat int32
	var pts int64
	var planes [3]uintptr
	var strides [3]int32

	ret := avshimVideoDecoderReceive(d.handle,
		uintptr(unsafe.Pointer(&width)),
		uintptr(unsafe.Pointer(&height)),
		uintptr(unsafe.Pointer(&format)),
		uintptr(unsafe.Pointer(&sarNum)),
		uintptr(unsafe.Pointer(&sarDen)),
		uintptr(unsafe.Pointer(&pts)),
		uintptr(unsafe.Pointer(&repeat)),
		uintptr(unsafe.Pointer(&planes[0])),
		uintptr(unsafe.Pointer(&strides[0])),
	)
	switch {
	case ret == 1:
		return nil, avplayer.ErrEAGAIN
	case ret == 2:
		return nil, avplayer.ErrEOF
	case ret < 0:
		return nil, fmt.Errorf("nativeav: video receive: %s", lastAvshimError())
	}

	pix := nativePixelFormat(format)
	planeCount := pix.PlaneCount()
	if planeCount == 0 {
		planeCount = 1
	}

	frame := &avplayer.DecodedVideoFrame{
		Width:      int(width),
		Height:     int(height),
		Format:     pix,
		SAR:        avplayer.Rational{Num: int(sarNum), Den: int(sarDen)},
		PTS:        pts,
		RepeatHint: int(repeat),
		Data:       make([][]byte, planeCount),
		Stride:     make([]int, planeCount),
	}
	for i := 0; i < planeCount; i++ {
		stride := int(strides[i])
		rows := height
		if i > 0 && (pix == avplayer.PixelFormatI420 || pix == avplayer.PixelFormatNV12) {
			rows = (height + 1) / 2
		}
		frame.Data[i] = goBytesFromPtr(planes[i], stride*int(rows))
		frame.Stride[i] = stride
	}
	return frame, nil
}

func (d *VideoDecoder) Close() error {
	avshimVideoDecoderClose(d.handle)
	return nil
}

func nativePixelFormatCode(f avplayer.PixelFormat) int {
	switch f {
	case avplayer.PixelFormatI420:
		return 1
	case avplayer.PixelFormatNV12:
		return 2
	default:
		return 0
	}
}
