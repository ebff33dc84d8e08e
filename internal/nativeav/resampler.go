//go:build darwin || linux

package nativeav

import (
	"fmt"
	"unsafe"

	"github.com/avcore/avplayer"
)

// Resampler wraps one libswresample context opened through libavshim. It
// implements avplayer.Resampler, converting decoded audio into interleaved
// S16 PCM at the audio device's negotiated rate and channel count.
type Resampler struct {
	handle uint64
}

// OpenResampler is shaped to match
// avplayer.PlayerConfig.OpenResampler: it takes the decoder's native
// format and the device's requested output format.
func OpenResampler(in avplayer.CodecParams, outChannels, outSampleRate int) (avplayer.Resampler, error) {
	if err := loadAvshim(); err != nil {
		return nil, err
	}

	handle := avshimResamplerOpen(
		int32(in.SampleRate), int32(in.Channels), int32(nativeSampleFormatCode(in.SampleFmt)),
		int32(outSampleRate), int32(outChannels), int32(nativeSampleFormatCode(avplayer.SampleFormatS16)),
	)
	if handle == 0 {
		return nil, fmt.Errorf("nativeav: open resampler: %s", lastAvshimError())
	}
	return &Resampler{handle: handle}, nil
}

func (r *Resampler) Convert(in [][]byte, inSamples int, out []byte, outCapSamples int) (int, error) {
	var planes [maxAudioPlanes]uintptr
	for i := 0; i < len(in) && i < maxAudioPlanes; i++ {
		if len(in[i]) > 0 {
			planes[i] = uintptr(unsafe.Pointer(&in[i][0]))
		}
	}

	var outPtr uintptr
	if len(out) > 0 {
		outPtr = uintptr(unsafe.Pointer(&out[0]))
	}

	produced := avshimResamplerConvert(r.handle, uintptr(unsafe.Pointer(&planes[0])), int32(inSamples), outPtr, int32(outCapSamples))
	if produced < 0 {
		return 0, fmt.Errorf("nativeav: resample: %s", lastAvshimError())
	}
	return int(produced), nil
}

func (r *Resampler) Close() error {
	avshimResamplerClose(r.handle)
	return nil
}
