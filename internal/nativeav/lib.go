//go:build darwin || linux

// Package nativeav loads libavshim, a thin primitive-only wrapper around
// libavformat/libavcodec/libswresample, dynamically via purego. libavshim
// is not part of this module; it is expected to be built from the FFmpeg
// headers and installed alongside the player the way libstream_opus and
// libmedia_vpx are for the codec layer it was modeled on.
package nativeav

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

var (
	avshimOnce    sync.Once
	avshimHandle  uintptr
	avshimInitErr error
	avshimLoaded  bool
)

// libavshim demuxer function pointers
var (
	avshimDemuxerOpen            func(url uintptr) uint64
	avshimDemuxerStreamCount     func(handle uint64) int32
	avshimDemuxerStreamKind      func(handle uint64, index int32) int32
	avshimDemuxerStreamTimeBase  func(handle uint64, index int32, num, den uintptr)
	avshimDemuxerStreamFrameRate func(handle uint64, index int32, num, den uintptr)
	avshimDemuxerStreamCodecName func(handle uint64, index int32) uintptr
	avshimDemuxerStreamExtradata func(handle uint64, index int32, outLen uintptr) uintptr
	avshimDemuxerStreamVideo     func(handle uint64, index int32, width, height, pixfmt uintptr)
	avshimDemuxerStreamAudio     func(handle uint64, index int32, sampleRate, channels, sampleFmt uintptr)
	avshimDemuxerReadPacket      func(handle uint64, outData, outSize, outStreamIdx, outPTS, outDTS, outDuration uintptr) int32
	avshimDemuxerClose           func(handle uint64)
)

// libavshim video decoder function pointers
var (
	avshimVideoDecoderOpen    func(codecName uintptr, extradata uintptr, extraLen int32, width, height, pixfmtHint int32) uint64
	avshimVideoDecoderSubmit  func(handle uint64, data uintptr, size int32, pts, dts int64) int32
	avshimVideoDecoderReceive func(handle uint64, outWidth, outHeight, outFormat, outSARNum, outSARDen, outPTS, outRepeatHint uintptr, outPlanes, outStrides uintptr) int32
	avshimVideoDecoderClose   func(handle uint64)
)

// libavshim audio decoder function pointers
var (
	avshimAudioDecoderOpen    func(codecName uintptr, extradata uintptr, extraLen int32, sampleRate, channels, sampleFmtHint int32) uint64
	avshimAudioDecoderSubmit  func(handle uint64, data uintptr, size int32, pts int64) int32
	avshimAudioDecoderReceive func(handle uint64, outSampleRate, outChannels, outFormat, outNumSamples, outPTS uintptr, outPlanes, outPlaneBytes uintptr) int32
	avshimAudioDecoderClose   func(handle uint64)
)

// libavshim resampler function pointers
var (
	avshimResamplerOpen    func(inSampleRate, inChannels, inFormat, outSampleRate, outChannels, outFormat int32) uint64
	avshimResamplerConvert func(handle uint64, inPlanes uintptr, inSamples int32, out uintptr, outCapSamples int32) int32
	avshimResamplerClose   func(handle uint64)
)

var avshimGetError func() uintptr

func loadAvshim() error {
	avshimOnce.Do(func() {
		avshimInitErr = loadAvshimLib()
		if avshimInitErr == nil {
			avshimLoaded = true
		}
	})
	return avshimInitErr
}

func loadAvshimLib() error {
	var lastErr error
	for _, path := range avshimLibPaths() {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		avshimHandle = handle
		if err := registerAvshimSymbols(); err != nil {
			purego.Dlclose(handle)
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("nativeav: failed to load libavshim: %w", lastErr)
	}
	return errors.New("nativeav: libavshim not found in any known location")
}

func avshimLibPaths() []string {
	var paths []string

	libName := "libavshim.so"
	if runtime.GOOS == "darwin" {
		libName = "libavshim.dylib"
	}

	if p := os.Getenv("AVSHIM_LIB_PATH"); p != "" {
		paths = append(paths, p)
	}
	if p := os.Getenv("AVPLAYER_SDK_LIB_PATH"); p != "" {
		paths = append(paths, filepath.Join(p, libName))
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, libName),
			filepath.Join(exeDir, "..", "lib", libName),
		)
	}

	if root := findModuleRoot(); root != "" {
		paths = append(paths, filepath.Join(root, "build", libName))
	}

	if wd, err := os.Getwd(); err == nil {
		paths = append(paths,
			filepath.Join(wd, "build", libName),
			filepath.Join(wd, "..", "build", libName),
			filepath.Join(wd, "..", "..", "build", libName),
		)
	}

	switch runtime.GOOS {
	case "darwin":
		paths = append(paths,
			"libavshim.dylib",
			"/usr/local/lib/libavshim.dylib",
			"/opt/homebrew/lib/libavshim.dylib",
		)
	case "linux":
		paths = append(paths,
			"libavshim.so",
			"/usr/local/lib/libavshim.so",
			"/usr/lib/libavshim.so",
		)
	}

	return paths
}

func registerAvshimSymbols() error {
	purego.RegisterLibFunc(&avshimDemuxerOpen, avshimHandle, "avshim_demuxer_open")
	purego.RegisterLibFunc(&avshimDemuxerStreamCount, avshimHandle, "avshim_demuxer_stream_count")
	purego.RegisterLibFunc(&avshimDemuxerStreamKind, avshimHandle, "avshim_demuxer_stream_kind")
	purego.RegisterLibFunc(&avshimDemuxerStreamTimeBase, avshimHandle, "avshim_demuxer_stream_time_base")
	purego.RegisterLibFunc(&avshimDemuxerStreamFrameRate, avshimHandle, "avshim_demuxer_stream_frame_rate")
	purego.RegisterLibFunc(&avshimDemuxerStreamCodecName, avshimHandle, "avshim_demuxer_stream_codec_name")
	purego.RegisterLibFunc(&avshimDemuxerStreamExtradata, avshimHandle, "avshim_demuxer_stream_extradata")
	purego.RegisterLibFunc(&avshimDemuxerStreamVideo, avshimHandle, "avshim_demuxer_stream_video")
	purego.RegisterLibFunc(&avshimDemuxerStreamAudio, avshimHandle, "avshim_demuxer_stream_audio")
	purego.RegisterLibFunc(&avshimDemuxerReadPacket, avshimHandle, "avshim_demuxer_read_packet")
	purego.RegisterLibFunc(&avshimDemuxerClose, avshimHandle, "avshim_demuxer_close")

	purego.RegisterLibFunc(&avshimVideoDecoderOpen, avshimHandle, "avshim_video_decoder_open")
	purego.RegisterLibFunc(&avshimVideoDecoderSubmit, avshimHandle, "avshim_video_decoder_submit")
	purego.RegisterLibFunc(&avshimVideoDecoderReceive, avshimHandle, "avshim_video_decoder_receive")
	purego.RegisterLibFunc(&avshimVideoDecoderClose, avshimHandle, "avshim_video_decoder_close")

	purego.RegisterLibFunc(&avshimAudioDecoderOpen, avshimHandle, "avshim_audio_decoder_open")
	purego.RegisterLibFunc(&avshimAudioDecoderSubmit, avshimHandle, "avshim_audio_decoder_submit")
	purego.RegisterLibFunc(&avshimAudioDecoderReceive, avshimHandle, "avshim_audio_decoder_receive")
	purego.RegisterLibFunc(&avshimAudioDecoderClose, avshimHandle, "avshim_audio_decoder_close")

	purego.RegisterLibFunc(&avshimResamplerOpen, avshimHandle, "avshim_resampler_open")
	purego.RegisterLibFunc(&avshimResamplerConvert, avshimHandle, "avshim_resampler_convert")
	purego.RegisterLibFunc(&avshimResamplerClose, avshimHandle, "avshim_resampler_close")

	purego.RegisterLibFunc(&avshimGetError, avshimHandle, "avshim_get_error")
	return nil
}

// findModuleRoot walks up from the working directory looking for go.mod,
// the same heuristic the codec examples use to find dev-build artifacts.
func findModuleRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func lastAvshimError() string {
	if avshimGetError == nil {
		return "libavshim not loaded"
	}
	ptr := avshimGetError()
	if ptr == 0 {
		return "unknown error"
	}
	return goStringFromPtr(ptr)
}

func goStringFromPtr(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	p := unsafe.Pointer(ptr)
	length := 0
	for {
		if *(*byte)(unsafe.Pointer(uintptr(p) + uintptr(length))) == 0 {
			break
		}
		length++
		if length > 4096 {
			break
		}
	}
	if length == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(p), length))
}

// goBytesFromPtr copies n bytes out of shim-owned memory into a
// freshly allocated Go slice the caller can retain past the next call.
func goBytesFromPtr(ptr uintptr, n int) []byte {
	if ptr == 0 || n <= 0 {
		return nil
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n)
	dst := make([]byte, n)
	copy(dst, src)
	return dst
}

func cString(s string) (uintptr, func()) {
	b := append([]byte(s), 0)
	ptr := uintptr(unsafe.Pointer(&b[0]))
	return ptr, func() { runtime.KeepAlive(b) }
}
