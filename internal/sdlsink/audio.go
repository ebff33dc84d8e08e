//go:build darwin || linux

package sdlsink

import (
	"encoding/binary"
	"fmt"
	"sync"
	"unsafe"

	"github.com/avcore/avplayer"
	"github.com/ebitengine/purego"
)

// audioS16SYS assumes a little-endian host, true for every platform this
// player currently targets (linux/amd64, linux/arm64, darwin/arm64).
const audioS16SYS = 0x8010

// sdlAudioSpecSize matches struct SDL_AudioSpec on a 64-bit target: four
// scalar fields pack into 16 bytes with no padding, followed by two
// 8-byte pointers (callback, userdata).
const sdlAudioSpecSize = 32

var (
	audioCallbacksMu  sync.Mutex
	audioCallbacks    = make(map[uintptr]func([]byte))
	audioCallbackNext uintptr
	audioTrampoline   uintptr
	audioTrampOnce    sync.Once
)

func audioCallbackHandler(userdata uintptr, stream uintptr, length int32) {
	audioCallbacksMu.Lock()
	cb := audioCallbacks[userdata]
	audioCallbacksMu.Unlock()

	if cb == nil || stream == 0 || length <= 0 {
		return
	}
	out := unsafe.Slice((*byte)(unsafe.Pointer(stream)), int(length))
	cb(out)
}

// Device implements avplayer.AudioDevice over SDL_OpenAudioDevice.
type Device struct {
	id     uint32
	handle uintptr
}

// NewDevice loads libSDL2 if it isn't already loaded.
func NewDevice() (*Device, error) {
	if err := loadSDL(); err != nil {
		return nil, err
	}
	audioTrampOnce.Do(func() {
		audioTrampoline = purego.NewCallback(audioCallbackHandler)
	})
	return &Device{}, nil
}

func (d *Device) Open(spec avplayer.AudioDeviceSpec) (avplayer.AudioDeviceSpec, error) {
	audioCallbacksMu.Lock()
	audioCallbackNext++
	handle := audioCallbackNext
	audioCallbacks[handle] = spec.Callback
	audioCallbacksMu.Unlock()
	d.handle = handle

	desired := make([]byte, sdlAudioSpecSize)
	binary.LittleEndian.PutUint32(desired[0:4], uint32(spec.SampleRate))
	binary.LittleEndian.PutUint16(desired[4:6], uint16(audioS16SYS))
	desired[6] = byte(spec.Channels)
	binary.LittleEndian.PutUint16(desired[8:10], uint16(spec.BufferSamples))
	putUintptr(desired[16:24], audioTrampoline)
	putUintptr(desired[24:32], handle)

	obtained := make([]byte, sdlAudioSpecSize)

	deviceID := sdlOpenAudioDevice(0, 0, uintptr(unsafe.Pointer(&desired[0])), uintptr(unsafe.Pointer(&obtained[0])), 0)
	if deviceID == 0 {
		audioCallbacksMu.Lock()
		delete(audioCallbacks, handle)
		audioCallbacksMu.Unlock()
		return avplayer.AudioDeviceSpec{}, fmt.Errorf("sdlsink: SDL_OpenAudioDevice: %s", lastSDLError())
	}
	d.id = deviceID

	actual := avplayer.AudioDeviceSpec{
		SampleRate:    int(binary.LittleEndian.Uint32(obtained[0:4])),
		Channels:      int(obtained[6]),
		BufferSamples: int(binary.LittleEndian.Uint16(obtained[8:10])),
		Callback:      spec.Callback,
	}
	return actual, nil
}

func (d *Device) Pause(pause bool) {
	on := int32(0)
	if pause {
		on = 1
	}
	sdlPauseAudioDevice(d.id, on)
}

func (d *Device) Close() error {
	sdlCloseAudioDevice(d.id)
	audioCallbacksMu.Lock()
	delete(audioCallbacks, d.handle)
	audioCallbacksMu.Unlock()
	return nil
}

func putUintptr(dst []byte, v uintptr) {
	binary.LittleEndian.PutUint64(dst, uint64(v))
}
