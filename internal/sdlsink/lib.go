//go:build darwin || linux

package sdlsink

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
	sdlOnce    sync.Once
	sdlHandle  uintptr
	sdlInitErr error
)

const (
	sdlInitVideo = 0x00000020
	sdlInitAudio = 0x00000010
	sdlInitTimer = 0x00000001
)

var (
	sdlInit              func(flags uint32) int32
	sdlQuit              func()
	sdlGetError          func() uintptr
	sdlCreateWindow      func(title uintptr, x, y, w, h int32, flags uint32) uintptr
	sdlDestroyWindow     func(window uintptr)
	sdlGetWindowSize     func(window uintptr, w, h uintptr)
	sdlCreateRenderer    func(window uintptr, index int32, flags uint32) uintptr
	sdlDestroyRenderer   func(renderer uintptr)
	sdlRenderClear       func(renderer uintptr) int32
	sdlRenderCopy        func(renderer, texture, srcrect, dstrect uintptr) int32
	sdlRenderPresent     func(renderer uintptr)
	sdlCreateTexture     func(renderer uintptr, format uint32, access, w, h int32) uintptr
	sdlDestroyTexture    func(texture uintptr)
	sdlUpdateYUVTexture  func(texture, rect, yPlane uintptr, yPitch int32, uPlane uintptr, uPitch int32, vPlane uintptr, vPitch int32) int32
	sdlOpenAudioDevice   func(device uintptr, isCapture int32, desired, obtained uintptr, allowedChanges int32) uint32
	sdlPauseAudioDevice  func(dev uint32, pauseOn int32)
	sdlCloseAudioDevice  func(dev uint32)
	sdlAddTimer          func(interval uint32, callback uintptr, param uintptr) int32
	sdlRemoveTimer       func(id int32) int32
	sdlPushEvent         func(event uintptr) int32
	sdlWaitEvent         func(event uintptr) int32
)

func loadSDL() error {
	sdlOnce.Do(func() {
		sdlInitErr = loadSDLLib()
	})
	return sdlInitErr
}

func loadSDLLib() error {
	var lastErr error
	for _, path := range sdlLibPaths() {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		sdlHandle = handle
		registerSDLSymbols()

		if ret := sdlInit(sdlInitVideo | sdlInitAudio | sdlInitTimer); ret != 0 {
			err := fmt.Errorf("sdlsink: SDL_Init: %s", goStringFromPtr(sdlGetError()))
			purego.Dlclose(handle)
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("sdlsink: failed to load libSDL2: %w", lastErr)
	}
	return errors.New("sdlsink: libSDL2 not found in any known location")
}

func sdlLibPaths() []string {
	var paths []string

	libName := "libSDL2-2.0.so.0"
	if runtime.GOOS == "darwin" {
		libName = "libSDL2-2.0.dylib"
	}

	if p := os.Getenv("SDL2_LIB_PATH"); p != "" {
		paths = append(paths, p)
	}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), libName))
	}

	switch runtime.GOOS {
	case "darwin":
		paths = append(paths,
			"libSDL2-2.0.dylib",
			"/usr/local/lib/libSDL2-2.0.dylib",
			"/opt/homebrew/lib/libSDL2-2.0.dylib",
		)
	case "linux":
		paths = append(paths,
			"libSDL2-2.0.so.0",
			"libSDL2.so",
			"/usr/lib/x86_64-linux-gnu/libSDL2-2.0.so.0",
			"/usr/local/lib/libSDL2-2.0.so.0",
		)
	}
	return paths
}

func registerSDLSymbols() {
	purego.RegisterLibFunc(&sdlInit, sdlHandle, "SDL_Init")
	purego.RegisterLibFunc(&sdlQuit, sdlHandle, "SDL_Quit")
	purego.RegisterLibFunc(&sdlGetError, sdlHandle, "SDL_GetError")
	purego.RegisterLibFunc(&sdlCreateWindow, sdlHandle, "SDL_CreateWindow")
	purego.RegisterLibFunc(&sdlDestroyWindow, sdlHandle, "SDL_DestroyWindow")
	purego.RegisterLibFunc(&sdlGetWindowSize, sdlHandle, "SDL_GetWindowSize")
	purego.RegisterLibFunc(&sdlCreateRenderer, sdlHandle, "SDL_CreateRenderer")
	purego.RegisterLibFunc(&sdlDestroyRenderer, sdlHandle, "SDL_DestroyRenderer")
	purego.RegisterLibFunc(&sdlRenderClear, sdlHandle, "SDL_RenderClear")
	purego.RegisterLibFunc(&sdlRenderCopy, sdlHandle, "SDL_RenderCopy")
	purego.RegisterLibFunc(&sdlRenderPresent, sdlHandle, "SDL_RenderPresent")
	purego.RegisterLibFunc(&sdlCreateTexture, sdlHandle, "SDL_CreateTexture")
	purego.RegisterLibFunc(&sdlDestroyTexture, sdlHandle, "SDL_DestroyTexture")
	purego.RegisterLibFunc(&sdlUpdateYUVTexture, sdlHandle, "SDL_UpdateYUVTexture")
	purego.RegisterLibFunc(&sdlOpenAudioDevice, sdlHandle, "SDL_OpenAudioDevice")
	purego.RegisterLibFunc(&sdlPauseAudioDevice, sdlHandle, "SDL_PauseAudioDevice")
	purego.RegisterLibFunc(&sdlCloseAudioDevice, sdlHandle, "SDL_CloseAudioDevice")
	purego.RegisterLibFunc(&sdlAddTimer, sdlHandle, "SDL_AddTimer")
	purego.RegisterLibFunc(&sdlRemoveTimer, sdlHandle, "SDL_RemoveTimer")
	purego.RegisterLibFunc(&sdlPushEvent, sdlHandle, "SDL_PushEvent")
	purego.RegisterLibFunc(&sdlWaitEvent, sdlHandle, "SDL_WaitEvent")
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
		if length > 1024 {
			break
		}
	}
	if length == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(p), length))
}

func cString(s string) (uintptr, func()) {
	b := append([]byte(s), 0)
	return uintptr(unsafe.Pointer(&b[0])), func() { runtime.KeepAlive(b) }
}

func lastSDLError() string {
	return goStringFromPtr(sdlGetError())
}
