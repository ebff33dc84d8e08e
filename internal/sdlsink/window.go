//go:build darwin || linux

package sdlsink

import (
	"fmt"
	"unsafe"

	"github.com/avcore/avplayer"
)

const (
	sdlWindowPosUndefined = 0x1FFF0000
	sdlWindowResizable    = 0x00000020
	sdlRendererAccel      = 0x00000002
	sdlTextureStreaming   = 1
	sdlPixelFormatIYUV    = 0x56555949 // SDL_DEFINE_PIXELFOURCC('I','Y','U','V')
)

// Sink implements avplayer.VideoSink by driving an SDL2 window, renderer
// and streaming YUV texture.
type Sink struct {
	title    string
	window   uintptr
	renderer uintptr
	texture  uintptr
	texW     int
	texH     int
}

// NewSink creates a Sink that opens its window lazily on the first
// CreateWindow call, named title.
func NewSink(title string) (*Sink, error) {
	if err := loadSDL(); err != nil {
		return nil, err
	}
	return &Sink{title: title}, nil
}

func (s *Sink) CreateWindow(width, height int) error {
	titlePtr, keepAlive := cString(s.title)
	defer keepAlive()

	s.window = sdlCreateWindow(titlePtr, sdlWindowPosUndefined, sdlWindowPosUndefined, int32(width), int32(height), sdlWindowResizable)
	if s.window == 0 {
		return fmt.Errorf("sdlsink: SDL_CreateWindow: %s", lastSDLError())
	}
	return nil
}

func (s *Sink) CreateRenderer() error {
	s.renderer = sdlCreateRenderer(s.window, -1, sdlRendererAccel)
	if s.renderer == 0 {
		return fmt.Errorf("sdlsink: SDL_CreateRenderer: %s", lastSDLError())
	}
	return nil
}

func (s *Sink) CreateTexture(format avplayer.PixelFormat, width, height int) error {
	if s.texture != 0 {
		sdlDestroyTexture(s.texture)
	}

	sdlFormat := uint32(sdlPixelFormatIYUV)
	texture := sdlCreateTexture(s.renderer, sdlFormat, sdlTextureStreaming, int32(width), int32(height))
	if texture == 0 {
		return fmt.Errorf("sdlsink: SDL_CreateTexture: %s", lastSDLError())
	}
	s.texture, s.texW, s.texH = texture, width, height
	return nil
}

// UpdateYUV pushes planar YUV data into the current texture. It assumes
// I420 plane order (Y, U, V), the only layout CreateTexture requests.
func (s *Sink) UpdateYUV(planes [][]byte, strides []int) error {
	if len(planes) < 3 || len(strides) < 3 {
		return fmt.Errorf("sdlsink: UpdateYUV needs 3 planes, got %d", len(planes))
	}

	var yPtr, uPtr, vPtr uintptr
	if len(planes[0]) > 0 {
		yPtr = uintptr(unsafe.Pointer(&planes[0][0]))
	}
	if len(planes[1]) > 0 {
		uPtr = uintptr(unsafe.Pointer(&planes[1][0]))
	}
	if len(planes[2]) > 0 {
		vPtr = uintptr(unsafe.Pointer(&planes[2][0]))
	}

	ret := sdlUpdateYUVTexture(s.texture, 0, yPtr, int32(strides[0]), uPtr, int32(strides[1]), vPtr, int32(strides[2]))
	if ret != 0 {
		return fmt.Errorf("sdlsink: SDL_UpdateYUVTexture: %s", lastSDLError())
	}
	return nil
}

func (s *Sink) RenderRect(dst avplayer.Rect) error {
	if ret := sdlRenderClear(s.renderer); ret != 0 {
		return fmt.Errorf("sdlsink: SDL_RenderClear: %s", lastSDLError())
	}

	rect := [4]int32{int32(dst.X), int32(dst.Y), int32(dst.W), int32(dst.H)}
	ret := sdlRenderCopy(s.renderer, s.texture, 0, uintptr(unsafe.Pointer(&rect[0])))
	if ret != 0 {
		return fmt.Errorf("sdlsink: SDL_RenderCopy: %s", lastSDLError())
	}
	sdlRenderPresent(s.renderer)
	return nil
}

func (s *Sink) WindowSize() (int, int) {
	var w, h int32
	sdlGetWindowSize(s.window, uintptr(unsafe.Pointer(&w)), uintptr(unsafe.Pointer(&h)))
	return int(w), int(h)
}

func (s *Sink) Close() error {
	if s.texture != 0 {
		sdlDestroyTexture(s.texture)
	}
	if s.renderer != 0 {
		sdlDestroyRenderer(s.renderer)
	}
	if s.window != 0 {
		sdlDestroyWindow(s.window)
	}
	return nil
}
