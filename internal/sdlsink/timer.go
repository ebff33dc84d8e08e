//go:build darwin || linux

package sdlsink

import (
	"encoding/binary"
	"sync"
	"time"
	"unsafe"

	"github.com/avcore/avplayer"
	"github.com/ebitengine/purego"
)

const (
	sdlEventQuit       = 0x100
	sdlEventUser       = 0x8000
	sdlEventBufferSize = 56
)

var (
	timerTrampolineOnce sync.Once
	timerTrampoline     uintptr
)

// timerFireHandler runs on SDL's internal timer thread; it only pushes a
// lightweight user event and asks SDL not to reschedule itself.
func timerFireHandler(interval uint32, param uintptr) uint32 {
	buf := make([]byte, sdlEventBufferSize)
	binary.LittleEndian.PutUint32(buf[0:4], sdlEventUser)
	sdlPushEvent(uintptr(unsafe.Pointer(&buf[0])))
	return 0
}

// EventTimer implements avplayer.Timer over SDL's timer subsystem and
// event queue: PostTimer arms a one-shot SDL_AddTimer that posts a user
// event on expiry, and WaitEvent/PostQuit ride the same SDL_Event queue
// the window's input events flow through.
type EventTimer struct{}

// NewEventTimer loads libSDL2 if it isn't already loaded.
func NewEventTimer() (*EventTimer, error) {
	if err := loadSDL(); err != nil {
		return nil, err
	}
	timerTrampolineOnce.Do(func() {
		timerTrampoline = purego.NewCallback(timerFireHandler)
	})
	return &EventTimer{}, nil
}

func (t *EventTimer) PostTimer(delay time.Duration) {
	ms := uint32(delay / time.Millisecond)
	if ms == 0 {
		ms = 1
	}
	sdlAddTimer(ms, timerTrampoline, 0)
}

func (t *EventTimer) WaitEvent() avplayer.EventKind {
	buf := make([]byte, sdlEventBufferSize)
	if ret := sdlWaitEvent(uintptr(unsafe.Pointer(&buf[0]))); ret == 0 {
		return avplayer.EventNone
	}

	switch binary.LittleEndian.Uint32(buf[0:4]) {
	case sdlEventQuit:
		return avplayer.EventQuit
	case sdlEventUser:
		return avplayer.EventRefresh
	default:
		return avplayer.EventNone
	}
}

func (t *EventTimer) PostQuit() {
	buf := make([]byte, sdlEventBufferSize)
	binary.LittleEndian.PutUint32(buf[0:4], sdlEventQuit)
	sdlPushEvent(uintptr(unsafe.Pointer(&buf[0])))
}
