// Package sdlsink implements avplayer's VideoSink, AudioDevice and Timer
// interfaces on top of libSDL2, loaded at runtime through purego rather
// than cgo.
package sdlsink
