// Package nativeav implements avplayer's Demuxer, VideoCodecDecoder,
// AudioCodecDecoder and Resampler interfaces on top of the system's
// libavformat, libavcodec and libswresample shared libraries, loaded at
// runtime through purego rather than cgo.
package nativeav
