// Package avplayer implements the pipeline concurrency and audio/video
// synchronization core of a media player: a demuxer-fed Reader stage, a
// pulled AudioDecoder, a pushed VideoDecoder, and a timer-driven Presenter
// that keeps video locked to the audio master clock.
//
// # Architecture
//
//	Reader: Demuxer -> {AudioPacketQueue, VideoPacketQueue}
//	AudioDecoder (pulled by the audio device): AudioPacketQueue -> Decoder -> Resampler -> residual PCM buffer -> MasterClock
//	VideoDecoder: VideoPacketQueue -> Decoder -> FrameRing
//	Presenter (timer-driven on the UI thread): FrameRing -> VideoSink, paced against MasterClock
//
// Demuxing, decoding, resampling, and audio/video device I/O are external
// collaborators; avplayer depends only on the interfaces in external.go.
// Concrete bindings live under internal/nativeav (libavformat/libavcodec/
// libswresample via purego) and internal/sdlsink (libSDL2 via purego), plus
// internal/rtmpsource for live RTMP ingest as an alternate Demuxer.
//
// # Lifecycle
//
// Uninit -> Opening -> Running -> Draining -> Stopped. See Player for the
// full state machine and shutdown protocol.
package avplayer
