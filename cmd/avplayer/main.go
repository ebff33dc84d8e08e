// Command avplayer plays a local media file or an incoming RTMP publish
// in an SDL2 window.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/avcore/avplayer"
	"github.com/avcore/avplayer/internal/nativeav"
	"github.com/avcore/avplayer/internal/rtmpsource"
	"github.com/avcore/avplayer/internal/sdlsink"
)

func main() {
	var (
		logLevel = flag.String("loglevel", "info", "trace, debug, info, warn, error, critical, or off")
		logDir   = flag.String("logdir", "", "write logs to <logdir>/avplayer.log instead of stderr")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <file-or-url>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s movie.mp4\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s rtmp://:1935\n", os.Args[0])
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(-1)
	}
	target := flag.Arg(0)

	if err := avplayer.ConfigureLogging(*logLevel, *logDir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(-1)
	}
	log := avplayer.Log.WithField("stage", "main")

	if err := run(target); err != nil {
		log.WithField("error", err).Error("playback failed")
		os.Exit(-1)
	}
	os.Exit(0)
}

func run(target string) error {
	log := avplayer.Log.WithField("stage", "main")

	demux, err := openDemuxer(target)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}

	sink, err := sdlsink.NewSink("avplayer")
	if err != nil {
		return fmt.Errorf("create video sink: %w", err)
	}
	timer, err := sdlsink.NewEventTimer()
	if err != nil {
		return fmt.Errorf("create event timer: %w", err)
	}
	audioDev, err := sdlsink.NewDevice()
	if err != nil {
		return fmt.Errorf("create audio device: %w", err)
	}

	p := avplayer.NewPlayer(log)
	err = p.Open(avplayer.PlayerConfig{
		Demux:            demux,
		Sink:             sink,
		Timer:            timer,
		AudioDev:         audioDev,
		Cfg:              avplayer.DefaultConfig(),
		OpenVideoDecoder: nativeav.OpenVideoDecoder,
		OpenAudioDecoder: nativeav.OpenAudioDecoder,
		OpenResampler:    nativeav.OpenResampler,
	})
	if err != nil {
		return fmt.Errorf("open player: %w", err)
	}

	p.Run()
	return nil
}

// openDemuxer picks internal/rtmpsource for an rtmp:// target (waiting
// for an incoming publish) and internal/nativeav for everything else
// (local files and any URL scheme libavformat's protocol layer handles).
func openDemuxer(target string) (avplayer.Demuxer, error) {
	if strings.HasPrefix(target, "rtmp://") {
		addr := strings.TrimPrefix(target, "rtmp://")
		if addr == "" || strings.HasPrefix(addr, "/") {
			addr = ":1935"
		}
		return rtmpsource.Listen(addr)
	}
	return nativeav.OpenFileDemuxer(target)
}
