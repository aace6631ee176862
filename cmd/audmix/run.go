// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/formats/aiff"
	"github.com/ik5/audmix/formats/mp3"
	"github.com/ik5/audmix/formats/vorbis"
	"github.com/ik5/audmix/formats/wav"
	"github.com/ik5/audmix/internal/config"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// ErrTerminalOutput is returned when WAV data would be written to a terminal.
var ErrTerminalOutput = errors.New("refusing to write WAV data to a terminal")

func newRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	reg.Register("aif", aiff.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	reg.Register("oga", vorbis.Decoder{})
	return reg
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	settings, err := loadSettings(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	logger := newLogger(settings.Logging, stderr)

	if err := mixdown(ctx, settings, stdout, logger); err != nil {
		logger.Error("mixdown failed", "err", err)
		return exitError
	}
	return exitOK
}

func loadSettings(args []string, stderr io.Writer) (*config.Settings, error) {
	fs := flag.NewFlagSet("audmix", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: audmix [flags] [input ...]")
		fs.PrintDefaults()
	}

	configPath := fs.String("config", os.Getenv(config.EnvConfigPath), "JSON config file")
	output := fs.String("o", "", `WAV file for the main mix, "-" for stdout`)
	auxOutput := fs.String("aux", "", "mono WAV file for the aux bus")
	play := fs.Bool("play", false, "play the mix on the default audio device")
	rate := fs.Int("rate", 0, "output sample rate in Hz")
	frames := fs.Int("frames", 0, "frames per mixer period")
	quality := fs.String("quality", "", "resampler quality: default, low or medium")
	level := fs.String("log-level", "", "log level: debug, info, warn or error")
	format := fs.String("log-format", "", "log format: text or json")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	settings := config.Default()
	if *configPath != "" {
		var err error
		if settings, err = config.LoadFile(*configPath); err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o":
			settings.Output = output
		case "aux":
			settings.AuxOutput = auxOutput
		case "play":
			settings.Play = play
		case "rate":
			settings.Mixer.SampleRateHz = rate
		case "frames":
			settings.Mixer.FrameCount = frames
		case "quality":
			settings.Mixer.ResamplerQuality = quality
		case "log-level":
			settings.Logging.Level = level
		case "log-format":
			t := config.LoggingHandlerType(*format)
			settings.Logging.Type = &t
		}
	})

	for _, path := range fs.Args() {
		settings.Tracks = append(settings.Tracks, config.NewTrack(path))
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func newLogger(s *config.LoggingSettings, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: s.SlogLevel()}

	var h slog.Handler
	if *s.Type == config.LoggingHandlerTypeJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("session", uuid.NewString())
}

func decoderFor(reg *audio.Registry, path string) (audio.Decoder, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	dec, ok := reg.Get(ext)
	if !ok {
		return nil, fmt.Errorf("%s: unsupported format %q", path, ext)
	}
	return dec, nil
}

// openOutput returns where the main mix goes. stdout cannot seek, so its
// WAV file is written in one piece at the end.
func openOutput(path string, stdout io.Writer) (io.WriteCloser, bool, error) {
	if path == "-" {
		if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return nil, false, ErrTerminalOutput
		}
		return nopCloser{stdout}, false, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, false, fmt.Errorf("creating output: %w", err)
	}
	return f, true, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
