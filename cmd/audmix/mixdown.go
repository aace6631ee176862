// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/formats/wav"
	"github.com/ik5/audmix/internal/config"
	"github.com/ik5/audmix/internal/playback"
	"github.com/ik5/audmix/mixer"
	"github.com/ik5/audmix/utils"
)

// inputs are opened this many at a time
const openLimit = 4

// periods without progress before giving up on a source that never ends
const maxIdlePeriods = 8

type input struct {
	path     string
	file     *os.File
	provider *audio.SourceProvider
}

func (in *input) Close() error {
	return errors.Join(in.provider.Close(), in.file.Close())
}

func openInput(reg *audio.Registry, path string) (*input, error) {
	dec, err := decoderFor(reg, path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}

	src, err := dec.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	p, err := audio.NewSourceProvider(src)
	if err != nil {
		src.Close()
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &input{path: path, file: f, provider: p}, nil
}

// openInputs opens and decodes every track concurrently.
func openInputs(ctx context.Context, reg *audio.Registry, tracks []*config.TrackSettings, logger *slog.Logger) ([]*input, error) {
	inputs := make([]*input, len(tracks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(openLimit)
	for i, t := range tracks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			in, err := openInput(reg, *t.Path)
			if err != nil {
				return err
			}
			inputs[i] = in

			logger.Debug("input opened",
				"path", in.path,
				"sampleRate", in.provider.SampleRate(),
				"channels", in.provider.Channels())
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		closeInputs(inputs)
		return nil, err
	}
	return inputs, nil
}

func closeInputs(inputs []*input) {
	for _, in := range inputs {
		if in != nil {
			_ = in.Close()
		}
	}
}

func addTrack(m *mixer.Mixer, in *input, t *config.TrackSettings, period []int16, aux []int32) error {
	name, err := m.AllocateTrack()
	if err != nil {
		return err
	}

	set := func(target mixer.Target, param mixer.Param, value int) {
		if err == nil {
			err = m.SetParameter(name, target, param, value)
		}
	}

	if in.provider.Channels() == 1 {
		set(mixer.TargetTrack, mixer.ParamChannelMask, int(mixer.ChannelOutMono))
	}
	set(mixer.TargetResample, mixer.ParamSampleRate, in.provider.SampleRate())

	left, right := mixer.GainFromFloat(*t.Left), mixer.GainFromFloat(*t.Right)
	if *t.FadeIn {
		set(mixer.TargetVolume, mixer.ParamVolume0, 0)
		set(mixer.TargetVolume, mixer.ParamVolume1, 0)
		set(mixer.TargetRampVolume, mixer.ParamVolume0, left)
		set(mixer.TargetRampVolume, mixer.ParamVolume1, right)
	} else {
		set(mixer.TargetVolume, mixer.ParamVolume0, left)
		set(mixer.TargetVolume, mixer.ParamVolume1, right)
	}

	if aux != nil {
		if err == nil {
			err = m.SetAuxBuffer(name, aux)
		}
		set(mixer.TargetVolume, mixer.ParamAuxLevel, mixer.GainFromFloat(*t.AuxLevel))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", in.path, err)
	}

	if err := m.SetMainBuffer(name, period); err != nil {
		return err
	}
	if err := m.SetBufferProvider(name, in.provider); err != nil {
		return err
	}
	return m.Enable(name)
}

// outputs receives every mixed period.
type outputs struct {
	rate int

	mainFile io.WriteCloser
	main     *wav.Writer
	// stdout cannot seek; its mix is written by close
	pending []int16

	auxFile *os.File
	aux     *wav.Writer
	auxPCM  []int16

	player *playback.Player
}

func openOutputs(s *config.Settings, frameCount int, stdout io.Writer) (*outputs, error) {
	o := &outputs{rate: *s.Mixer.SampleRateHz}

	if *s.Output != "" {
		w, seekable, err := openOutput(*s.Output, stdout)
		if err != nil {
			return nil, err
		}
		o.mainFile = w
		if seekable {
			o.main, err = wav.NewWriter(w.(*os.File), o.rate, 2)
			if err != nil {
				o.abort()
				return nil, err
			}
		}
	}

	if *s.AuxOutput != "" {
		f, err := os.Create(*s.AuxOutput)
		if err != nil {
			o.abort()
			return nil, fmt.Errorf("creating aux output: %w", err)
		}
		o.auxFile = f
		if o.aux, err = wav.NewWriter(f, o.rate, 1); err != nil {
			o.abort()
			return nil, err
		}
		o.auxPCM = make([]int16, frameCount)
	}

	if *s.Play {
		p, err := playback.New(o.rate, 4*frameCount)
		if err != nil {
			o.abort()
			return nil, err
		}
		o.player = p
	}

	return o, nil
}

func (o *outputs) write(ctx context.Context, period []int16, aux []int32) error {
	switch {
	case o.main != nil:
		if err := o.main.Write(period); err != nil {
			return err
		}
	case o.mainFile != nil:
		o.pending = append(o.pending, period...)
	}

	if o.aux != nil {
		for i, v := range aux {
			o.auxPCM[i] = utils.Clamp16(v >> 12)
		}
		if err := o.aux.Write(o.auxPCM); err != nil {
			return err
		}
	}

	if o.player != nil {
		return o.player.Write(ctx, period)
	}
	return nil
}

// close finishes the WAV files and waits for playback to drain.
func (o *outputs) close(ctx context.Context) error {
	var errs []error

	if o.main != nil {
		errs = append(errs, o.main.Close())
	} else if o.mainFile != nil {
		errs = append(errs, wav.WriteWAV16(o.mainFile, o.rate, 2, o.pending))
	}
	if o.mainFile != nil {
		errs = append(errs, o.mainFile.Close())
	}

	if o.aux != nil {
		errs = append(errs, o.aux.Close())
	}
	if o.auxFile != nil {
		errs = append(errs, o.auxFile.Close())
	}

	if o.player != nil {
		errs = append(errs, o.player.Close(ctx))
	}
	return errors.Join(errs...)
}

// abort releases whatever was opened without finishing it.
func (o *outputs) abort() {
	if o.mainFile != nil {
		_ = o.mainFile.Close()
	}
	if o.auxFile != nil {
		_ = o.auxFile.Close()
	}
	if o.player != nil {
		_ = o.player.Close(context.Background())
	}
}

func mixdown(ctx context.Context, s *config.Settings, stdout io.Writer, logger *slog.Logger) error {
	frameCount := *s.Mixer.FrameCount

	inputs, err := openInputs(ctx, newRegistry(), s.Tracks, logger)
	if err != nil {
		return err
	}
	defer closeInputs(inputs)

	m, err := mixer.New(frameCount, *s.Mixer.SampleRateHz,
		mixer.WithLogger(logger),
		mixer.WithResamplerQuality(s.Mixer.Quality()))
	if err != nil {
		return err
	}
	defer m.Close()

	period := make([]int16, frameCount*mixer.MaxChannels)
	var aux []int32
	if *s.AuxOutput != "" {
		aux = make([]int32, frameCount)
	}

	for i, in := range inputs {
		if err := addTrack(m, in, s.Tracks[i], period, aux); err != nil {
			return err
		}
	}

	out, err := openOutputs(s, frameCount, stdout)
	if err != nil {
		return err
	}

	periods, err := mixLoop(ctx, m, inputs, period, aux, out)
	if err != nil {
		out.abort()
		return err
	}

	// let playback drain unless interrupted
	if err := out.close(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	for _, in := range inputs {
		if err := in.provider.Err(); err != nil {
			logger.Warn("input ended early", "path", in.path, "err", err)
		}
	}

	stats := m.Stats()
	logger.Info("mixdown finished",
		"tracks", len(inputs),
		"periods", periods,
		"seconds", float64(periods*frameCount)/float64(*s.Mixer.SampleRateHz),
		"validations", stats.Validations,
		"underruns", stats.Underruns,
		"violations", stats.Violations)
	return nil
}

// mixLoop runs periods until every input is drained or ctx ends.
func mixLoop(ctx context.Context, m *mixer.Mixer, inputs []*input, period []int16, aux []int32, out *outputs) (int, error) {
	var (
		periods  int
		progress int64
		idle     int
	)

	for ctx.Err() == nil {
		clear(aux)
		m.Process()
		periods++

		if err := out.write(ctx, period, aux); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			return periods, err
		}

		done := true
		var delivered int64
		for _, in := range inputs {
			if !in.provider.Done() {
				done = false
			}
			d, _ := in.provider.Frames()
			delivered += d
		}
		if done {
			break
		}

		if delivered == progress {
			if idle++; idle >= maxIdlePeriods {
				break
			}
		} else {
			progress, idle = delivered, 0
		}
	}

	return periods, nil
}
