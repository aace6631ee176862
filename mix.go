// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"errors"
	"fmt"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/mixer"
)

// ErrNoSources is returned by MixToStereo16 when it is given nothing to mix.
var ErrNoSources = errors.New("no sources to mix")

// periods without progress before a mixdown gives up on a source that
// never finishes, such as one ending in a partial frame
const maxIdlePeriods = 8

// MixToStereo16 mixes every source at unity gain into one interleaved 16-bit
// stereo stream at targetRate.
//
// Sources whose rate differs from targetRate are resampled. Mono sources
// are played on both channels and sources with more than two channels are
// downmixed to mono first. Mixing runs frameCount frames at a time until
// every source is drained, so the result is a whole number of periods; the
// tail of the last one is silence.
//
// The sources are read but not closed. Options are passed to mixer.New.
//
// Example:
//
//	voice, _ := wav.Decoder{}.Decode(voiceFile)
//	music, _ := mp3.Decoder{}.Decode(musicFile)
//	pcm, rate, err := audmix.MixToStereo16([]audio.Source{voice, music}, 48000, 1024)
func MixToStereo16(srcs []audio.Source, targetRate, frameCount int, opts ...mixer.Option) ([]int16, int, error) {
	if len(srcs) == 0 {
		return nil, targetRate, ErrNoSources
	}

	m, err := mixer.New(frameCount, targetRate, opts...)
	if err != nil {
		return nil, targetRate, fmt.Errorf("creating mixer: %w", err)
	}
	defer m.Close()

	period := make([]int16, frameCount*mixer.MaxChannels)
	providers := make([]*audio.SourceProvider, 0, len(srcs))

	for i, src := range srcs {
		p, err := audio.NewSourceProvider(src)
		if err != nil {
			return nil, targetRate, fmt.Errorf("source %d: %w", i, err)
		}
		if err := addTrack(m, p, period); err != nil {
			return nil, targetRate, fmt.Errorf("source %d: %w", i, err)
		}
		providers = append(providers, p)
	}

	var (
		out      []int16
		progress int64
		idle     int
	)
	for {
		m.Process()
		out = append(out, period...)

		done := true
		var delivered int64
		for _, p := range providers {
			if !p.Done() {
				done = false
			}
			d, _ := p.Frames()
			delivered += d
		}
		if done {
			break
		}

		if delivered == progress {
			idle++
			if idle >= maxIdlePeriods {
				break
			}
		} else {
			progress, idle = delivered, 0
		}
	}

	for i, p := range providers {
		if err := p.Err(); err != nil {
			return out, targetRate, fmt.Errorf("source %d: %w", i, err)
		}
	}

	return out, targetRate, nil
}

func addTrack(m *mixer.Mixer, p *audio.SourceProvider, period []int16) error {
	name, err := m.AllocateTrack()
	if err != nil {
		return fmt.Errorf("allocating track: %w", err)
	}

	if p.Channels() == 1 {
		err = m.SetParameter(name, mixer.TargetTrack, mixer.ParamChannelMask, int(mixer.ChannelOutMono))
		if err != nil {
			return fmt.Errorf("setting channel mask: %w", err)
		}
	}
	if p.SampleRate() != m.SampleRate() {
		err = m.SetParameter(name, mixer.TargetResample, mixer.ParamSampleRate, p.SampleRate())
		if err != nil {
			return fmt.Errorf("setting sample rate: %w", err)
		}
	}

	if err := m.SetMainBuffer(name, period); err != nil {
		return fmt.Errorf("setting main buffer: %w", err)
	}
	if err := m.SetBufferProvider(name, p); err != nil {
		return fmt.Errorf("setting buffer provider: %w", err)
	}
	return m.Enable(name)
}
