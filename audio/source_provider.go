// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
)

// SourceProvider adapts a Source to the BufferProvider contract so that a
// decoded stream can feed a mixer track. Sources with more than two channels
// are downmixed to mono.
//
// A SourceProvider never blocks beyond the cost of decoding and never
// returns an error from GetNextBuffer; read errors end the stream and are
// reported by Err.
type SourceProvider struct {
	src      Source
	channels int

	buf   []int16
	carry []int16

	held      bool
	eof       bool
	err       error
	delivered int64
	released  int64
}

func NewSourceProvider(src Source) (*SourceProvider, error) {
	if src.SampleRate() <= 0 {
		return nil, ErrInvalidSampleRate
	}

	channels := src.Channels()
	switch {
	case channels <= 0:
		return nil, ErrUnsupportedChannels
	case channels > 2:
		src = NewMonoMixer(src)
		channels = 1
	}

	return &SourceProvider{
		src:      src,
		channels: channels,
		buf:      make([]int16, max(src.BufSize(), 2*channels)),
		carry:    make([]int16, 0, channels),
	}, nil
}

func (s *SourceProvider) SampleRate() int { return s.src.SampleRate() }
func (s *SourceProvider) Channels() int   { return s.channels }

// Err returns the first non-EOF error returned by the source.
func (s *SourceProvider) Err() error { return s.err }

// Done reports whether the source is exhausted and every delivered buffer
// has been released.
func (s *SourceProvider) Done() bool {
	return s.eof && len(s.carry) == 0 && !s.held
}

// Frames returns the number of frames delivered and released so far.
func (s *SourceProvider) Frames() (delivered, released int64) {
	return s.delivered, s.released
}

func (s *SourceProvider) GetNextBuffer(b *Buffer) {
	want := b.FrameCount
	b.I16, b.FrameCount = nil, 0
	if want <= 0 || s.held || (s.eof && len(s.carry) == 0) {
		return
	}

	need := want * s.channels
	if cap(s.buf) < need {
		s.buf = make([]int16, need)
	}
	buf := s.buf[:need]

	n := copy(buf, s.carry)
	s.carry = s.carry[:0]

	for n < need && !s.eof {
		m, err := s.src.ReadSamples(buf[n:])
		n += m
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.err = fmt.Errorf("reading source: %w", err)
			}
			s.eof = true
			break
		}
		if m == 0 {
			break
		}
	}

	frames := n / s.channels
	s.carry = append(s.carry, buf[frames*s.channels:n]...)
	if frames == 0 {
		return
	}

	b.I16 = buf[:frames*s.channels]
	b.FrameCount = frames
	s.held = true
	s.delivered += int64(frames)
}

func (s *SourceProvider) ReleaseBuffer(b *Buffer) {
	if s.held {
		s.released += int64(b.FrameCount)
		s.held = false
	}
	b.I16, b.FrameCount = nil, 0
}

func (s *SourceProvider) Close() error {
	err := s.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}
