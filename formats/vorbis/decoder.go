// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/utils"
)

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type source struct {
	dec        oggReader
	sampleRate int
	channels   int
	floatBuf   []float32
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return cap(s.floatBuf) }

func (s *source) ReadSamples(dst []int16) (int, error) {
	// whole frames only
	want := len(dst) / s.channels * s.channels
	if want == 0 {
		return 0, nil
	}

	if cap(s.floatBuf) < want {
		s.floatBuf = make([]float32, want)
	}
	s.floatBuf = s.floatBuf[:want]

	// Read returns a count of values, always a multiple of the channel count
	n, err := s.dec.Read(s.floatBuf)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("decoding vorbis: %w", err)
	}
	if n == 0 && err == io.EOF {
		return 0, io.EOF
	}

	for i, v := range s.floatBuf[:n] {
		dst[i] = utils.Float32ToInt16(v)
	}
	return n, nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotVorbisFile, err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
		floatBuf:   make([]float32, 4096),
	}, nil
}
