// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/audmix/audio"
)

// go-mp3 always decodes to 16-bit little-endian stereo.
const mp3Channels = 2

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type source struct {
	dec        mp3Reader
	sampleRate int
	buf        []byte
	// odd trailing byte of the previous read, if any
	held    byte
	hasHeld bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return mp3Channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return cap(s.buf) / 2 }

func (s *source) ReadSamples(dst []int16) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	need := len(dst) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	s.buf = s.buf[:need]

	start := 0
	if s.hasHeld {
		s.buf[0] = s.held
		s.hasHeld = false
		start = 1
	}

	n, err := s.dec.Read(s.buf[start:])
	n += start
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("decoding mp3: %w", err)
	}

	samples := n / 2
	if n%2 == 1 {
		s.held, s.hasHeld = s.buf[n-1], true
	}
	for i := range samples {
		dst[i] = int16(binary.LittleEndian.Uint16(s.buf[2*i:]))
	}

	if samples == 0 && err == io.EOF {
		return 0, io.EOF
	}
	return samples, nil
}

type Decoder struct{}

// Decode prepares an MP3 stream for reading. The output is always stereo.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotMP3File, err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		buf:        make([]byte, 8192),
	}, nil
}
