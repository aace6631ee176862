// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
)

const headerSize = 44

// WriteWAV16 writes interleaved 16-bit PCM samples as a complete WAV file.
// The sizes are known up front, so w does not need to seek.
func WriteWAV16(w io.Writer, sampleRate, channels int, samples []int16) error {
	if sampleRate <= 0 || channels <= 0 {
		return ErrInvalidFormat
	}

	const bitsPerSample = 16
	blockAlign := channels * bitsPerSample / 8
	dataSize := uint32(len(samples) * 2)

	header := make([]byte, headerSize)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataSize)
	copy(header[8:12], "WAVE")

	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)

	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("writing wav header: %w", err)
	}

	const chunkSize = 8192
	buf := make([]byte, 2*min(len(samples), chunkSize))
	for i := 0; i < len(samples); i += chunkSize {
		chunk := samples[i:min(i+chunkSize, len(samples))]
		b := buf[:2*len(chunk)]
		for j, s := range chunk {
			binary.LittleEndian.PutUint16(b[2*j:], uint16(s))
		}
		if _, err := w.Write(b); err != nil {
			return fmt.Errorf("writing wav data: %w", err)
		}
	}

	return nil
}

// Writer streams interleaved 16-bit PCM into a WAV file as it is produced.
// The RIFF and data sizes are written by Close, so the destination must be
// seekable.
type Writer struct {
	enc    *gowav.Encoder
	buf    *goaudio.IntBuffer
	frames int
}

func NewWriter(w io.WriteSeeker, sampleRate, channels int) (*Writer, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, ErrInvalidFormat
	}

	return &Writer{
		enc: gowav.NewEncoder(w, sampleRate, 16, channels, wavFormatPCM),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}, nil
}

// Write appends interleaved samples. len(samples) should be a multiple of
// the channel count.
func (w *Writer) Write(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}

	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]
	for i, s := range samples {
		w.buf.Data[i] = int(s)
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("writing wav data: %w", err)
	}
	w.frames += len(samples) / w.buf.Format.NumChannels
	return nil
}

// Frames returns the number of frames written so far.
func (w *Writer) Frames() int { return w.frames }

// Close writes the final chunk sizes. It does not close the destination.
func (w *Writer) Close() error {
	// the encoder only emits the header on the first write
	if w.frames == 0 {
		w.buf.Data = w.buf.Data[:0]
		if err := w.enc.Write(w.buf); err != nil {
			return fmt.Errorf("writing wav header: %w", err)
		}
	}
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("finishing wav file: %w", err)
	}
	return nil
}
