// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes 16-bit PCM WAV files.
//
// Decoding and streaming encoding are done with github.com/go-audio/wav, so
// files with extra chunks (LIST, bext, JUNK) before the data chunk are
// accepted.
//
// # Decoding
//
//	src, err := wav.Decoder{}.Decode(file)
//	if err != nil {
//	    // ErrNotWavFile, ErrOnlyPCM16bitSupported, ...
//	}
//
//	buf := make([]int16, 4096)
//	n, err := src.ReadSamples(buf)
//
// Samples are interleaved signed 16-bit values, exactly as stored.
//
// # Encoding
//
// WriteWAV16 writes a whole file at once to any io.Writer:
//
//	err := wav.WriteWAV16(w, 48000, 2, samples)
//
// Writer appends periods as they are produced and fixes up the header on
// Close, which needs an io.WriteSeeker such as *os.File:
//
//	w, _ := wav.NewWriter(file, 48000, 2)
//	for ... {
//	    _ = w.Write(period)
//	}
//	_ = w.Close()
package wav
