// SPDX-License-Identifier: EPL-2.0

// Package aiff provides AIFF (Audio Interchange File Format) decoding.
//
// This package uses github.com/go-audio/aiff to decode AIFF files. Only
// 16-bit PCM is supported; AIFF-C and other bit depths are rejected with
// ErrOnlyPCM16bitSupported.
//
// AIFF stores samples big-endian; the decoder returns them as native
// interleaved int16 values like every other audio.Source:
//
//	src, err := aiff.Decoder{}.Decode(file)
//	if err != nil {
//	    // Handle error
//	}
//
//	buf := make([]int16, 4096)
//	n, err := src.ReadSamples(buf)
//
// go-audio needs an io.ReadSeeker. Other readers are read into memory
// first.
package aiff
