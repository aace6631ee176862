// SPDX-License-Identifier: EPL-2.0

// Package vorbis provides Ogg Vorbis decoding.
//
// This package uses github.com/jfreymuth/oggvorbis. Vorbis decodes to
// floating point; samples are scaled to int16 and clipped.
//
//	src, err := vorbis.Decoder{}.Decode(file)
//	if err != nil {
//	    // Handle error
//	}
//
//	buf := make([]int16, 4096)
//	n, err := src.ReadSamples(buf)
//
// Files with more than two channels are returned as is; wrap them with
// audio.NewMonoMixer (audio.NewSourceProvider does this) before mixing.
package vorbis
