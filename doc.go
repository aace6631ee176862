// SPDX-License-Identifier: EPL-2.0

// Package audmix mixes decoded audio streams into 16-bit PCM.
//
// The work is done by the mixer subpackage, a fixed-point software mixer
// that sums up to 32 tracks per period with per channel gain, volume ramps,
// an aux send and sample rate conversion. This package adds a one-call
// mixdown on top of it.
//
// # Supported Formats
//
// Inputs are decoded to interleaved int16 by:
//   - WAV (PCM 16-bit) via formats/wav
//   - MP3 via formats/mp3
//   - Ogg Vorbis via formats/vorbis
//   - AIFF (PCM 16-bit) via formats/aiff
//
// # Quick Start
//
//	voice, _ := wav.Decoder{}.Decode(voiceFile)
//	music, _ := vorbis.Decoder{}.Decode(musicFile)
//
//	// 48kHz interleaved stereo
//	pcm, rate, err := audmix.MixToStereo16([]audio.Source{voice, music}, 48000, 1024)
//
//	err = wav.WriteWAV16(out, rate, 2, pcm)
//
// # Mixing Live
//
// For gains, fades, aux sends or output that must be produced one period
// at a time, drive a mixer.Mixer directly:
//
//	m, _ := mixer.New(1024, 48000)
//	period := make([]int16, 2*m.FrameCount())
//
//	provider, _ := audio.NewSourceProvider(src)
//	name, _ := m.AllocateTrack()
//	_ = m.SetMainBuffer(name, period)
//	_ = m.SetBufferProvider(name, provider)
//	_ = m.Enable(name)
//
//	for !provider.Done() {
//		m.Process()
//		// play or store period
//	}
//
// See the individual subpackages for more detailed documentation.
package audmix
