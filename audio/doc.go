// SPDX-License-Identifier: EPL-2.0

// Package audio provides the low-level building blocks shared by the
// decoders and the mixer.
//
// This package contains:
//   - Source interface for decoded audio input
//   - BufferProvider, the pull contract a mixer track reads from
//   - SourceProvider adapting a Source to a BufferProvider
//   - Resampler for sample rate conversion into 32-bit accumulators
//   - MonoMixer for channel mixing
//   - Format registry for decoder registration
//
// # Sample Format
//
// Samples are interleaved signed 16-bit PCM. Frame i of a stereo stream is
// samples 2i (left) and 2i+1 (right).
//
// # Source Interface
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []int16) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// ReadSamples returns io.EOF once the stream is exhausted:
//
//	for {
//	    n, err := source.ReadSamples(buf)
//	    // use buf[:n]
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	}
//
// # Buffer Providers
//
// A mixer track pulls frames with GetNextBuffer and hands them back with
// ReleaseBuffer before asking for more. A provider with nothing to give
// returns a nil slice. NewSourceProvider turns any Source into a provider,
// downmixing sources with more than two channels to mono:
//
//	p, err := audio.NewSourceProvider(src)
//	_ = m.SetBufferProvider(track, p)
//
// # Resampling
//
// A Resampler pulls frames from a provider at its input rate and adds
// volume-scaled frames at the output rate to a stereo int32 accumulator:
//
//	r, _ := audio.NewResampler(1, 48000, audio.QualityMedium)
//	r.SetSampleRate(44100)
//	r.SetVolume(0x1000, 0x1000) // 4.12 unity gain
//	r.Resample(acc, frames, provider)
//
// QualityLow interpolates linearly; QualityMedium uses cubic interpolation.
//
// # Format Registry
//
// The registry maps file extensions to decoders:
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	decoder, _ := registry.Get("wav")
package audio
