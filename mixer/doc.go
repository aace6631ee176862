// SPDX-License-Identifier: EPL-2.0

// Package mixer implements a fixed-point software mixer for 16-bit PCM.
//
// A Mixer owns up to MaxTracks track slots. Each track pulls interleaved
// 16-bit samples (mono or stereo) from an audio.BufferProvider, is converted
// to the output rate by an audio.Resampler when its rate differs, is scaled
// by a per channel gain and summed into a 16-bit stereo main buffer. A track
// can also send a mono mix of itself, scaled by its aux level, to a 32-bit
// aux buffer.
//
// # Gains
//
// Gains are 4.12 fixed point: UnityGain (0x1000) is 1.0 and the accepted
// range is 0..MaxGain. TargetVolume applies a gain at the next period;
// TargetRampVolume moves linearly from the current gain to the new one over
// one period, which avoids clicks. GainFromFloat converts a linear gain.
//
// # Periods
//
// Process mixes FrameCount frames. Configuration calls only record what
// changed; the next Process call runs a validation pass that summarizes
// every enabled track and picks the cheapest way to mix the new setup:
//
//   - nothing to render: all tracks are muted, their data is drained and
//     silence is written
//   - one stereo track at the output rate with constant gain: samples are
//     scaled straight into the main buffer
//   - no resampling: tracks are accumulated 16 frames at a time
//   - resampling: each track is accumulated over the whole period
//
// Tracks sharing the same main buffer slice are summed together; tracks
// with different main buffers are mixed independently. Sums saturate to
// 16 bits.
//
// # Example
//
//	m, _ := mixer.New(1024, 48000)
//	out := make([]int16, 2*m.FrameCount())
//
//	name, _ := m.AllocateTrack()
//	_ = m.SetMainBuffer(name, out)
//	_ = m.SetBufferProvider(name, provider)
//	_ = m.SetParameter(name, mixer.TargetTrack, mixer.ParamChannelMask, int(mixer.ChannelOutMono))
//	_ = m.SetParameter(name, mixer.TargetResample, mixer.ParamSampleRate, 44100)
//	_ = m.Enable(name)
//
//	for {
//		m.Process()
//		// out holds the next period
//	}
//
// # Buffer providers
//
// Providers are called from Process with the mixer lock held and must not
// block or call into the mixer. A provider that has no data returns a nil
// slice; the track is silent for the rest of the period and the event is
// counted in Stats. A buffer with a frame count of zero, above the request,
// or larger than its slice is rejected the same way.
package mixer
