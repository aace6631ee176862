// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"log/slog"
	"math/bits"

	"github.com/ik5/audmix/utils"
)

// Process mixes one period: every enabled track is pulled from its provider
// and FrameCount stereo frames are written to each main buffer in use.
// Providers that run dry contribute silence for the rest of the period.
func (m *Mixer) Process() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.Cycles++
	m.dispatch(m.state.hook)

	if m.state.rampEnded != 0 {
		m.invalidate(m.state.rampEnded)
		m.state.rampEnded = 0
	}
}

func (m *Mixer) dispatch(h processHook) {
	switch h {
	case processValidate:
		m.validate()
	case processNop:
		m.processNop()
	case processGenericNoResampling:
		m.processGenericNoResampling()
	case processGenericResampling:
		m.processGenericResampling()
	case processOneTrack16BitsStereoNoResampling:
		m.processOneTrack16BitsStereoNoResampling()
	}
}

// group returns the tracks of e0 that share the main buffer of the lowest
// track in e0.
func (s *state) group(e0 uint32) uint32 {
	first := bits.TrailingZeros32(e0)
	main := s.tracks[first].mainBuffer

	e1 := e0
	for e2 := e0 &^ (1 << first); e2 != 0; {
		i := bits.TrailingZeros32(e2)
		e2 &^= 1 << i
		if !sameBuffer(s.tracks[i].mainBuffer, main) {
			e1 &^= 1 << i
		}
	}
	return e1
}

// acquire pulls up to frames frames from the track's provider into t.in.
// It returns false on underrun and on a buffer that breaks the provider
// contract; such a buffer is released right away.
func (m *Mixer) acquire(t *track, frames int) bool {
	t.buffer.I16 = nil
	t.buffer.FrameCount = frames
	t.provider.GetNextBuffer(&t.buffer)

	b := &t.buffer
	if b.I16 == nil {
		m.stats.Underruns++
		m.logger.Debug("track underrun", slog.Int("track", t.name), slog.Int("frames", frames))
		t.in, t.frameCount = nil, 0
		b.FrameCount = 0
		return false
	}

	if b.FrameCount <= 0 || b.FrameCount > frames || len(b.I16) < b.FrameCount*t.channelCount {
		m.stats.Violations++
		m.logger.Error("buffer provider returned an invalid buffer",
			slog.Int("track", t.name),
			slog.Int("requested", frames),
			slog.Int("frameCount", b.FrameCount),
			slog.Int("samples", len(b.I16)),
			slog.Int("channels", t.channelCount),
		)
		t.provider.ReleaseBuffer(b)
		t.buffer.I16, t.buffer.FrameCount = nil, 0
		t.in, t.frameCount = nil, 0
		return false
	}

	t.in = b.I16[:b.FrameCount*t.channelCount]
	t.frameCount = b.FrameCount
	return true
}

func (m *Mixer) releaseBuffer(t *track) {
	if t.buffer.I16 != nil {
		t.provider.ReleaseBuffer(&t.buffer)
	}
	t.buffer.I16, t.buffer.FrameCount = nil, 0
	t.in, t.frameCount = nil, 0
}

// processNop drains a period from every track and writes silence. Used
// when all enabled tracks are muted.
func (m *Mixer) processNop() {
	s := &m.state

	for e0 := s.enabledTracks; e0 != 0; {
		e1 := s.group(e0)
		e0 &^= e1

		t1 := &s.tracks[bits.TrailingZeros32(e1)]
		clear(t1.mainBuffer[:s.frameCount*MaxChannels])

		for e1 != 0 {
			i := bits.TrailingZeros32(e1)
			e1 &^= 1 << i

			t := &s.tracks[i]
			for outFrames := s.frameCount; outFrames > 0; {
				if !m.acquire(t, outFrames) {
					break
				}
				outFrames -= t.frameCount
				m.releaseBuffer(t)
			}
		}
	}
}

// processGenericNoResampling mixes any combination of tracks at the output
// rate, BlockSize frames at a time.
func (m *Mixer) processGenericNoResampling() {
	s := &m.state
	outTemp := s.blockTemp[:]

	enabled := s.enabledTracks
	for e0 := enabled; e0 != 0; {
		i := bits.TrailingZeros32(e0)
		e0 &^= 1 << i
		if !m.acquire(&s.tracks[i], s.frameCount) {
			enabled &^= 1 << i
		}
	}

	// groups are formed from every enabled track so that a main buffer is
	// written even when all of its tracks ran dry
	for e0 := s.enabledTracks; e0 != 0; {
		e1 := s.group(e0)
		e0 &^= e1

		out := s.tracks[bits.TrailingZeros32(e1)].mainBuffer
		e1 &= enabled

		for numFrames := 0; numFrames < s.frameCount; {
			block := min(BlockSize, s.frameCount-numFrames)
			clear(outTemp)

			for e2 := e1; e2 != 0; {
				i := bits.TrailingZeros32(e2)
				e2 &^= 1 << i

				t := &s.tracks[i]
				var aux []int32
				if t.needs&needsAuxEnabled != 0 {
					aux = t.auxBuffer[numFrames : numFrames+block]
				}

				for outFrames := block; outFrames > 0; {
					if t.frameCount == 0 {
						m.releaseBuffer(t)
						if !m.acquire(t, s.frameCount-numFrames-(block-outFrames)) {
							enabled &^= 1 << i
							e1 &^= 1 << i
							break
						}
					}

					inFrames := min(t.frameCount, outFrames)
					m.trackHook(t, outTemp[(block-outFrames)*MaxChannels:], inFrames, nil, aux)
					t.frameCount -= inFrames
					outFrames -= inFrames
					if aux != nil {
						aux = aux[inFrames:]
					}
				}
			}

			ditherAndClamp(out[numFrames*MaxChannels:], outTemp, block)
			numFrames += block
		}
	}

	for e0 := enabled; e0 != 0; {
		i := bits.TrailingZeros32(e0)
		e0 &^= 1 << i
		m.releaseBuffer(&s.tracks[i])
	}
}

// processGenericResampling mixes any combination of tracks when at least
// one of them resamples. The whole period is accumulated in outputTemp.
func (m *Mixer) processGenericResampling() {
	s := &m.state
	numFrames := s.frameCount
	outTemp := s.outputTemp[:numFrames*MaxChannels]

	for e0 := s.enabledTracks; e0 != 0; {
		e1 := s.group(e0)
		e0 &^= e1

		out := s.tracks[bits.TrailingZeros32(e1)].mainBuffer
		clear(outTemp)

		for e1 != 0 {
			i := bits.TrailingZeros32(e1)
			e1 &^= 1 << i

			t := &s.tracks[i]
			var aux []int32
			if t.needs&needsAuxEnabled != 0 {
				aux = t.auxBuffer[:numFrames]
			}

			if t.needs&needsResampleEnabled != 0 {
				m.trackHook(t, outTemp, numFrames, s.resampleTemp, aux)
				continue
			}

			for outFrames := 0; outFrames < numFrames; {
				if !m.acquire(t, numFrames-outFrames) {
					break
				}
				var a []int32
				if aux != nil {
					a = aux[outFrames:]
				}
				frames := t.frameCount
				m.trackHook(t, outTemp[outFrames*MaxChannels:], frames, s.resampleTemp, a)
				outFrames += frames
				m.releaseBuffer(t)
			}
		}

		ditherAndClamp(out, outTemp, numFrames)
	}
}

// processOneTrack16BitsStereoNoResampling is the single stereo track fast
// path: constant gain, no ramp, no aux, no resampling. The mix is written
// straight to the main buffer, saturating only when the gain is above unity.
func (m *Mixer) processOneTrack16BitsStereoNoResampling() {
	s := &m.state
	t := &s.tracks[bits.TrailingZeros32(s.enabledTracks)]
	out := t.mainBuffer[:s.frameCount*MaxChannels]
	vrl := t.volumeRL

	for len(out) > 0 {
		if !m.acquire(t, len(out)/MaxChannels) {
			clear(out)
			return
		}

		in := t.in
		frames := t.frameCount
		if t.volume[0] > UnityGain || t.volume[1] > UnityGain {
			for f := range frames {
				rl := utils.PackRL(in[2*f], in[2*f+1])
				out[2*f] = utils.Clamp16(utils.MulRL(true, rl, vrl) >> 12)
				out[2*f+1] = utils.Clamp16(utils.MulRL(false, rl, vrl) >> 12)
			}
		} else {
			for f := range frames {
				rl := utils.PackRL(in[2*f], in[2*f+1])
				out[2*f] = int16(utils.MulRL(true, rl, vrl) >> 12)
				out[2*f+1] = int16(utils.MulRL(false, rl, vrl) >> 12)
			}
		}

		out = out[frames*MaxChannels:]
		m.releaseBuffer(t)
	}
}

// ditherAndClamp converts frames frames of accumulated samples back to
// 16 bits, saturating.
func ditherAndClamp(out []int16, sums []int32, frames int) {
	out = out[:frames*MaxChannels]
	for i := range out {
		out[i] = utils.Clamp16(sums[i] >> 12)
	}
}
