// SPDX-License-Identifier: EPL-2.0

package audio

import "github.com/ik5/audmix/utils"

// cubicResampler interpolates between taps[1] and taps[2] with a
// Catmull-Rom spline over four consecutive input frames.
type cubicResampler struct {
	resamplerBase

	taps [4][2]int32
}

func (r *cubicResampler) Reset() {
	r.resamplerBase.Reset()
	r.taps = [4][2]int32{}
}

func (r *cubicResampler) Resample(out []int32, frameCount int, provider BufferProvider) {
	want := r.inputFrames(frameCount)

	if !r.primed {
		l, rr, ok := r.nextFrame(provider, want)
		if !ok {
			return
		}
		for i := range r.taps {
			r.taps[i] = [2]int32{l, rr}
		}
		r.primed = true
	}

	vl, vr := r.volume[0], r.volume[1]
	for i := range frameCount {
		for r.phaseFraction >= phaseOne {
			l, rr, ok := r.nextFrame(provider, want)
			if !ok {
				return
			}
			r.taps[0], r.taps[1], r.taps[2] = r.taps[1], r.taps[2], r.taps[3]
			r.taps[3] = [2]int32{l, rr}
			r.phaseFraction -= phaseOne
		}

		x := uint32(r.phaseFraction >> preInterpShift)
		t := &r.taps
		out[2*i] += vl * utils.CubicInterpolate(t[0][0], t[1][0], t[2][0], t[3][0], x)
		out[2*i+1] += vr * utils.CubicInterpolate(t[0][1], t[1][1], t[2][1], t[3][1], x)
		r.phaseFraction += r.phaseIncrement
	}
}
