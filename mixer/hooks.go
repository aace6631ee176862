// SPDX-License-Identifier: EPL-2.0

package mixer

import "github.com/ik5/audmix/utils"

// trackHook accumulates frames frames of t into out (stereo, sample*gain)
// and, when aux is not nil, into the mono aux bus.
func (m *Mixer) trackHook(t *track, out []int32, frames int, temp, aux []int32) {
	switch t.hook {
	case trackHookMute:
	case trackHookMono16:
		m.track16BitsMono(t, out, frames, aux)
	case trackHookStereo16:
		m.track16BitsStereo(t, out, frames, aux)
	case trackHookResample:
		m.trackGenericResample(t, out, frames, temp, aux)
	}
}

// rampCheck ends finished ramps after a hook moved the gains and marks the
// track for revalidation.
func (m *Mixer) rampCheck(t *track, aux bool) {
	if t.adjustVolumeRamp(aux) {
		m.state.rampEnded |= 1 << t.name
	}
}

func (m *Mixer) track16BitsStereo(t *track, out []int32, frames int, aux []int32) {
	in := t.in

	if t.rampingVolume() || (aux != nil && t.rampingAux()) {
		vl, vr := t.prevVolume[0], t.prevVolume[1]
		vlInc, vrInc := t.volumeInc[0], t.volumeInc[1]
		for i := range frames {
			l, r := int32(in[2*i]), int32(in[2*i+1])
			out[2*i] += (vl >> 16) * l
			out[2*i+1] += (vr >> 16) * r
			vl += vlInc
			vr += vrInc
		}
		t.prevVolume[0], t.prevVolume[1] = vl, vr

		if aux != nil {
			va, vaInc := t.prevAuxLevel, t.auxInc
			for i := range frames {
				aux[i] += (va >> 16) * ((int32(in[2*i]) + int32(in[2*i+1])) >> 1)
				va += vaInc
			}
			t.prevAuxLevel = va
		}

		m.rampCheck(t, aux != nil)
	} else {
		vrl := t.volumeRL
		for i := range frames {
			rl := utils.PackRL(in[2*i], in[2*i+1])
			out[2*i] = utils.MulAddRL(true, rl, vrl, out[2*i])
			out[2*i+1] = utils.MulAddRL(false, rl, vrl, out[2*i+1])
		}

		if aux != nil {
			va := int16(t.auxLevel)
			for i := range frames {
				a := int16((int32(in[2*i]) + int32(in[2*i+1])) >> 1)
				aux[i] = utils.MulAdd(a, va, aux[i])
			}
		}
	}

	t.in = in[frames*2:]
}

func (m *Mixer) track16BitsMono(t *track, out []int32, frames int, aux []int32) {
	in := t.in

	if t.rampingVolume() || (aux != nil && t.rampingAux()) {
		vl, vr := t.prevVolume[0], t.prevVolume[1]
		vlInc, vrInc := t.volumeInc[0], t.volumeInc[1]
		va, vaInc := t.prevAuxLevel, t.auxInc
		for i := range frames {
			l := int32(in[i])
			out[2*i] += (vl >> 16) * l
			out[2*i+1] += (vr >> 16) * l
			vl += vlInc
			vr += vrInc
			if aux != nil {
				aux[i] += (va >> 16) * l
				va += vaInc
			}
		}
		t.prevVolume[0], t.prevVolume[1] = vl, vr
		if aux != nil {
			t.prevAuxLevel = va
		}

		m.rampCheck(t, aux != nil)
	} else {
		vl, vr := int16(t.volume[0]), int16(t.volume[1])
		va := int16(t.auxLevel)
		for i := range frames {
			l := in[i]
			out[2*i] = utils.MulAdd(l, vl, out[2*i])
			out[2*i+1] = utils.MulAdd(l, vr, out[2*i+1])
			if aux != nil {
				aux[i] = utils.MulAdd(l, va, aux[i])
			}
		}
	}

	t.in = in[frames:]
}

// trackGenericResample converts the track to the output rate. Without aux
// and ramps the resampler applies the gains itself; otherwise it renders at
// unity into temp and the gains are applied from there.
func (m *Mixer) trackGenericResample(t *track, out []int32, frames int, temp, aux []int32) {
	t.resampler.SetSampleRate(t.sampleRate)

	if aux == nil && !t.rampingVolume() {
		t.resampler.SetVolume(int16(t.volume[0]), int16(t.volume[1]))
		t.resampler.Resample(out, frames, t.provider)
		return
	}

	temp = temp[:frames*MaxChannels]
	clear(temp)
	t.resampler.SetVolume(UnityGain, UnityGain)
	t.resampler.Resample(temp, frames, t.provider)

	if t.rampingVolume() || (aux != nil && t.rampingAux()) {
		m.volumeRampStereo(t, out, frames, temp, aux)
	} else {
		volumeStereo(t, out, frames, temp, aux)
	}
}

// volumeRampStereo applies the ramping gains to a unity gain stereo render.
func (m *Mixer) volumeRampStereo(t *track, out []int32, frames int, temp, aux []int32) {
	vl, vr := t.prevVolume[0], t.prevVolume[1]
	vlInc, vrInc := t.volumeInc[0], t.volumeInc[1]
	va, vaInc := t.prevAuxLevel, t.auxInc

	for i := range frames {
		l := temp[2*i] >> 12
		r := temp[2*i+1] >> 12
		out[2*i] += (vl >> 16) * l
		out[2*i+1] += (vr >> 16) * r
		vl += vlInc
		vr += vrInc
		if aux != nil {
			aux[i] += (va >> 16) * ((l + r) >> 1)
			va += vaInc
		}
	}

	t.prevVolume[0], t.prevVolume[1] = vl, vr
	if aux != nil {
		t.prevAuxLevel = va
	}
	m.rampCheck(t, aux != nil)
}

// volumeStereo applies constant gains to a unity gain stereo render.
func volumeStereo(t *track, out []int32, frames int, temp, aux []int32) {
	vl, vr := t.volume[0], t.volume[1]
	va := t.auxLevel

	for i := range frames {
		l := temp[2*i] >> 12
		r := temp[2*i+1] >> 12
		out[2*i] += l * vl
		out[2*i+1] += r * vr
		if aux != nil {
			aux[i] += ((l + r) >> 1) * va
		}
	}
}
