// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// Quality selects the interpolation used by NewResampler.
type Quality int

const (
	QualityDefault Quality = iota
	// QualityLow is first order (linear) interpolation.
	QualityLow
	// QualityMedium is cubic (Catmull-Rom) interpolation.
	QualityMedium
)

func (q Quality) String() string {
	switch q {
	case QualityDefault:
		return "default"
	case QualityLow:
		return "low"
	case QualityMedium:
		return "medium"
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}

// Resampler converts a track to the mixer output rate.
//
// Resample pulls input through provider and accumulates frameCount stereo
// frames into out (len(out) >= 2*frameCount), each sample multiplied by the
// 4.12 volume given to SetVolume. Mono input is written to both channels.
// When the provider runs dry the remaining frames are left untouched.
type Resampler interface {
	SetSampleRate(inRate int)
	SetVolume(left, right int16)
	Resample(out []int32, frameCount int, provider BufferProvider)
	// Reset clears the phase and interpolation history and releases any
	// buffer still held from the provider.
	Reset()
}

const (
	numPhaseBits   = 30
	phaseOne       = uint64(1) << numPhaseBits
	numInterpBits  = 15
	preInterpShift = numPhaseBits - numInterpBits
)

// NewResampler creates a resampler for 16-bit input with the given channel
// count, producing outRate frames per second.
func NewResampler(channels, outRate int, quality Quality) (Resampler, error) {
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedChannels, channels)
	}
	if outRate <= 0 {
		return nil, ErrInvalidSampleRate
	}

	base := resamplerBase{
		channels: channels,
		outRate:  outRate,
	}
	base.SetSampleRate(outRate)

	switch quality {
	case QualityMedium:
		return &cubicResampler{resamplerBase: base}, nil
	default:
		return &linearResampler{resamplerBase: base}, nil
	}
}

// resamplerBase holds the phase accumulator and the input cursor shared by
// the interpolating resamplers.
type resamplerBase struct {
	channels int
	outRate  int
	inRate   int

	// Q30 position between the two current input frames
	phaseFraction  uint64
	phaseIncrement uint64

	volume [2]int32

	provider BufferProvider
	buffer   Buffer
	index    int
	primed   bool
}

func (r *resamplerBase) SetSampleRate(inRate int) {
	if inRate <= 0 || (inRate == r.inRate && r.phaseIncrement != 0) {
		return
	}
	r.inRate = inRate
	r.phaseIncrement = (uint64(inRate) << numPhaseBits) / uint64(r.outRate)
}

func (r *resamplerBase) SetVolume(left, right int16) {
	r.volume[0] = int32(left)
	r.volume[1] = int32(right)
}

func (r *resamplerBase) Reset() {
	r.release()
	r.phaseFraction = 0
	r.index = 0
	r.primed = false
}

func (r *resamplerBase) release() {
	if r.buffer.I16 != nil && r.provider != nil {
		r.provider.ReleaseBuffer(&r.buffer)
	}
	r.buffer = Buffer{}
}

// inputFrames estimates how many input frames outFrames output frames consume.
func (r *resamplerBase) inputFrames(outFrames int) int {
	return max(1, int((uint64(outFrames)*uint64(r.inRate))/uint64(r.outRate)))
}

// nextFrame returns the next input frame, fetching a new buffer from p when
// the current one is used up. ok is false when p has no data.
func (r *resamplerBase) nextFrame(p BufferProvider, want int) (left, right int32, ok bool) {
	if r.provider != p {
		r.release()
		r.provider = p
	}

	if r.buffer.I16 == nil {
		r.buffer = Buffer{FrameCount: want}
		p.GetNextBuffer(&r.buffer)
		if r.buffer.I16 == nil {
			r.buffer = Buffer{}
			return 0, 0, false
		}
		if r.buffer.FrameCount <= 0 || len(r.buffer.I16) < r.buffer.FrameCount*r.channels {
			p.ReleaseBuffer(&r.buffer)
			r.buffer = Buffer{}
			return 0, 0, false
		}
		r.index = 0
	}

	i := r.index * r.channels
	left = int32(r.buffer.I16[i])
	right = left
	if r.channels == 2 {
		right = int32(r.buffer.I16[i+1])
	}

	r.index++
	if r.index >= r.buffer.FrameCount {
		p.ReleaseBuffer(&r.buffer)
		r.buffer = Buffer{}
	}

	return left, right, true
}

type linearResampler struct {
	resamplerBase

	x0, x1 [2]int32
}

func (r *linearResampler) Reset() {
	r.resamplerBase.Reset()
	r.x0, r.x1 = [2]int32{}, [2]int32{}
}

func interp(x0, x1 int32, f uint64) int32 {
	return x0 + (((x1 - x0) * int32(f>>preInterpShift)) >> numInterpBits)
}

func (r *linearResampler) Resample(out []int32, frameCount int, provider BufferProvider) {
	want := r.inputFrames(frameCount)

	if !r.primed {
		l, rr, ok := r.nextFrame(provider, want)
		if !ok {
			return
		}
		r.x1 = [2]int32{l, rr}
		r.x0 = r.x1
		r.primed = true
	}

	vl, vr := r.volume[0], r.volume[1]
	for i := range frameCount {
		for r.phaseFraction >= phaseOne {
			l, rr, ok := r.nextFrame(provider, want)
			if !ok {
				return
			}
			r.x0 = r.x1
			r.x1 = [2]int32{l, rr}
			r.phaseFraction -= phaseOne
		}

		out[2*i] += vl * interp(r.x0[0], r.x1[0], r.phaseFraction)
		out[2*i+1] += vr * interp(r.x0[1], r.x1[1], r.phaseFraction)
		r.phaseFraction += r.phaseIncrement
	}
}
