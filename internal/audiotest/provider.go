// SPDX-License-Identifier: EPL-2.0

package audiotest

import "github.com/ik5/audmix/audio"

// MockProvider is a deterministic audio.BufferProvider for mixer tests.
// It records every call and counts protocol misuse: a release without an
// outstanding buffer, or a second get while a buffer is still held.
type MockProvider struct {
	channels int
	waveform func(frame, channel int) int16

	// MaxChunk caps the frames handed out per buffer. Zero means as many as requested.
	MaxChunk int
	// Limit is the total number of frames available. Negative means unlimited.
	Limit int

	buf       []int16
	held      bool
	delivered int

	Gets     int
	Releases int
	Misuse   int
	// Requested is the sum of the frame counts asked for.
	Requested int
}

func NewMockProvider(channels int, waveform func(frame, channel int) int16) *MockProvider {
	return &MockProvider{
		channels: channels,
		waveform: waveform,
		Limit:    -1,
	}
}

// NewConstantProvider returns a provider whose every sample is value.
func NewConstantProvider(channels int, value int16) *MockProvider {
	return NewMockProvider(channels, func(frame, channel int) int16 {
		return value
	})
}

// NewRampProvider returns a provider producing a repeating sawtooth where the
// sample of frame f on channel c is ((f*step + c*1000) mod 65536) - 32768.
func NewRampProvider(channels, step int) *MockProvider {
	return NewMockProvider(channels, RampPattern(step))
}

// RampPattern is the waveform used by NewRampProvider.
func RampPattern(step int) func(frame, channel int) int16 {
	return func(frame, channel int) int16 {
		return int16((frame*step+channel*1000)&0xFFFF - 32768)
	}
}

// Delivered returns the number of frames handed out so far.
func (p *MockProvider) Delivered() int { return p.delivered }

// Held reports whether a buffer is outstanding.
func (p *MockProvider) Held() bool { return p.held }

func (p *MockProvider) GetNextBuffer(b *audio.Buffer) {
	p.Gets++
	p.Requested += b.FrameCount
	if p.held {
		p.Misuse++
	}

	frames := b.FrameCount
	if p.MaxChunk > 0 {
		frames = min(frames, p.MaxChunk)
	}
	if p.Limit >= 0 {
		frames = min(frames, p.Limit-p.delivered)
	}
	if frames <= 0 {
		b.I16, b.FrameCount = nil, 0
		return
	}

	if cap(p.buf) < frames*p.channels {
		p.buf = make([]int16, frames*p.channels)
	}
	buf := p.buf[:frames*p.channels]
	for f := range frames {
		for c := range p.channels {
			buf[f*p.channels+c] = p.waveform(p.delivered+f, c)
		}
	}

	p.delivered += frames
	p.held = true
	b.I16 = buf
	b.FrameCount = frames
}

func (p *MockProvider) ReleaseBuffer(b *audio.Buffer) {
	p.Releases++
	if !p.held {
		p.Misuse++
	}
	p.held = false
	b.I16, b.FrameCount = nil, 0
}

// BadProvider hands out buffers that break the provider contract: FrameCount
// claims more frames than the slice holds.
type BadProvider struct {
	Releases int
	buf      [4]int16
}

func (p *BadProvider) GetNextBuffer(b *audio.Buffer) {
	b.I16 = p.buf[:]
	b.FrameCount = 64
}

func (p *BadProvider) ReleaseBuffer(b *audio.Buffer) {
	p.Releases++
	b.I16, b.FrameCount = nil, 0
}
