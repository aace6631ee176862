// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"log/slog"
	"math"
	"math/bits"
	"sync"
	"unsafe"

	"github.com/ik5/audmix/audio"
)

// Stats counts mixer events since New.
type Stats struct {
	// Cycles is the number of Process calls.
	Cycles uint64
	// Validations is the number of validation passes.
	Validations uint64
	// Underruns is the number of pulls that returned no data.
	Underruns uint64
	// Violations is the number of buffers rejected for breaking the
	// provider contract.
	Violations uint64
}

// state is everything the process hooks touch.
type state struct {
	enabledTracks uint32
	needsChanged  uint32
	// tracks whose ramp ended outside of a validation pass
	rampEnded uint32

	frameCount int
	hook       processHook

	outputTemp   []int32
	resampleTemp []int32
	blockTemp    [BlockSize * MaxChannels]int32

	tracks [MaxTracks]track
}

// Mixer mixes up to MaxTracks tracks of 16-bit PCM into 16-bit stereo
// output buffers, one period of FrameCount frames per Process call.
//
// A Mixer is safe for concurrent use: every method takes the same lock.
// Buffer providers are called with the lock held and must not call back
// into the Mixer.
type Mixer struct {
	mu sync.Mutex

	trackNames uint32
	sampleRate int
	quality    audio.Quality
	logger     *slog.Logger
	stats      Stats

	state state
}

// Option configures a Mixer.
type Option func(*Mixer)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mixer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithResamplerQuality selects the interpolation of the resamplers created
// for tracks whose rate differs from the output rate.
func WithResamplerQuality(q audio.Quality) Option {
	return func(m *Mixer) {
		m.quality = q
	}
}

// New creates a mixer producing frameCount frames per period at sampleRate.
func New(frameCount, sampleRate int, opts ...Option) (*Mixer, error) {
	if frameCount <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFrameCount, frameCount)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}

	m := &Mixer{
		sampleRate: sampleRate,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.state.frameCount = frameCount
	m.state.hook = processNop
	for i := range m.state.tracks {
		m.state.tracks[i].reset(i, sampleRate)
	}

	return m, nil
}

// FrameCount returns the number of frames mixed per period.
func (m *Mixer) FrameCount() int { return m.state.frameCount }

// SampleRate returns the output sample rate in Hz.
func (m *Mixer) SampleRate() int { return m.sampleRate }

// ActiveTracks returns the number of enabled tracks as of the last
// validation pass.
func (m *Mixer) ActiveTracks() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return bits.OnesCount32(m.state.enabledTracks)
}

// Stats returns a snapshot of the event counters.
func (m *Mixer) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stats
}

// GainFromFloat converts a linear gain to the 4.12 value accepted by the
// volume parameters, clamped to 0..MaxGain.
func GainFromFloat(gain float64) int {
	if math.IsNaN(gain) || gain <= 0 {
		return 0
	}
	return int(min(math.Round(gain*UnityGain), MaxGain))
}

// AllocateTrack reserves the lowest free track slot and returns its name.
// The track starts disabled, stereo, at the output rate with unity gain.
func (m *Mixer) AllocateTrack() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	free := ^m.trackNames
	if free == 0 {
		return -1, ErrNoFreeTracks
	}

	name := bits.TrailingZeros32(free)
	m.trackNames |= 1 << name
	m.state.tracks[name].reset(name, m.sampleRate)

	m.logger.Debug("track allocated", slog.Int("track", name))
	return name, nil
}

// ReleaseTrack disables the track, drops its resampler and frees the slot.
func (m *Mixer) ReleaseTrack(name int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.track(name)
	if err != nil {
		return err
	}

	m.release(t)
	m.logger.Debug("track released", slog.Int("track", name))
	return nil
}

func (m *Mixer) release(t *track) {
	if t.enabled || t.doesResample() {
		m.invalidate(1 << t.name)
	}
	if t.resampler != nil {
		t.resampler.Reset()
	}

	m.trackNames &^= 1 << t.name
	t.reset(t.name, m.sampleRate)
}

// Close releases every track. The Mixer stays usable.
func (m *Mixer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for names := m.trackNames; names != 0; {
		i := bits.TrailingZeros32(names)
		names &^= 1 << i
		m.release(&m.state.tracks[i])
	}

	m.state.outputTemp = nil
	m.state.resampleTemp = nil
	return nil
}

// SetEnabled enables or disables a track. Enabling requires a main buffer
// and a buffer provider.
func (m *Mixer) SetEnabled(name int, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.track(name)
	if err != nil {
		return err
	}
	if enabled && (t.mainBuffer == nil || t.provider == nil) {
		return fmt.Errorf("%w: track %d needs a main buffer and a provider to be enabled", ErrBadValue, name)
	}

	if t.enabled != enabled {
		t.enabled = enabled
		m.invalidate(1 << name)
		m.logger.Debug("track enable changed", slog.Int("track", name), slog.Bool("enabled", enabled))
	}
	return nil
}

// Enable is SetEnabled(name, true).
func (m *Mixer) Enable(name int) error { return m.SetEnabled(name, true) }

// Disable is SetEnabled(name, false).
func (m *Mixer) Disable(name int) error { return m.SetEnabled(name, false) }

// SetMainBuffer sets the interleaved stereo buffer the track mixes into.
// It must hold at least 2*FrameCount samples, of which only the first
// 2*FrameCount are written. Tracks whose buffers start at the same element
// are summed together; a buffer that partly overlaps another track's is
// rejected.
func (m *Mixer) SetMainBuffer(name int, buf []int16) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.track(name)
	if err != nil {
		return err
	}

	switch {
	case buf == nil && t.enabled:
		return fmt.Errorf("%w: cannot clear the main buffer of enabled track %d", ErrBadValue, name)
	case buf != nil && len(buf) < m.state.frameCount*MaxChannels:
		return fmt.Errorf("%w: main buffer holds %d samples, need %d", ErrBadValue, len(buf), m.state.frameCount*MaxChannels)
	}
	if buf != nil {
		for other := m.trackNames &^ (1 << name); other != 0; {
			i := bits.TrailingZeros32(other)
			other &^= 1 << i
			main := m.state.tracks[i].mainBuffer
			if !sameBuffer(main, buf) && overlaps(main, buf, m.state.frameCount*MaxChannels) {
				return fmt.Errorf("%w: main buffer of track %d partly overlaps the one of track %d", ErrBadValue, name, i)
			}
		}
	}

	if !sameBuffer(t.mainBuffer, buf) {
		m.invalidate(1 << name)
	}
	t.mainBuffer = buf
	return nil
}

// SetAuxBuffer sets the mono buffer receiving the track's aux send. It must
// hold at least FrameCount samples. A nil buffer disables the send.
func (m *Mixer) SetAuxBuffer(name int, buf []int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.track(name)
	if err != nil {
		return err
	}
	if buf != nil && len(buf) < m.state.frameCount {
		return fmt.Errorf("%w: aux buffer holds %d samples, need %d", ErrBadValue, len(buf), m.state.frameCount)
	}

	if !sameBuffer(t.auxBuffer, buf) {
		m.invalidate(1 << name)
	}
	t.auxBuffer = buf
	return nil
}

// SetBufferProvider sets the source of the track's PCM data.
func (m *Mixer) SetBufferProvider(name int, p audio.BufferProvider) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.track(name)
	if err != nil {
		return err
	}
	if p == nil && t.enabled {
		return fmt.Errorf("%w: cannot clear the provider of enabled track %d", ErrBadValue, name)
	}

	if t.provider != p && t.resampler != nil {
		t.resampler.Reset()
	}
	t.provider = p
	return nil
}

// SetParameter sets one numeric track parameter.
//
//	TargetTrack      ParamChannelMask  mask with 1 or 2 bits set
//	TargetResample   ParamSampleRate   input rate in Hz
//	TargetResample   ParamReset        value ignored
//	TargetVolume     ParamVolume0/1    4.12 gain, applied at once
//	TargetVolume     ParamAuxLevel     4.12 aux send level, applied at once
//	TargetRampVolume (same as TargetVolume, reached over one period)
//
// The main and aux buffers are set with SetMainBuffer and SetAuxBuffer.
// A rejected value leaves the track unchanged.
func (m *Mixer) SetParameter(name int, target Target, param Param, value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.track(name)
	if err != nil {
		return err
	}

	switch target {
	case TargetTrack:
		if param == ParamChannelMask {
			if value < 0 || int64(value) > math.MaxUint32 {
				return fmt.Errorf("%w: channel mask %d", ErrBadValue, value)
			}
			changed, err := t.setChannelMask(uint32(value), m.sampleRate, m.quality)
			if err != nil {
				return err
			}
			if changed {
				m.invalidate(1 << name)
			}
			return nil
		}

	case TargetResample:
		switch param {
		case ParamSampleRate:
			if value <= 0 {
				return fmt.Errorf("%w: sample rate %d", ErrBadValue, value)
			}
			changed, err := t.setResampler(value, m.sampleRate, m.quality)
			if err != nil {
				return err
			}
			if changed {
				m.invalidate(1 << name)
			}
			return nil

		case ParamReset:
			if t.resampler != nil {
				t.resampler.Reset()
			}
			m.invalidate(1 << name)
			return nil
		}

	case TargetVolume, TargetRampVolume:
		ramp := target == TargetRampVolume
		switch param {
		case ParamVolume0, ParamVolume1, ParamAuxLevel:
			if value < 0 || value > MaxGain {
				return fmt.Errorf("%w: %v %d out of range 0..%d", ErrBadValue, param, value, MaxGain)
			}

			var changed bool
			if param == ParamAuxLevel {
				changed = t.setAuxLevel(int32(value), ramp, m.state.frameCount)
			} else {
				changed = t.setVolume(int(param-ParamVolume0), int32(value), ramp, m.state.frameCount)
			}
			if changed {
				m.invalidate(1 << name)
			}
			return nil
		}
	}

	return fmt.Errorf("%w: %v/%v", ErrUnknownParameter, target, param)
}

func (m *Mixer) track(name int) (*track, error) {
	if name < 0 || name >= MaxTracks || m.trackNames&(1<<name) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTrack, name)
	}
	return &m.state.tracks[name], nil
}

// invalidate marks tracks for revalidation and makes the next Process
// run a validation pass.
func (m *Mixer) invalidate(mask uint32) {
	if mask == 0 {
		return
	}
	m.state.needsChanged |= mask
	m.state.hook = processValidate
}

// sameBuffer reports whether a and b start at the same element. The mixer
// only ever touches a fixed prefix of a buffer, so two slices sharing a
// start are the same buffer whatever their lengths.
func sameBuffer[T any](a, b []T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return unsafe.SliceData(a) == unsafe.SliceData(b)
}

// overlaps reports whether the first n elements of a and b share memory.
func overlaps[T any](a, b []T, n int) bool {
	if len(a) < n || len(b) < n || n == 0 {
		return false
	}
	size := unsafe.Sizeof(a[0])
	pa := uintptr(unsafe.Pointer(unsafe.SliceData(a)))
	pb := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	return pa < pb+uintptr(n)*size && pb < pa+uintptr(n)*size
}
