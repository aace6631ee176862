// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"math/bits"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/utils"
)

// needs is the per-track summary computed by validation. Hook selection is a
// function of it alone.
type needs uint32

const (
	// channel count minus one
	needsChannelCountMask needs = 0x0000_0003

	needsMuteEnabled     needs = 0x0000_0100
	needsResampleEnabled needs = 0x0000_1000
	needsAuxEnabled      needs = 0x0001_0000
)

// trackHook renders one track into the accumulator.
type trackHook uint8

const (
	trackHookNone trackHook = iota
	trackHookMute
	trackHookMono16
	trackHookStereo16
	trackHookResample
)

func (h trackHook) String() string {
	switch h {
	case trackHookNone:
		return "none"
	case trackHookMute:
		return "mute"
	case trackHookMono16:
		return "mono16"
	case trackHookStereo16:
		return "stereo16"
	case trackHookResample:
		return "resample"
	}
	return fmt.Sprintf("trackHook(%d)", uint8(h))
}

type track struct {
	name    int
	needs   needs
	hook    trackHook
	enabled bool

	// 4.12 targets, ramp position as target<<16 and per frame increment
	volume     [MaxChannels]int32
	prevVolume [MaxChannels]int32
	volumeInc  [MaxChannels]int32
	volumeRL   uint32

	auxLevel     int32
	prevAuxLevel int32
	auxInc       int32

	channelMask  uint32
	channelCount int
	sampleRate   int
	resampler    audio.Resampler

	provider   audio.BufferProvider
	buffer     audio.Buffer
	in         []int16
	frameCount int

	mainBuffer []int16
	auxBuffer  []int32
}

// reset puts the slot back to its allocation defaults: stereo at the
// device rate, unity gain, no aux send, no buffers.
func (t *track) reset(name, sampleRate int) {
	*t = track{
		name:         name,
		volume:       [MaxChannels]int32{UnityGain, UnityGain},
		prevVolume:   [MaxChannels]int32{UnityGain << 16, UnityGain << 16},
		volumeRL:     utils.PackRL(UnityGain, UnityGain),
		channelMask:  ChannelOutStereo,
		channelCount: 2,
		sampleRate:   sampleRate,
	}
}

func (t *track) doesResample() bool {
	return t.resampler != nil
}

func (t *track) rampingVolume() bool {
	return t.volumeInc[0]|t.volumeInc[1] != 0
}

func (t *track) rampingAux() bool {
	return t.auxInc != 0
}

// canMute reports whether the track can be skipped entirely: it does not
// resample, has no aux send, no ramp in progress and zero gain on both
// channels.
func (t *track) canMute() bool {
	return !t.rampingVolume() &&
		!t.doesResample() &&
		t.needs&needsAuxEnabled == 0 &&
		t.volumeRL == 0
}

// computeNeeds summarizes the track configuration for hook selection.
func (t *track) computeNeeds() {
	n := needs(t.channelCount-1) & needsChannelCountMask
	if t.doesResample() {
		n |= needsResampleEnabled
	}
	if t.auxBuffer != nil && (t.auxLevel != 0 || t.rampingAux()) {
		n |= needsAuxEnabled
	}
	t.needs = n
	if t.canMute() {
		t.needs |= needsMuteEnabled
	}
}

// selectHook picks the render hook from the needs bits.
func (t *track) selectHook() {
	switch {
	case t.needs&needsMuteEnabled != 0:
		t.hook = trackHookMute
	case t.needs&needsResampleEnabled != 0:
		t.hook = trackHookResample
	case t.needs&needsChannelCountMask == 0:
		t.hook = trackHookMono16
	default:
		t.hook = trackHookStereo16
	}
}

// setChannelMask changes the channel layout. A resampling track gets a new
// resampler when the channel count changes.
func (t *track) setChannelMask(mask uint32, outRate int, quality audio.Quality) (bool, error) {
	if mask == t.channelMask {
		return false, nil
	}

	count := bits.OnesCount32(mask)
	if count == 0 || count > MaxChannels {
		return false, fmt.Errorf("%w: channel mask %#x", ErrBadValue, mask)
	}

	if t.resampler != nil && count != t.channelCount {
		r, err := audio.NewResampler(count, outRate, quality)
		if err != nil {
			return false, fmt.Errorf("%w: %w", ErrBadValue, err)
		}
		t.resampler.Reset()
		r.SetSampleRate(t.sampleRate)
		t.resampler = r
	}

	t.channelMask = mask
	t.channelCount = count
	return true, nil
}

// setResampler records the input rate and creates the resampler the first
// time the rate differs from the device rate. Once created, the resampler
// stays until the track is released, even if the rate goes back to the
// device rate.
func (t *track) setResampler(rate, outRate int, quality audio.Quality) (bool, error) {
	if rate == t.sampleRate {
		return false, nil
	}
	if rate == outRate && t.resampler == nil {
		t.sampleRate = rate
		return false, nil
	}

	if t.resampler == nil {
		r, err := audio.NewResampler(t.channelCount, outRate, quality)
		if err != nil {
			return false, fmt.Errorf("%w: %w", ErrBadValue, err)
		}
		t.resampler = r
	}

	t.sampleRate = rate
	t.resampler.SetSampleRate(rate)
	return true, nil
}

// setVolume sets channel ch to value. When ramp is true the gain moves from
// its current position to value over one period, otherwise it jumps.
// A ramp too short to move by one step per frame jumps as well.
func (t *track) setVolume(ch int, value int32, ramp bool, frameCount int) bool {
	if t.volume[ch] == value {
		return false
	}

	// a new target during a ramp continues from where the ramp is
	if t.volumeInc[ch] == 0 {
		t.prevVolume[ch] = t.volume[ch] << 16
	}
	t.volume[ch] = value
	t.volumeInc[ch] = 0

	if ramp {
		t.volumeInc[ch] = ((value << 16) - t.prevVolume[ch]) / int32(frameCount)
	}
	if t.volumeInc[ch] == 0 {
		t.prevVolume[ch] = value << 16
	}

	t.volumeRL = utils.PackRL(int16(t.volume[0]), int16(t.volume[1]))
	return true
}

func (t *track) setAuxLevel(value int32, ramp bool, frameCount int) bool {
	if t.auxLevel == value {
		return false
	}

	if t.auxInc == 0 {
		t.prevAuxLevel = t.auxLevel << 16
	}
	t.auxLevel = value
	t.auxInc = 0

	if ramp {
		t.auxInc = ((value << 16) - t.prevAuxLevel) / int32(frameCount)
	}
	if t.auxInc == 0 {
		t.prevAuxLevel = value << 16
	}
	return true
}

// adjustVolumeRamp ends every ramp whose next step would reach or pass its
// target, or that is within one gain step of it, snapping the position to
// the target. It reports whether any ramp ended.
func (t *track) adjustVolumeRamp(aux bool) bool {
	ended := false
	for i := range MaxChannels {
		if rampDone(t.prevVolume[i], t.volumeInc[i], t.volume[i]) {
			t.volumeInc[i] = 0
			t.prevVolume[i] = t.volume[i] << 16
			ended = true
		}
	}

	if aux && rampDone(t.prevAuxLevel, t.auxInc, t.auxLevel) {
		t.auxInc = 0
		t.prevAuxLevel = t.auxLevel << 16
		ended = true
	}
	return ended
}

func rampDone(prev, inc, target int32) bool {
	if inc == 0 {
		return false
	}

	rest := int64(target)<<16 - int64(prev)
	if rest > -1<<16 && rest < 1<<16 {
		return true
	}

	next := (int64(prev) + int64(inc)) >> 16
	return (inc > 0 && next >= int64(target)) || (inc < 0 && next <= int64(target))
}
