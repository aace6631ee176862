// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"log/slog"
	"math/bits"
)

// processHook is the strategy run by Process for a whole period.
type processHook uint8

const (
	processValidate processHook = iota
	processNop
	processGenericNoResampling
	processGenericResampling
	processOneTrack16BitsStereoNoResampling
)

func (h processHook) String() string {
	switch h {
	case processValidate:
		return "validate"
	case processNop:
		return "nop"
	case processGenericNoResampling:
		return "genericNoResampling"
	case processGenericResampling:
		return "genericResampling"
	case processOneTrack16BitsStereoNoResampling:
		return "oneTrack16BitsStereoNoResampling"
	}
	return fmt.Sprintf("processHook(%d)", uint8(h))
}

// validate recomputes the enabled set and every enabled track's hook, picks
// the process hook for the new configuration and mixes one period with it.
// Afterwards, if the mix finished every ramp, it looks for a cheaper hook.
func (m *Mixer) validate() {
	m.stats.Validations++

	sum := m.configure()
	m.dispatch(m.state.hook)
	m.reoptimize(sum)
}

// mixSummary is what configure learned about the enabled tracks.
type mixSummary struct {
	count int
}

func (m *Mixer) configure() mixSummary {
	s := &m.state

	if s.needsChanged == 0 {
		m.logger.Warn("validation pass with nothing invalid")
	}

	var enabled, disabled uint32
	for changed := s.needsChanged; changed != 0; {
		i := bits.TrailingZeros32(changed)
		changed &^= 1 << i
		if s.tracks[i].enabled {
			enabled |= 1 << i
		} else {
			disabled |= 1 << i
		}
	}
	s.enabledTracks = s.enabledTracks&^disabled | enabled
	s.needsChanged = 0
	s.rampEnded = 0

	count, muted := 0, 0
	all16BitsStereoNoResample := true
	resampling := false
	volumeRamp := false

	for en := s.enabledTracks; en != 0; {
		i := bits.TrailingZeros32(en)
		en &^= 1 << i
		count++

		t := &s.tracks[i]
		t.computeNeeds()
		t.selectHook()

		switch t.hook {
		case trackHookMute:
			muted++
			continue
		case trackHookResample:
			all16BitsStereoNoResample = false
			resampling = true
		case trackHookMono16:
			all16BitsStereoNoResample = false
		}
		if t.needs&needsAuxEnabled != 0 {
			all16BitsStereoNoResample = false
		}
		if t.rampingVolume() {
			volumeRamp = true
		}
	}

	s.hook = processNop
	if count > muted {
		if resampling {
			if s.outputTemp == nil {
				s.outputTemp = make([]int32, MaxChannels*s.frameCount)
			}
			if s.resampleTemp == nil {
				s.resampleTemp = make([]int32, MaxChannels*s.frameCount)
			}
			s.hook = processGenericResampling
		} else {
			s.outputTemp = nil
			s.resampleTemp = nil
			s.hook = processGenericNoResampling
			if all16BitsStereoNoResample && !volumeRamp && count == 1 {
				s.hook = processOneTrack16BitsStereoNoResampling
			}
		}
	}

	m.logger.Debug("mixer configuration changed",
		slog.Int("tracks", count),
		slog.Int("muted", muted),
		slog.String("enabled", fmt.Sprintf("%08x", s.enabledTracks)),
		slog.String("hook", s.hook.String()),
		slog.Bool("resampling", resampling),
		slog.Bool("volumeRamp", volumeRamp),
	)

	return mixSummary{count: count}
}

// reoptimize runs after the first period of a new configuration. Tracks
// whose ramp has finished get their needs recomputed, silent tracks are
// demoted to mute and the whole mix is promoted to nop or to the single
// track path when possible.
func (m *Mixer) reoptimize(sum mixSummary) {
	s := &m.state
	ended := s.rampEnded & s.enabledTracks
	s.rampEnded = 0
	if sum.count == 0 {
		return
	}

	allMuted := true
	ramping := false
	all16BitsStereoNoResample := true
	for en := s.enabledTracks; en != 0; {
		i := bits.TrailingZeros32(en)
		en &^= 1 << i

		t := &s.tracks[i]
		if ended&(1<<i) != 0 {
			t.computeNeeds()
			t.selectHook()
		}
		if t.rampingVolume() {
			ramping = true
			allMuted = false
			continue
		}

		if t.canMute() {
			t.needs |= needsMuteEnabled
			t.hook = trackHookMute
			continue
		}
		allMuted = false
		if t.hook != trackHookStereo16 || t.needs&needsAuxEnabled != 0 {
			all16BitsStereoNoResample = false
		}
	}

	switch {
	case allMuted:
		s.hook = processNop
	case all16BitsStereoNoResample && sum.count == 1 && !ramping:
		s.hook = processOneTrack16BitsStereoNoResampling
	}
}
