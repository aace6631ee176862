// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"log/slog"
	"testing"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/internal/audiotest"
)

const testFrames = 128

func newTestMixer(t *testing.T) *Mixer {
	t.Helper()

	m, err := New(testFrames, 48000, WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return m
}

type trackSetup struct {
	channels int
	rate     int
	left     int
	right    int
	aux      int
	ramp     bool
	// shareWith mixes into the main buffer of an earlier track
	shareWith int
}

func addTestTrack(t *testing.T, m *Mixer, ts trackSetup, p audio.BufferProvider) (int, []int16) {
	t.Helper()

	name, err := m.AllocateTrack()
	if err != nil {
		t.Fatalf("AllocateTrack() error = %v", err)
	}

	out := make([]int16, testFrames*MaxChannels)
	if ts.shareWith >= 0 {
		out = m.state.tracks[ts.shareWith].mainBuffer
	}

	volume := TargetVolume
	if ts.ramp {
		volume = TargetRampVolume
	}
	set := func(target Target, param Param, value int) {
		if err := m.SetParameter(name, target, param, value); err != nil {
			t.Fatalf("SetParameter(%v, %v, %d) error = %v", target, param, value, err)
		}
	}

	if ts.channels == 1 {
		set(TargetTrack, ParamChannelMask, int(ChannelOutMono))
	}
	if ts.rate != 0 {
		set(TargetResample, ParamSampleRate, ts.rate)
	}
	set(volume, ParamVolume0, ts.left)
	set(volume, ParamVolume1, ts.right)
	if ts.aux != 0 {
		if err := m.SetAuxBuffer(name, make([]int32, testFrames)); err != nil {
			t.Fatalf("SetAuxBuffer() error = %v", err)
		}
		set(TargetVolume, ParamAuxLevel, ts.aux)
	}

	if err := m.SetMainBuffer(name, out); err != nil {
		t.Fatalf("SetMainBuffer() error = %v", err)
	}
	if err := m.SetBufferProvider(name, p); err != nil {
		t.Fatalf("SetBufferProvider() error = %v", err)
	}
	if err := m.Enable(name); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	return name, out
}

func stereoUnity() trackSetup {
	return trackSetup{channels: 2, left: UnityGain, right: UnityGain, shareWith: -1}
}

func TestValidate_HookSelection(t *testing.T) {
	t.Parallel()

	mono := stereoUnity()
	mono.channels = 1
	withAux := stereoUnity()
	withAux.aux = 0x800
	resampled := stereoUnity()
	resampled.rate = 44100
	muted := stereoUnity()
	muted.left, muted.right = 0, 0
	ramped := stereoUnity()
	ramped.left, ramped.ramp = 0x800, true
	fadeOut := stereoUnity()
	fadeOut.left, fadeOut.right, fadeOut.ramp = 0, 0, true
	deviceRate := stereoUnity()
	deviceRate.rate = 48000

	tests := []struct {
		name      string
		tracks    []trackSetup
		wantFirst processHook
		// hook after the first period has run
		wantAfter processHook
		wantHooks []trackHook
	}{
		{"no tracks", nil, processNop, processNop, nil},
		{"one stereo", []trackSetup{stereoUnity()}, processOneTrack16BitsStereoNoResampling, processOneTrack16BitsStereoNoResampling, []trackHook{trackHookStereo16}},
		{"device rate", []trackSetup{deviceRate}, processOneTrack16BitsStereoNoResampling, processOneTrack16BitsStereoNoResampling, []trackHook{trackHookStereo16}},
		{"one mono", []trackSetup{mono}, processGenericNoResampling, processGenericNoResampling, []trackHook{trackHookMono16}},
		{"aux", []trackSetup{withAux}, processGenericNoResampling, processGenericNoResampling, []trackHook{trackHookStereo16}},
		{"two tracks", []trackSetup{stereoUnity(), stereoUnity()}, processGenericNoResampling, processGenericNoResampling, []trackHook{trackHookStereo16, trackHookStereo16}},
		{"resampling", []trackSetup{resampled, mono}, processGenericResampling, processGenericResampling, []trackHook{trackHookResample, trackHookMono16}},
		{"muted", []trackSetup{muted}, processNop, processNop, []trackHook{trackHookMute}},
		{"muted and playing", []trackSetup{muted, stereoUnity()}, processGenericNoResampling, processGenericNoResampling, []trackHook{trackHookMute, trackHookStereo16}},
		{"ramp ends on fast path", []trackSetup{ramped}, processGenericNoResampling, processOneTrack16BitsStereoNoResampling, []trackHook{trackHookStereo16}},
		{"fade out ends muted", []trackSetup{fadeOut}, processGenericNoResampling, processNop, []trackHook{trackHookMute}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := newTestMixer(t)
			for _, ts := range tt.tracks {
				addTestTrack(t, m, ts, audiotest.NewConstantProvider(ts.channels, 100))
			}

			sum := m.configure()
			if m.state.hook != tt.wantFirst {
				t.Errorf("hook = %v, want %v", m.state.hook, tt.wantFirst)
			}

			m.dispatch(m.state.hook)
			m.reoptimize(sum)
			s := &m.state
			if s.hook != tt.wantAfter {
				t.Errorf("hook after first period = %v, want %v", s.hook, tt.wantAfter)
			}
			for i, want := range tt.wantHooks {
				if got := s.tracks[i].hook; got != want {
					t.Errorf("track %d hook = %v, want %v", i, got, want)
				}
			}
		})
	}
}

func TestValidate_AuxRampToZeroPromotes(t *testing.T) {
	t.Parallel()

	ts := stereoUnity()
	ts.aux = 0x800
	m := newTestMixer(t)
	name, _ := addTestTrack(t, m, ts, audiotest.NewConstantProvider(2, 100))
	m.Process()

	if err := m.SetParameter(name, TargetRampVolume, ParamAuxLevel, 0); err != nil {
		t.Fatalf("SetParameter() error = %v", err)
	}
	m.Process()

	tr := &m.state.tracks[name]
	if tr.rampingAux() {
		t.Fatalf("auxInc = %d after one period, want 0", tr.auxInc)
	}
	if tr.needs&needsAuxEnabled != 0 {
		t.Errorf("needs = %#x, aux send still enabled at level 0", tr.needs)
	}
	if m.state.hook != processOneTrack16BitsStereoNoResampling {
		t.Errorf("hook = %v, want %v", m.state.hook, processOneTrack16BitsStereoNoResampling)
	}
}

func TestValidate_AuxRampToZeroMutes(t *testing.T) {
	t.Parallel()

	ts := stereoUnity()
	ts.left, ts.right, ts.aux = 0, 0, 0x800
	m := newTestMixer(t)
	name, _ := addTestTrack(t, m, ts, audiotest.NewConstantProvider(2, 100))
	m.Process()

	if err := m.SetParameter(name, TargetRampVolume, ParamAuxLevel, 0); err != nil {
		t.Fatalf("SetParameter() error = %v", err)
	}
	m.Process()

	if got := m.state.tracks[name].hook; got != trackHookMute {
		t.Errorf("track hook = %v, want %v", got, trackHookMute)
	}
	if m.state.hook != processNop {
		t.Errorf("hook = %v, want %v", m.state.hook, processNop)
	}
}
