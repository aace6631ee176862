// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"errors"
	"testing"

	"github.com/ik5/audmix/internal/audiotest"
)

func TestMute_MatchesGenericPath(t *testing.T) {
	t.Parallel()

	muted := stereoUnity()
	muted.left, muted.right = 0, 0

	a := newTestMixer(t)
	pa := audiotest.NewRampProvider(2, 123)
	_, outA := addTestTrack(t, a, muted, pa)

	b := newTestMixer(t)
	pb := audiotest.NewRampProvider(2, 123)
	_, outB := addTestTrack(t, b, muted, pb)

	for i := range outA {
		outA[i], outB[i] = 77, 77
	}

	a.Process()
	if a.state.hook != processNop {
		t.Fatalf("hook = %v, want %v", a.state.hook, processNop)
	}

	// render the muted track through the full stereo hook
	b.configure()
	b.state.tracks[0].hook = trackHookStereo16
	b.processGenericNoResampling()

	for i := range outA {
		if outA[i] != 0 || outB[i] != 0 {
			t.Fatalf("sample %d = %d (mute), %d (generic), want 0", i, outA[i], outB[i])
		}
	}
	if pa.Delivered() != testFrames || pb.Delivered() != testFrames {
		t.Errorf("delivered = %d (mute), %d (generic), want %d", pa.Delivered(), pb.Delivered(), testFrames)
	}
	if pa.Held() || pb.Held() {
		t.Error("a buffer is still held after the period")
	}
}

func TestRamp_Terminates(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t)
	ts := stereoUnity()
	ts.left, ts.right = 0, 0
	name, _ := addTestTrack(t, m, ts, audiotest.NewConstantProvider(2, 1000))
	m.Process()

	if err := m.SetParameter(name, TargetRampVolume, ParamVolume0, UnityGain); err != nil {
		t.Fatalf("SetParameter() error = %v", err)
	}
	if err := m.SetParameter(name, TargetRampVolume, ParamVolume1, 0x800); err != nil {
		t.Fatalf("SetParameter() error = %v", err)
	}

	tr := &m.state.tracks[name]
	if tr.volumeInc[0] != (UnityGain<<16)/testFrames {
		t.Errorf("volumeInc[0] = %d, want %d", tr.volumeInc[0], (UnityGain<<16)/testFrames)
	}

	m.Process()

	for ch, want := range []int32{UnityGain, 0x800} {
		if tr.volumeInc[ch] != 0 {
			t.Errorf("volumeInc[%d] = %d after the ramp, want 0", ch, tr.volumeInc[ch])
		}
		if tr.prevVolume[ch] != want<<16 {
			t.Errorf("prevVolume[%d] = %#x, want %#x", ch, tr.prevVolume[ch], want<<16)
		}
	}
}

func TestRamp_TooShortJumps(t *testing.T) {
	t.Parallel()

	// more frames per period than Q16 steps between two adjacent gains
	m, err := New(1<<17, 48000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	name, err := m.AllocateTrack()
	if err != nil {
		t.Fatalf("AllocateTrack() error = %v", err)
	}
	if err := m.SetParameter(name, TargetRampVolume, ParamVolume0, UnityGain+1); err != nil {
		t.Fatalf("SetParameter() error = %v", err)
	}

	tr := &m.state.tracks[name]
	if tr.volumeInc[0] != 0 || tr.prevVolume[0] != (UnityGain+1)<<16 {
		t.Errorf("volumeInc = %d, prevVolume = %#x, want 0, %#x", tr.volumeInc[0], tr.prevVolume[0], (UnityGain+1)<<16)
	}
}

func TestRamp_RetargetFromCurrentLevel(t *testing.T) {
	t.Parallel()

	var tr track
	tr.reset(0, 48000)

	tr.setVolume(0, 0, false, testFrames)
	tr.setVolume(0, UnityGain, true, testFrames)
	// halfway through the ramp
	tr.prevVolume[0] = 0x800 << 16

	tr.setVolume(0, 0, true, testFrames)
	if want := int32(-(0x800 << 16) / testFrames); tr.volumeInc[0] != want {
		t.Errorf("volumeInc = %d, want %d", tr.volumeInc[0], want)
	}
	if tr.prevVolume[0] != 0x800<<16 {
		t.Errorf("prevVolume = %#x, want %#x", tr.prevVolume[0], 0x800<<16)
	}
}

func TestRampDone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prev   int32
		inc    int32
		target int32
		want   bool
	}{
		{"no ramp", 0, 0, UnityGain, false},
		{"rising", 0, 1 << 20, UnityGain, false},
		{"next step reaches target", UnityGain<<16 - 1<<20, 1 << 20, UnityGain, true},
		{"within one gain step", UnityGain<<16 - 100, 1, UnityGain, true},
		{"falling", UnityGain << 16, -(1 << 20), 0, false},
		{"falling reaches target", 1 << 20, -(1 << 20), 0, true},
		{"step past max gain", MaxGain << 16, MaxGain << 16, MaxGain, true},
	}

	for _, tt := range tests {
		if got := rampDone(tt.prev, tt.inc, tt.target); got != tt.want {
			t.Errorf("%s: rampDone(%#x, %d, %#x) = %v, want %v", tt.name, tt.prev, tt.inc, tt.target, got, tt.want)
		}
	}
}

func TestSetChannelMask(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t)
	name, err := m.AllocateTrack()
	if err != nil {
		t.Fatalf("AllocateTrack() error = %v", err)
	}
	tr := &m.state.tracks[name]

	if err := m.SetParameter(name, TargetTrack, ParamChannelMask, 0x7); !errors.Is(err, ErrBadValue) {
		t.Fatalf("SetParameter(mask 0x7) error = %v, want %v", err, ErrBadValue)
	}
	if tr.channelMask != ChannelOutStereo || tr.channelCount != 2 {
		t.Errorf("rejected mask changed the track: mask %#x, count %d", tr.channelMask, tr.channelCount)
	}

	if err := m.SetParameter(name, TargetResample, ParamSampleRate, 22050); err != nil {
		t.Fatalf("SetParameter(rate) error = %v", err)
	}
	stereo := tr.resampler
	if stereo == nil {
		t.Fatal("no resampler after setting a rate different from the output rate")
	}

	if err := m.SetParameter(name, TargetTrack, ParamChannelMask, int(ChannelOutMono)); err != nil {
		t.Fatalf("SetParameter(mono) error = %v", err)
	}
	if tr.channelCount != 1 {
		t.Errorf("channelCount = %d, want 1", tr.channelCount)
	}
	if tr.resampler == stereo {
		t.Error("channel count change kept the old resampler")
	}

	for _, mask := range []int{0, 0x7} {
		if err := m.SetParameter(name, TargetTrack, ParamChannelMask, mask); !errors.Is(err, ErrBadValue) {
			t.Errorf("SetParameter(mask %#x) error = %v, want %v", mask, err, ErrBadValue)
		}
	}
	// only the number of channels matters
	if err := m.SetParameter(name, TargetTrack, ParamChannelMask, 0x3); err != nil {
		t.Fatalf("SetParameter(mask 0x3) error = %v", err)
	}
	if tr.channelCount != 2 {
		t.Errorf("channelCount = %d for mask 0x3, want 2", tr.channelCount)
	}
	if err := m.SetParameter(name, TargetTrack, ParamChannelMask, 0x1); err != nil {
		t.Fatalf("SetParameter(mask 0x1) error = %v", err)
	}
	if tr.channelCount != 1 {
		t.Errorf("channelCount = %d for mask 0x1, want 1", tr.channelCount)
	}

	// going back to the output rate keeps resampling
	if err := m.SetParameter(name, TargetResample, ParamSampleRate, 48000); err != nil {
		t.Fatalf("SetParameter(rate) error = %v", err)
	}
	if !tr.doesResample() {
		t.Error("resampler dropped when the rate matched the output rate")
	}
}

func TestSameBuffer(t *testing.T) {
	t.Parallel()

	a := make([]int16, 8)
	b := make([]int16, 8)

	tests := []struct {
		name string
		x, y []int16
		want bool
	}{
		{"both nil", nil, nil, true},
		{"one nil", a, nil, false},
		{"same", a, a, true},
		{"different arrays", a, b, false},
		{"same start, different length", a, a[:4], true},
		{"different start", a, a[2:], false},
	}

	for _, tt := range tests {
		if got := sameBuffer(tt.x, tt.y); got != tt.want {
			t.Errorf("%s: sameBuffer() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestOverlaps(t *testing.T) {
	t.Parallel()

	a := make([]int16, 16)
	b := make([]int16, 8)

	tests := []struct {
		name string
		x, y []int16
		n    int
		want bool
	}{
		{"same", a, a, 8, true},
		{"shifted", a, a[2:], 8, true},
		{"adjacent", a, a[8:], 8, false},
		{"overlap past the prefix", a, a[8:], 4, false},
		{"different arrays", a, b, 8, false},
		{"nil", a, nil, 8, false},
	}

	for _, tt := range tests {
		if got := overlaps(tt.x, tt.y, tt.n); got != tt.want {
			t.Errorf("%s: overlaps() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestReset_Revalidates(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t)
	name, _ := addTestTrack(t, m, stereoUnity(), audiotest.NewConstantProvider(2, 100))
	m.Process()
	m.Process()
	before := m.Stats().Validations

	if err := m.SetParameter(name, TargetResample, ParamReset, 0); err != nil {
		t.Fatalf("SetParameter(reset) error = %v", err)
	}
	m.Process()

	if got := m.Stats().Validations; got != before+1 {
		t.Errorf("Validations = %d, want %d", got, before+1)
	}
}

func TestReset_RestartsResampler(t *testing.T) {
	t.Parallel()

	const step = 10
	wave := audiotest.RampPattern(step)

	ts := stereoUnity()
	ts.rate = 24000
	p := audiotest.NewRampProvider(2, step)
	m := newTestMixer(t)
	name, out := addTestTrack(t, m, ts, p)
	m.Process()

	if err := m.SetParameter(name, TargetResample, ParamReset, 0); err != nil {
		t.Fatalf("SetParameter(reset) error = %v", err)
	}
	if p.Held() {
		t.Fatal("reset kept the provider buffer")
	}
	next := p.Delivered()
	m.Process()

	// the first input frame after a reset is held for the first two output
	// frames at a 1:2 ratio
	for f := range 2 {
		for ch := range 2 {
			if got, want := out[2*f+ch], wave(next, ch); got != want {
				t.Errorf("frame %d channel %d = %d, want %d", f, ch, got, want)
			}
		}
	}
}
