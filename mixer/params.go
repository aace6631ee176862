// SPDX-License-Identifier: EPL-2.0

package mixer

import "fmt"

const (
	// MaxTracks is the number of track slots of a Mixer.
	MaxTracks = 32
	// MaxChannels is the channel count of the mix and the maximum of a track.
	MaxChannels = 2
	// BlockSize is the number of frames accumulated at a time by the generic
	// no-resampling path.
	BlockSize = 16

	// UnityGain is 1.0 in the 4.12 fixed point used for track and aux gains.
	UnityGain = 0x1000
	// MaxGain is the largest accepted gain, just under 8.0.
	MaxGain = 0x7FFF
)

// Channel mask bits for ParamChannelMask. The mixer only looks at the
// number of bits set, which must be 1 or 2.
const (
	ChannelOutFrontLeft  uint32 = 0x4
	ChannelOutFrontRight uint32 = 0x8

	ChannelOutMono   = ChannelOutFrontLeft
	ChannelOutStereo = ChannelOutFrontLeft | ChannelOutFrontRight
)

// Target groups the parameters accepted by SetParameter.
type Target int

const (
	TargetTrack Target = iota + 1
	TargetResample
	TargetRampVolume
	TargetVolume
)

func (t Target) String() string {
	switch t {
	case TargetTrack:
		return "TRACK"
	case TargetResample:
		return "RESAMPLE"
	case TargetRampVolume:
		return "RAMP_VOLUME"
	case TargetVolume:
		return "VOLUME"
	}
	return fmt.Sprintf("Target(%d)", int(t))
}

// Param names a parameter within a Target.
type Param int

const (
	// TargetTrack
	ParamChannelMask Param = iota + 1
	ParamMainBuffer
	ParamAuxBuffer

	// TargetResample
	ParamSampleRate
	ParamReset

	// TargetVolume and TargetRampVolume
	ParamVolume0
	ParamVolume1
	ParamAuxLevel
)

func (p Param) String() string {
	switch p {
	case ParamChannelMask:
		return "CHANNEL_MASK"
	case ParamMainBuffer:
		return "MAIN_BUFFER"
	case ParamAuxBuffer:
		return "AUX_BUFFER"
	case ParamSampleRate:
		return "SAMPLE_RATE"
	case ParamReset:
		return "RESET"
	case ParamVolume0:
		return "VOLUME0"
	case ParamVolume1:
		return "VOLUME1"
	case ParamAuxLevel:
		return "AUXLEVEL"
	}
	return fmt.Sprintf("Param(%d)", int(p))
}
