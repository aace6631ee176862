// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTrack is returned for a track name that is out of range or not allocated.
	ErrInvalidTrack = errors.New("track not found")
	// ErrBadValue is returned when a parameter value is rejected. The track is left unchanged.
	ErrBadValue = errors.New("bad parameter value")
	// ErrUnknownParameter is returned for an unrecognized target/parameter pair.
	ErrUnknownParameter = fmt.Errorf("%w: unrecognized parameter", ErrBadValue)
	// ErrNoFreeTracks is returned by AllocateTrack when all MaxTracks slots are in use.
	ErrNoFreeTracks = errors.New("no free track slots")
	// ErrInvalidFrameCount is returned by New for a frame count below 1.
	ErrInvalidFrameCount = errors.New("frame count must be positive")
	// ErrInvalidSampleRate is returned by New for a sample rate below 1.
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
)
