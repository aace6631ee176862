// SPDX-License-Identifier: EPL-2.0

//go:build headless

package playback

import "context"

// Player plays interleaved 16-bit stereo. Headless builds cannot create one.
type Player struct{}

func New(sampleRate, bufferFrames int) (*Player, error) {
	return nil, ErrUnavailable
}

func (p *Player) Write(ctx context.Context, period []int16) error { return ErrUnavailable }
func (p *Player) Underruns() int                                   { return 0 }
func (p *Player) Close(ctx context.Context) error                  { return nil }
