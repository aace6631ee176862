// SPDX-License-Identifier: EPL-2.0

//go:build !headless

package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process.
var (
	contextOnce sync.Once
	otoCtx      *oto.Context
	otoRate     int
	otoErr      error
)

// Player plays interleaved 16-bit stereo.
type Player struct {
	queue  *Queue
	player *oto.Player
	mutex  sync.Mutex
	closed bool
}

// New opens the audio device at sampleRate. Up to bufferFrames frames are
// queued ahead of the device.
func New(sampleRate, bufferFrames int) (*Player, error) {
	contextOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
		})
		if otoErr == nil {
			<-ready
			otoRate = sampleRate
		}
	})
	if otoErr != nil {
		return nil, fmt.Errorf("opening audio device: %w", otoErr)
	}
	if otoRate != sampleRate {
		return nil, fmt.Errorf("audio device already open at %d Hz", otoRate)
	}

	q := NewQueue(2 * bufferFrames)
	p := &Player{
		queue:  q,
		player: otoCtx.NewPlayer(q),
	}
	p.player.Play()
	return p, nil
}

// Write queues one period, blocking while the device is behind.
func (p *Player) Write(ctx context.Context, period []int16) error {
	return p.queue.Write(ctx, period)
}

// Underruns returns the number of device reads that found the queue empty.
func (p *Player) Underruns() int { return p.queue.Underruns() }

// Close waits for queued samples to play, or for ctx to end, and releases
// the device.
func (p *Player) Close(ctx context.Context) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	_ = p.queue.Close()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for p.player.IsPlaying() {
		select {
		case <-ctx.Done():
			p.player.Pause()
			return p.player.Close()
		case <-ticker.C:
		}
	}
	return p.player.Close()
}
