// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"context"
	"encoding/binary"
	"io"
	"sync"
)

// Queue buffers interleaved samples between the mixing loop and an audio
// device. Write blocks while the queue is full; Read never blocks and pads
// with silence when the writer falls behind.
type Queue struct {
	mu     sync.Mutex
	buf    []int16
	r, n   int
	closed bool
	// underruns counts Reads that had to be padded with silence
	underruns int

	space chan struct{}
}

// NewQueue returns a queue holding at most size samples.
func NewQueue(size int) *Queue {
	return &Queue{
		buf:   make([]int16, max(size, 1)),
		space: make(chan struct{}, 1),
	}
}

// Write appends samples, waiting for room as the device consumes them.
func (q *Queue) Write(ctx context.Context, samples []int16) error {
	for len(samples) > 0 {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return io.ErrClosedPipe
		}
		free := len(q.buf) - q.n
		w := (q.r + q.n) % len(q.buf)
		m := min(free, len(samples))
		for i := range m {
			q.buf[(w+i)%len(q.buf)] = samples[i]
		}
		q.n += m
		q.mu.Unlock()

		samples = samples[m:]
		if len(samples) == 0 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.space:
		}
	}
	return nil
}

// Read fills p with little-endian 16-bit samples. After Close it returns
// io.EOF once the queue is empty.
func (q *Queue) Read(p []byte) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.n == 0 && q.closed {
		return 0, io.EOF
	}

	want := len(p) / 2
	m := min(want, q.n)
	for i := range m {
		binary.LittleEndian.PutUint16(p[2*i:], uint16(q.buf[(q.r+i)%len(q.buf)]))
	}
	q.r = (q.r + m) % len(q.buf)
	q.n -= m

	if m < want && !q.closed {
		clear(p[2*m:])
		q.underruns++
		m = want
	}

	select {
	case q.space <- struct{}{}:
	default:
	}
	return 2 * m, nil
}

// Buffered returns the number of samples waiting to be read.
func (q *Queue) Buffered() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.n
}

// Underruns returns the number of Reads padded with silence.
func (q *Queue) Underruns() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.underruns
}

// Close stops accepting samples. Samples already queued are still read.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	select {
	case q.space <- struct{}{}:
	default:
	}
	return nil
}
