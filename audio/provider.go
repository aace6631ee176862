// SPDX-License-Identifier: EPL-2.0

package audio

// Buffer describes a region of interleaved 16-bit PCM handed out by a
// BufferProvider.
//
// Before GetNextBuffer the caller sets FrameCount to the number of frames it
// wants. The provider replaces it with the number of frames actually
// delivered, which may be smaller. A nil I16 means no data is available now.
type Buffer struct {
	I16        []int16
	FrameCount int
}

// BufferProvider is a pull source of PCM data for one mixer track.
//
// ReleaseBuffer must be called exactly once for every GetNextBuffer that
// returned data, before the next GetNextBuffer on the same provider.
// Implementations must not block.
type BufferProvider interface {
	GetNextBuffer(b *Buffer)
	ReleaseBuffer(b *Buffer)
}
