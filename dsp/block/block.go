// Package block provides the dense frames-by-channels sample matrix that
// flows between effects, plus small float64 slice helpers.
//
// Samples are interleaved (frame-major) float64 in nominal range [-1, 1].
// The audio driver boundary is float32; conversion happens at the I/O edge.
package block

import "fmt"

// Buffer is a dense frames × channels interleaved sample matrix.
type Buffer struct {
	data     []float64
	frames   int
	channels int
}

// New returns a zeroed buffer of the given shape.
func New(frames, channels int) (*Buffer, error) {
	if frames <= 0 {
		return nil, fmt.Errorf("block frames must be > 0: %d", frames)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("block channels must be > 0: %d", channels)
	}
	return &Buffer{
		data:     make([]float64, frames*channels),
		frames:   frames,
		channels: channels,
	}, nil
}

// Frames returns the frame count.
func (b *Buffer) Frames() int { return b.frames }

// Channels returns the channel count.
func (b *Buffer) Channels() int { return b.channels }

// Data returns the interleaved backing slice.
func (b *Buffer) Data() []float64 { return b.data }

// Sample returns the sample at (frame, channel). No bounds checks beyond
// the slice's own; hot-path callers index valid shapes by construction.
func (b *Buffer) Sample(frame, ch int) float64 {
	return b.data[frame*b.channels+ch]
}

// SetSample stores a sample at (frame, channel).
func (b *Buffer) SetSample(frame, ch int, v float64) {
	b.data[frame*b.channels+ch] = v
}

// Zero clears all samples.
func (b *Buffer) Zero() {
	for i := range b.data {
		b.data[i] = 0
	}
}

// CopyFrom copies src into b. Shapes must match.
func (b *Buffer) CopyFrom(src *Buffer) {
	copy(b.data, src.data)
}

// MixToMono averages all channels of each frame into dst.
// dst must hold Frames() values.
func (b *Buffer) MixToMono(dst []float64) {
	if b.channels == 1 {
		copy(dst, b.data)
		return
	}
	inv := 1.0 / float64(b.channels)
	for f := 0; f < b.frames; f++ {
		sum := 0.0
		base := f * b.channels
		for c := 0; c < b.channels; c++ {
			sum += b.data[base+c]
		}
		dst[f] = sum * inv
	}
}

// EnsureLen returns a slice with the requested length, reusing buf
// capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}
