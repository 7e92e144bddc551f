// Package delay provides a single-channel circular delay line with
// feedback and pure-delay block kernels. It is the foundation of the
// stereo delay, the reverb pre-delay, and the comb/allpass stages.
package delay

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fxchain/dsp/interp"
)

// Line is a circular delay line.
type Line struct {
	buffer   []float64
	writePos int
}

// New returns a delay line of fixed size.
func New(size int) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay size must be > 0: %d", size)
	}
	return &Line{buffer: make([]float64, size)}, nil
}

// NewForDuration returns a line sized to hold maxDelayMs of signal:
// floor(sampleRate*maxDelayMs/1000) + 1 samples.
func NewForDuration(sampleRate, maxDelayMs float64) (*Line, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("delay sample rate must be > 0: %f", sampleRate)
	}
	if maxDelayMs <= 0 || math.IsNaN(maxDelayMs) || math.IsInf(maxDelayMs, 0) {
		return nil, fmt.Errorf("delay max duration must be > 0 ms: %f", maxDelayMs)
	}
	return New(int(sampleRate*maxDelayMs/1000.0) + 1)
}

// Len returns internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// ClampDelay clamps a delay request to [0, size-1]. Oversized requests
// are never an error; they saturate at the buffer capacity.
func (d *Line) ClampDelay(delay int) int {
	if delay < 0 {
		return 0
	}
	if max := len(d.buffer) - 1; delay > max {
		return max
	}
	return delay
}

// Write writes one sample.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample
	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read reads an integer delay in samples.
func (d *Line) Read(delay int) float64 {
	size := len(d.buffer)
	readPos := (d.writePos - delay) % size
	if readPos < 0 {
		readPos += size
	}
	return d.buffer[readPos]
}

// ReadFractional reads with cubic Hermite interpolation.
func (d *Line) ReadFractional(delay float64) float64 {
	size := len(d.buffer)
	if delay < 0 {
		delay = 0
	}
	maxDelay := float64(size - 3)
	if delay > maxDelay {
		delay = maxDelay
	}

	p := int(math.Floor(delay))
	t := delay - float64(p)

	xm1 := d.Read(maxInt(0, p-1))
	x0 := d.Read(p)
	x1 := d.Read(p + 1)
	x2 := d.Read(p + 2)
	return interp.Hermite4(t, xm1, x0, x1, x2)
}

// ProcessFeedback runs the feedback delay kernel over a block: wet[n]
// receives the delayed sample and the line absorbs in[n] + feedback*wet[n].
// delaySamples is clamped to the buffer capacity.
func (d *Line) ProcessFeedback(in, wet []float64, delaySamples int, feedback float64) {
	size := len(d.buffer)
	dS := d.ClampDelay(delaySamples)
	w := d.writePos
	for n := range in {
		r := w - dS
		if r < 0 {
			r += size
		}
		delayed := d.buffer[r]
		wet[n] = delayed
		d.buffer[w] = in[n] + delayed*feedback
		w++
		if w >= size {
			w = 0
		}
	}
	d.writePos = w
}

// ProcessPure runs a feedback-free delay kernel over a block. A zero
// delay passes the input through while still recording it.
func (d *Line) ProcessPure(in, out []float64, delaySamples int) {
	size := len(d.buffer)
	dS := d.ClampDelay(delaySamples)
	w := d.writePos

	if dS == 0 {
		for n := range in {
			x := in[n]
			out[n] = x
			d.buffer[w] = x
			w++
			if w >= size {
				w = 0
			}
		}
		d.writePos = w
		return
	}

	for n := range in {
		r := w - dS
		if r < 0 {
			r += size
		}
		out[n] = d.buffer[r]
		d.buffer[w] = in[n]
		w++
		if w >= size {
			w = 0
		}
	}
	d.writePos = w
}

// Reset clears line state.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
