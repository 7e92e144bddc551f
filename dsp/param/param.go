// Package param provides click-free control parameters for real-time DSP.
//
// A Smooth value is written by a control thread (SetTarget, Nudge) and
// consumed by the audio thread (StepTowards) once per block. The critical
// section is a handful of stores, so a control writer can never stall a
// block deadline.
package param

import (
	"fmt"
	"math"
	"sync"
)

// Smooth is a thread-safe target/current pair with clamped linear ramping.
type Smooth struct {
	mu      sync.Mutex
	current float64
	target  float64
	lo      float64
	hi      float64
}

// NewSmooth creates a smoothed parameter with the given initial value and
// bounds. The initial value is clamped into [lo, hi].
func NewSmooth(value, lo, hi float64) (*Smooth, error) {
	if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
		return nil, fmt.Errorf("param bounds must satisfy lo <= hi: [%f, %f]", lo, hi)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("param value must be finite: %f", value)
	}
	v := clamp(value, lo, hi)
	return &Smooth{current: v, target: v, lo: lo, hi: hi}, nil
}

// MustSmooth is like NewSmooth but panics on error. Intended for
// construction-time literals with known-good bounds.
func MustSmooth(value, lo, hi float64) *Smooth {
	s, err := NewSmooth(value, lo, hi)
	if err != nil {
		panic("param: " + err.Error())
	}
	return s
}

// SetTarget clamps v into [lo, hi] and stores it as the new target.
// Out-of-range values are never an error.
func (s *Smooth) SetTarget(v float64) {
	if math.IsNaN(v) {
		return
	}
	s.mu.Lock()
	s.target = clamp(v, s.lo, s.hi)
	s.mu.Unlock()
}

// Nudge adds dv to the current target, then clamps.
func (s *Smooth) Nudge(dv float64) {
	if math.IsNaN(dv) {
		return
	}
	s.mu.Lock()
	s.target = clamp(s.target+dv, s.lo, s.hi)
	s.mu.Unlock()
}

// Target returns the current target value.
func (s *Smooth) Target() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Current returns the current (smoothed) value without advancing it.
func (s *Smooth) Current() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// StepTowards moves current toward target by at most maxStep and returns
// the new current value. Called exactly once per block per parameter from
// the audio thread. A negative maxStep is a programmer error and panics.
func (s *Smooth) StepTowards(maxStep float64) float64 {
	if maxStep < 0 || math.IsNaN(maxStep) {
		panic(fmt.Sprintf("param: max step must be >= 0: %f", maxStep))
	}
	s.mu.Lock()
	delta := s.target - s.current
	if delta > maxStep {
		delta = maxStep
	} else if delta < -maxStep {
		delta = -maxStep
	}
	s.current += delta
	v := s.current
	s.mu.Unlock()
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
