package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fxchain/dsp/block"
	"github.com/cwbudde/algo-fxchain/dsp/delay"
	"github.com/cwbudde/algo-fxchain/dsp/param"
)

const (
	defaultOctaverSemitones = -12.0
	defaultOctaverMix       = 0.5
	defaultOctaverWindowMs  = 60.0
	defaultOctaverSemiStep  = 0.5
	defaultOctaverMixStep   = 0.05

	minOctaverSemitones = -24.0
	maxOctaverSemitones = 24.0
	minOctaverGrainSize = 4
)

// OctaverConfig holds construction parameters for Octaver.
// All fields are explicit; start from DefaultOctaverConfig.
type OctaverConfig struct {
	Semitones float64 // initial pitch shift, [-24, 24]
	Mix       float64 // initial wet mix, [0, 1]
	WindowMs  float64 // grain window length in ms
	SemiStep  float64 // semitone ramp per block
	MixStep   float64 // mix ramp per block
}

// DefaultOctaverConfig returns practical defaults. A 60 ms window is a
// reasonable middle ground; longer windows smear transients, shorter
// ones sound metallic.
func DefaultOctaverConfig() OctaverConfig {
	return OctaverConfig{
		Semitones: defaultOctaverSemitones,
		Mix:       defaultOctaverMix,
		WindowMs:  defaultOctaverWindowMs,
		SemiStep:  defaultOctaverSemiStep,
		MixStep:   defaultOctaverMixStep,
	}
}

// Octaver is a granular pitch shifter built on a single delay line with
// two crossfaded read taps half a window apart. A phasor in [0, 1)
// tracks the read window's position behind the write head and advances
// by (1 - ratio)/size per sample, so the taps sweep through the buffer
// at the pitch ratio 2^(semitones/12).
//
// Each tap is gated by a raised-cosine of its own phase,
// 0.5 * (1 - cos(2*pi*p)), which reaches zero exactly where the tap
// wraps, and taps read with cubic Hermite interpolation so fractional
// sweep rates stay smooth.
//
// The wet path is a mono mix; the dry path keeps the per-channel image.
type Octaver struct {
	semitones *param.Smooth
	mix       *param.Smooth

	semiStep float64
	mixStep  float64
	windowMs float64

	line   *delay.Line
	size   int
	phasor float64

	monoIn []float64
	wet    []float64
}

// NewOctaver creates an octaver. Call Prepare before processing.
func NewOctaver(cfg OctaverConfig) (*Octaver, error) {
	if !finitePositive(cfg.WindowMs) {
		return nil, fmt.Errorf("octaver window must be > 0 ms: %f", cfg.WindowMs)
	}
	if !finitePositive(cfg.SemiStep) || !finitePositive(cfg.MixStep) {
		return nil, fmt.Errorf("octaver smoothing steps must be > 0: semi=%f mix=%f",
			cfg.SemiStep, cfg.MixStep)
	}

	semitones, err := param.NewSmooth(cfg.Semitones, minOctaverSemitones, maxOctaverSemitones)
	if err != nil {
		return nil, err
	}
	mix, err := param.NewSmooth(cfg.Mix, 0, 1)
	if err != nil {
		return nil, err
	}

	return &Octaver{
		semitones: semitones,
		mix:       mix,
		semiStep:  cfg.SemiStep,
		mixStep:   cfg.MixStep,
		windowMs:  cfg.WindowMs,
	}, nil
}

// SetSemitones sets the pitch shift target in semitones.
func (o *Octaver) SetSemitones(v float64) { o.semitones.SetTarget(v) }

// SetMix sets the wet mix target in [0, 1].
func (o *Octaver) SetMix(v float64) { o.mix.SetTarget(v) }

// Prepare sizes the grain buffer from the window length. A size change
// clears the line and rewinds the phasor.
func (o *Octaver) Prepare(sampleRate, channelsIn, channelsOut, blockSize int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("octaver sample rate must be > 0: %d", sampleRate)
	}
	if blockSize <= 0 {
		return fmt.Errorf("octaver block size must be > 0: %d", blockSize)
	}

	size := int(float64(sampleRate) * o.windowMs / 1000.0)
	if size < minOctaverGrainSize {
		size = minOctaverGrainSize
	}
	if size != o.size {
		line, err := delay.New(size)
		if err != nil {
			return err
		}
		o.line = line
		o.size = size
		o.phasor = 0
	}

	o.monoIn = make([]float64, blockSize)
	o.wet = make([]float64, blockSize)
	return nil
}

// grainGain is a raised cosine of the tap phase, zero at the wrap point.
func grainGain(p float64) float64 {
	return 0.5 * (1.0 - math.Cos(2.0*math.Pi*p))
}

// ProcessInto writes the pitch-shifted mono wet signal against the
// untouched dry signal on every output channel.
func (o *Octaver) ProcessInto(in, out *block.Buffer) {
	frames := in.Frames()
	o.monoIn = block.EnsureLen(o.monoIn, frames)
	o.wet = block.EnsureLen(o.wet, frames)

	semiNow := o.semitones.StepTowards(o.semiStep)
	mixNow := o.mix.StepTowards(o.mixStep)

	ratio := math.Pow(2, semiNow/12.0)
	step := (1.0 - ratio) / float64(o.size)
	sizeF := float64(o.size)

	in.MixToMono(o.monoIn)

	p := o.phasor
	for n := 0; n < frames; n++ {
		o.line.Write(o.monoIn[n])

		p2 := p + 0.5
		if p2 >= 1.0 {
			p2 -= 1.0
		}

		// The just-written sample sits at delay 1, so a phase of zero
		// maps to that sample rather than the stale slot at delay 0.
		s1 := o.line.ReadFractional(p*sizeF + 1.0)
		s2 := o.line.ReadFractional(p2*sizeF + 1.0)
		o.wet[n] = s1*grainGain(p) + s2*grainGain(p2)

		p += step
		if p >= 1.0 {
			p -= 1.0
		} else if p < 0.0 {
			p += 1.0
		}
	}
	o.phasor = p

	chIn := in.Channels()
	for n := 0; n < frames; n++ {
		for c := 0; c < out.Channels(); c++ {
			src := c
			if src >= chIn {
				src = 0
			}
			out.SetSample(n, c, (1.0-mixNow)*in.Sample(n, src)+mixNow*o.wet[n])
		}
	}
}
