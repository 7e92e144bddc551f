package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fxchain/dsp/block"
	"github.com/cwbudde/algo-fxchain/dsp/delay"
	"github.com/cwbudde/algo-fxchain/dsp/param"
	"github.com/cwbudde/algo-vecmath"
)

const (
	defaultReverbAllpassGain = 0.6
	defaultReverbJitterMs    = 0.3
	defaultReverbMaxDelayMs  = 200.0
	defaultReverbMaxPreMs    = 100.0
	defaultReverbMixDry      = 0.7
	defaultReverbMixWet      = 0.5
	defaultReverbRT60        = 1.5
	defaultReverbDamp        = 0.3
	defaultReverbStepSamples = 2.0
	defaultReverbRT60Step    = 0.05
	defaultReverbDampStep    = 0.02

	minReverbRT60 = 0.1
	maxReverbRT60 = 10.0
	maxReverbDamp = 0.99
)

// defaultReverbCombTimesMs and defaultReverbAllpassTimesMs are the base
// line lengths before per-side jitter. Mutually incommensurate comb
// lengths keep the echo density high without periodic flutter.
var (
	defaultReverbCombTimesMs    = []float64{29.7, 37.1, 41.1, 43.7}
	defaultReverbAllpassTimesMs = []float64{5.0, 1.7}
)

// ReverbConfig holds construction parameters for Reverb.
// All fields are explicit; start from DefaultReverbConfig.
type ReverbConfig struct {
	CombTimesMs    []float64 // parallel comb base lengths in ms
	AllpassTimesMs []float64 // serial allpass base lengths in ms
	AllpassGain    float64   // diffuser gain, |a| < 1
	JitterMs       float64   // decorrelating length jitter, +L / -R
	MaxDelayMs     float64   // per-line capacity for combs/allpasses
	MaxPreDelayMs  float64   // pre-delay capacity
	MixDry         float64
	MixWet         float64
	RT60           float64 // initial decay time in seconds
	Damp           float64 // initial HF damping in [0, 0.99]
	PreDelayMs     float64 // initial pre-delay in ms
	StepSamples    float64 // pre-delay ramp in samples per block
	RT60Step       float64 // rt60 ramp per block
	DampStep       float64 // damp ramp per block
}

// DefaultReverbConfig returns practical defaults.
func DefaultReverbConfig() ReverbConfig {
	return ReverbConfig{
		CombTimesMs:    defaultReverbCombTimesMs,
		AllpassTimesMs: defaultReverbAllpassTimesMs,
		AllpassGain:    defaultReverbAllpassGain,
		JitterMs:       defaultReverbJitterMs,
		MaxDelayMs:     defaultReverbMaxDelayMs,
		MaxPreDelayMs:  defaultReverbMaxPreMs,
		MixDry:         defaultReverbMixDry,
		MixWet:         defaultReverbMixWet,
		RT60:           defaultReverbRT60,
		Damp:           defaultReverbDamp,
		PreDelayMs:     0,
		StepSamples:    defaultReverbStepSamples,
		RT60Step:       defaultReverbRT60Step,
		DampStep:       defaultReverbDampStep,
	}
}

// reverbComb is a feedback comb filter with a one-pole lowpass in the
// feedback path modelling high-frequency absorption.
type reverbComb struct {
	buf    []float64
	w      int
	length int
	lp     float64
}

func (c *reverbComb) process(in, out []float64, g, h float64) {
	size := len(c.buf)
	for n := range in {
		r := c.w - c.length
		if r < 0 {
			r += size
		}
		y := c.buf[r]
		damped := (1.0-h)*y + h*c.lp
		c.lp = damped
		out[n] = y
		c.buf[c.w] = in[n] + g*damped
		c.w++
		if c.w >= size {
			c.w = 0
		}
	}
}

// reverbAllpass is a Gardner/Moorer-style unity-gain diffuser.
type reverbAllpass struct {
	buf    []float64
	w      int
	length int
}

func (a *reverbAllpass) process(in, out []float64, gain float64) {
	size := len(a.buf)
	for n := range in {
		r := a.w - a.length
		if r < 0 {
			r += size
		}
		delayed := a.buf[r]
		x := in[n]
		y := delayed - gain*x
		out[n] = y
		a.buf[a.w] = x + gain*y
		a.w++
		if a.w >= size {
			a.w = 0
		}
	}
}

// reverbSide is one channel's pre-delay plus comb bank plus diffuser chain.
type reverbSide struct {
	pre       *delay.Line
	combs     []reverbComb
	allpasses []reverbAllpass
}

// Reverb is a Schroeder/Moorer reverberator: a smoothed pre-delay feeds a
// parallel bank of damped feedback combs whose sum passes through serial
// allpass diffusers. The network is duplicated per stereo side with
// opposite-signed length jitter to decorrelate the channels.
//
// Comb feedback is derived from the target RT60 each block as
// g = 10^(-3*L/fs / rt60), so longer lines decay proportionally faster
// per pass for the same overall decay time.
type Reverb struct {
	combTimesMs    []float64
	allpassTimesMs []float64
	allpassGain    float64
	jitterMs       float64
	maxDelayMs     float64
	maxPreDelayMs  float64
	mixDry         float64
	mixWet         float64

	rt60     *param.Smooth
	damp     *param.Smooth
	preDelay *param.Smooth

	stepSamples float64
	rt60Step    float64
	dampStep    float64
	delayStepMs float64

	sampleRate float64
	left       reverbSide
	right      reverbSide

	xL, xR     []float64
	preL, preR []float64
	sum, tmp   []float64
	gains      []float64
}

// NewReverb creates a reverb. Call Prepare before processing.
func NewReverb(cfg ReverbConfig) (*Reverb, error) {
	if len(cfg.CombTimesMs) == 0 {
		return nil, fmt.Errorf("reverb needs at least one comb time")
	}
	if len(cfg.AllpassTimesMs) == 0 {
		return nil, fmt.Errorf("reverb needs at least one allpass time")
	}
	if math.Abs(cfg.AllpassGain) >= 1 || math.IsNaN(cfg.AllpassGain) {
		return nil, fmt.Errorf("reverb allpass gain must satisfy |a| < 1: %f", cfg.AllpassGain)
	}
	if !finitePositive(cfg.MaxDelayMs) || !finitePositive(cfg.MaxPreDelayMs) {
		return nil, fmt.Errorf("reverb line capacities must be > 0 ms: delay=%f pre=%f",
			cfg.MaxDelayMs, cfg.MaxPreDelayMs)
	}
	if !finitePositive(cfg.StepSamples) || !finitePositive(cfg.RT60Step) || !finitePositive(cfg.DampStep) {
		return nil, fmt.Errorf("reverb smoothing steps must be > 0")
	}

	rt60, err := param.NewSmooth(cfg.RT60, minReverbRT60, maxReverbRT60)
	if err != nil {
		return nil, err
	}
	damp, err := param.NewSmooth(cfg.Damp, 0, maxReverbDamp)
	if err != nil {
		return nil, err
	}
	preDelay, err := param.NewSmooth(cfg.PreDelayMs, 0, cfg.MaxPreDelayMs)
	if err != nil {
		return nil, err
	}

	return &Reverb{
		combTimesMs:    append([]float64(nil), cfg.CombTimesMs...),
		allpassTimesMs: append([]float64(nil), cfg.AllpassTimesMs...),
		allpassGain:    cfg.AllpassGain,
		jitterMs:       cfg.JitterMs,
		maxDelayMs:     cfg.MaxDelayMs,
		maxPreDelayMs:  cfg.MaxPreDelayMs,
		mixDry:         cfg.MixDry,
		mixWet:         cfg.MixWet,
		rt60:           rt60,
		damp:           damp,
		preDelay:       preDelay,
		stepSamples:    cfg.StepSamples,
		rt60Step:       cfg.RT60Step,
		dampStep:       cfg.DampStep,
		delayStepMs:    0.1,
	}, nil
}

// SetRT60 sets the decay time target in seconds.
func (r *Reverb) SetRT60(seconds float64) { r.rt60.SetTarget(seconds) }

// SetDamp sets the high-frequency damping target in [0, 0.99].
func (r *Reverb) SetDamp(v float64) { r.damp.SetTarget(v) }

// SetPreDelayMs sets the pre-delay target in milliseconds.
func (r *Reverb) SetPreDelayMs(ms float64) { r.preDelay.SetTarget(ms) }

// SetMixDry sets the dry gain.
func (r *Reverb) SetMixDry(v float64) { r.mixDry = v }

// SetMixWet sets the wet gain.
func (r *Reverb) SetMixWet(v float64) { r.mixWet = v }

func (r *Reverb) makeSide(fs, jitter float64) (reverbSide, error) {
	var side reverbSide

	pre, err := delay.NewForDuration(fs, r.maxPreDelayMs)
	if err != nil {
		return side, err
	}
	side.pre = pre

	for _, baseMs := range r.combTimesMs {
		ms := math.Min(baseMs+jitter, r.maxDelayMs-1.0)
		length := int(fs * ms / 1000.0)
		if length < 1 {
			length = 1
		}
		side.combs = append(side.combs, reverbComb{
			buf:    make([]float64, length+1),
			length: length,
		})
	}

	for _, baseMs := range r.allpassTimesMs {
		ms := math.Min(baseMs+jitter*0.2, r.maxDelayMs-1.0)
		length := int(fs * ms / 1000.0)
		if length < 1 {
			length = 1
		}
		side.allpasses = append(side.allpasses, reverbAllpass{
			buf:    make([]float64, length+1),
			length: length,
		})
	}

	return side, nil
}

// Prepare builds both per-side networks and block scratch.
func (r *Reverb) Prepare(sampleRate, channelsIn, channelsOut, blockSize int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("reverb sample rate must be > 0: %d", sampleRate)
	}
	if blockSize <= 0 {
		return fmt.Errorf("reverb block size must be > 0: %d", blockSize)
	}

	fs := float64(sampleRate)
	left, err := r.makeSide(fs, +r.jitterMs)
	if err != nil {
		return err
	}
	right, err := r.makeSide(fs, -r.jitterMs)
	if err != nil {
		return err
	}

	r.sampleRate = fs
	r.left = left
	r.right = right
	r.delayStepMs = 1000.0 * r.stepSamples / fs

	r.xL = make([]float64, blockSize)
	r.xR = make([]float64, blockSize)
	r.preL = make([]float64, blockSize)
	r.preR = make([]float64, blockSize)
	r.sum = make([]float64, blockSize)
	r.tmp = make([]float64, blockSize)
	r.gains = make([]float64, len(r.combTimesMs))
	return nil
}

// combGain derives the per-pass feedback from the target RT60:
// g = 10^(-3*L/fs / rt60).
func combGain(lengthSamples int, fs, rt60 float64) float64 {
	return math.Pow(10, -3.0*(float64(lengthSamples)/fs)/math.Max(1e-3, rt60))
}

func (r *Reverb) processSide(side *reverbSide, x, pre []float64, preDS int, g0 []float64, damp float64) []float64 {
	side.pre.ProcessPure(x, pre, preDS)

	block.Zero(r.sum)
	for i := range side.combs {
		side.combs[i].process(pre, r.tmp, g0[i], damp)
		vecmath.AddBlockInPlace(r.sum, r.tmp)
	}

	src, dst := r.sum, r.tmp
	for i := range side.allpasses {
		side.allpasses[i].process(src, dst, r.allpassGain)
		src, dst = dst, src
	}
	return src
}

// ProcessInto runs both reverb sides and mixes dry and wet, hard-clipped.
func (r *Reverb) ProcessInto(in, out *block.Buffer) {
	frames := in.Frames()
	r.xL = block.EnsureLen(r.xL, frames)
	r.xR = block.EnsureLen(r.xR, frames)
	r.preL = block.EnsureLen(r.preL, frames)
	r.preR = block.EnsureLen(r.preR, frames)
	r.sum = block.EnsureLen(r.sum, frames)
	r.tmp = block.EnsureLen(r.tmp, frames)

	rt60Now := r.rt60.StepTowards(r.rt60Step)
	dampNow := r.damp.StepTowards(r.dampStep)
	preMsNow := r.preDelay.StepTowards(r.delayStepMs)
	preDS := int(r.sampleRate * preMsNow / 1000.0)

	rightIn := 0
	if in.Channels() > 1 {
		rightIn = 1
	}
	for n := 0; n < frames; n++ {
		r.xL[n] = in.Sample(n, 0)
		r.xR[n] = in.Sample(n, rightIn)
	}

	// Each side's wet signal aliases the shared scratch, so mix it into
	// the output before running the other side. Per-comb gains differ
	// across sides only by the length jitter.
	for i := range r.left.combs {
		r.gains[i] = combGain(r.left.combs[i].length, r.sampleRate, rt60Now)
	}
	yL := r.processSide(&r.left, r.xL, r.preL, preDS, r.gains, dampNow)
	for n := 0; n < frames; n++ {
		out.SetSample(n, 0, clip(r.mixDry*r.xL[n]+r.mixWet*yL[n]))
	}

	if out.Channels() > 1 {
		for i := range r.right.combs {
			r.gains[i] = combGain(r.right.combs[i].length, r.sampleRate, rt60Now)
		}
		yR := r.processSide(&r.right, r.xR, r.preR, preDS, r.gains, dampNow)
		for n := 0; n < frames; n++ {
			out.SetSample(n, 1, clip(r.mixDry*r.xR[n]+r.mixWet*yR[n]))
		}
	}
}
