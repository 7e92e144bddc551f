package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fxchain/dsp/block"
	"github.com/cwbudde/algo-fxchain/dsp/delay"
	"github.com/cwbudde/algo-fxchain/dsp/param"
)

const (
	defaultDelayMaxMs       = 1500.0
	defaultDelayTimeMs      = 375.0
	defaultDelayFeedback    = 0.2
	defaultDelayOffsetMs    = 30.0
	defaultDelayMixDry      = 0.8
	defaultDelayMixWet      = 0.8
	defaultDelayFbStep      = 0.02
	defaultDelayStepSamples = 2.0

	maxDelayFeedback = 0.95
)

// StereoDelayConfig holds construction parameters for StereoDelay.
// All fields are explicit; start from DefaultStereoDelayConfig.
type StereoDelayConfig struct {
	MaxDelayMs   float64 // delay line capacity in ms
	DelayMs      float64 // initial left delay in ms
	Feedback     float64 // initial feedback in [0, 0.95]
	OffsetMs     float64 // fixed right-channel offset in ms
	MixDry       float64 // dry gain
	MixWet       float64 // wet gain
	FeedbackStep float64 // feedback ramp per block
	StepSamples  float64 // delay ramp in samples per block
}

// DefaultStereoDelayConfig returns practical defaults.
func DefaultStereoDelayConfig() StereoDelayConfig {
	return StereoDelayConfig{
		MaxDelayMs:   defaultDelayMaxMs,
		DelayMs:      defaultDelayTimeMs,
		Feedback:     defaultDelayFeedback,
		OffsetMs:     defaultDelayOffsetMs,
		MixDry:       defaultDelayMixDry,
		MixWet:       defaultDelayMixWet,
		FeedbackStep: defaultDelayFbStep,
		StepSamples:  defaultDelayStepSamples,
	}
}

// StereoDelay is a mono-in/stereo-out (or stereo-through) feedback delay
// with independent left/right lines. The right line reads at the left
// delay plus a fixed offset for stereo width. Mix is dry + wet inside
// the effect, hard-clipped to [-1, 1].
type StereoDelay struct {
	maxDelayMs float64
	offsetMs   float64
	mixDry     float64
	mixWet     float64

	delayMs  *param.Smooth
	feedback *param.Smooth

	fbStep      float64
	stepSamples float64
	delayStepMs float64

	sampleRate float64
	lineL      *delay.Line
	lineR      *delay.Line

	xL, xR     []float64
	wetL, wetR []float64
}

// NewStereoDelay creates a stereo delay. Call Prepare before processing.
func NewStereoDelay(cfg StereoDelayConfig) (*StereoDelay, error) {
	if !finitePositive(cfg.MaxDelayMs) || cfg.MaxDelayMs <= 2 {
		return nil, fmt.Errorf("stereo delay max delay must be > 2 ms: %f", cfg.MaxDelayMs)
	}
	if cfg.OffsetMs < 0 || math.IsNaN(cfg.OffsetMs) || math.IsInf(cfg.OffsetMs, 0) {
		return nil, fmt.Errorf("stereo delay offset must be >= 0 ms: %f", cfg.OffsetMs)
	}
	if !finitePositive(cfg.FeedbackStep) || !finitePositive(cfg.StepSamples) {
		return nil, fmt.Errorf("stereo delay smoothing steps must be > 0: fb=%f samples=%f",
			cfg.FeedbackStep, cfg.StepSamples)
	}

	delayMs, err := param.NewSmooth(cfg.DelayMs, 1.0, cfg.MaxDelayMs-1.0)
	if err != nil {
		return nil, err
	}
	feedback, err := param.NewSmooth(cfg.Feedback, 0, maxDelayFeedback)
	if err != nil {
		return nil, err
	}

	return &StereoDelay{
		maxDelayMs:  cfg.MaxDelayMs,
		offsetMs:    cfg.OffsetMs,
		mixDry:      cfg.MixDry,
		mixWet:      cfg.MixWet,
		delayMs:     delayMs,
		feedback:    feedback,
		fbStep:      cfg.FeedbackStep,
		stepSamples: cfg.StepSamples,
		delayStepMs: 0.1,
	}, nil
}

// SetDelayMs sets the left-channel delay target in milliseconds.
func (d *StereoDelay) SetDelayMs(v float64) { d.delayMs.SetTarget(v) }

// NudgeDelayMs adds dv to the delay target.
func (d *StereoDelay) NudgeDelayMs(dv float64) { d.delayMs.Nudge(dv) }

// SetFeedback sets the feedback target in [0, 0.95].
func (d *StereoDelay) SetFeedback(v float64) { d.feedback.SetTarget(v) }

// SetMixDry sets the dry gain.
func (d *StereoDelay) SetMixDry(v float64) { d.mixDry = v }

// SetMixWet sets the wet gain.
func (d *StereoDelay) SetMixWet(v float64) { d.mixWet = v }

// Prepare allocates both delay lines and block scratch for the given
// stream format.
func (d *StereoDelay) Prepare(sampleRate, channelsIn, channelsOut, blockSize int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("stereo delay sample rate must be > 0: %d", sampleRate)
	}
	if blockSize <= 0 {
		return fmt.Errorf("stereo delay block size must be > 0: %d", blockSize)
	}

	fs := float64(sampleRate)
	lineL, err := delay.NewForDuration(fs, d.maxDelayMs)
	if err != nil {
		return err
	}
	lineR, err := delay.NewForDuration(fs, d.maxDelayMs)
	if err != nil {
		return err
	}

	d.sampleRate = fs
	d.lineL = lineL
	d.lineR = lineR
	d.delayStepMs = 1000.0 * d.stepSamples / fs
	d.xL = make([]float64, blockSize)
	d.xR = make([]float64, blockSize)
	d.wetL = make([]float64, blockSize)
	d.wetR = make([]float64, blockSize)
	return nil
}

// ProcessInto applies the delay. The input is expected in the chain's
// working layout; with a mono working layout the right line is fed the
// same channel.
func (d *StereoDelay) ProcessInto(in, out *block.Buffer) {
	frames := in.Frames()
	d.xL = block.EnsureLen(d.xL, frames)
	d.xR = block.EnsureLen(d.xR, frames)
	d.wetL = block.EnsureLen(d.wetL, frames)
	d.wetR = block.EnsureLen(d.wetR, frames)

	dLNow := d.delayMs.StepTowards(d.delayStepMs)
	fbNow := d.feedback.StepTowards(d.fbStep)
	dRNow := math.Min(dLNow+d.offsetMs, d.maxDelayMs-1.0)

	rightIn := 0
	if in.Channels() > 1 {
		rightIn = 1
	}
	for n := 0; n < frames; n++ {
		d.xL[n] = in.Sample(n, 0)
		d.xR[n] = in.Sample(n, rightIn)
	}

	dSL := int(d.sampleRate * dLNow / 1000.0)
	dSR := int(d.sampleRate * dRNow / 1000.0)
	d.lineL.ProcessFeedback(d.xL, d.wetL, dSL, fbNow)
	d.lineR.ProcessFeedback(d.xR, d.wetR, dSR, fbNow)

	for n := 0; n < frames; n++ {
		out.SetSample(n, 0, clip(d.mixDry*d.xL[n]+d.mixWet*d.wetL[n]))
		if out.Channels() > 1 {
			out.SetSample(n, 1, clip(d.mixDry*d.xR[n]+d.mixWet*d.wetR[n]))
		}
	}
}
