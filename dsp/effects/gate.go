package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fxchain/dsp/block"
	"github.com/cwbudde/algo-fxchain/dsp/param"
)

const (
	defaultGateThresholdDB = -45.0
	defaultGateAttackMs    = 5.0
	defaultGateReleaseMs   = 100.0
	defaultGateParamStep   = 1.0

	minGateThresholdDB = -80.0
	maxGateThresholdDB = 0.0
	minGateAttackMs    = 1.0
	maxGateAttackMs    = 500.0
	minGateReleaseMs   = 10.0
	maxGateReleaseMs   = 1000.0
)

// NoiseGateConfig holds construction parameters for NoiseGate.
// All fields are explicit; start from DefaultNoiseGateConfig.
type NoiseGateConfig struct {
	ThresholdDB float64 // open threshold in dBFS, [-80, 0]
	AttackMs    float64 // gain rise time constant in ms
	ReleaseMs   float64 // gain fall time constant in ms
	StepDB      float64 // threshold ramp per block in dB
	StepMs      float64 // attack/release ramp per block in ms
}

// DefaultNoiseGateConfig returns practical defaults.
func DefaultNoiseGateConfig() NoiseGateConfig {
	return NoiseGateConfig{
		ThresholdDB: defaultGateThresholdDB,
		AttackMs:    defaultGateAttackMs,
		ReleaseMs:   defaultGateReleaseMs,
		StepDB:      defaultGateParamStep,
		StepMs:      defaultGateParamStep,
	}
}

// NoiseGate is a downward expander with a hard open/closed decision.
// Detection is stereo-linked: the per-frame peak across channels drives
// a single gain envelope applied to every channel, so the stereo image
// never wanders as the gate moves.
//
// The envelope is a one-pole smoother whose coefficient follows the
// 10%-to-90% convention, coeff = 1 - exp(-2.2 / (t * fs)).
type NoiseGate struct {
	thresholdDB *param.Smooth
	attackMs    *param.Smooth
	releaseMs   *param.Smooth

	stepDB float64
	stepMs float64

	sampleRate float64
	gain       float64
}

// NewNoiseGate creates a noise gate. Call Prepare before processing.
func NewNoiseGate(cfg NoiseGateConfig) (*NoiseGate, error) {
	if !finitePositive(cfg.StepDB) || !finitePositive(cfg.StepMs) {
		return nil, fmt.Errorf("noise gate smoothing steps must be > 0: db=%f ms=%f",
			cfg.StepDB, cfg.StepMs)
	}

	thresholdDB, err := param.NewSmooth(cfg.ThresholdDB, minGateThresholdDB, maxGateThresholdDB)
	if err != nil {
		return nil, err
	}
	attackMs, err := param.NewSmooth(cfg.AttackMs, minGateAttackMs, maxGateAttackMs)
	if err != nil {
		return nil, err
	}
	releaseMs, err := param.NewSmooth(cfg.ReleaseMs, minGateReleaseMs, maxGateReleaseMs)
	if err != nil {
		return nil, err
	}

	return &NoiseGate{
		thresholdDB: thresholdDB,
		attackMs:    attackMs,
		releaseMs:   releaseMs,
		stepDB:      cfg.StepDB,
		stepMs:      cfg.StepMs,
	}, nil
}

// SetThresholdDB sets the open threshold target in dBFS.
func (g *NoiseGate) SetThresholdDB(db float64) { g.thresholdDB.SetTarget(db) }

// SetAttackMs sets the attack time target in milliseconds.
func (g *NoiseGate) SetAttackMs(ms float64) { g.attackMs.SetTarget(ms) }

// SetReleaseMs sets the release time target in milliseconds.
func (g *NoiseGate) SetReleaseMs(ms float64) { g.releaseMs.SetTarget(ms) }

// Prepare records the stream format and closes the gate. The gain
// envelope starts at zero so leading noise never leaks.
func (g *NoiseGate) Prepare(sampleRate, channelsIn, channelsOut, blockSize int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("noise gate sample rate must be > 0: %d", sampleRate)
	}
	if blockSize <= 0 {
		return fmt.Errorf("noise gate block size must be > 0: %d", blockSize)
	}
	g.sampleRate = float64(sampleRate)
	g.gain = 0
	return nil
}

// envelopeCoeff maps a time constant in ms to a one-pole coefficient
// for the 10-90% rise convention.
func envelopeCoeff(tMs, fs float64) float64 {
	return 1.0 - math.Exp(-2.2/(tMs*1e-3*fs))
}

// ProcessInto applies the gate. Channels beyond the input count receive
// the gated first channel.
func (g *NoiseGate) ProcessInto(in, out *block.Buffer) {
	thrNow := g.thresholdDB.StepTowards(g.stepDB)
	atkNow := g.attackMs.StepTowards(g.stepMs)
	relNow := g.releaseMs.StepTowards(g.stepMs)

	threshold := dbToLinear(thrNow)
	atkCoeff := envelopeCoeff(atkNow, g.sampleRate)
	relCoeff := envelopeCoeff(relNow, g.sampleRate)

	frames := in.Frames()
	chIn := in.Channels()
	chOut := out.Channels()
	gain := g.gain

	for n := 0; n < frames; n++ {
		peak := 0.0
		for c := 0; c < chIn; c++ {
			if v := math.Abs(in.Sample(n, c)); v > peak {
				peak = v
			}
		}

		target := 0.0
		if peak >= threshold {
			target = 1.0
		}
		if target > gain {
			gain += atkCoeff * (target - gain)
		} else {
			gain += relCoeff * (target - gain)
		}

		for c := 0; c < chOut; c++ {
			src := c
			if src >= chIn {
				src = 0
			}
			out.SetSample(n, c, gain*in.Sample(n, src))
		}
	}

	g.gain = gain
}
