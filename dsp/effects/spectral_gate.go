package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fxchain/dsp/block"
	"github.com/cwbudde/algo-fxchain/dsp/param"
	"github.com/cwbudde/algo-fxchain/dsp/window"
	algofft "github.com/cwbudde/algo-fft"
)

const (
	defaultSpectralThresholdDB = -40.0
	defaultSpectralReduction   = 0.5
	defaultSpectralSmoothing   = 0.8
	defaultSpectralStepDB      = 1.0
	defaultSpectralStepRed     = 0.05

	minSpectralThresholdDB = -80.0
	maxSpectralThresholdDB = 0.0
)

// SpectralGateConfig holds construction parameters for SpectralGate.
// All fields are explicit; start from DefaultSpectralGateConfig.
type SpectralGateConfig struct {
	ThresholdDB float64 // per-bin magnitude threshold in dBFS
	Reduction   float64 // gain for bins below threshold, [0, 1]
	Smoothing   float64 // temporal mask smoothing in [0, 1)
	StepDB      float64 // threshold ramp per block in dB
	StepRed     float64 // reduction ramp per block
}

// DefaultSpectralGateConfig returns practical defaults.
func DefaultSpectralGateConfig() SpectralGateConfig {
	return SpectralGateConfig{
		ThresholdDB: defaultSpectralThresholdDB,
		Reduction:   defaultSpectralReduction,
		Smoothing:   defaultSpectralSmoothing,
		StepDB:      defaultSpectralStepDB,
		StepRed:     defaultSpectralStepRed,
	}
}

// SpectralGate attenuates quiet frequency bins, an STFT noise gate.
// It analyses a mono mix of the input with a 50% overlap STFT
// (nFFT = 2 * block size, hop = block size, Hann analysis window),
// gates each bin against a linear magnitude threshold, smooths the
// per-bin mask across frames to avoid watery artifacts, and
// overlap-adds the result.
//
// Overlap-add deliberately applies no synthesis window. Reconstruction
// gain therefore deviates from unity, and the threshold calibration
// assumes that; adding a synthesis window would change both.
//
// The gated mono signal is written to every output channel.
type SpectralGate struct {
	thresholdDB *param.Smooth
	reduction   *param.Smooth
	smoothing   float64

	stepDB  float64
	stepRed float64

	sampleRate int
	blockSize  int
	nFFT       int
	plan       *algofft.Plan[complex128]

	windowCoeffs []float64
	inBuffer     []float64
	outAccum     []float64
	maskSmooth   []float64
	monoIn       []float64
	frame        []complex128
	timeFrame    []complex128
}

// NewSpectralGate creates a spectral gate. Call Prepare before processing.
func NewSpectralGate(cfg SpectralGateConfig) (*SpectralGate, error) {
	if cfg.Smoothing < 0 || cfg.Smoothing >= 1 || math.IsNaN(cfg.Smoothing) {
		return nil, fmt.Errorf("spectral gate smoothing must be in [0, 1): %f", cfg.Smoothing)
	}
	if !finitePositive(cfg.StepDB) || !finitePositive(cfg.StepRed) {
		return nil, fmt.Errorf("spectral gate smoothing steps must be > 0: db=%f red=%f",
			cfg.StepDB, cfg.StepRed)
	}

	thresholdDB, err := param.NewSmooth(cfg.ThresholdDB, minSpectralThresholdDB, maxSpectralThresholdDB)
	if err != nil {
		return nil, err
	}
	reduction, err := param.NewSmooth(cfg.Reduction, 0, 1)
	if err != nil {
		return nil, err
	}

	return &SpectralGate{
		thresholdDB: thresholdDB,
		reduction:   reduction,
		smoothing:   cfg.Smoothing,
		stepDB:      cfg.StepDB,
		stepRed:     cfg.StepRed,
	}, nil
}

// SetThresholdDB sets the bin threshold target in dBFS.
func (s *SpectralGate) SetThresholdDB(db float64) { s.thresholdDB.SetTarget(db) }

// SetReduction sets the below-threshold gain target in [0, 1].
func (s *SpectralGate) SetReduction(v float64) { s.reduction.SetTarget(v) }

// Prepare builds the FFT plan and STFT buffers for the block size.
// The analysis frame spans two blocks; a block-size change rebuilds
// everything and clears history.
func (s *SpectralGate) Prepare(sampleRate, channelsIn, channelsOut, blockSize int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("spectral gate sample rate must be > 0: %d", sampleRate)
	}
	if blockSize <= 0 || blockSize&(blockSize-1) != 0 {
		return fmt.Errorf("spectral gate block size must be a power of two: %d", blockSize)
	}

	nFFT := 2 * blockSize
	plan, err := algofft.NewPlan64(nFFT)
	if err != nil {
		return fmt.Errorf("spectral gate: failed to create FFT plan: %w", err)
	}

	s.sampleRate = sampleRate
	s.blockSize = blockSize
	s.nFFT = nFFT
	s.plan = plan
	s.windowCoeffs = window.Generate(window.TypeHann, nFFT, window.WithPeriodic())
	s.inBuffer = make([]float64, nFFT)
	s.outAccum = make([]float64, nFFT)
	s.monoIn = make([]float64, blockSize)
	s.frame = make([]complex128, nFFT)
	s.timeFrame = make([]complex128, nFFT)

	// The mask starts fully open so the first frames pass unattenuated.
	s.maskSmooth = make([]float64, nFFT/2+1)
	for i := range s.maskSmooth {
		s.maskSmooth[i] = 1
	}
	return nil
}

// ProcessInto runs one STFT hop. If an FFT call fails the input block
// is copied through untouched.
func (s *SpectralGate) ProcessInto(in, out *block.Buffer) {
	frames := in.Frames()
	if frames != s.blockSize {
		if err := s.Prepare(s.sampleRate, in.Channels(), out.Channels(), frames); err != nil {
			copyThrough(in, out)
			return
		}
	}

	thrNow := s.thresholdDB.StepTowards(s.stepDB)
	redNow := s.reduction.StepTowards(s.stepRed)
	threshold := dbToLinear(thrNow)

	hop := s.blockSize
	copy(s.inBuffer, s.inBuffer[hop:])
	in.MixToMono(s.monoIn)
	copy(s.inBuffer[s.nFFT-hop:], s.monoIn)

	for i := 0; i < s.nFFT; i++ {
		s.frame[i] = complex(s.inBuffer[i]*s.windowCoeffs[i], 0)
	}
	if err := s.plan.Forward(s.frame, s.frame); err != nil {
		copyThrough(in, out)
		return
	}

	half := s.nFFT / 2
	for k := 0; k <= half; k++ {
		mag := math.Hypot(real(s.frame[k]), imag(s.frame[k]))
		raw := redNow
		if mag > threshold {
			raw = 1
		}
		m := s.smoothing*s.maskSmooth[k] + (1-s.smoothing)*raw
		s.maskSmooth[k] = m
		s.frame[k] = complex(m*real(s.frame[k]), m*imag(s.frame[k]))
	}
	s.frame[0] = complex(real(s.frame[0]), 0)
	s.frame[half] = complex(real(s.frame[half]), 0)
	for k := 1; k < half; k++ {
		v := s.frame[k]
		s.frame[s.nFFT-k] = complex(real(v), -imag(v))
	}

	if err := s.plan.Inverse(s.timeFrame, s.frame); err != nil {
		copyThrough(in, out)
		return
	}

	for i := 0; i < s.nFFT; i++ {
		s.outAccum[i] += real(s.timeFrame[i])
	}

	for n := 0; n < hop; n++ {
		v := s.outAccum[n]
		for c := 0; c < out.Channels(); c++ {
			out.SetSample(n, c, v)
		}
	}

	copy(s.outAccum, s.outAccum[hop:])
	for i := s.nFFT - hop; i < s.nFFT; i++ {
		s.outAccum[i] = 0
	}
}

func copyThrough(in, out *block.Buffer) {
	chIn := in.Channels()
	for n := 0; n < in.Frames(); n++ {
		for c := 0; c < out.Channels(); c++ {
			src := c
			if src >= chIn {
				src = 0
			}
			out.SetSample(n, c, in.Sample(n, src))
		}
	}
}
