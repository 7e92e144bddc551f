package effectchain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cwbudde/algo-fxchain/dsp/effects"
)

// ErrUnknownKind is returned when a Node carries a Kind outside the
// closed set.
var ErrUnknownKind = errors.New("unknown effect kind")

// Kind enumerates the closed set of chain effect types.
type Kind int

const (
	KindStereoDelay Kind = iota
	KindReverb
	KindNoiseGate
	KindSpectralGate
	KindOctaver
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindStereoDelay:
		return "stereo_delay"
	case KindReverb:
		return "reverb"
	case KindNoiseGate:
		return "noise_gate"
	case KindSpectralGate:
		return "spectral_gate"
	case KindOctaver:
		return "octaver"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// kindFromString maps a wire name to a Kind. The second return is false
// for names outside the closed set.
func kindFromString(s string) (Kind, bool) {
	switch s {
	case "stereo_delay":
		return KindStereoDelay, true
	case "reverb":
		return KindReverb, true
	case "noise_gate":
		return KindNoiseGate, true
	case "spectral_gate":
		return KindSpectralGate, true
	case "octaver":
		return KindOctaver, true
	default:
		return 0, false
	}
}

// Node is one chain entry: an id for parameter routing plus exactly one
// populated per-kind config selected by Kind.
type Node struct {
	ID   string
	Kind Kind

	StereoDelay  effects.StereoDelayConfig
	Reverb       effects.ReverbConfig
	NoiseGate    effects.NoiseGateConfig
	SpectralGate effects.SpectralGateConfig
	Octaver      effects.OctaverConfig
}

// ChainConfig is an ordered effect list.
type ChainConfig struct {
	Nodes []Node
}

// nodeRecord is the JSON wire form: {"id": ..., "type": ..., "params": {...}}.
type nodeRecord struct {
	ID     string             `json:"id"`
	Type   string             `json:"type"`
	Params map[string]float64 `json:"params"`
}

type chainRecord struct {
	Effects []nodeRecord `json:"effects"`
}

// ParseChainConfig parses a JSON chain description. Records with a type
// outside the closed set are skipped, so configs written for newer
// builds degrade instead of failing. Parameters start from each kind's
// defaults and named params override individual fields; unknown param
// keys are an error since a typo would otherwise silently do nothing.
func ParseChainConfig(data []byte) (ChainConfig, error) {
	var rec chainRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return ChainConfig{}, fmt.Errorf("chain config: %w", err)
	}

	var cfg ChainConfig
	for i, nr := range rec.Effects {
		kind, ok := kindFromString(nr.Type)
		if !ok {
			continue
		}
		if nr.ID == "" {
			return ChainConfig{}, fmt.Errorf("chain config: effect %d (%s) has no id", i, nr.Type)
		}

		node := Node{ID: nr.ID, Kind: kind}
		if err := node.applyParams(nr.Params); err != nil {
			return ChainConfig{}, fmt.Errorf("chain config: effect %q: %w", nr.ID, err)
		}
		cfg.Nodes = append(cfg.Nodes, node)
	}
	return cfg, nil
}

// applyParams fills the node's per-kind config from defaults and then
// overrides the named fields.
func (n *Node) applyParams(params map[string]float64) error {
	switch n.Kind {
	case KindStereoDelay:
		cfg := effects.DefaultStereoDelayConfig()
		for key, v := range params {
			switch key {
			case "max_delay_ms":
				cfg.MaxDelayMs = v
			case "delay_ms":
				cfg.DelayMs = v
			case "feedback":
				cfg.Feedback = v
			case "offset_ms":
				cfg.OffsetMs = v
			case "mix_dry":
				cfg.MixDry = v
			case "mix_wet":
				cfg.MixWet = v
			default:
				return fmt.Errorf("unknown stereo_delay param %q", key)
			}
		}
		n.StereoDelay = cfg

	case KindReverb:
		cfg := effects.DefaultReverbConfig()
		for key, v := range params {
			switch key {
			case "rt60":
				cfg.RT60 = v
			case "damp":
				cfg.Damp = v
			case "pre_delay_ms":
				cfg.PreDelayMs = v
			case "mix_dry":
				cfg.MixDry = v
			case "mix_wet":
				cfg.MixWet = v
			default:
				return fmt.Errorf("unknown reverb param %q", key)
			}
		}
		n.Reverb = cfg

	case KindNoiseGate:
		cfg := effects.DefaultNoiseGateConfig()
		for key, v := range params {
			switch key {
			case "threshold_db":
				cfg.ThresholdDB = v
			case "attack_ms":
				cfg.AttackMs = v
			case "release_ms":
				cfg.ReleaseMs = v
			default:
				return fmt.Errorf("unknown noise_gate param %q", key)
			}
		}
		n.NoiseGate = cfg

	case KindSpectralGate:
		cfg := effects.DefaultSpectralGateConfig()
		for key, v := range params {
			switch key {
			case "threshold_db":
				cfg.ThresholdDB = v
			case "reduction":
				cfg.Reduction = v
			case "smoothing":
				cfg.Smoothing = v
			default:
				return fmt.Errorf("unknown spectral_gate param %q", key)
			}
		}
		n.SpectralGate = cfg

	case KindOctaver:
		cfg := effects.DefaultOctaverConfig()
		for key, v := range params {
			switch key {
			case "semitones":
				cfg.Semitones = v
			case "mix":
				cfg.Mix = v
			case "window_ms":
				cfg.WindowMs = v
			default:
				return fmt.Errorf("unknown octaver param %q", key)
			}
		}
		n.Octaver = cfg

	default:
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(n.Kind))
	}
	return nil
}

// buildNode constructs the effect for a node and its parameter bindings.
// The switch is exhaustive over the closed kind set.
func buildNode(n Node) (Effect, map[string]func(float64), error) {
	switch n.Kind {
	case KindStereoDelay:
		e, err := effects.NewStereoDelay(n.StereoDelay)
		if err != nil {
			return nil, nil, err
		}
		return e, map[string]func(float64){
			"delay_ms": e.SetDelayMs,
			"feedback": e.SetFeedback,
			"mix_dry":  e.SetMixDry,
			"mix_wet":  e.SetMixWet,
		}, nil

	case KindReverb:
		e, err := effects.NewReverb(n.Reverb)
		if err != nil {
			return nil, nil, err
		}
		return e, map[string]func(float64){
			"rt60":         e.SetRT60,
			"damp":         e.SetDamp,
			"pre_delay_ms": e.SetPreDelayMs,
			"mix_dry":      e.SetMixDry,
			"mix_wet":      e.SetMixWet,
		}, nil

	case KindNoiseGate:
		e, err := effects.NewNoiseGate(n.NoiseGate)
		if err != nil {
			return nil, nil, err
		}
		return e, map[string]func(float64){
			"threshold_db": e.SetThresholdDB,
			"attack_ms":    e.SetAttackMs,
			"release_ms":   e.SetReleaseMs,
		}, nil

	case KindSpectralGate:
		e, err := effects.NewSpectralGate(n.SpectralGate)
		if err != nil {
			return nil, nil, err
		}
		return e, map[string]func(float64){
			"threshold_db": e.SetThresholdDB,
			"reduction":    e.SetReduction,
		}, nil

	case KindOctaver:
		e, err := effects.NewOctaver(n.Octaver)
		if err != nil {
			return nil, nil, err
		}
		return e, map[string]func(float64){
			"semitones": e.SetSemitones,
			"mix":       e.SetMix,
		}, nil

	default:
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(n.Kind))
	}
}
