package effectchain

import (
	"testing"

	"github.com/cwbudde/algo-fxchain/dsp/block"
	"github.com/cwbudde/algo-fxchain/internal/testutil"
)

// Runs the full five-effect chain over a couple of seconds of material
// and checks the output stays finite and inside the clip range where
// the chain guarantees it.
func TestFullChainStability(t *testing.T) {
	e, err := NewEngine(48000, 1, 2, 256)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	cfg, err := ParseChainConfig([]byte(allKindsJSON))
	if err != nil {
		t.Fatalf("ParseChainConfig() error = %v", err)
	}
	if err := e.LoadConfig(cfg); err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	const blocks = 400
	sine := testutil.DeterministicSine(220, 48000, 0.5, 256*blocks)
	noise := testutil.DeterministicNoise(42, 0.05, 256*blocks)

	in, _ := block.New(256, 1)
	out, _ := block.New(256, 2)
	for blockIdx := 0; blockIdx < blocks; blockIdx++ {
		for n := 0; n < 256; n++ {
			i := blockIdx*256 + n
			in.SetSample(n, 0, sine[i]+noise[i])
		}
		if err := e.Process(in, out); err != nil {
			t.Fatalf("Process() block %d error = %v", blockIdx, err)
		}
		testutil.RequireFinite(t, out.Data())

		// Live parameter edits mid-stream must not destabilize anything.
		switch blockIdx {
		case 100:
			if err := e.SetParam("rev1", "rt60", 4); err != nil {
				t.Fatalf("SetParam() error = %v", err)
			}
		case 200:
			if err := e.SetParam("dly1", "delay_ms", 125); err != nil {
				t.Fatalf("SetParam() error = %v", err)
			}
		case 300:
			if err := e.SetParam("oct1", "semitones", 12); err != nil {
				t.Fatalf("SetParam() error = %v", err)
			}
		}
	}
}

func BenchmarkFullChainProcess(b *testing.B) {
	e, err := NewEngine(48000, 1, 2, 256)
	if err != nil {
		b.Fatalf("NewEngine() error = %v", err)
	}
	cfg, err := ParseChainConfig([]byte(allKindsJSON))
	if err != nil {
		b.Fatalf("ParseChainConfig() error = %v", err)
	}
	if err := e.LoadConfig(cfg); err != nil {
		b.Fatalf("LoadConfig() error = %v", err)
	}

	sine := testutil.DeterministicSine(220, 48000, 0.5, 256)
	in, _ := block.New(256, 1)
	out, _ := block.New(256, 2)
	for n := 0; n < 256; n++ {
		in.SetSample(n, 0, sine[n])
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := e.Process(in, out); err != nil {
			b.Fatalf("Process() error = %v", err)
		}
	}
}
