package effectchain

import (
	"errors"
	"sync"
	"testing"

	"github.com/cwbudde/algo-fxchain/dsp/block"
	"github.com/cwbudde/algo-fxchain/internal/testutil"
)

func mustEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(48000, 1, 2, 256)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func TestEngineEmptyChainPassesThrough(t *testing.T) {
	e := mustEngine(t)

	in, err := block.New(256, 1)
	if err != nil {
		t.Fatalf("block.New() error = %v", err)
	}
	out, err := block.New(256, 2)
	if err != nil {
		t.Fatalf("block.New() error = %v", err)
	}
	for n := 0; n < 256; n++ {
		in.SetSample(n, 0, float64(n)/256)
	}
	if err := e.Process(in, out); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	for n := 0; n < 256; n++ {
		want := in.Sample(n, 0)
		if out.Sample(n, 0) != want || out.Sample(n, 1) != want {
			t.Fatalf("frame %d not duplicated", n)
		}
	}
}

func TestEngineLoadConfigPublishesNewChain(t *testing.T) {
	e := mustEngine(t)
	if got := e.ChainLen(); got != 0 {
		t.Fatalf("initial ChainLen() = %d, want 0", got)
	}

	cfg, err := ParseChainConfig([]byte(allKindsJSON))
	if err != nil {
		t.Fatalf("ParseChainConfig() error = %v", err)
	}
	if err := e.LoadConfig(cfg); err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if got := e.ChainLen(); got != 5 {
		t.Fatalf("ChainLen() = %d, want 5", got)
	}

	ctrl := e.Controller()
	wantIDs := []string{"dly1", "gate1", "oct1", "rev1", "spec1"}
	gotIDs := ctrl.IDs()
	if len(gotIDs) != len(wantIDs) {
		t.Fatalf("IDs() = %v, want %v", gotIDs, wantIDs)
	}
	for i := range wantIDs {
		if gotIDs[i] != wantIDs[i] {
			t.Fatalf("IDs() = %v, want %v", gotIDs, wantIDs)
		}
	}
}

func TestEngineRejectsDuplicateIDs(t *testing.T) {
	e := mustEngine(t)
	data := []byte(`{"effects": [
		{"id": "fx", "type": "reverb", "params": {}},
		{"id": "fx", "type": "octaver", "params": {}}
	]}`)
	cfg, err := ParseChainConfig(data)
	if err != nil {
		t.Fatalf("ParseChainConfig() error = %v", err)
	}
	if err := e.LoadConfig(cfg); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("LoadConfig() error = %v, want ErrDuplicateID", err)
	}

	// The previous (empty) chain must survive the failed rebuild.
	if got := e.ChainLen(); got != 0 {
		t.Fatalf("ChainLen() after failed load = %d, want 0", got)
	}
}

func TestEngineSetParamRouting(t *testing.T) {
	e := mustEngine(t)
	cfg, err := ParseChainConfig([]byte(
		`{"effects": [{"id": "dly", "type": "stereo_delay", "params": {}}]}`))
	if err != nil {
		t.Fatalf("ParseChainConfig() error = %v", err)
	}
	if err := e.LoadConfig(cfg); err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if err := e.SetParam("dly", "feedback", 0.5); err != nil {
		t.Fatalf("SetParam() error = %v", err)
	}
	if err := e.SetParam("nosuch", "feedback", 0.5); !errors.Is(err, ErrUnknownEffectID) {
		t.Fatalf("SetParam(unknown id) error = %v", err)
	}
	if err := e.SetParam("dly", "nosuch", 0.5); !errors.Is(err, ErrUnknownParam) {
		t.Fatalf("SetParam(unknown key) error = %v", err)
	}

	keys := e.Controller().Params("dly")
	want := []string{"delay_ms", "feedback", "mix_dry", "mix_wet"}
	if len(keys) != len(want) {
		t.Fatalf("Params() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("Params() = %v, want %v", keys, want)
		}
	}
}

func TestEngineProcessDuringRebuild(t *testing.T) {
	e := mustEngine(t)
	cfg, err := ParseChainConfig([]byte(allKindsJSON))
	if err != nil {
		t.Fatalf("ParseChainConfig() error = %v", err)
	}

	in, _ := block.New(256, 1)
	out, _ := block.New(256, 2)
	noise := testutil.DeterministicNoise(31, 0.25, 256)
	for n := 0; n < 256; n++ {
		in.SetSample(n, 0, noise[n])
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if err := e.Process(in, out); err != nil {
				t.Errorf("Process() error = %v", err)
				return
			}
		}
	}()

	for i := 0; i < 20; i++ {
		if err := e.LoadConfig(cfg); err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if err := e.LoadConfig(ChainConfig{}); err != nil {
			t.Fatalf("LoadConfig(empty) error = %v", err)
		}
	}
	close(stop)
	wg.Wait()
	testutil.RequireFinite(t, out.Data())
}
