package effectchain_test

import (
	"fmt"

	"github.com/cwbudde/algo-fxchain/dsp/block"
	"github.com/cwbudde/algo-fxchain/dsp/effectchain"
)

func ExampleEngine() {
	engine, err := effectchain.NewEngine(48000, 1, 2, 256)
	if err != nil {
		fmt.Println("error")
		return
	}

	cfg, err := effectchain.ParseChainConfig([]byte(`{
		"effects": [
			{"id": "gate", "type": "noise_gate", "params": {"threshold_db": -50}},
			{"id": "dly", "type": "stereo_delay", "params": {"delay_ms": 250}}
		]
	}`))
	if err != nil {
		fmt.Println("error")
		return
	}
	if err := engine.LoadConfig(cfg); err != nil {
		fmt.Println("error")
		return
	}

	in, _ := block.New(256, 1)
	out, _ := block.New(256, 2)
	if err := engine.Process(in, out); err != nil {
		fmt.Println("error")
		return
	}
	_ = engine.SetParam("dly", "feedback", 0.4)

	fmt.Printf("effects=%d channels=%d\n", engine.ChainLen(), out.Channels())
	// Output:
	// effects=2 channels=2
}
