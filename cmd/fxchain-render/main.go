// Command fxchain-render runs an effect chain over a WAV file offline.
// The input is mixed to mono, processed block by block into stereo, and
// written back as a 16-bit WAV.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-fxchain/dsp/block"
	"github.com/cwbudde/algo-fxchain/dsp/effectchain"
	"github.com/cwbudde/algo-fxchain/internal/wavio"
)

func main() {
	input := flag.String("input", "", "Input WAV file path")
	output := flag.String("output", "output.wav", "Output WAV file path")
	chainPath := flag.String("chain", "", "Chain JSON file path (empty = pass-through)")
	blockSize := flag.Int("block", 256, "Processing block size in frames")
	tailSeconds := flag.Float64("tail", 2.0, "Silent tail rendered after the input, in seconds")
	flag.Parse()

	if *input == "" {
		fmt.Fprintf(os.Stderr, "Error: -input is required\n")
		flag.Usage()
		os.Exit(1)
	}
	if *blockSize <= 0 {
		fmt.Fprintf(os.Stderr, "Error: -block must be > 0: %d\n", *blockSize)
		os.Exit(1)
	}

	samples, sampleRate, err := wavio.ReadMono(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", *input, err)
		os.Exit(1)
	}

	cfg := effectchain.ChainConfig{}
	if *chainPath != "" {
		data, err := os.ReadFile(*chainPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading chain %q: %v\n", *chainPath, err)
			os.Exit(1)
		}
		cfg, err = effectchain.ParseChainConfig(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing chain %q: %v\n", *chainPath, err)
			os.Exit(1)
		}
	}

	engine, err := effectchain.NewEngine(sampleRate, 1, 2, *blockSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating engine: %v\n", err)
		os.Exit(1)
	}
	if err := engine.LoadConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error building chain: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Rendering %q (%d frames at %d Hz) through %d effect(s)...\n",
		*input, len(samples), sampleRate, engine.ChainLen())

	tailFrames := int(*tailSeconds * float64(sampleRate))
	totalFrames := len(samples) + tailFrames

	in, err := block.New(*blockSize, 1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	out, err := block.New(*blockSize, 2)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rendered := make([]float32, 0, totalFrames*2)
	for start := 0; start < totalFrames; start += *blockSize {
		for n := 0; n < *blockSize; n++ {
			v := 0.0
			if idx := start + n; idx < len(samples) {
				v = samples[idx]
			}
			in.SetSample(n, 0, v)
		}
		if err := engine.Process(in, out); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing block at frame %d: %v\n", start, err)
			os.Exit(1)
		}

		frames := *blockSize
		if remaining := totalFrames - start; remaining < frames {
			frames = remaining
		}
		for n := 0; n < frames; n++ {
			rendered = append(rendered,
				wavio.Clamp32(out.Sample(n, 0)),
				wavio.Clamp32(out.Sample(n, 1)))
		}
	}

	if err := wavio.WriteStereo(*output, rendered, sampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %q: %v\n", *output, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %q (%d frames)\n", *output, len(rendered)/2)
}
