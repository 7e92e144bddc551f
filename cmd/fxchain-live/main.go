// Command fxchain-live streams a WAV file through an effect chain to the
// sound card and accepts parameter edits on stdin while playing:
//
//	set <id> <param> <value>   route a value to a running effect
//	chain <file>               rebuild the chain from a JSON file
//	quit                       stop playback and exit
//
// Parameter edits take effect within one block; chain swaps are built
// off the audio path and published atomically.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-fxchain/dsp/block"
	"github.com/cwbudde/algo-fxchain/dsp/effectchain"
	"github.com/cwbudde/algo-fxchain/internal/wavio"
	"github.com/hajimehoshi/oto/v2"
)

// formatFloat32LE selects oto's 32-bit float little-endian stream format.
const formatFloat32LE = 0

// chainStream feeds the player. Each Read pulls the next input block
// through the engine and emits interleaved stereo float32 LE bytes.
// oto calls Read from its own goroutine; the engine's atomic publication
// keeps that safe against stdin-driven rebuilds.
type chainStream struct {
	engine    *effectchain.Engine
	source    []float64
	pos       int
	loop      bool
	blockSize int

	in      *block.Buffer
	out     *block.Buffer
	pending []byte
}

func newChainStream(engine *effectchain.Engine, source []float64, loop bool, blockSize int) (*chainStream, error) {
	in, err := block.New(blockSize, 1)
	if err != nil {
		return nil, err
	}
	out, err := block.New(blockSize, 2)
	if err != nil {
		return nil, err
	}
	return &chainStream{
		engine:    engine,
		source:    source,
		loop:      loop,
		blockSize: blockSize,
		in:        in,
		out:       out,
		pending:   make([]byte, 0, blockSize*8),
	}, nil
}

func (s *chainStream) Read(p []byte) (int, error) {
	if len(s.pending) == 0 {
		if err := s.fill(); err != nil {
			return 0, err
		}
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *chainStream) fill() error {
	if s.pos >= len(s.source) {
		if !s.loop {
			return io.EOF
		}
		s.pos = 0
	}

	for n := 0; n < s.blockSize; n++ {
		v := 0.0
		if idx := s.pos + n; idx < len(s.source) {
			v = s.source[idx]
		}
		s.in.SetSample(n, 0, v)
	}
	s.pos += s.blockSize

	if err := s.engine.Process(s.in, s.out); err != nil {
		return err
	}

	buf := s.pending[:0]
	for n := 0; n < s.blockSize; n++ {
		buf = putFrameF32LE(buf, s.out.Sample(n, 0), s.out.Sample(n, 1))
	}
	s.pending = buf
	return nil
}

// putFrameF32LE appends one stereo frame as float32 LE bytes.
func putFrameF32LE(buf []byte, left, right float64) []byte {
	for _, v := range [2]float64{left, right} {
		bits := math.Float32bits(float32(v))
		buf = append(buf, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
	}
	return buf
}

func main() {
	input := flag.String("input", "", "Input WAV file path")
	chainPath := flag.String("chain", "", "Chain JSON file path (empty = pass-through)")
	blockSize := flag.Int("block", 256, "Processing block size in frames")
	loop := flag.Bool("loop", true, "Loop the input file")
	flag.Parse()

	if *input == "" {
		fmt.Fprintf(os.Stderr, "Error: -input is required\n")
		flag.Usage()
		os.Exit(1)
	}

	samples, sampleRate, err := wavio.ReadMono(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", *input, err)
		os.Exit(1)
	}

	engine, err := effectchain.NewEngine(sampleRate, 1, 2, *blockSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating engine: %v\n", err)
		os.Exit(1)
	}
	if *chainPath != "" {
		if err := loadChainFile(engine, *chainPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading chain: %v\n", err)
			os.Exit(1)
		}
	}

	ctx, ready, err := oto.NewContext(sampleRate, 2, formatFloat32LE)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audio device: %v\n", err)
		os.Exit(1)
	}
	<-ready

	stream, err := newChainStream(engine, samples, *loop, *blockSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	player := ctx.NewPlayer(stream)
	player.Play()
	defer player.Close()

	fmt.Printf("Playing %q at %d Hz through %d effect(s). Commands: set, chain, quit\n",
		*input, sampleRate, engine.ChainLen())

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		if err := dispatch(engine, line); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}

// dispatch parses and executes one control line.
func dispatch(engine *effectchain.Engine, line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "set":
		if len(fields) != 4 {
			return fmt.Errorf("usage: set <id> <param> <value>")
		}
		value, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return fmt.Errorf("bad value %q: %w", fields[3], err)
		}
		return engine.SetParam(fields[1], fields[2], value)

	case "chain":
		if len(fields) != 2 {
			return fmt.Errorf("usage: chain <file>")
		}
		if err := loadChainFile(engine, fields[1]); err != nil {
			return err
		}
		fmt.Printf("Chain rebuilt: %d effect(s)\n", engine.ChainLen())
		return nil

	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

func loadChainFile(engine *effectchain.Engine, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cfg, err := effectchain.ParseChainConfig(data)
	if err != nil {
		return err
	}
	return engine.LoadConfig(cfg)
}
