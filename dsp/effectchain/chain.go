package effectchain

import (
	"fmt"

	"github.com/cwbudde/algo-fxchain/dsp/block"
)

// Chain owns an ordered list of effects plus the two ping-pong scratch
// buffers the signal bounces between. Effects are prepared when added
// and re-prepared if the caller's block size changes.
//
// Chain is not safe for concurrent use; Engine serializes access.
type Chain struct {
	sampleRate  int
	channelsIn  int
	channelsOut int
	blockSize   int

	effects []Effect
	bufA    *block.Buffer
	bufB    *block.Buffer
}

// NewChain creates an empty chain for the given stream format.
func NewChain(sampleRate, channelsIn, channelsOut, blockSize int) (*Chain, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("chain sample rate must be > 0: %d", sampleRate)
	}
	if channelsIn <= 0 || channelsOut <= 0 {
		return nil, fmt.Errorf("chain channels must be > 0: in=%d out=%d", channelsIn, channelsOut)
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("chain block size must be > 0: %d", blockSize)
	}

	bufA, err := block.New(blockSize, channelsOut)
	if err != nil {
		return nil, err
	}
	bufB, err := block.New(blockSize, channelsOut)
	if err != nil {
		return nil, err
	}

	return &Chain{
		sampleRate:  sampleRate,
		channelsIn:  channelsIn,
		channelsOut: channelsOut,
		blockSize:   blockSize,
		bufA:        bufA,
		bufB:        bufB,
	}, nil
}

// SampleRate returns the stream sample rate in Hz.
func (c *Chain) SampleRate() int { return c.sampleRate }

// ChannelsIn returns the input channel count.
func (c *Chain) ChannelsIn() int { return c.channelsIn }

// ChannelsOut returns the output channel count.
func (c *Chain) ChannelsOut() int { return c.channelsOut }

// BlockSize returns the current block size in frames.
func (c *Chain) BlockSize() int { return c.blockSize }

// Len returns the number of effects in the chain.
func (c *Chain) Len() int { return len(c.effects) }

// Add prepares the effect for the chain's stream format and appends it.
func (c *Chain) Add(e Effect) error {
	if e == nil {
		return fmt.Errorf("chain cannot add nil effect")
	}
	if err := e.Prepare(c.sampleRate, c.channelsIn, c.channelsOut, c.blockSize); err != nil {
		return fmt.Errorf("chain: prepare effect %d: %w", len(c.effects), err)
	}
	c.effects = append(c.effects, e)
	return nil
}

// ensureBlockSize re-prepares every effect and reallocates the scratch
// buffers when the caller's frame count changes.
func (c *Chain) ensureBlockSize(frames int) error {
	if frames == c.blockSize {
		return nil
	}

	bufA, err := block.New(frames, c.channelsOut)
	if err != nil {
		return err
	}
	bufB, err := block.New(frames, c.channelsOut)
	if err != nil {
		return err
	}

	for i, e := range c.effects {
		if err := e.Prepare(c.sampleRate, c.channelsIn, c.channelsOut, frames); err != nil {
			return fmt.Errorf("chain: re-prepare effect %d for %d frames: %w", i, frames, err)
		}
	}

	c.blockSize = frames
	c.bufA = bufA
	c.bufB = bufB
	return nil
}

// mapInput seeds the first scratch buffer from the caller's input:
// mono into stereo duplicates the channel, otherwise the overlapping
// channels are copied and any extra output channels zeroed.
func (c *Chain) mapInput(in, dst *block.Buffer) {
	frames := in.Frames()
	chIn := in.Channels()
	chOut := dst.Channels()

	if chIn == 1 && chOut == 2 {
		for n := 0; n < frames; n++ {
			v := in.Sample(n, 0)
			dst.SetSample(n, 0, v)
			dst.SetSample(n, 1, v)
		}
		return
	}

	ch := chIn
	if chOut < ch {
		ch = chOut
	}
	for n := 0; n < frames; n++ {
		for cIdx := 0; cIdx < ch; cIdx++ {
			dst.SetSample(n, cIdx, in.Sample(n, cIdx))
		}
		for cIdx := ch; cIdx < chOut; cIdx++ {
			dst.SetSample(n, cIdx, 0)
		}
	}
}

// Process runs the whole chain for one block. out must have the same
// frame count as in and the chain's output channel count.
func (c *Chain) Process(in, out *block.Buffer) error {
	frames := in.Frames()
	if out.Frames() != frames {
		return fmt.Errorf("chain: frame mismatch: in=%d out=%d", frames, out.Frames())
	}
	if out.Channels() != c.channelsOut {
		return fmt.Errorf("chain: output channel mismatch: got=%d want=%d",
			out.Channels(), c.channelsOut)
	}
	if err := c.ensureBlockSize(frames); err != nil {
		return err
	}

	c.mapInput(in, c.bufA)

	src, dst := c.bufA, c.bufB
	for _, e := range c.effects {
		e.ProcessInto(src, dst)
		src, dst = dst, src
	}

	out.CopyFrom(src)
	return nil
}

// Warmup pushes two zero blocks through the chain so every effect's
// internal pipelines (STFT fill, envelope state) settle before real
// signal arrives.
func (c *Chain) Warmup() error {
	in, err := block.New(c.blockSize, c.channelsIn)
	if err != nil {
		return err
	}
	out, err := block.New(c.blockSize, c.channelsOut)
	if err != nil {
		return err
	}
	for i := 0; i < 2; i++ {
		if err := c.Process(in, out); err != nil {
			return err
		}
	}
	return nil
}
