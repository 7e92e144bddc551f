// Package effectchain runs an ordered list of block effects over a fixed
// stream format and provides the control plane around it: a tagged chain
// configuration, parameter binding tables, and an engine that swaps in
// rebuilt chains atomically.
package effectchain

import "github.com/cwbudde/algo-fxchain/dsp/block"

// Effect is the contract every chain unit satisfies.
//
// Prepare allocates all internal state for the stream format and may be
// called again when the format changes. ProcessInto reads one block and
// writes one block of the same frame count; it must not allocate, block,
// or fail.
type Effect interface {
	Prepare(sampleRate, channelsIn, channelsOut, blockSize int) error
	ProcessInto(in, out *block.Buffer)
}
