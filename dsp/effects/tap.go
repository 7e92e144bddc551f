package effects

import (
	"fmt"

	"github.com/cwbudde/algo-fxchain/dsp/block"
)

// TapFunc receives a snapshot of the signal passing through a Tap. The
// buffer is reused across calls; implementations must copy anything
// they keep past the call.
type TapFunc func(buf *block.Buffer)

// Tap is a pass-through probe. It copies its input to its output and
// hands the output block to a sink, useful for metering and capture
// without disturbing the chain.
type Tap struct {
	sink TapFunc
	snap *block.Buffer
}

// NewTap creates a tap. A nil sink is allowed; the tap then degenerates
// to a plain copy.
func NewTap(sink TapFunc) (*Tap, error) {
	return &Tap{sink: sink}, nil
}

// Prepare allocates the snapshot buffer for the stream format.
func (t *Tap) Prepare(sampleRate, channelsIn, channelsOut, blockSize int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("tap sample rate must be > 0: %d", sampleRate)
	}
	snap, err := block.New(blockSize, channelsOut)
	if err != nil {
		return err
	}
	t.snap = snap
	return nil
}

// ProcessInto copies input to output and feeds the sink.
func (t *Tap) ProcessInto(in, out *block.Buffer) {
	copyThrough(in, out)
	if t.sink == nil {
		return
	}
	if t.snap == nil || t.snap.Frames() != out.Frames() || t.snap.Channels() != out.Channels() {
		snap, err := block.New(out.Frames(), out.Channels())
		if err != nil {
			return
		}
		t.snap = snap
	}
	t.snap.CopyFrom(out)
	t.sink(t.snap)
}
