package effectchain

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-fxchain/dsp/block"
)

// runtime pairs one built chain with its controller. Both are replaced
// together on every rebuild so parameter routes never point at effects
// that are no longer processing.
type runtime struct {
	chain      *Chain
	controller *Controller
}

// Engine hosts the live chain. Rebuilds happen off the audio thread
// under rebuildMu; the finished runtime is published with one atomic
// pointer store, so Process always sees either the old chain or the
// fully built and warmed-up new one, never a partial state.
type Engine struct {
	sampleRate  int
	channelsIn  int
	channelsOut int
	blockSize   int

	rebuildMu sync.Mutex
	current   atomic.Pointer[runtime]
}

// NewEngine creates an engine with an empty chain for the stream format.
func NewEngine(sampleRate, channelsIn, channelsOut, blockSize int) (*Engine, error) {
	e := &Engine{
		sampleRate:  sampleRate,
		channelsIn:  channelsIn,
		channelsOut: channelsOut,
		blockSize:   blockSize,
	}
	if err := e.LoadConfig(ChainConfig{}); err != nil {
		return nil, err
	}
	return e, nil
}

// LoadConfig builds a fresh chain and controller from the config,
// warms the chain up, and publishes both atomically. The previous
// chain keeps serving Process calls until the store.
func (e *Engine) LoadConfig(cfg ChainConfig) error {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	chain, err := NewChain(e.sampleRate, e.channelsIn, e.channelsOut, e.blockSize)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(cfg.Nodes))
	bindings := make([]map[string]func(float64), 0, len(cfg.Nodes))
	for _, node := range cfg.Nodes {
		eff, table, err := buildNode(node)
		if err != nil {
			return fmt.Errorf("engine: build %q (%s): %w", node.ID, node.Kind, err)
		}
		if err := chain.Add(eff); err != nil {
			return fmt.Errorf("engine: add %q (%s): %w", node.ID, node.Kind, err)
		}
		ids = append(ids, node.ID)
		bindings = append(bindings, table)
	}

	controller, err := newController(ids, bindings)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	if err := chain.Warmup(); err != nil {
		return fmt.Errorf("engine: warmup: %w", err)
	}

	e.current.Store(&runtime{chain: chain, controller: controller})
	return nil
}

// Process runs the current chain for one block.
func (e *Engine) Process(in, out *block.Buffer) error {
	rt := e.current.Load()
	return rt.chain.Process(in, out)
}

// SetParam routes a parameter change to the current chain.
func (e *Engine) SetParam(id, key string, value float64) error {
	rt := e.current.Load()
	return rt.controller.Set(id, key, value)
}

// Controller returns the controller of the currently published chain.
// It becomes stale after the next LoadConfig.
func (e *Engine) Controller() *Controller {
	return e.current.Load().controller
}

// ChainLen returns the effect count of the currently published chain.
func (e *Engine) ChainLen() int {
	return e.current.Load().chain.Len()
}
