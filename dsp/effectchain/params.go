package effectchain

import (
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors for parameter routing.
var (
	ErrUnknownEffectID = errors.New("unknown effect id")
	ErrUnknownParam    = errors.New("unknown parameter")
	ErrDuplicateID     = errors.New("duplicate effect id")
)

// Controller routes live parameter changes to the effects of one built
// chain by id and key. Setters forward to param.Smooth targets, so Set
// is safe to call from a control goroutine while the audio thread is
// inside Process.
type Controller struct {
	byID map[string]map[string]func(float64)
}

// newController validates and indexes the binding tables collected
// while building a chain.
func newController(ids []string, bindings []map[string]func(float64)) (*Controller, error) {
	byID := make(map[string]map[string]func(float64), len(ids))
	for i, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("effect %d has an empty id", i)
		}
		if _, ok := byID[id]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, id)
		}
		for key, set := range bindings[i] {
			if key == "" || set == nil {
				return nil, fmt.Errorf("effect %q has an invalid binding for key %q", id, key)
			}
		}
		byID[id] = bindings[i]
	}
	return &Controller{byID: byID}, nil
}

// Set applies value to the parameter key of the effect id.
func (c *Controller) Set(id, key string, value float64) error {
	params, ok := c.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEffectID, id)
	}
	set, ok := params[key]
	if !ok {
		return fmt.Errorf("%w: %q has no %q", ErrUnknownParam, id, key)
	}
	set(value)
	return nil
}

// IDs returns the known effect ids, sorted.
func (c *Controller) IDs() []string {
	ids := make([]string, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Params returns the parameter keys of one effect, sorted, or nil for
// an unknown id.
func (c *Controller) Params(id string) []string {
	params, ok := c.byID[id]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
