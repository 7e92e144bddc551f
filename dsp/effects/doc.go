// Package effects implements the block-based signal processing units of
// the effects chain: stereo delay, Schroeder/Moorer reverb, noise gate,
// spectral gate, and granular octaver, plus a pass-through telemetry tap.
//
// Every unit allocates its internal state in Prepare and keeps ProcessInto
// free of allocation, locking beyond bounded parameter reads, and I/O.
// Control values are param.Smooth targets stepped once per block so that
// user edits never produce audible discontinuities.
package effects
