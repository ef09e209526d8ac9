// Package heur implements the primal heuristic driver (C11): priority- and
// frequency-gated dispatch of heuristics that attempt to find improving
// feasible solutions without expanding the search tree.
package heur

import (
	"context"
	"sort"
)

// Timing describes when a heuristic is eligible to run, mirroring the
// call sites the search engine exposes (spec §4.11).
type Timing int

const (
	TimingBeforeNode Timing = iota
	TimingAfterLPNode
	TimingAfterPlunge
)

// Found is a heuristic's reported outcome: the objective value of the
// solution it built (if any) and an opaque solution values map, passed
// through to pkg/solution for de-duplication and storage. Neither the
// driver nor the store checks the values against the constraints.
type Found struct {
	Objective float64
	Values    map[string]float64
}

// Heuristic is a pluggable primal-solution generator.
type Heuristic struct {
	Name        string
	Description string
	Priority    int
	Freq        int // call when RunAt's nodeDepth is a multiple of Freq; 0 means every call; the count of processed nodes is not consulted
	Timing      Timing

	// Run attempts to build a feasible solution. A nil *Found with a nil
	// error means "no solution found this call," not an error.
	Run func(ctx context.Context) (*Found, error)
}

// Driver dispatches registered heuristics in priority order.
type Driver struct {
	heurs []*Heuristic
}

// NewDriver returns an empty heuristic driver.
func NewDriver() *Driver { return &Driver{} }

// Register adds h and keeps dispatch order sorted by descending priority.
func (d *Driver) Register(h *Heuristic) {
	d.heurs = append(d.heurs, h)
	sort.SliceStable(d.heurs, func(i, j int) bool { return d.heurs[i].Priority > d.heurs[j].Priority })
}

// RunAt dispatches every heuristic eligible for timing t at nodeDepth,
// stopping at the first one that reports a Found (spec §4.11: heuristics
// are tried until one succeeds, not run exhaustively every call).
func (d *Driver) RunAt(ctx context.Context, t Timing, nodeDepth int) (*Found, string, error) {
	for _, h := range d.heurs {
		if h.Timing != t {
			continue
		}
		if h.Freq > 0 && nodeDepth%h.Freq != 0 {
			continue
		}
		found, err := h.Run(ctx)
		if err != nil {
			return nil, h.Name, err
		}
		if found != nil {
			return found, h.Name, nil
		}
	}
	return nil, "", nil
}
