// Package propagate implements the propagation driver (C9): round-robin
// dispatch of propagator plugins and constraint-handler propagation
// callbacks until a fixpoint (no propagator reports a domain reduction) or
// a cutoff/infeasibility is reported, plus the conflict-reason hook
// consumed by pkg/conflict.
package propagate

import (
	"context"
	"sort"

	"github.com/operator-framework/cipcore/pkg/constraint"
)

// Result mirrors constraint.Result's vocabulary for the subset meaningful
// to pure domain propagation.
type Result int

const (
	ResultDidNotRun Result = iota
	ResultDidNotFind
	ResultReducedDomain
	ResultCutoff
	ResultDelayed
)

// Reason is the propagation-caused bound change record consumed by
// pkg/conflict when building a conflict graph: it names which propagator
// tightened which variable and, optionally, the antecedent bound changes
// it used to justify the tightening (for resolvable propagators).
type Reason struct {
	PropagatorName string
	VarName        string
	IsUpper        bool
	Bound          float64
	Antecedents    []string
}

// Propagator is a standalone domain-propagation plugin, independent of any
// constraint handler (spec §4.9). Constraint handlers with a Propagate
// callback are adapted into this shape by FromHandler so both run through
// one driver.
type Propagator struct {
	Name        string
	Description string
	Priority    int
	Freq        int // call at node depths that are a multiple of Freq; 0 means every depth

	Propagate func(ctx context.Context) (Result, error)

	// ResolvePropagation explains a prior bound change for conflict
	// analysis; nil means this propagator's reductions cannot be resolved
	// into antecedents, and conflict analysis treats them as terminal
	// facts.
	ResolvePropagation func(r Reason) ([]Reason, error)
}

// FromHandler adapts a constraint handler's Propagate callback into a
// Propagator so the driver can dispatch constraint-handler propagation and
// standalone propagators uniformly. It returns nil when h has no Propagate
// callback or when h.PropFreq is 0 ("only before search"), so such a
// handler is never dispatched by the driver.
func FromHandler(h *constraint.Handler, active []*constraint.Constraint) *Propagator {
	if h.Callbacks.Propagate == nil || h.PropFreq <= 0 {
		return nil
	}
	return &Propagator{
		Name:     "handler:" + h.Name,
		Priority: h.PropFreq,
		Freq:     h.PropFreq,
		Propagate: func(ctx context.Context) (Result, error) {
			res, err := h.Callbacks.Propagate(ctx, active)
			if err != nil {
				return ResultDidNotRun, err
			}
			return fromConstraintResult(res), nil
		},
	}
}

func fromConstraintResult(r constraint.Result) Result {
	switch r {
	case constraint.ResultReducedDomain:
		return ResultReducedDomain
	case constraint.ResultCutoff:
		return ResultCutoff
	case constraint.ResultDelayed:
		return ResultDelayed
	case constraint.ResultFeasible:
		return ResultDidNotFind
	default:
		return ResultDidNotRun
	}
}

// Driver runs the registered propagators to a fixpoint at a node.
type Driver struct {
	props []*Propagator
}

// NewDriver returns a driver with no propagators registered.
func NewDriver() *Driver { return &Driver{} }

// Register adds p and keeps the driver's dispatch order sorted by
// descending priority.
func (d *Driver) Register(p *Propagator) {
	if p == nil {
		return
	}
	d.props = append(d.props, p)
	sort.SliceStable(d.props, func(i, j int) bool { return d.props[i].Priority > d.props[j].Priority })
}

// Round-robin until fixpoint: spec §4.9 requires repeating full passes over
// every registered propagator until one full pass produces no domain
// reduction, or any propagator reports cutoff.
func (d *Driver) PropagateToFixpoint(ctx context.Context, nodeDepth int) (Result, error) {
	for {
		progressed := false
		for _, p := range d.props {
			if p.Freq > 0 && nodeDepth%p.Freq != 0 {
				continue
			}
			res, err := p.Propagate(ctx)
			if err != nil {
				return ResultDidNotRun, err
			}
			switch res {
			case ResultCutoff:
				return ResultCutoff, nil
			case ResultReducedDomain:
				progressed = true
			}
		}
		if !progressed {
			return ResultDidNotFind, nil
		}
	}
}
