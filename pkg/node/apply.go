package node

import (
	"github.com/operator-framework/cipcore/internal/engineerr"
	"github.com/operator-framework/cipcore/pkg/variable"
)

// AddLowerBound records a local lower-bound tightening on v. The change is
// only recorded here, not materialized against v: a node may be one of
// several siblings queued against the same shared variable, and applying
// eagerly would corrupt the others' view of it. The change is applied when
// the node enters focus (see Apply) and undone when it leaves (see Undo).
func (n *Node) AddLowerBound(v *variable.Variable, value float64) error {
	n.Changes.Bounds = append(n.Changes.Bounds, BoundChange{Var: v, IsUpper: false, Value: value})
	return nil
}

// AddUpperBound is the upper-bound counterpart of AddLowerBound.
func (n *Node) AddUpperBound(v *variable.Variable, value float64) error {
	n.Changes.Bounds = append(n.Changes.Bounds, BoundChange{Var: v, IsUpper: true, Value: value})
	return nil
}

// AddHole records and applies a domain hole [lo, hi) on v.
func (n *Node) AddHole(v *variable.Variable, lo, hi float64) error {
	if err := v.AddHole(lo, hi); err != nil {
		return engineerr.Wrap(err, "node.AddHole", v.Name)
	}
	n.Changes.Holes = append(n.Changes.Holes, HoleChange{Var: v})
	return nil
}

// Apply enters focus: it materializes every bound change recorded by
// AddLowerBound/AddUpperBound against the actual variables, in the order
// they were recorded, then applies the node's constraint-set change
// (activations/disabling). If a bound change conflicts with one applied
// earlier in this same call (e.g. a lower bound above an upper bound fixed
// moments before), everything this call already applied is rolled back and
// the error is returned, leaving the node's variables untouched.
func (n *Node) Apply() error {
	for i := range n.Changes.Bounds {
		c := &n.Changes.Bounds[i]
		if c.applied {
			continue
		}
		var (
			prev float64
			err  error
		)
		if c.IsUpper {
			prev, err = c.Var.SetLocalUpper(c.Value)
		} else {
			prev, err = c.Var.SetLocalLower(c.Value)
		}
		if err != nil {
			n.undoBoundsFrom(i - 1)
			return engineerr.Wrap(err, "node.Apply", c.Var.Name)
		}
		c.Previous = prev
		c.applied = true
	}
	if err := n.Changes.Constraints.Apply(); err != nil {
		n.undoBoundsFrom(len(n.Changes.Bounds) - 1)
		return engineerr.Wrap(err, "node.Apply", "constraint set change")
	}
	n.state = StateFocus
	return nil
}

// undoBoundsFrom reverses applied bound changes at indices [0, last] in
// LIFO order, skipping any that were never materialized.
func (n *Node) undoBoundsFrom(last int) {
	for i := last; i >= 0; i-- {
		c := &n.Changes.Bounds[i]
		if !c.applied {
			continue
		}
		if c.IsUpper {
			c.Var.UndoLocalUpper(c.Previous)
		} else {
			c.Var.UndoLocalLower(c.Previous)
		}
		c.applied = false
	}
}

// Undo reverses every recorded change in exact opposite order: constraints
// first (undoing Apply), then holes, then bounds, each in LIFO order. This
// is testable property 1 (apply/undo symmetry): after Undo, every touched
// variable's local bounds and holes equal their pre-focus values.
func (n *Node) Undo() error {
	if err := n.Changes.Constraints.Undo(); err != nil {
		return engineerr.Wrap(err, "node.Undo", "constraint set change")
	}
	for i := len(n.Changes.Holes) - 1; i >= 0; i-- {
		n.Changes.Holes[i].Var.RemoveLastHole()
	}
	n.undoBoundsFrom(len(n.Changes.Bounds) - 1)
	return nil
}

// MarkProcessed transitions the node out of focus once the engine has
// decided its outcome.
func (n *Node) MarkProcessed(s State) error {
	switch s {
	case StateProcessedFeasible, StateProcessedInfeasible, StateProcessedToBranch:
		n.state = s
		return nil
	default:
		return engineerr.Wrap(engineerr.InvalidData, "node.MarkProcessed", "not a terminal state")
	}
}
