// Package node implements the branch-and-bound node and node-set-change
// mechanism (C5): node lifecycle, incremental local bounds, and the
// stacked undo of bound/hole/constraint changes applied on focus-entry.
package node

import (
	"math"

	"github.com/operator-framework/cipcore/pkg/constraint"
	"github.com/operator-framework/cipcore/pkg/variable"
)

// Type classifies a node's role at the moment it is inspected, per spec §3.
type Type int

const (
	TypeFocus Type = iota
	TypeChild
	TypeSibling
	TypeLeafInQueue
	TypeDeadEnd
)

// State is the node's position in the lifecycle state machine of spec §4.5.
type State int

const (
	StateCreated State = iota
	StateInQueue
	StateFocus
	StateProcessedFeasible
	StateProcessedInfeasible
	StateProcessedToBranch
)

// ID is a stable per-node identifier, used only for equality comparisons
// (see constraint.OwningNode) and for breaking selection ties
// deterministically by insertion order (spec §5).
type ID int64

// BoundChange is one variable-lower-bound-change or variable-upper-bound-
// change record. Value is the bound to set; Previous is filled in by Apply
// when the change is actually materialized against Var, so undo is O(1).
type BoundChange struct {
	Var      *variable.Variable
	IsUpper  bool
	Value    float64
	Previous float64
	applied  bool
}

// HoleChange records a hole addition; undo removes the most recently added
// hole from Var.
type HoleChange struct {
	Var *variable.Variable
}

// ChangeList is the node-set-change bundle of spec §3/§4.5: the bound and
// constraint modifications that together define one node, recorded in
// application order so Undo can reverse them in the opposite order.
type ChangeList struct {
	Bounds      []BoundChange
	Holes       []HoleChange
	Constraints constraint.SetChange
}

// Node is a branch-and-bound search-tree node.
type Node struct {
	id     ID
	Depth  int
	Parent *Node
	Type   Type
	state  State

	// LocalLowerBound is this node's own local lower bound, not an
	// aggregate over children; spec §3 requires child bounds to be
	// monotone non-decreasing relative to the parent, which NewChild
	// enforces at child-creation time.
	LocalLowerBound float64

	Changes ChangeList

	// insertionIndex breaks node-selector ties deterministically (spec
	// §5 "Ordering guarantees").
	insertionIndex int64
}

// ID returns n's stable identifier; Node implements constraint.OwningNode.
func (n *Node) ID() int64 { return int64(n.id) }

// State returns the node's current lifecycle state.
func (n *Node) State() State { return n.state }

// NewRoot creates the root node: depth 0, no parent, local lower bound
// -Inf (spec: global lower bound is a minimum over leaves, and the root
// has no parent bound to be at-least-as-good-as).
func NewRoot() *Node {
	return &Node{LocalLowerBound: math.Inf(-1), state: StateCreated}
}
