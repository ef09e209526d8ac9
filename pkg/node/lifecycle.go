package node

import "sync/atomic"

var nextID int64
var nextInsertion int64

func allocID() ID {
	return ID(atomic.AddInt64(&nextID, 1))
}

// NewChild creates a child of parent with the given local lower bound,
// enforcing testable property 2: a child's local lower bound must be at
// least its parent's (branch-and-bound only ever tightens bounds on
// descent). The child starts in StateCreated; EnqueueReady transitions it
// to StateInQueue once the engine is done attaching bound/constraint
// changes to it.
func NewChild(parent *Node, localLowerBound float64, typ Type) (*Node, error) {
	if localLowerBound < parent.LocalLowerBound {
		return nil, errBoundRegression(nil, parent)
	}
	return &Node{
		id:              allocID(),
		Depth:           parent.Depth + 1,
		Parent:          parent,
		Type:            typ,
		state:           StateCreated,
		LocalLowerBound: localLowerBound,
	}, nil
}

// EnqueueReady transitions a freshly built node into StateInQueue, stamping
// its insertion index for selector tie-breaking.
func (n *Node) EnqueueReady() {
	n.insertionIndex = atomic.AddInt64(&nextInsertion, 1)
	n.state = StateInQueue
}

// InsertionIndex returns the monotone counter stamped by EnqueueReady, used
// by pkg/queue to break priority ties deterministically.
func (n *Node) InsertionIndex() int64 { return n.insertionIndex }

// EnterFocus transitions a queued node into focus, materializing the bound
// changes recorded via AddLowerBound/AddUpperBound and then applying its
// constraint-set change.
func (n *Node) EnterFocus() error {
	if n.state != StateInQueue {
		return errNotInQueue(n)
	}
	return n.Apply()
}
