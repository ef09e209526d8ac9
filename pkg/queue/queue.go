// Package queue implements the open-node priority queue (C6): a binary
// heap ordered by a pluggable node selector's priority function, with
// bound-based pruning against the current primal (cutoff) bound.
package queue

import (
	"container/heap"
	"math"
	"sync"

	"github.com/operator-framework/cipcore/pkg/node"
)

// Priority compares two queued nodes for selection order: it returns true
// if a should be selected before b. Implementations are supplied by
// pkg/plugin/nodesel.
type Priority func(a, b *node.Node) bool

// Queue is a priority queue of nodes awaiting processing. It is safe for
// concurrent use; spec §4.6 names this as the one structure touched both
// by the main search loop and by diagnostic/metrics readers.
type Queue struct {
	mu    sync.Mutex
	less  Priority
	items []*node.Node
	index map[*node.Node]int
}

// New returns an empty queue ordered by less.
func New(less Priority) *Queue {
	return &Queue{less: less, index: make(map[*node.Node]int)}
}

// implements container/heap.Interface via the unexported adaptor below.
type heapAdaptor struct{ q *Queue }

func (h heapAdaptor) Len() int { return len(h.q.items) }
func (h heapAdaptor) Less(i, j int) bool {
	a, b := h.q.items[i], h.q.items[j]
	if h.q.less(a, b) {
		return true
	}
	if h.q.less(b, a) {
		return false
	}
	// Deterministic tie-break by insertion order (spec §5 ordering
	// guarantees): earlier-inserted nodes come first.
	return a.InsertionIndex() < b.InsertionIndex()
}
func (h heapAdaptor) Swap(i, j int) {
	h.q.items[i], h.q.items[j] = h.q.items[j], h.q.items[i]
	h.q.index[h.q.items[i]] = i
	h.q.index[h.q.items[j]] = j
}
func (h heapAdaptor) Push(x interface{}) {
	n := x.(*node.Node)
	h.q.index[n] = len(h.q.items)
	h.q.items = append(h.q.items, n)
}
func (h heapAdaptor) Pop() interface{} {
	old := h.q.items
	n := old[len(old)-1]
	h.q.items = old[:len(old)-1]
	delete(h.q.index, n)
	return n
}

// Push inserts n. n must already be in StateInQueue (via n.EnqueueReady).
func (q *Queue) Push(n *node.Node) {
	q.mu.Lock()
	defer q.mu.Unlock()
	heap.Push(heapAdaptor{q}, n)
}

// Pop removes and returns the highest-priority node, or nil if empty.
func (q *Queue) Pop() *node.Node {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	return heap.Pop(heapAdaptor{q}).(*node.Node)
}

// Len reports the number of queued nodes.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Peek returns the highest-priority node without removing it, or nil.
func (q *Queue) Peek() *node.Node {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// GlobalLowerBound returns the minimum local lower bound across all queued
// nodes (spec §4.6: the global dual bound is the min over open leaves once
// the tree has more than the focus node). Returns +Inf if the queue is
// empty.
func (q *Queue) GlobalLowerBound() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	best := math.Inf(1)
	for _, n := range q.items {
		if n.LocalLowerBound < best {
			best = n.LocalLowerBound
		}
	}
	return best
}

// PruneByBound removes and returns every queued node whose local lower
// bound is at least cutoff (minimization sense): spec §4.6's bound-based
// pruning, applied whenever the primal bound improves.
func (q *Queue) PruneByBound(cutoff float64) []*node.Node {
	q.mu.Lock()
	defer q.mu.Unlock()
	var pruned []*node.Node
	var kept []*node.Node
	for _, n := range q.items {
		if n.LocalLowerBound >= cutoff {
			pruned = append(pruned, n)
		} else {
			kept = append(kept, n)
		}
	}
	q.items = kept
	q.index = make(map[*node.Node]int, len(kept))
	heap.Init(heapAdaptor{q})
	for i, n := range q.items {
		q.index[n] = i
	}
	return pruned
}
