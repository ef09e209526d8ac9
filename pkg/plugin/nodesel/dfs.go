package nodesel

import "github.com/operator-framework/cipcore/pkg/node"

// DepthFirst is the built-in default selector (spec §4.7's required
// fallback): deepest node first, breaking ties by the better (lower, for
// minimization) local lower bound. Its SelectChild picks the child with the
// smallest local lower bound (the first such child on ties).
var DepthFirst = &Selector{
	Name:        "depthfirst",
	Description: "always process the deepest open node, plunging into new children",
	Priority:    0,
	Less: func(a, b *node.Node) bool {
		if a.Depth != b.Depth {
			return a.Depth > b.Depth
		}
		return a.LocalLowerBound < b.LocalLowerBound
	},
	SelectChild: func(children []*node.Node) *node.Node {
		if len(children) == 0 {
			return nil
		}
		best := children[0]
		for _, c := range children[1:] {
			if c.LocalLowerBound < best.LocalLowerBound {
				best = c
			}
		}
		return best
	},
}
