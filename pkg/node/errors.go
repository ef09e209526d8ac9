package node

import "github.com/operator-framework/cipcore/internal/engineerr"

func errNotInQueue(n *Node) error {
	return engineerr.Wrap(engineerr.InvalidData, "node", "node is not in the in-queue state")
}

func errBoundRegression(child, parent *Node) error {
	return engineerr.Wrap(engineerr.InvalidResult, "node", "child local lower bound regressed below parent")
}
