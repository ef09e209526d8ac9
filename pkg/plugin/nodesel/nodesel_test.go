package nodesel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/operator-framework/cipcore/pkg/node"
	"github.com/operator-framework/cipcore/pkg/plugin/nodesel"
)

func TestDepthFirstPrefersDeeper(t *testing.T) {
	root := node.NewRoot()
	shallow, _ := node.NewChild(root, 0, node.TypeChild)
	deep, _ := node.NewChild(shallow, 0, node.TypeChild)
	assert.True(t, nodesel.DepthFirst.Less(deep, shallow))
	assert.False(t, nodesel.DepthFirst.Less(shallow, deep))
}

func TestRegistryActivePicksHighestPriority(t *testing.T) {
	reg := nodesel.NewRegistry()
	reg.Register(nodesel.DepthFirst)
	bestFirst := &nodesel.Selector{Name: "bestfirst", Priority: 100}
	reg.Register(bestFirst)
	assert.Same(t, bestFirst, reg.Active())
}
