package variable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operator-framework/cipcore/internal/engineerr"
	"github.com/operator-framework/cipcore/pkg/variable"
)

func newActive(name string, kind variable.Kind, lo, hi float64) *variable.Variable {
	return &variable.Variable{
		Name:   name,
		Kind:   kind,
		Status: variable.StatusActive,
		Global: variable.Bounds{Lower: lo, Upper: hi},
		Local:  variable.Bounds{Lower: lo, Upper: hi},
	}
}

func TestLocalBoundSetUndoSymmetry(t *testing.T) {
	x := newActive("x", variable.Integer, 0, 10)

	prevLower, err := x.SetLocalLower(3)
	require.NoError(t, err)
	prevUpper, err := x.SetLocalUpper(7)
	require.NoError(t, err)
	assert.Equal(t, variable.Bounds{Lower: 3, Upper: 7}, x.Local)

	x.UndoLocalUpper(prevUpper)
	x.UndoLocalLower(prevLower)
	assert.Equal(t, variable.Bounds{Lower: 0, Upper: 10}, x.Local, "undo must restore exactly")
}

func TestIntegerGlobalBoundMustBeIntegral(t *testing.T) {
	x := newActive("x", variable.Integer, 0, 10)
	err := x.SetGlobalUpper(7.5)
	require.Error(t, err)
	assert.True(t, engineerr.Is(err, engineerr.InvalidData))
}

func TestHoleAddRemoveSymmetry(t *testing.T) {
	x := newActive("x", variable.Integer, 0, 10)
	require.NoError(t, x.AddHole(4, 6))
	assert.False(t, x.InDomain(5))
	x.RemoveLastHole()
	assert.True(t, x.InDomain(5))
}

func TestAggregationResolvesThroughChain(t *testing.T) {
	y := newActive("y", variable.Continuous, 0, 10)
	x := &variable.Variable{Name: "x", Kind: variable.Continuous}
	x.Aggregate(2, y, 1) // x = 2y + 1

	got, err := x.ResolvedValue(func(v *variable.Variable) float64 {
		if v == y {
			return 3
		}
		return 0
	})
	require.NoError(t, err)
	assert.Equal(t, 7.0, got)
}

func TestAggregationCycleIsRejected(t *testing.T) {
	a := &variable.Variable{Name: "a"}
	b := &variable.Variable{Name: "b"}
	a.Aggregate(1, b, 0)
	b.Aggregate(1, a, 0)

	_, err := a.ResolvedValue(func(v *variable.Variable) float64 { return 0 })
	require.Error(t, err)
	assert.True(t, engineerr.Is(err, engineerr.InvalidData))
}

func TestBoundChangeOnAggregatedVariableRejected(t *testing.T) {
	y := newActive("y", variable.Continuous, 0, 10)
	x := &variable.Variable{Name: "x"}
	x.Aggregate(1, y, 0)

	_, err := x.SetLocalLower(1)
	require.Error(t, err)
	assert.True(t, engineerr.Is(err, engineerr.InvalidData))
}
