package solution_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operator-framework/cipcore/pkg/solution"
)

func TestAddDeduplicatesByValues(t *testing.T) {
	s := solution.New()
	vals := map[string]float64{"x": 1, "y": 2}

	added, improved, err := s.Add(solution.Solution{Values: vals, Objective: 5})
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, improved)

	added, _, err = s.Add(solution.Solution{Values: map[string]float64{"x": 1, "y": 2}, Objective: 5})
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 1, s.Len())
}

func TestBestTracksMinimumObjective(t *testing.T) {
	s := solution.New()
	_, _, _ = s.Add(solution.Solution{Values: map[string]float64{"x": 1}, Objective: 10})
	added, improved, err := s.Add(solution.Solution{Values: map[string]float64{"x": 2}, Objective: 4})
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, improved)

	best, ok := s.Best()
	require.True(t, ok)
	assert.Equal(t, 4.0, best.Objective)
}

func TestWorseSolutionDoesNotImprove(t *testing.T) {
	s := solution.New()
	_, _, _ = s.Add(solution.Solution{Values: map[string]float64{"x": 1}, Objective: 3})
	_, improved, err := s.Add(solution.Solution{Values: map[string]float64{"x": 9}, Objective: 8})
	require.NoError(t, err)
	assert.False(t, improved)
}
