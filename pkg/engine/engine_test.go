package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operator-framework/cipcore/pkg/constraint"
	"github.com/operator-framework/cipcore/pkg/engine"
	"github.com/operator-framework/cipcore/pkg/lp"
	"github.com/operator-framework/cipcore/pkg/lp/refimpl"
	"github.com/operator-framework/cipcore/pkg/plugin/branch"
	"github.com/operator-framework/cipcore/pkg/plugin/nodesel"
	"github.com/operator-framework/cipcore/pkg/solution"
	"github.com/operator-framework/cipcore/pkg/variable"
)

// TestEngineSolvesSingleIntegerMinimization exercises scenario-style S1:
// minimize x subject to x integer, 0 <= x <= 10, with a row forcing
// x >= 2.5 that integrality rounds up, expecting the engine to land on x=3.
func TestEngineSolvesSingleIntegerMinimization(t *testing.T) {
	x := &variable.Variable{
		Name: "x", Kind: variable.Integer, Status: variable.StatusActive,
		Global: variable.Bounds{Lower: 0, Upper: 10},
		Local:  variable.Bounds{Lower: 0, Upper: 10},
	}
	l := refimpl.New([]lp.Column{{Name: "x", Lower: 0, Upper: 10, ObjCoef: 1}})
	l.AddRow(lp.Row{Name: "floor", Coefs: map[int]float64{0: 1}, LHS: 2.5, RHS: 10})

	nodeSel := nodesel.NewRegistry()
	nodeSel.Register(nodesel.DepthFirst)
	branchReg := branch.NewRegistry()
	branchReg.Register(branch.MostFractional)

	e := engine.New(engine.Config{
		LP:         l,
		Variables:  []*variable.Variable{x},
		Constraint: constraint.NewRegistry(),
		NodeSel:    nodeSel,
		Branch:     branchReg,
		Solutions:  solution.New(),
	})

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.StatusOptimal, res.Status)
	require.True(t, res.HasSolution)
	assert.Equal(t, 3.0, res.Best.Values["x"])
}

// TestEngineAcceptsPseudoSolutionWithoutSolvingLP covers spec §4.14 step 5:
// a fixed variable's pseudo solution is trivially integral, and with a
// handler whose EnforcePseudo validates it the engine should close the
// root node from the pseudo point alone.
func TestEngineAcceptsPseudoSolutionWithoutSolvingLP(t *testing.T) {
	x := &variable.Variable{
		Name: "x", Kind: variable.Integer, Status: variable.StatusActive, ObjCoef: 1,
		Global: variable.Bounds{Lower: 3, Upper: 3},
		Local:  variable.Bounds{Lower: 3, Upper: 3},
	}
	l := refimpl.New([]lp.Column{{Name: "x", Lower: 3, Upper: 3, ObjCoef: 1}})

	nodeSel := nodesel.NewRegistry()
	nodeSel.Register(nodesel.DepthFirst)
	branchReg := branch.NewRegistry()
	branchReg.Register(branch.MostFractional)

	reg := constraint.NewRegistry()
	reg.Register(constraint.NewHandler("pseudocheck", "accepts any pseudo point", 0, 0, 0, 0, false, constraint.Callbacks{
		EnforcePseudo: func(ctx context.Context, cons []*constraint.Constraint) (constraint.Result, error) {
			return constraint.ResultFeasible, nil
		},
	}))

	e := engine.New(engine.Config{
		LP:         l,
		Variables:  []*variable.Variable{x},
		Constraint: reg,
		NodeSel:    nodeSel,
		Branch:     branchReg,
		Solutions:  solution.New(),
	})

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.StatusOptimal, res.Status)
	require.True(t, res.HasSolution)
	assert.Equal(t, 3.0, res.Best.Values["x"])
	assert.Equal(t, 3.0, res.Best.Objective)
}

// TestEngineFallsBackToLPWhenPseudoRejected covers the other half of step
// 5: when the registered handler's EnforcePseudo finds the pseudo point
// infeasible, the engine must still fall through to an LP solve rather than
// declaring the node infeasible outright.
func TestEngineFallsBackToLPWhenPseudoRejected(t *testing.T) {
	x := &variable.Variable{
		Name: "x", Kind: variable.Integer, Status: variable.StatusActive, ObjCoef: 1,
		Global: variable.Bounds{Lower: 0, Upper: 10},
		Local:  variable.Bounds{Lower: 0, Upper: 10},
	}
	l := refimpl.New([]lp.Column{{Name: "x", Lower: 0, Upper: 10, ObjCoef: 1}})
	l.AddRow(lp.Row{Name: "floor", Coefs: map[int]float64{0: 1}, LHS: 2.5, RHS: 10})

	nodeSel := nodesel.NewRegistry()
	nodeSel.Register(nodesel.DepthFirst)
	branchReg := branch.NewRegistry()
	branchReg.Register(branch.MostFractional)

	reg := constraint.NewRegistry()
	reg.Register(constraint.NewHandler("pseudocheck", "rejects the unconstrained pseudo point", 0, 0, 0, 0, false, constraint.Callbacks{
		EnforcePseudo: func(ctx context.Context, cons []*constraint.Constraint) (constraint.Result, error) {
			return constraint.ResultInfeasible, nil
		},
	}))

	e := engine.New(engine.Config{
		LP:         l,
		Variables:  []*variable.Variable{x},
		Constraint: reg,
		NodeSel:    nodeSel,
		Branch:     branchReg,
		Solutions:  solution.New(),
	})

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.StatusOptimal, res.Status)
	require.True(t, res.HasSolution)
	assert.Equal(t, 3.0, res.Best.Values["x"], "must come from the LP-driven branch search, not the rejected pseudo point")
}

func TestEngineReportsInfeasible(t *testing.T) {
	x := &variable.Variable{
		Name: "x", Kind: variable.Integer, Status: variable.StatusActive,
		Global: variable.Bounds{Lower: 0, Upper: 10},
		Local:  variable.Bounds{Lower: 0, Upper: 10},
	}
	l := refimpl.New([]lp.Column{{Name: "x", Lower: 0, Upper: 10, ObjCoef: 1}})
	l.AddRow(lp.Row{Name: "contradiction", Coefs: map[int]float64{0: 1}, LHS: 20, RHS: 30})

	nodeSel := nodesel.NewRegistry()
	nodeSel.Register(nodesel.DepthFirst)
	branchReg := branch.NewRegistry()
	branchReg.Register(branch.MostFractional)

	e := engine.New(engine.Config{
		LP:         l,
		Variables:  []*variable.Variable{x},
		Constraint: constraint.NewRegistry(),
		NodeSel:    nodeSel,
		Branch:     branchReg,
		Solutions:  solution.New(),
	})

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.StatusInfeasible, res.Status)
	assert.False(t, res.HasSolution)
}
