// Package diving implements the reference diving heuristic (spec §4.11's
// required built-in): repeatedly fix the least fractional integer
// variable to its nearest integer and re-solve the relaxation inside an
// isolated dive, until the solution is integral, MaxDives is hit, or the
// LP becomes infeasible. Rounding the least-fractional variable first is
// the cheapest commitment at each step, which is what makes this a
// reference dive rather than a tuned heuristic.
package diving

import (
	"context"
	"math"

	"github.com/operator-framework/cipcore/pkg/heur"
	"github.com/operator-framework/cipcore/pkg/lp"
	"github.com/operator-framework/cipcore/pkg/variable"
)

// Config wires the diving heuristic to a concrete LP and variable set.
type Config struct {
	LP        lp.LP
	Variables []*variable.Variable
	MaxDives  int
}

// New returns a heur.Heuristic running the diving procedure described by
// cfg. Column index i of cfg.LP must correspond to cfg.Variables[i].
func New(cfg Config) *heur.Heuristic {
	dive := lp.NewDive(cfg.LP)
	return &heur.Heuristic{
		Name:        "diving",
		Description: "round-and-resolve dive to an integral feasible point",
		Priority:    0,
		Timing:      heur.TimingAfterLPNode,
		Run: func(ctx context.Context) (*heur.Found, error) {
			return run(ctx, dive, cfg)
		},
	}
}

func run(ctx context.Context, dive *lp.Dive, cfg Config) (*heur.Found, error) {
	if err := dive.StartDive(); err != nil {
		return nil, err
	}
	defer dive.EndDive()

	for iter := 0; cfg.MaxDives == 0 || iter < cfg.MaxDives; iter++ {
		res, err := cfg.LP.Solve(ctx)
		if err != nil {
			return nil, err
		}
		if res.Status != lp.StatusOptimal {
			return nil, nil
		}
		idx, frac, ok := leastFractional(cfg.Variables, res.Sol.Primal)
		if !ok {
			values := make(map[string]float64, len(cfg.Variables))
			for i, v := range cfg.Variables {
				values[v.Name] = res.Sol.Primal[i]
			}
			return &heur.Found{Objective: res.Sol.Objective, Values: values}, nil
		}
		rounded := math.Round(frac)
		cfg.LP.SetColumnBounds(idx, rounded, rounded)
	}
	return nil, nil
}

// leastFractional returns the column index with the smallest non-zero
// fractionality among cfg.Variables that are not Continuous, or ok=false
// if every integer variable already sits at an integral value.
func leastFractional(vars []*variable.Variable, primal map[int]float64) (idx int, value float64, ok bool) {
	bestFrac := math.Inf(1)
	bestIdx := -1
	for i, v := range vars {
		if v.Kind == variable.Continuous {
			continue
		}
		val := primal[i]
		f := val - math.Floor(val)
		if f > 0.5 {
			f = 1 - f
		}
		if f > 1e-6 && f < bestFrac {
			bestFrac = f
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return 0, 0, false
	}
	return bestIdx, primal[bestIdx], true
}
