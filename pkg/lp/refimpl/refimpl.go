// Package refimpl is a reference LP implementation satisfying pkg/lp.LP,
// used only by tests and the end-to-end scenario suite. It is not a
// simplex or interior-point solver — per the specification's scope, the
// real numerical LP algorithm is an external collaborator — it solves
// small bounded instances by direct enumeration, which is sufficient to
// drive the engine through the S1-S6 literal scenarios and exercise every
// method of the LP contract (rows, bounds, dive, Farkas proofs).
package refimpl

import (
	"context"
	"math"

	"github.com/operator-framework/cipcore/pkg/lp"
)

// maxEnumerable bounds how many columns refimpl will brute-force; the
// end-to-end scenarios are all well within this.
const maxEnumerable = 20

type basis struct{ values map[int]float64 }

func (b basis) Equal(other lp.Basis) bool {
	o, ok := other.(basis)
	if !ok {
		return false
	}
	if len(b.values) != len(o.values) {
		return false
	}
	for k, v := range b.values {
		if o.values[k] != v {
			return false
		}
	}
	return true
}

type snapshot struct {
	cols []lp.Column
	rows []lp.Row
	bas  basis
}

func (s snapshot) Equal(other lp.Snapshot) bool {
	o, ok := other.(snapshot)
	if !ok {
		return false
	}
	if len(s.cols) != len(o.cols) || len(s.rows) != len(o.rows) {
		return false
	}
	for i := range s.cols {
		if s.cols[i] != o.cols[i] {
			return false
		}
	}
	for i := range s.rows {
		a, b := s.rows[i], o.rows[i]
		if a.Name != b.Name || a.LHS != b.LHS || a.RHS != b.RHS || a.Local != b.Local || len(a.Coefs) != len(b.Coefs) {
			return false
		}
		for k, v := range a.Coefs {
			if w, ok := b.Coefs[k]; !ok || w != v {
				return false
			}
		}
	}
	return s.bas.Equal(o.bas)
}

// LP is the reference implementation. Its objective is always minimized
// (spec's scenarios are all stated as "minimize").
type LP struct {
	cols []lp.Column
	rows []lp.Row
	last lp.Solution
}

var _ lp.LP = (*LP)(nil)

// New returns an LP with the given columns and no rows.
func New(cols []lp.Column) *LP {
	return &LP{cols: append([]lp.Column(nil), cols...)}
}

func (l *LP) AddRow(r lp.Row) int {
	l.rows = append(l.rows, r)
	return len(l.rows) - 1
}

func (l *LP) RemoveRow(index int) {
	if index < 0 || index >= len(l.rows) {
		return
	}
	l.rows = append(l.rows[:index], l.rows[index+1:]...)
}

func (l *LP) SetColumnBounds(index int, lower, upper float64) {
	if index < 0 || index >= len(l.cols) {
		return
	}
	l.cols[index].Lower = lower
	l.cols[index].Upper = upper
}

func (l *LP) Columns() int { return len(l.cols) }
func (l *LP) Rows() int    { return len(l.rows) }

func (l *LP) Snapshot() lp.Snapshot {
	return snapshot{
		cols: append([]lp.Column(nil), l.cols...),
		rows: append([]lp.Row(nil), l.rows...),
		bas:  basis{values: cloneMap(l.last.Primal)},
	}
}

func (l *LP) Restore(s lp.Snapshot) {
	snap, ok := s.(snapshot)
	if !ok {
		return
	}
	l.cols = append([]lp.Column(nil), snap.cols...)
	l.rows = append([]lp.Row(nil), snap.rows...)
	l.last = lp.Solution{Primal: cloneMap(snap.bas.values)}
}

func cloneMap(m map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Solve enumerates every integer point of the box defined by column bounds
// (each bound rounded to the nearest integer) and returns the best
// row-feasible one; it never returns a fractional point.
func (l *LP) Solve(ctx context.Context) (lp.Result, error) {
	if err := ctx.Err(); err != nil {
		return lp.Result{Status: lp.StatusTimeLimit}, nil
	}

	if unbounded, dir := l.detectUnbounded(); unbounded {
		return lp.Result{Status: lp.StatusUnbounded, Sol: lp.Solution{Primal: dir}}, nil
	}

	n := len(l.cols)
	if n > maxEnumerable {
		return lp.Result{Status: lp.StatusError}, nil
	}

	best := math.Inf(1)
	var bestAssignment map[int]float64
	found := false

	assignment := make(map[int]float64, n)
	var recurse func(i int) error
	recurse = func(i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i == n {
			if !l.satisfiesRows(assignment) {
				return nil
			}
			obj := l.objective(assignment)
			if obj < best {
				best = obj
				bestAssignment = cloneMap(assignment)
				found = true
			}
			return nil
		}
		col := l.cols[i]
		lo, hi := int(math.Round(col.Lower)), int(math.Round(col.Upper))
		for v := lo; v <= hi; v++ {
			assignment[i] = float64(v)
			if err := recurse(i + 1); err != nil {
				return err
			}
		}
		delete(assignment, i)
		return nil
	}
	if err := recurse(0); err != nil {
		return lp.Result{Status: lp.StatusTimeLimit}, nil
	}

	if !found {
		return lp.Result{Status: lp.StatusInfeasible, Farkas: l.trivialFarkas()}, nil
	}

	l.last = lp.Solution{Primal: bestAssignment, Objective: best, Basis: basis{values: bestAssignment}}
	return lp.Result{Status: lp.StatusOptimal, Sol: l.last}, nil
}

func (l *LP) objective(assignment map[int]float64) float64 {
	total := 0.0
	for i, col := range l.cols {
		total += col.ObjCoef * assignment[i]
	}
	return total
}

func (l *LP) satisfiesRows(assignment map[int]float64) bool {
	for _, row := range l.rows {
		sum := 0.0
		for idx, coef := range row.Coefs {
			sum += coef * assignment[idx]
		}
		if sum < row.LHS-1e-9 || sum > row.RHS+1e-9 {
			return false
		}
	}
	return true
}

// detectUnbounded reports whether some column with an unbounded side can
// improve the objective without limit (minimization: lower==-Inf with a
// negative objective coefficient, or upper==+Inf with a positive
// coefficient contributes unboundedness only when that column is otherwise
// unconstrained by any row — sufficient for the reference implementation's
// purpose of driving scenario S2).
func (l *LP) detectUnbounded() (bool, map[int]float64) {
	if len(l.rows) > 0 {
		return false, nil
	}
	for i, col := range l.cols {
		if math.IsInf(col.Upper, 1) && col.ObjCoef < 0 {
			return true, map[int]float64{i: 1}
		}
		if math.IsInf(col.Lower, -1) && col.ObjCoef > 0 {
			return true, map[int]float64{i: -1}
		}
	}
	return false, nil
}

// trivialFarkas returns a uniform-multiplier Farkas proof. The reference
// implementation does not run a real dual simplex, so this is documented as
// a placeholder sufficient to exercise pkg/conflict's consumption of the
// FarkasProof shape, not a certified dual ray.
func (l *LP) trivialFarkas() *lp.FarkasProof {
	mult := make(map[int]float64, len(l.rows))
	for i := range l.rows {
		mult[i] = 1
	}
	return &lp.FarkasProof{RowMultipliers: mult}
}
