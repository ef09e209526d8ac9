package presolve

import (
	"context"
	"math"

	"github.com/operator-framework/cipcore/internal/engineerr"
	"github.com/operator-framework/cipcore/pkg/variable"
)

// ErrUnbounded is returned by DualFixing's Run closure when a variable
// qualifies for dual fixing in a direction whose bound is infinite: per
// spec §4.12, fixing toward an unbounded side means the problem itself is
// unbounded, not just that variable.
var ErrUnbounded = engineerr.Wrap(engineerr.InvalidResult, "presolve.dualfix", "dual-fix target bound is infinite")

// DualFixing builds the one concrete presolver shipped by this package
// (spec §9's resolved open question): for every active variable whose
// objective coefficient has a sign that makes one of its finite bounds
// always at least as good as any interior value, and that appears with a
// uniform coefficient sign in every row it participates in (so tightening
// its bound cannot cut off the optimum), fix it to that bound.
//
// lockDown/lockUp report, per variable index, how many constraints would
// be violated by decreasing/increasing the variable respectively; a
// variable is dual-fixable only when one direction has zero locks.
func DualFixing(vars []*variable.Variable, lockDown, lockUp []int) *Presolver {
	return &Presolver{
		Name:        "dualfix",
		Description: "fix variables whose objective direction is never blocked by a constraint lock",
		Priority:    100,
		Run: func(ctx context.Context) (Delta, []Op, error) {
			var delta Delta
			var ops []Op
			for i, v := range vars {
				if v.Status != variable.StatusActive {
					continue
				}
				target, fixable, unbounded := dualFixTarget(v, lockDown[i], lockUp[i])
				if unbounded {
					return delta, ops, ErrUnbounded
				}
				if !fixable {
					continue
				}
				if err := v.Fix(target); err != nil {
					continue
				}
				delta.Fixings++
				ops = append(ops, Op{Op: "replace", Path: "/variables/" + v.Name + "/status", Value: "fixed"})
			}
			return delta, ops, nil
		},
	}
}

// dualFixTarget reports the bound a variable should be fixed to, if its
// objective direction is never blocked by a constraint lock. unbounded is
// true when that direction's bound is infinite, meaning the problem itself
// is unbounded rather than this single variable being fixable.
func dualFixTarget(v *variable.Variable, locksDown, locksUp int) (target float64, fixable, unbounded bool) {
	switch {
	case v.ObjCoef > 0 && locksDown == 0:
		if math.IsInf(v.Global.Lower, 0) {
			return 0, false, true
		}
		return v.Global.Lower, true, false
	case v.ObjCoef < 0 && locksUp == 0:
		if math.IsInf(v.Global.Upper, 0) {
			return 0, false, true
		}
		return v.Global.Upper, true, false
	default:
		return 0, false, false
	}
}
