package variable

import "math"

// SetGlobalLower sets the root-valid lower bound. Per spec §4.2 this is
// permitted only outside search; the package does not itself enforce that
// (the search engine does, by only calling node-set-change mutators once
// solving begins), but callers must respect the distinction.
func (v *Variable) SetGlobalLower(lb float64) error {
	return v.setGlobal(lb, v.Global.Upper, true, false)
}

// SetGlobalUpper sets the root-valid upper bound.
func (v *Variable) SetGlobalUpper(ub float64) error {
	return v.setGlobal(v.Global.Lower, ub, false, true)
}

func (v *Variable) setGlobal(lb, ub float64, touchedLower, touchedUpper bool) error {
	if v.Status != StatusActive {
		return errAggregatedBoundChange(v)
	}
	if err := v.checkIntegral(touchedLower, lb, touchedUpper, ub); err != nil {
		return err
	}
	if lb > ub {
		return errInvalidBounds(v, lb, ub)
	}
	v.Global.Lower, v.Global.Upper = lb, ub
	if v.Local.Lower < lb {
		v.Local.Lower = lb
	}
	if v.Local.Upper > ub {
		v.Local.Upper = ub
	}
	return nil
}

// SetLocalLower applies a local lower-bound change (recorded by the caller
// on the current node's change list for O(1) undo) and returns the
// previous value so the caller can build the undo record.
func (v *Variable) SetLocalLower(lb float64) (previous float64, err error) {
	if v.Status != StatusActive {
		return 0, errAggregatedBoundChange(v)
	}
	if err := v.checkIntegral(true, lb, false, 0); err != nil {
		return 0, err
	}
	if lb > v.Local.Upper {
		return 0, errInvalidBounds(v, lb, v.Local.Upper)
	}
	previous = v.Local.Lower
	v.Local.Lower = lb
	return previous, nil
}

// SetLocalUpper is the symmetric counterpart of SetLocalLower.
func (v *Variable) SetLocalUpper(ub float64) (previous float64, err error) {
	if v.Status != StatusActive {
		return 0, errAggregatedBoundChange(v)
	}
	if err := v.checkIntegral(false, 0, true, ub); err != nil {
		return 0, err
	}
	if v.Local.Lower > ub {
		return 0, errInvalidBounds(v, v.Local.Lower, ub)
	}
	previous = v.Local.Upper
	v.Local.Upper = ub
	return previous, nil
}

// UndoLocalLower restores a lower bound previously replaced by
// SetLocalLower; it performs no validation because it is only ever called
// by the node-set-change undo path with a value that was valid before.
func (v *Variable) UndoLocalLower(previous float64) { v.Local.Lower = previous }

// UndoLocalUpper is the symmetric counterpart of UndoLocalLower.
func (v *Variable) UndoLocalUpper(previous float64) { v.Local.Upper = previous }

func (v *Variable) checkIntegral(touchedLower bool, lb float64, touchedUpper bool, ub float64) error {
	if v.Kind == Continuous {
		return nil
	}
	if touchedLower && !isIntegralOrInf(lb) {
		return errNonIntegralGlobalBound(v, lb)
	}
	if touchedUpper && !isIntegralOrInf(ub) {
		return errNonIntegralGlobalBound(v, ub)
	}
	return nil
}

func isIntegralOrInf(v float64) bool {
	if math.IsInf(v, 0) {
		return true
	}
	return v == math.Trunc(v)
}

// AddHole inserts a half-open excluded interval [lo, hi) into the domain,
// maintaining the disjoint-hole invariant. It is the caller's
// responsibility to record the insertion on the node change list for
// undo (RemoveLastHole provides the O(1) counterpart).
func (v *Variable) AddHole(lo, hi float64) error {
	if lo >= hi {
		return errInvalidBounds(v, lo, hi)
	}
	for _, h := range v.Holes {
		if lo < h.Hi && h.Lo < hi {
			return errInvalidBounds(v, lo, hi) // overlapping hole
		}
	}
	v.Holes = append(v.Holes, Hole{Lo: lo, Hi: hi})
	return nil
}

// RemoveLastHole undoes the most recent AddHole, which is all the
// node-set-change undo stack ever needs since holes are only ever removed
// in the reverse order they were added within one node's lifetime.
func (v *Variable) RemoveLastHole() {
	if len(v.Holes) == 0 {
		return
	}
	v.Holes = v.Holes[:len(v.Holes)-1]
}

// InDomain reports whether value lies within [Local.Lower, Local.Upper] and
// outside every hole.
func (v *Variable) InDomain(value float64) bool {
	if value < v.Local.Lower || value > v.Local.Upper {
		return false
	}
	for _, h := range v.Holes {
		if h.Contains(value) {
			return false
		}
	}
	return true
}
