package variable

// Transform creates the transformed representative of an original variable.
// Each original variable has at most one transformed variable; calling
// Transform twice on the same original is a no-op that returns the
// existing representative.
func (v *Variable) Transform() *Variable {
	if v.Transformed != nil {
		return v.Transformed
	}
	t := &Variable{
		Index:   v.Index,
		Name:    v.Name,
		Kind:    v.Kind,
		ObjCoef: v.ObjCoef,
		Global:  v.Global,
		Local:   v.Global,
		Status:  StatusActive,
		Original: v,
	}
	t.Holes = append([]Hole(nil), v.Holes...)
	v.Transformed = t
	return t
}

// Fix collapses the variable's bounds to a single value, setting
// Status = StatusFixed. Fixing is a presolve-only operation (spec §4.2);
// it is not undoable through the node-set-change mechanism because
// presolve reductions are never backtracked.
func (v *Variable) Fix(value float64) error {
	if err := v.setGlobal(value, value, true, true); err != nil {
		return err
	}
	v.Status = StatusFixed
	return nil
}

// Aggregate rewrites v as coef*to + constant. Look-ups transparently expand
// through this link; any subsequent bound change attempt on v fails with
// InvalidData per the aggregated-bound-change invariant.
func (v *Variable) Aggregate(coef float64, to *Variable, constant float64) {
	v.AggCoef = coef
	v.AggVar = to
	v.AggConst = constant
	if coef == -1 {
		v.Status = StatusNegated
	} else {
		v.Status = StatusAggregated
	}
}

// MultiAggregate rewrites v as sum(term.Coef*term.Var) + constant.
func (v *Variable) MultiAggregate(terms []AggregationTerm, constant float64) {
	v.MultiAgg = terms
	v.MultiAggConst = constant
	v.Status = StatusMultiAggregated
}

// ResolvedValue walks the aggregation chain once to compute v's value given
// a value function over active variables. Cycles are an invariant
// violation and return an error rather than looping forever.
func (v *Variable) ResolvedValue(activeValue func(*Variable) float64) (float64, error) {
	return v.resolve(activeValue, make(map[*Variable]bool))
}

func (v *Variable) resolve(activeValue func(*Variable) float64, seen map[*Variable]bool) (float64, error) {
	if seen[v] {
		return 0, errAggregationCycle(v)
	}
	seen[v] = true

	switch v.Status {
	case StatusActive, StatusFixed:
		return activeValue(v), nil
	case StatusAggregated, StatusNegated:
		inner, err := v.AggVar.resolve(activeValue, seen)
		if err != nil {
			return 0, err
		}
		return v.AggCoef*inner + v.AggConst, nil
	case StatusMultiAggregated:
		total := v.MultiAggConst
		for _, term := range v.MultiAgg {
			inner, err := term.Var.resolve(activeValue, seen)
			if err != nil {
				return 0, err
			}
			total += term.Coef * inner
		}
		return total, nil
	default:
		return activeValue(v), nil
	}
}

// IsActive reports whether v participates directly in the transformed
// problem (spec GLOSSARY "Active variable").
func (v *Variable) IsActive() bool { return v.Status == StatusActive }
