package variable

// AddVarUpperBound records x <= coef*z + constant, with z binary. Per spec
// §4.2 this is only accepted when it is redundant-free: the bound implied
// by z==1 (or z==0, whichever is tighter) must be strictly tighter than v's
// current unconditional (global) upper bound.
func (v *Variable) AddVarUpperBound(coef float64, z *Variable, constant float64) error {
	if !isBinaryDomain(z) {
		return errRedundantVarBound(v)
	}
	// the smaller of the values at z=0 and z=1 is the tighter upper bound
	implied := constant
	if coef+constant < implied {
		implied = coef + constant
	}
	if implied >= v.Global.Upper {
		return errRedundantVarBound(v)
	}
	v.vubs = append(v.vubs, VarBound{Coef: coef, Z: z, Const: constant})
	return nil
}

// AddVarLowerBound is the symmetric counterpart of AddVarUpperBound for
// x >= coef*z + constant.
func (v *Variable) AddVarLowerBound(coef float64, z *Variable, constant float64) error {
	if !isBinaryDomain(z) {
		return errRedundantVarBound(v)
	}
	implied := impliedBoundValue(coef, constant, z)
	if implied <= v.Global.Lower {
		return errRedundantVarBound(v)
	}
	v.vlbs = append(v.vlbs, VarBound{Coef: coef, Z: z, Const: constant})
	return nil
}

// VarUpperBounds returns the sparse list of x <= coef*z + constant
// relations registered on v, consumed by separators (mixing cuts) and
// propagators.
func (v *Variable) VarUpperBounds() []VarBound { return v.vubs }

// VarLowerBounds returns the sparse list of x >= coef*z + constant
// relations registered on v.
func (v *Variable) VarLowerBounds() []VarBound { return v.vlbs }

func isBinaryDomain(z *Variable) bool {
	return z.Kind == Binary || (z.Global.Lower == 0 && z.Global.Upper == 1 && z.Kind != Continuous)
}

// impliedBoundValue returns the larger of the two values coef*z+constant
// takes at z in {0,1}, which is the tighter implied value for a lower
// bound; AddVarLowerBound compares it with v's unconditional lower bound.
func impliedBoundValue(coef float64, constant float64, _ *Variable) float64 {
	a := constant
	b := coef + constant
	if a > b {
		return a
	}
	return b
}
