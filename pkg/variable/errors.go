package variable

import (
	"fmt"

	"github.com/operator-framework/cipcore/internal/engineerr"
)

func errInvalidBounds(v *Variable, lo, hi float64) error {
	return engineerr.Wrap(engineerr.InvalidData, "variable.bounds",
		fmt.Sprintf("%s: lower %v exceeds upper %v", v.Name, lo, hi))
}

func errNonIntegralGlobalBound(v *Variable, value float64) error {
	return engineerr.Wrap(engineerr.InvalidData, "variable.bounds",
		fmt.Sprintf("%s: integer variable requires an integral global bound, got %v", v.Name, value))
}

func errAggregatedBoundChange(v *Variable) error {
	return engineerr.Wrap(engineerr.InvalidData, "variable.bounds",
		fmt.Sprintf("%s: cannot change bounds of an aggregated variable", v.Name))
}

func errRedundantVarBound(v *Variable) error {
	return engineerr.Wrap(engineerr.InvalidData, "variable.varbound",
		fmt.Sprintf("%s: variable bound does not strictly tighten the unconditional bound", v.Name))
}

func errAggregationCycle(v *Variable) error {
	return engineerr.Wrap(engineerr.InvalidData, "variable.resolve",
		fmt.Sprintf("%s: aggregation chain cycle detected", v.Name))
}
