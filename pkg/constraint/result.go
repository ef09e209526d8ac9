package constraint

// Result is the return code of a handler callback. Not every value is
// meaningful for every callback slot — ENFORCE-LP allows a larger set than
// PROPAGATE, for instance — callers document which subset they accept and
// treat any other value as InvalidResult (engineerr).
type Result int

const (
	ResultDidNotRun Result = iota
	ResultFeasible
	ResultInfeasible
	ResultCutoff
	ResultBranched
	ResultReducedDomain
	ResultSeparated
	ResultConsAdded
	ResultDelayed
)

func (r Result) String() string {
	switch r {
	case ResultDidNotRun:
		return "did-not-run"
	case ResultFeasible:
		return "feasible"
	case ResultInfeasible:
		return "infeasible"
	case ResultCutoff:
		return "cutoff"
	case ResultBranched:
		return "branched"
	case ResultReducedDomain:
		return "reduced-domain"
	case ResultSeparated:
		return "separated"
	case ResultConsAdded:
		return "consadded"
	case ResultDelayed:
		return "delayed"
	default:
		return "unknown-result"
	}
}

// enforceStops is the set of enforcement results that end the enforcement
// loop immediately (spec §4.3).
var enforceStops = map[Result]bool{
	ResultCutoff:        true,
	ResultBranched:      true,
	ResultReducedDomain: true,
	ResultSeparated:     true,
	ResultConsAdded:     true,
}
