// Package lp defines the LP relaxation interface (C4): an abstract LP with
// rows, columns, a basis snapshot, dive-mode semantics, and Farkas proofs
// on infeasibility. The numerical algorithm behind it (simplex, interior
// point) is explicitly out of scope per the specification's PURPOSE &
// SCOPE section; this package only defines the contract an external solver
// must satisfy, plus (in the refimpl subpackage) a tiny reference
// implementation used to exercise that contract end-to-end in tests.
package lp

// Status is the outcome of a Solve call.
type Status int

const (
	StatusNotSolved Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
	StatusIterLimit
	StatusTimeLimit
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusNotSolved:
		return "not-solved"
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusIterLimit:
		return "iter-limit"
	case StatusTimeLimit:
		return "time-limit"
	case StatusError:
		return "error"
	default:
		return "unknown-status"
	}
}

// Column is one LP variable column.
type Column struct {
	Name         string
	Lower, Upper float64
	ObjCoef      float64
}

// Row is one linear relaxation row, contributed by a constraint handler or
// added as a cut.
type Row struct {
	Name    string
	Coefs   map[int]float64 // column index -> coefficient
	LHS, RHS float64
	Local   bool // true if the row only lives for the current subtree
}

// Basis is an opaque snapshot of the simplex basis; the core never inspects
// its contents, only compares two snapshots for equality (dive isolation,
// property 6) via an implementation-supplied Equal.
type Basis interface {
	Equal(Basis) bool
}

// FarkasProof is a dual ray certifying infeasibility: for each row, the
// dual multiplier; for each column, the reduced-cost contribution. It is
// the foundation conflict analysis (pkg/conflict) and feasibility cuts
// build on.
type FarkasProof struct {
	RowMultipliers map[int]float64
	ColReducedCost map[int]float64
}

// Solution is the result of a successful (optimal) Solve.
type Solution struct {
	Primal      map[int]float64
	ReducedCost map[int]float64
	Objective   float64
	Basis       Basis
}

// Result bundles everything a Solve call reports.
type Result struct {
	Status Status
	Sol    Solution
	Farkas *FarkasProof // set only when Status == StatusInfeasible
}
