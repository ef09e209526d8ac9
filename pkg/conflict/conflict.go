// Package conflict implements conflict analysis: given an infeasibility
// discovered either by LP relaxation (via a FarkasProof) or by domain
// propagation (via a chain of propagate.Reason records), derive a
// conflict constraint — a disjunction of bound changes whose joint
// presence is sufficient to reproduce the infeasibility — that can be
// added to prevent the same dead end from being rediscovered.
//
// Per the resolved open question in this module's expanded specification,
// aggregated-variable reasons are handled conservatively: the analysis
// stops widening at the first aggregated variable it encounters rather
// than attempting to split the reason across the aggregation, so every
// conflict clause produced here is sound but not always minimal.
package conflict

import (
	"github.com/operator-framework/cipcore/pkg/lp"
	"github.com/operator-framework/cipcore/pkg/propagate"
	"github.com/operator-framework/cipcore/pkg/variable"
)

// BoundLiteral is one (variable, bound side, value) fact participating in
// a conflict clause.
type BoundLiteral struct {
	VarName string
	IsUpper bool
	Bound   float64
}

// Clause is a derived conflict constraint: the set of bound literals whose
// simultaneous presence is infeasible. pkg/engine does not run the
// Analyzer or add clauses; a Clause takes effect only where a caller adds
// it as a constraint.
type Clause struct {
	Literals []BoundLiteral
	Source   string // "lp-farkas" or "propagation"
}

// resolver looks up the registered domain-propagator capable of
// explaining a given reason, mirroring constraint.Handler's
// ResolvePropagation slot for standalone propagators.
type resolver func(r propagate.Reason) ([]propagate.Reason, error)

// Analyzer walks propagation reason chains and LP Farkas proofs to
// produce conflict clauses.
type Analyzer struct {
	resolvers map[string]resolver
	vars      map[string]*variable.Variable
}

// NewAnalyzer returns an analyzer that can resolve variables by name
// (needed to detect the aggregated-variable stopping condition).
func NewAnalyzer(vars map[string]*variable.Variable) *Analyzer {
	return &Analyzer{resolvers: make(map[string]resolver), vars: vars}
}

// RegisterResolver makes propagatorName's ResolvePropagation available to
// FromPropagation.
func (a *Analyzer) RegisterResolver(propagatorName string, r resolver) {
	a.resolvers[propagatorName] = r
}

// FromPropagation walks the antecedent chain of reason, widening the
// conflict clause with every resolvable antecedent, stopping at terminal
// facts (no resolver, or an aggregated variable).
func (a *Analyzer) FromPropagation(reason propagate.Reason) Clause {
	clause := Clause{Source: "propagation"}
	seen := make(map[string]bool)
	a.widen(reason, &clause, seen)
	return clause
}

func (a *Analyzer) widen(r propagate.Reason, clause *Clause, seen map[string]bool) {
	key := r.VarName
	if seen[key] {
		return
	}
	seen[key] = true
	clause.Literals = append(clause.Literals, BoundLiteral{VarName: r.VarName, IsUpper: r.IsUpper, Bound: r.Bound})

	if v, ok := a.vars[r.VarName]; ok && v.Status != variable.StatusActive {
		// Aggregated variable: stop widening per the conservative policy
		// this package documents at the top.
		return
	}

	resolve, ok := a.resolvers[r.PropagatorName]
	if !ok {
		return
	}
	antecedents, err := resolve(r)
	if err != nil {
		return
	}
	for _, ant := range antecedents {
		a.widen(ant, clause, seen)
	}
}

// FromFarkas builds a conflict clause directly from an LP infeasibility
// proof: every row with a non-zero multiplier contributed to the
// infeasibility, so every variable bound active in those rows is a
// literal. rowVars maps row index to the variable names with non-zero
// coefficients in that row (the caller, which owns the LP, supplies this
// since pkg/lp.Row only records coefficients by column index).
func (a *Analyzer) FromFarkas(proof *lp.FarkasProof, rowVars map[int][]string, bounds map[string]BoundLiteral) Clause {
	clause := Clause{Source: "lp-farkas"}
	seen := make(map[string]bool)
	for rowIdx, mult := range proof.RowMultipliers {
		if mult == 0 {
			continue
		}
		for _, name := range rowVars[rowIdx] {
			if seen[name] {
				continue
			}
			seen[name] = true
			if lit, ok := bounds[name]; ok {
				clause.Literals = append(clause.Literals, lit)
			}
		}
	}
	return clause
}
