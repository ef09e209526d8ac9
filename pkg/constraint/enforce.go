package constraint

import "context"

// ByHandler groups a flat constraint list by handler name, the shape every
// callback slot expects ("cons []*Constraint" scoped to one handler).
func ByHandler(cons []*Constraint) map[string][]*Constraint {
	out := make(map[string][]*Constraint)
	for _, c := range cons {
		out[c.Handler.Name] = append(out[c.Handler.Name], c)
	}
	return out
}

// EnforceOutcome is the terminal verdict of one enforcement pass (spec
// §4.3): either the node is feasible (a solution was found), infeasible
// (must branch), or some handler already resolved the node (cutoff,
// branched, reduced-domain, separated, consadded) and the caller should act
// on that Result directly.
type EnforceOutcome int

const (
	EnforceResolved EnforceOutcome = iota
	EnforceFeasible
	EnforceInfeasible
)

// Enforce runs the enforcement loop: handlers in decreasing enforcement
// priority, stopping at the first one that returns a resolving Result. If
// every invoked handler returns Feasible or Infeasible, the node is
// declared feasible or infeasible. active maps handler name to that
// handler's currently-active-and-enabled constraints.
func (r *Registry) Enforce(ctx context.Context, active map[string][]*Constraint, useLPEnforce bool) (EnforceOutcome, Result, *Handler, error) {
	sawInfeasible := false
	for _, h := range r.ByEnforcementPriority() {
		cb := h.Callbacks.EnforceLP
		if !useLPEnforce {
			cb = h.Callbacks.EnforcePseudo
		}
		if cb == nil {
			continue
		}
		res, err := cb(ctx, active[h.Name])
		if err != nil {
			return EnforceResolved, res, h, err
		}
		switch res {
		case ResultFeasible:
			continue
		case ResultInfeasible:
			sawInfeasible = true
			continue
		default:
			if enforceStops[res] {
				return EnforceResolved, res, h, nil
			}
		}
	}
	if sawInfeasible {
		return EnforceInfeasible, ResultInfeasible, nil, nil
	}
	return EnforceFeasible, ResultFeasible, nil, nil
}
