package constraint

import "context"

// Check runs the checking loop for a candidate integer solution: handlers
// in decreasing check priority, the first Infeasible ending the check. The
// flags let a handler skip work the caller (pkg/solution) has already
// done.
func (r *Registry) Check(ctx context.Context, active map[string][]*Constraint, checkIntegrality, checkLPRows bool) (bool, *Handler, error) {
	for _, h := range r.ByCheckPriority() {
		if h.Callbacks.Check == nil {
			continue
		}
		res, err := h.Callbacks.Check(ctx, active[h.Name], checkIntegrality, checkLPRows)
		if err != nil {
			return false, h, err
		}
		if res == ResultInfeasible {
			return false, h, nil
		}
	}
	return true, nil, nil
}
