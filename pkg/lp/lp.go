package lp

import "context"

// LP is the abstract relaxation the search engine drives. Implementations
// are external collaborators (spec §1); the engine only calls through this
// interface.
type LP interface {
	// AddRow appends a row (a constraint-handler relaxation row or a cut)
	// and returns its index.
	AddRow(r Row) int
	// RemoveRow removes the row at index, which must be the most recently
	// added row still present (rows are removed in LIFO order by dive/undo
	// machinery; implementations may relax this but need not support
	// arbitrary removal order).
	RemoveRow(index int)
	// SetColumnBounds changes column index's bounds for the next Solve.
	SetColumnBounds(index int, lower, upper float64)
	// Columns and Rows report the LP's current column/row count.
	Columns() int
	Rows() int

	// Solve resolves from the current warm start (if any) and returns the
	// outcome. ctx cancellation must be observed between iterations where
	// feasible; a cancelled Solve returns StatusTimeLimit or StatusError.
	Solve(ctx context.Context) (Result, error)

	// Snapshot captures everything needed to restore the LP to its exact
	// current state via Restore: column bounds, the row set, and the
	// basis. Used by Dive (start-dive/end-dive, spec §4.4).
	Snapshot() Snapshot
	// Restore returns the LP to the state captured by s.
	Restore(s Snapshot)
}

// Snapshot is an opaque capture of LP state produced by LP.Snapshot and
// consumed by LP.Restore.
type Snapshot interface {
	// Equal reports whether two snapshots describe byte-equal state
	// (rows, column bounds, basis) — testable property 6, dive isolation.
	Equal(Snapshot) bool
}
