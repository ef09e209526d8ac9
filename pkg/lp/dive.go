package lp

import (
	"fmt"

	"github.com/operator-framework/cipcore/internal/engineerr"
)

// Dive enforces the nested-mode contract of spec §4.4: StartDive snapshots
// column bounds, row set, and basis; while diving, bound changes and row
// additions are unlimited and reversible; EndDive restores the pre-dive LP
// verbatim. Dives may not be nested.
type Dive struct {
	lp       LP
	snapshot Snapshot
	active   bool
}

// NewDive wraps lp with dive-mode bookkeeping. The same Dive value should be
// reused across a heuristic's StartDive/EndDive calls so nesting can be
// detected.
func NewDive(lp LP) *Dive { return &Dive{lp: lp} }

// InDive reports whether a dive is currently active.
func (d *Dive) InDive() bool { return d.active }

// StartDive begins a dive, snapshotting the LP. It fails if a dive is
// already active (dives may not be nested).
func (d *Dive) StartDive() error {
	if d.active {
		return engineerr.Wrap(engineerr.InvalidData, "lp.StartDive", "dives may not be nested")
	}
	d.snapshot = d.lp.Snapshot()
	d.active = true
	return nil
}

// EndDive restores the LP to its pre-dive snapshot and returns the LP to
// normal (non-diving) mode.
func (d *Dive) EndDive() error {
	if !d.active {
		return engineerr.Wrap(engineerr.InvalidData, "lp.EndDive", "no dive is active")
	}
	d.lp.Restore(d.snapshot)
	d.active = false
	d.snapshot = nil
	return nil
}

// VerifyIsolation is a test hook: it re-snapshots the LP and checks it is
// byte-equal to pre, the snapshot taken before StartDive. Used by
// tests asserting testable property 6.
func VerifyIsolation(lp LP, pre Snapshot) error {
	post := lp.Snapshot()
	if !pre.Equal(post) {
		return fmt.Errorf("lp: dive isolation violated, post-dive state differs from pre-dive snapshot")
	}
	return nil
}
