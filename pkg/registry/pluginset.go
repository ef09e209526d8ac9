// Package registry aggregates the plugin-kind registries and drivers (C15)
// into the single PluginSet the search engine and the CLI wiring hold. The
// generic priority-sorted container shared by the per-kind registries
// lives in the sibling pkg/registry/priority package so this package can
// import the plugin-kind packages without creating an import cycle.
package registry

import (
	"github.com/operator-framework/cipcore/pkg/constraint"
	"github.com/operator-framework/cipcore/pkg/heur"
	"github.com/operator-framework/cipcore/pkg/plugin/branch"
	"github.com/operator-framework/cipcore/pkg/plugin/nodesel"
	"github.com/operator-framework/cipcore/pkg/plugin/reader"
	"github.com/operator-framework/cipcore/pkg/presolve"
	"github.com/operator-framework/cipcore/pkg/propagate"
	"github.com/operator-framework/cipcore/pkg/separate"
)

// PluginSet aggregates one registry/driver per plugin kind, the single
// object the search engine and the CLI wiring hold, mirroring how the
// teacher's resolver keeps one cache object per concern instead of
// threading each cache through every call site individually.
type PluginSet struct {
	Constraints *constraint.Registry
	NodeSel     *nodesel.Registry
	Branch      *branch.Registry
	Propagate   *propagate.Driver
	Separate    *separate.Driver
	Heuristics  *heur.Driver
	Presolve    *presolve.Driver
	Readers     *reader.Registry
}

// NewPluginSet returns a PluginSet with every driver initialized and the
// module's required built-in defaults registered: the depth-first node
// selector, most-fractional branching, and the plain-text reader (spec
// §4.7/§4.8's "must always have a usable fallback" requirement, and this
// module's own supplemented plain-text format).
func NewPluginSet() *PluginSet {
	ps := &PluginSet{
		Constraints: constraint.NewRegistry(),
		NodeSel:     nodesel.NewRegistry(),
		Branch:      branch.NewRegistry(),
		Propagate:   propagate.NewDriver(),
		Separate:    separate.NewDriver(separate.NewPool()),
		Heuristics:  heur.NewDriver(),
		Presolve:    presolve.NewDriver(0),
		Readers:     reader.NewRegistry(),
	}
	ps.NodeSel.Register(nodesel.DepthFirst)
	ps.Branch.Register(branch.MostFractional)
	ps.Readers.Register(reader.Plain)
	return ps
}
