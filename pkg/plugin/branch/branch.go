// Package branch defines the branching rule plugin contract (C8): given an
// LP-infeasible-for-integrality solution, pick a variable and a branching
// point, producing the bound changes for the down- and up-child.
package branch

import (
	"math"

	"github.com/operator-framework/cipcore/pkg/registry/priority"
	"github.com/operator-framework/cipcore/pkg/variable"
)

// Candidate is one fractional-valued variable available for branching.
type Candidate struct {
	Var   *variable.Variable
	Value float64
}

// Decision is a branching rule's output: the variable and point to branch
// on. DownUpper and UpLower are the bound each child receives; for a
// simple variable split, DownUpper = floor(Value) and UpLower = ceil(Value).
type Decision struct {
	Var       *variable.Variable
	DownUpper float64
	UpLower   float64
}

// Rule selects a branching candidate from a node's fractional variables.
type Rule struct {
	Name        string
	Description string
	Priority    int
	MaxDepth    int // 0 means unlimited

	// Select picks the branching decision given the candidates at the
	// current node. Returning a nil *Decision with a nil error means "no
	// opinion," letting a lower-priority rule run.
	Select func(candidates []Candidate) (*Decision, error)
}

// PluginPriority satisfies priority.Prioritized.
func (r *Rule) PluginPriority() int { return r.Priority }

// Registry holds the known branching rules, built on the shared generic
// priority registry (C15).
type Registry struct {
	g *priority.Generic[*Rule]
}

// NewRegistry returns an empty branching-rule registry.
func NewRegistry() *Registry {
	return &Registry{g: priority.NewGeneric[*Rule](func(r *Rule) string { return r.Name })}
}

// Register adds r, replacing any existing rule of the same name.
func (reg *Registry) Register(r *Rule) { reg.g.Register(r) }

// Decide runs each registered rule in priority order at the given depth
// until one returns a non-nil Decision (spec §4.8's branching dispatch
// loop, structurally identical to constraint enforcement dispatch).
func (reg *Registry) Decide(depth int, candidates []Candidate) (*Decision, error) {
	for _, r := range reg.g.ByPriority() {
		if r.MaxDepth > 0 && depth > r.MaxDepth {
			continue
		}
		d, err := r.Select(candidates)
		if err != nil {
			return nil, err
		}
		if d != nil {
			return d, nil
		}
	}
	return nil, nil
}

// Fractionality returns how far value is from the nearest integer, in
// [0, 0.5].
func Fractionality(value float64) float64 {
	f := value - math.Floor(value)
	if f > 0.5 {
		f = 1 - f
	}
	return f
}
