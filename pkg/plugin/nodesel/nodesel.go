// Package nodesel defines the node selector plugin contract (C7): a
// pluggable comparison over open nodes, plus the default depth-first
// selector used when no other plugin is registered.
package nodesel

import (
	"github.com/operator-framework/cipcore/pkg/node"
	"github.com/operator-framework/cipcore/pkg/registry/priority"
)

// Selector orders open nodes for the search engine's Pop. Exactly one
// Selector is active at a time, chosen by highest Priority (spec §4.7),
// unlike constraint handlers which all run every round.
type Selector struct {
	Name        string
	Description string
	Priority    int
	MemSaveMode bool

	// Less reports whether a should be processed before b. It must be a
	// strict weak ordering; pkg/queue breaks remaining ties by insertion
	// order.
	Less func(a, b *node.Node) bool

	// SelectChild optionally overrides which sibling to descend into
	// immediately after branching, bypassing the queue for plunge-style
	// selectors (depth-first). Nil means "always requeue and let Less
	// decide," i.e. best-first behavior. pkg/engine does not call
	// SelectChild: it pushes every child onto the queue and lets Less decide.
	SelectChild func(children []*node.Node) *node.Node
}

// PluginPriority satisfies priority.Prioritized.
func (s *Selector) PluginPriority() int { return s.Priority }

// Registry holds the known selectors and the active one, built on the
// shared generic priority registry (C15).
type Registry struct {
	g *priority.Generic[*Selector]
}

// NewRegistry returns an empty selector registry.
func NewRegistry() *Registry {
	return &Registry{g: priority.NewGeneric[*Selector](func(s *Selector) string { return s.Name })}
}

// Register adds s, replacing any existing selector of the same name.
func (r *Registry) Register(s *Selector) { r.g.Register(s) }

// Lookup returns the named selector, or nil.
func (r *Registry) Lookup(name string) *Selector {
	s, ok := r.g.Lookup(name)
	if !ok {
		return nil
	}
	return s
}

// Active returns the highest-priority registered selector, or nil if none
// are registered. Ties break by registration order for determinism.
func (r *Registry) Active() *Selector {
	ordered := r.g.ByPriority()
	if len(ordered) == 0 {
		return nil
	}
	return ordered[0]
}
