// Package priority implements the generic priority-sorted container (C15)
// reused by each plugin kind's specialized registry: node selectors,
// branching rules, and anything else keyed by name and ordered by a
// dispatch priority. It is kept separate from package registry's
// PluginSet so that the plugin-kind packages (pkg/plugin/branch,
// pkg/plugin/nodesel, ...) can depend on the generic container without
// importing PluginSet's own dependency on them.
package priority

import "sort"

// Prioritized is satisfied by any plugin record exposing a dispatch
// priority, the common ordering key across every plugin kind in this
// module.
type Prioritized interface {
	PluginPriority() int
}

// Generic is a priority-sorted, name-keyed registry usable by any plugin
// kind satisfying Prioritized. It is the shared building block: each
// plugin-kind package (constraint, nodesel, branch, ...) either embeds
// this directly or keeps an equivalent hand-rolled sort, for the same
// reason the rest of this module favors small concrete types over a
// reflective framework — plugin call signatures differ too much per kind
// to share beyond ordering.
type Generic[T Prioritized] struct {
	byName map[string]T
	order  []string
	namer  func(T) string
}

// NewGeneric returns an empty registry keying entries by namer.
func NewGeneric[T Prioritized](namer func(T) string) *Generic[T] {
	return &Generic[T]{byName: make(map[string]T), namer: namer}
}

// Register adds or replaces the entry named by namer(p).
func (g *Generic[T]) Register(p T) {
	name := g.namer(p)
	if _, exists := g.byName[name]; !exists {
		g.order = append(g.order, name)
	}
	g.byName[name] = p
}

// Lookup returns the named entry and whether it was found.
func (g *Generic[T]) Lookup(name string) (T, bool) {
	v, ok := g.byName[name]
	return v, ok
}

// ByPriority returns every registered entry sorted by descending
// priority, ties broken by registration order.
func (g *Generic[T]) ByPriority() []T {
	names := append([]string(nil), g.order...)
	sort.SliceStable(names, func(i, j int) bool {
		return g.byName[names[i]].PluginPriority() > g.byName[names[j]].PluginPriority()
	})
	out := make([]T, len(names))
	for i, n := range names {
		out[i] = g.byName[n]
	}
	return out
}

// Len reports how many entries are registered.
func (g *Generic[T]) Len() int { return len(g.order) }
