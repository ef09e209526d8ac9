package constraint

import "sort"

// Registry holds every registered handler, plus the three
// separately-sorted views (by separation, enforcement, checking priority)
// spec §4.3 requires. Sorted views are cached and rebuilt lazily on the
// next read after a registration, mirroring C15's "iteration by priority
// uses a cached sorted view". It is hand-rolled rather than built on
// pkg/registry/priority.Generic — a handler needs three independent
// priority orders at once, not the one-priority-per-item shape Generic
// models, and the lazy dirty-rebuild here amortizes across all three views
// from a single registration pass.
type Registry struct {
	byName map[string]*Handler

	bySeparation  []*Handler
	byEnforcement []*Handler
	byCheck       []*Handler
	dirty         bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Handler)}
}

// Register adds a handler. Per spec §5, registration must only happen
// before search begins or inside a well-defined initialization callback;
// the Registry itself does not enforce that — pkg/engine does, by only
// calling Register during its uninitialized/presolve states.
func (r *Registry) Register(h *Handler) {
	r.byName[h.Name] = h
	r.dirty = true
}

// Lookup returns the handler registered under name, or nil.
func (r *Registry) Lookup(name string) *Handler { return r.byName[name] }

// Unregister drops the handler registered under name. It is an O(1) map
// deletion; the three cached priority views are invalidated and rebuilt
// lazily on the next read rather than compacted in place.
func (r *Registry) Unregister(name string) {
	delete(r.byName, name)
	r.dirty = true
}

func (r *Registry) rebuild() {
	if !r.dirty {
		return
	}
	all := make([]*Handler, 0, len(r.byName))
	for _, h := range r.byName {
		all = append(all, h)
	}
	r.bySeparation = sortedCopy(all, func(h *Handler) int { return h.SeparationPriority })
	r.byEnforcement = sortedCopy(all, func(h *Handler) int { return h.EnforcementPriority })
	r.byCheck = sortedCopy(all, func(h *Handler) int { return h.CheckPriority })
	r.dirty = false
}

func sortedCopy(in []*Handler, key func(*Handler) int) []*Handler {
	out := append([]*Handler(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return key(out[i]) > key(out[j]) })
	return out
}

// BySeparationPriority returns every handler in decreasing separation
// priority.
func (r *Registry) BySeparationPriority() []*Handler {
	r.rebuild()
	return r.bySeparation
}

// ByEnforcementPriority returns every handler in decreasing enforcement
// priority.
func (r *Registry) ByEnforcementPriority() []*Handler {
	r.rebuild()
	return r.byEnforcement
}

// ByCheckPriority returns every handler in decreasing check priority.
func (r *Registry) ByCheckPriority() []*Handler {
	r.rebuild()
	return r.byCheck
}

// HasPseudoEnforcer reports whether any registered handler implements
// EnforcePseudo. A pseudo solution only constitutes proof of feasibility
// when some handler actually validates it against the problem's rows;
// with none registered, Enforce's pseudo pass would trivially report
// feasible without checking anything.
func (r *Registry) HasPseudoEnforcer() bool {
	for _, h := range r.byName {
		if h.Has(CapEnforcePseudo) {
			return true
		}
	}
	return false
}
