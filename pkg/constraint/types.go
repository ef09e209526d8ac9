// Package constraint implements the constraint object and handler registry
// (C3): a generic constraint struct, handler callback dispatch, the
// active/enabled constraint sets, and the three priority-sorted handler
// lists the separation/enforcement/checking loops iterate.
package constraint

// Flag is one bit of a Constraint's {separate, enforce, check, propagate,
// original, active, enabled} flag set.
type Flag uint8

const (
	FlagSeparate Flag = 1 << iota
	FlagEnforce
	FlagCheck
	FlagPropagate
	FlagOriginal
	FlagActive
	FlagEnabled
)

// OwningNode is a weak reference used only for scope checks (per the
// Design Note on cycle avoidance): the node owns its change list and
// releases references on undo, so a Constraint never needs a strong
// back-pointer that could form a cycle with a later sibling's change list.
type OwningNode interface {
	// ID is a stable, comparable identifier for the node, used only for
	// equality checks (e.g. "is this constraint active at this node").
	ID() int64
}

// Constraint is handler-agnostic bookkeeping plus a handler-private
// payload. Per spec §3, a constraint is active iff it belongs to the
// current node's ancestor chain and was not disabled, and enabled iff
// active and not temporarily disabled.
type Constraint struct {
	Name    string
	Handler *Handler
	Payload interface{}

	// Owner is nil for constraints created before the root (global).
	Owner OwningNode

	refCount int
	flags    Flag

	// handlerIndex is the constraint's position in the handler's per-kind
	// instance array, letting Handler.RemoveInstance run in O(1).
	handlerIndex int
}

func (c *Constraint) Has(f Flag) bool { return c.flags&f != 0 }
func (c *Constraint) set(f Flag)      { c.flags |= f }
func (c *Constraint) clear(f Flag)    { c.flags &^= f }

// IsActive reports whether the constraint currently belongs to the active
// set (it has not been deactivated; a temporarily disabled constraint is
// still active).
func (c *Constraint) IsActive() bool { return c.Has(FlagActive) }

// IsEnabled reports whether the constraint is active and not temporarily
// disabled.
func (c *Constraint) IsEnabled() bool { return c.Has(FlagActive) && c.Has(FlagEnabled) }

// Retain increments the reference count; constraints are released when no
// referrer remains.
func (c *Constraint) Retain() { c.refCount++ }

// Release decrements the reference count and reports whether it reached
// zero (the caller should then dispose of the constraint).
func (c *Constraint) Release() bool {
	c.refCount--
	return c.refCount <= 0
}

// NewConstraint builds a Constraint for h and files it into h's per-kind
// instance array, recording the resulting position in the constraint itself
// so RemoveInstance can later remove it in O(1).
func NewConstraint(name string, h *Handler, payload interface{}) *Constraint {
	c := &Constraint{Name: name, Handler: h, Payload: payload}
	if h != nil {
		h.addInstance(c)
	}
	return c
}

// HandlerIndex returns the constraint's position within its handler's
// per-kind array.
func (c *Constraint) HandlerIndex() int { return c.handlerIndex }

// SetHandlerIndex is called by the registry when the constraint is filed
// into (or moved within) its handler's per-kind array.
func (c *Constraint) SetHandlerIndex(i int) { c.handlerIndex = i }
