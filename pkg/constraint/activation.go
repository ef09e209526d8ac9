package constraint

// Activate marks c active and, the first time, invokes the handler's
// Active callback. It is idempotent: calling it on an already-active
// constraint is a no-op, satisfying the apply/undo symmetry invariant
// together with Deactivate.
func (c *Constraint) Activate() error {
	if c.Has(FlagActive) {
		return nil
	}
	c.set(FlagActive)
	c.set(FlagEnabled)
	if c.Handler != nil && c.Handler.Callbacks.Active != nil {
		return c.Handler.Callbacks.Active(c)
	}
	return nil
}

// Deactivate is the exact inverse of Activate: undoing an Activate must
// restore the constraint to precisely its pre-activation flag state.
func (c *Constraint) Deactivate() error {
	if !c.Has(FlagActive) {
		return nil
	}
	c.clear(FlagActive)
	c.clear(FlagEnabled)
	if c.Handler != nil && c.Handler.Callbacks.Deactive != nil {
		return c.Handler.Callbacks.Deactive(c)
	}
	return nil
}

// Disable temporarily removes c from the enabled set without deactivating
// it (it remains part of the node's ancestor chain).
func (c *Constraint) Disable() error {
	if !c.Has(FlagEnabled) {
		return nil
	}
	c.clear(FlagEnabled)
	if c.Handler != nil && c.Handler.Callbacks.Disable != nil {
		return c.Handler.Callbacks.Disable(c)
	}
	return nil
}

// Enable is the exact inverse of Disable.
func (c *Constraint) Enable() error {
	if !c.Has(FlagActive) || c.Has(FlagEnabled) {
		return nil
	}
	c.set(FlagEnabled)
	if c.Handler != nil && c.Handler.Callbacks.Enable != nil {
		return c.Handler.Callbacks.Enable(c)
	}
	return nil
}

// SetChange is a pair of lists: constraints to add (activate), constraints
// to disable, applied on node entry and undone on node exit (spec §3
// "Constraint-set change"). Apply then Undo must restore the active/enabled
// state exactly.
type SetChange struct {
	Added    []*Constraint
	Disabled []*Constraint
}

// Apply activates every constraint in Added and disables every constraint
// in Disabled, in that order.
func (sc *SetChange) Apply() error {
	for _, c := range sc.Added {
		if err := c.Activate(); err != nil {
			return err
		}
	}
	for _, c := range sc.Disabled {
		if err := c.Disable(); err != nil {
			return err
		}
	}
	return nil
}

// Undo reverses Apply exactly: re-enable everything that was disabled, then
// deactivate everything that was added, in reverse order of Apply.
func (sc *SetChange) Undo() error {
	for i := len(sc.Disabled) - 1; i >= 0; i-- {
		if err := sc.Disabled[i].Enable(); err != nil {
			return err
		}
	}
	for i := len(sc.Added) - 1; i >= 0; i-- {
		if err := sc.Added[i].Deactivate(); err != nil {
			return err
		}
	}
	return nil
}
