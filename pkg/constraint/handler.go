package constraint

import "context"

// Capability identifies one optional callback slot. A handler's Capabilities
// bitmap records which slots it actually implements, letting the plugin
// copy-on-clone machinery (spec §9 Design Notes) and the drivers in
// pkg/propagate/pkg/separate skip a slot instead of guessing a default
// behavior for it — "optional-slot omission means skip, never default
// behavior".
type Capability uint32

const (
	CapFree Capability = 1 << iota
	CapInit
	CapExit
	CapDeleteConstraint
	CapTransform
	CapSeparate
	CapEnforceLP
	CapEnforcePseudo
	CapCheck
	CapPropagate
	CapResolvePropagation
	CapPresolve
	CapLock
	CapActive
	CapDeactive
	CapEnable
	CapDisable
	CapPrint
	CapCopy
)

// Handler declares one class of constraints: name, description, the three
// independent priorities, propagation frequency, and a needs-constraint
// flag plus the callback slots it implements.
type Handler struct {
	Name        string
	Description string

	SeparationPriority int
	EnforcementPriority int
	CheckPriority       int
	// PropFreq is the propagation frequency in node-depth units; 0 means
	// "only before search" (spec §4.3).
	PropFreq int
	// NeedsConstraint, when true, tells the presolve/transform driver this
	// handler must have at least one constraint instance to be invoked at
	// all (some handlers, like a global symmetry handler, run even with
	// zero instances).
	NeedsConstraint bool

	Callbacks Callbacks

	caps      Capability
	instances []*Constraint
}

// Instances returns every constraint currently filed under h, in no
// particular order (removal is a swap-with-last, which does not preserve
// insertion order).
func (h *Handler) Instances() []*Constraint { return h.instances }

// addInstance appends c to h's instance array and records c's resulting
// index, called by NewConstraint.
func (h *Handler) addInstance(c *Constraint) {
	c.SetHandlerIndex(len(h.instances))
	h.instances = append(h.instances, c)
}

// RemoveInstance removes c from h's instance array in O(1) by swapping it
// with the last element, the same compaction pattern pkg/queue uses for its
// heap and pkg/constraint's own Registry.Unregister relies on the map's
// native O(1) deletion for.
func (h *Handler) RemoveInstance(c *Constraint) {
	i := c.HandlerIndex()
	last := len(h.instances) - 1
	if i < 0 || i > last || h.instances[i] != c {
		return
	}
	h.instances[i] = h.instances[last]
	h.instances[i].SetHandlerIndex(i)
	h.instances = h.instances[:last]
	c.SetHandlerIndex(-1)
}

// Callbacks is the fixed record of optional function-pointer slots a
// constraint handler may implement. A nil field means that slot is
// unimplemented and must be skipped by drivers, never defaulted.
type Callbacks struct {
	Free             func() error
	Init             func(ctx context.Context) error
	Exit             func(ctx context.Context) error
	DeleteConstraint func(c *Constraint) error
	Transform        func(c *Constraint) (*Constraint, error)
	Separate         func(ctx context.Context, cons []*Constraint, forceRound bool) (Result, error)
	EnforceLP        func(ctx context.Context, cons []*Constraint) (Result, error)
	EnforcePseudo    func(ctx context.Context, cons []*Constraint) (Result, error)
	Check            func(ctx context.Context, cons []*Constraint, checkIntegrality, checkLPRows bool) (Result, error)
	Propagate        func(ctx context.Context, cons []*Constraint) (Result, error)
	ResolvePropagation func(ctx context.Context, reason BoundChangeReason) error
	Presolve         func(ctx context.Context, cons []*Constraint) (PresolveDelta, error)
	Lock             func(c *Constraint, lockDown, lockUp int) error
	Active           func(c *Constraint) error
	Deactive         func(c *Constraint) error
	Enable           func(c *Constraint) error
	Disable          func(c *Constraint) error
	Print            func(c *Constraint) string
}

// BoundChangeReason is the argument to ResolvePropagation: the bound change
// a propagator deduced, for which conflict analysis wants the chain of
// antecedent bound changes that justify it (spec §4.9 conflict analysis
// hook).
type BoundChangeReason struct {
	VariableName string
	NewLower, NewUpper float64
	HasLower, HasUpper bool
}

// PresolveDelta reports what a handler's Presolve callback changed, used by
// the presolve driver (C12) to decide whether a round was productive.
type PresolveDelta struct {
	Fixings, Aggregations, BoundChanges, ConstraintDeletions, CoefficientChanges, SideChanges int
}

// Productive reports whether any counter in the delta is non-zero.
func (d PresolveDelta) Productive() bool {
	return d.Fixings != 0 || d.Aggregations != 0 || d.BoundChanges != 0 ||
		d.ConstraintDeletions != 0 || d.CoefficientChanges != 0 || d.SideChanges != 0
}

// NewHandler builds a Handler and computes its capability bitmap from which
// Callbacks fields are non-nil.
func NewHandler(name, description string, sepPrio, enfPrio, checkPrio, propFreq int, needsConstraint bool, cb Callbacks) *Handler {
	h := &Handler{
		Name: name, Description: description,
		SeparationPriority: sepPrio, EnforcementPriority: enfPrio, CheckPriority: checkPrio,
		PropFreq: propFreq, NeedsConstraint: needsConstraint, Callbacks: cb,
	}
	h.caps = computeCapabilities(cb)
	return h
}

func computeCapabilities(cb Callbacks) Capability {
	var caps Capability
	add := func(present bool, c Capability) {
		if present {
			caps |= c
		}
	}
	add(cb.Free != nil, CapFree)
	add(cb.Init != nil, CapInit)
	add(cb.Exit != nil, CapExit)
	add(cb.DeleteConstraint != nil, CapDeleteConstraint)
	add(cb.Transform != nil, CapTransform)
	add(cb.Separate != nil, CapSeparate)
	add(cb.EnforceLP != nil, CapEnforceLP)
	add(cb.EnforcePseudo != nil, CapEnforcePseudo)
	add(cb.Check != nil, CapCheck)
	add(cb.Propagate != nil, CapPropagate)
	add(cb.ResolvePropagation != nil, CapResolvePropagation)
	add(cb.Presolve != nil, CapPresolve)
	add(cb.Lock != nil, CapLock)
	add(cb.Active != nil, CapActive)
	add(cb.Deactive != nil, CapDeactive)
	add(cb.Enable != nil, CapEnable)
	add(cb.Disable != nil, CapDisable)
	add(cb.Print != nil, CapPrint)
	return caps
}

// Has reports whether the handler implements the given capability.
func (h *Handler) Has(c Capability) bool { return h.caps&c != 0 }
