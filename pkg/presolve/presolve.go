// Package presolve implements the presolve driver (C12): round-until-stall
// dispatch of presolver plugins and constraint-handler Presolve callbacks,
// recording every change as a JSON Patch operation so the full presolve
// run can be replayed or audited.
package presolve

import (
	"context"
	"encoding/json"
	"sort"

	jsonpatch "github.com/evanphx/json-patch"

	"github.com/operator-framework/cipcore/internal/engineerr"
	"github.com/operator-framework/cipcore/pkg/constraint"
)

// Delta aliases the constraint package's productivity counters so every
// presolver (handler-based or standalone) reports the same shape.
type Delta = constraint.PresolveDelta

// Presolver is a standalone presolve plugin, independent of any constraint
// handler.
type Presolver struct {
	Name        string
	Description string
	Priority    int

	Run func(ctx context.Context) (Delta, []Op, error)
}

// Op is one JSON Patch operation (RFC 6902) describing a single presolve
// side effect against a conceptual problem document — "/variables/<name>/
// bounds/lower", "/constraints/<name>", etc. — so a full presolve run's
// changelog can be serialized, diffed, and replayed with
// github.com/evanphx/json-patch.
type Op struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value,omitempty"`
}

// Changelog accumulates presolve Ops across rounds in application order.
type Changelog struct {
	ops []Op
}

// Record appends ops in order.
func (c *Changelog) Record(ops ...Op) { c.ops = append(c.ops, ops...) }

// Patch marshals the changelog into an evanphx/json-patch Patch, suitable
// for replay against a JSON document snapshot of the problem.
func (c *Changelog) Patch() (jsonpatch.Patch, error) {
	raw, err := json.Marshal(c.ops)
	if err != nil {
		return nil, engineerr.Wrap(err, "presolve.Patch", "marshal changelog")
	}
	p, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return nil, engineerr.Wrap(err, "presolve.Patch", "decode changelog as json-patch")
	}
	return p, nil
}

// Ops returns every recorded operation.
func (c *Changelog) Ops() []Op { return append([]Op(nil), c.ops...) }

// Driver runs registered presolvers to a fixpoint.
type Driver struct {
	presolvers []*Presolver
	log        Changelog
	maxRounds  int
}

// NewDriver returns a driver that stops after maxRounds total rounds
// regardless of productivity, as a hard cap
// (spec §4.12: presolve must terminate even if plugins keep finding tiny
// changes forever). maxRounds<=0 means unlimited.
func NewDriver(maxRounds int) *Driver { return &Driver{maxRounds: maxRounds} }

// SetMaxRounds changes the round cap after construction (e.g. once the
// params store's presolving/maxrounds value is known); maxRounds<=0 means
// unlimited, matching NewDriver's convention.
func (d *Driver) SetMaxRounds(maxRounds int) { d.maxRounds = maxRounds }

// Register adds p and keeps dispatch order sorted by descending priority.
func (d *Driver) Register(p *Presolver) {
	d.presolvers = append(d.presolvers, p)
	sort.SliceStable(d.presolvers, func(i, j int) bool { return d.presolvers[i].Priority > d.presolvers[j].Priority })
}

// Run executes rounds until no presolver in a full pass reports a
// productive Delta, or maxRounds is reached.
func (d *Driver) Run(ctx context.Context) (Delta, error) {
	var total Delta
	for round := 0; d.maxRounds <= 0 || round < d.maxRounds; round++ {
		productive := false
		for _, p := range d.presolvers {
			delta, ops, err := p.Run(ctx)
			if err != nil {
				return total, engineerr.Wrap(err, "presolve.Run", p.Name)
			}
			d.log.Record(ops...)
			total = sum(total, delta)
			if delta.Productive() {
				productive = true
			}
		}
		if !productive {
			break
		}
	}
	return total, nil
}

// Changelog returns the accumulated patch log across every Run call.
func (d *Driver) Changelog() *Changelog { return &d.log }

func sum(a, b Delta) Delta {
	return Delta{
		Fixings:             a.Fixings + b.Fixings,
		Aggregations:        a.Aggregations + b.Aggregations,
		BoundChanges:        a.BoundChanges + b.BoundChanges,
		ConstraintDeletions: a.ConstraintDeletions + b.ConstraintDeletions,
		CoefficientChanges:  a.CoefficientChanges + b.CoefficientChanges,
		SideChanges:         a.SideChanges + b.SideChanges,
	}
}
