// Package separate implements the separator driver (C10): priority-ordered
// dispatch of cutting-plane generators against the current LP relaxation,
// plus a cut pool that deduplicates cuts by row name across rounds and
// nodes.
package separate

import (
	"context"
	"sort"

	"github.com/operator-framework/cipcore/pkg/lp"
)

// Cut is a candidate inequality, expressed exactly like an lp.Row so it can
// be added to the relaxation directly once accepted.
type Cut struct {
	Row       lp.Row
	Violation float64
	Generator string
}

// Separator generates cutting planes from the current LP solution.
type Separator struct {
	Name        string
	Description string
	Priority    int
	Freq        int // call at node depths that are a multiple of Freq; 0 means every depth

	// Separate returns candidate cuts given the current LP solution. It
	// must not mutate lp; the driver adds accepted cuts.
	Separate func(ctx context.Context, sol lp.Solution) ([]Cut, error)
}

// Pool deduplicates cuts across rounds by Signature, so a cut whose row
// name was already accepted (from another generator, or rediscovered at a
// descendant node) is not added again. Rows with equal coefficients but
// different names are all kept.
type Pool struct {
	seen map[string]bool
	cuts []Cut
}

// NewPool returns an empty cut pool.
func NewPool() *Pool { return &Pool{seen: make(map[string]bool)} }

// Signature is the key Pool deduplicates by: the row's Name. Coefficients
// and sides are not part of it, so two rows with the same name count as one
// cut.
func Signature(r lp.Row) string {
	return r.Name
}

// Add inserts c into the pool if its signature hasn't been seen, returning
// whether it was newly added.
func (p *Pool) Add(c Cut) bool {
	sig := Signature(c.Row)
	if p.seen[sig] {
		return false
	}
	p.seen[sig] = true
	p.cuts = append(p.cuts, c)
	return true
}

// Cuts returns every cut accumulated so far, most-violated first.
func (p *Pool) Cuts() []Cut {
	out := append([]Cut(nil), p.cuts...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Violation > out[j].Violation })
	return out
}

// Driver runs registered separators and records accepted cuts in a Pool.
type Driver struct {
	seps      []*Separator
	pool      *Pool
	lastRound []Cut
}

// NewDriver returns a driver backed by pool.
func NewDriver(pool *Pool) *Driver { return &Driver{pool: pool} }

// Register adds s and keeps dispatch order sorted by descending priority.
func (d *Driver) Register(s *Separator) {
	d.seps = append(d.seps, s)
	sort.SliceStable(d.seps, func(i, j int) bool { return d.seps[i].Priority > d.seps[j].Priority })
}

// SeparationRound runs one pass over every eligible separator at the given
// node depth, adding newly discovered cuts to the pool, and returns how
// many distinct cuts were newly accepted (spec §4.10: one round per call,
// the engine decides how many rounds to run per node).
func (d *Driver) SeparationRound(ctx context.Context, nodeDepth int, sol lp.Solution) (int, error) {
	added := 0
	d.lastRound = d.lastRound[:0]
	for _, s := range d.seps {
		if s.Freq > 0 && nodeDepth%s.Freq != 0 {
			continue
		}
		cuts, err := s.Separate(ctx, sol)
		if err != nil {
			return added, err
		}
		for _, c := range cuts {
			c.Generator = s.Name
			if d.pool.Add(c) {
				added++
				d.lastRound = append(d.lastRound, c)
			}
		}
	}
	return added, nil
}

// PendingCuts returns every cut accumulated in the pool so far,
// most-violated first, including cuts already returned by
// NewlyAcceptedCuts in earlier rounds.
func (d *Driver) PendingCuts() []Cut { return d.pool.Cuts() }

// NewlyAcceptedCuts returns only the cuts the most recent SeparationRound
// call newly added to the pool, the set a caller should add to the LP — the
// pool itself accumulates across the whole search, so re-adding PendingCuts
// every round would re-insert rows already in the relaxation.
func (d *Driver) NewlyAcceptedCuts() []Cut { return append([]Cut(nil), d.lastRound...) }
