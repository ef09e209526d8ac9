// Package solution implements the solution store (C13): a deduplicated,
// objective-ordered collection of feasible solutions, tracking the current
// primal (incumbent) bound.
package solution

import (
	"sort"
	"sync"

	"github.com/mitchellh/hashstructure"

	"github.com/operator-framework/cipcore/internal/engineerr"
)

// Solution is one feasible assignment found during search.
type Solution struct {
	Values      map[string]float64
	Objective   float64
	FoundByNode int64
	Heuristic   string // empty means found by an LP-feasible node, not a heuristic
}

// fingerprint hashes Values so structurally identical solutions (same
// variable values) are recognized even if found independently by two
// different heuristics or nodes.
func fingerprint(values map[string]float64) (uint64, error) {
	h, err := hashstructure.Hash(values, nil)
	if err != nil {
		return 0, engineerr.Wrap(err, "solution.fingerprint", "hash solution values")
	}
	return h, nil
}

// Store holds every accepted solution, best-first, with minimization
// semantics (spec §4.13): a new solution only improves the incumbent if
// its objective is strictly less than the current best.
type Store struct {
	mu   sync.RWMutex
	seen map[uint64]bool
	sols []Solution
}

// New returns an empty solution store.
func New() *Store {
	return &Store{seen: make(map[uint64]bool)}
}

// Add inserts sol if it is not a duplicate of an already-stored solution,
// reporting whether it was added and whether it improved the incumbent.
func (s *Store) Add(sol Solution) (added, improved bool, err error) {
	fp, err := fingerprint(sol.Values)
	if err != nil {
		return false, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[fp] {
		return false, false, nil
	}
	s.seen[fp] = true

	prevBest := len(s.sols) > 0 && s.sols[0].Objective <= sol.Objective
	s.sols = append(s.sols, sol)
	sort.SliceStable(s.sols, func(i, j int) bool { return s.sols[i].Objective < s.sols[j].Objective })
	improved = !prevBest
	return true, improved, nil
}

// Best returns the incumbent solution and whether the store is non-empty.
func (s *Store) Best() (Solution, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.sols) == 0 {
		return Solution{}, false
	}
	return s.sols[0], true
}

// Len reports how many distinct solutions are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sols)
}

// All returns every stored solution, best-first.
func (s *Store) All() []Solution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Solution(nil), s.sols...)
}
