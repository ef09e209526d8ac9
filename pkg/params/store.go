package params

import (
	"sort"
	"sync"

	"github.com/mitchellh/hashstructure"
)

// Store is a typed, validated, persistable collection of Parameters, keyed
// by name through a hash index (spec: "name uniqueness is enforced by a
// hash index"). All methods are safe for concurrent read; writes
// (Add*/Set*) must only happen outside of a solve per the resource model
// in spec §5, which Store does not itself enforce — callers (such as
// cmd/cipsolve, which sets values before engine.Run) are responsible for calling Set only when the engine is not in the
// solving state.
type Store struct {
	mu    sync.RWMutex
	byName map[string]*Parameter
	order  []string // insertion order, for stable file output
}

// New returns an empty Store.
func New() *Store {
	return &Store{byName: make(map[string]*Parameter)}
}

func (s *Store) register(p *Parameter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[p.Name]; exists {
		return errDuplicate(p.Name)
	}
	s.byName[p.Name] = p
	s.order = append(s.order, p.Name)
	return nil
}

func (s *Store) lookup(name string, want Kind) (*Parameter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byName[name]
	if !ok {
		return nil, errUnknown(name)
	}
	if p.Kind != want {
		return nil, errWrongType(name, want, p.Kind)
	}
	return p, nil
}

// Names returns every registered parameter name in registration order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// SortedNames returns every registered parameter name sorted
// lexicographically, used by file writers for deterministic output.
func (s *Store) SortedNames() []string {
	out := s.Names()
	sort.Strings(out)
	return out
}

// Describe returns the registered parameter named name, or an error if it
// is not registered. Intended for help text / introspection, not for
// mutating the value.
func (s *Store) Describe(name string) (*Parameter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byName[name]
	if !ok {
		return nil, errUnknown(name)
	}
	return p, nil
}

// Fingerprint returns a stable structural hash of the store's current
// values, for solve-reproducibility logging (two runs with the same
// fingerprint used the same parameter snapshot).
func (s *Store) Fingerprint() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[string]interface{}, len(s.byName))
	for name, p := range s.byName {
		switch p.Kind {
		case Bool:
			snapshot[name] = p.boolVal
		case Int:
			snapshot[name] = p.intVal
		case LongInt:
			snapshot[name] = p.longVal
		case Real:
			snapshot[name] = p.realVal
		case Char:
			snapshot[name] = p.charVal
		case String:
			snapshot[name] = p.strVal
		}
	}
	return hashstructure.Hash(snapshot, nil)
}
