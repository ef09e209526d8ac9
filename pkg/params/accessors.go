package params

// AddBoolOpt configures an optional registration for AddBool.
type AddBoolOpt func(*Parameter)

func WithBoolHook(h ChangeHook) AddBoolOpt { return func(p *Parameter) { p.hook = h } }
func WithBoolPayload(v interface{}) AddBoolOpt { return func(p *Parameter) { p.payload = v } }

// AddBool registers a boolean parameter with the given default.
func (s *Store) AddBool(name, description string, def bool, opts ...AddBoolOpt) error {
	p := &Parameter{Name: name, Description: description, Kind: Bool, boolVal: def, boolDef: def}
	for _, o := range opts {
		o(p)
	}
	return s.register(p)
}

// GetBool returns the current value of a bool parameter.
func (s *Store) GetBool(name string) (bool, error) {
	p, err := s.lookup(name, Bool)
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return p.boolVal, nil
}

// SetBool validates and sets a bool parameter, running its change hook.
func (s *Store) SetBool(name string, v bool) error {
	p, err := s.lookup(name, Bool)
	if err != nil {
		return err
	}
	return s.commit(p, func() { p.boolVal = v })
}

// AddIntOpt configures an optional registration for AddInt.
type AddIntOpt func(*Parameter)

func WithIntRange(min, max int32) AddIntOpt {
	return func(p *Parameter) { p.intMin, p.intMax, p.hasMin, p.hasMax = min, max, true, true }
}
func WithIntHook(h ChangeHook) AddIntOpt    { return func(p *Parameter) { p.hook = h } }
func WithIntPayload(v interface{}) AddIntOpt { return func(p *Parameter) { p.payload = v } }

// AddInt registers an int32 parameter with the given default and optional
// [min,max] domain.
func (s *Store) AddInt(name, description string, def int32, opts ...AddIntOpt) error {
	p := &Parameter{Name: name, Description: description, Kind: Int, intVal: def, intDef: def}
	for _, o := range opts {
		o(p)
	}
	return s.register(p)
}

func (s *Store) GetInt(name string) (int32, error) {
	p, err := s.lookup(name, Int)
	if err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return p.intVal, nil
}

func (s *Store) SetInt(name string, v int32) error {
	p, err := s.lookup(name, Int)
	if err != nil {
		return err
	}
	if p.hasMin && (v < p.intMin || v > p.intMax) {
		return errWrongValue(name, "out of range")
	}
	return s.commit(p, func() { p.intVal = v })
}

// AddLongIntOpt configures an optional registration for AddLongInt.
type AddLongIntOpt func(*Parameter)

func WithLongIntRange(min, max int64) AddLongIntOpt {
	return func(p *Parameter) { p.longMin, p.longMax, p.hasMin, p.hasMax = min, max, true, true }
}
func WithLongIntHook(h ChangeHook) AddLongIntOpt { return func(p *Parameter) { p.hook = h } }

func (s *Store) AddLongInt(name, description string, def int64, opts ...AddLongIntOpt) error {
	p := &Parameter{Name: name, Description: description, Kind: LongInt, longVal: def, longDef: def}
	for _, o := range opts {
		o(p)
	}
	return s.register(p)
}

func (s *Store) GetLongInt(name string) (int64, error) {
	p, err := s.lookup(name, LongInt)
	if err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return p.longVal, nil
}

func (s *Store) SetLongInt(name string, v int64) error {
	p, err := s.lookup(name, LongInt)
	if err != nil {
		return err
	}
	if p.hasMin && (v < p.longMin || v > p.longMax) {
		return errWrongValue(name, "out of range")
	}
	return s.commit(p, func() { p.longVal = v })
}

// AddRealOpt configures an optional registration for AddReal.
type AddRealOpt func(*Parameter)

func WithRealRange(min, max float64) AddRealOpt {
	return func(p *Parameter) { p.realMin, p.realMax, p.hasMin, p.hasMax = min, max, true, true }
}
func WithRealHook(h ChangeHook) AddRealOpt { return func(p *Parameter) { p.hook = h } }

func (s *Store) AddReal(name, description string, def float64, opts ...AddRealOpt) error {
	p := &Parameter{Name: name, Description: description, Kind: Real, realVal: def, realDef: def}
	for _, o := range opts {
		o(p)
	}
	return s.register(p)
}

func (s *Store) GetReal(name string) (float64, error) {
	p, err := s.lookup(name, Real)
	if err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return p.realVal, nil
}

func (s *Store) SetReal(name string, v float64) error {
	p, err := s.lookup(name, Real)
	if err != nil {
		return err
	}
	if p.hasMin && (v < p.realMin || v > p.realMax) {
		return errWrongValue(name, "out of range")
	}
	return s.commit(p, func() { p.realVal = v })
}

// AddCharOpt configures an optional registration for AddChar.
type AddCharOpt func(*Parameter)

func WithAllowedChars(allowed string) AddCharOpt {
	return func(p *Parameter) {
		p.allowedSet = make(map[rune]bool, len(allowed))
		for _, r := range allowed {
			p.allowedSet[r] = true
		}
	}
}

func (s *Store) AddChar(name, description string, def rune, opts ...AddCharOpt) error {
	p := &Parameter{Name: name, Description: description, Kind: Char, charVal: def, charDef: def}
	for _, o := range opts {
		o(p)
	}
	return s.register(p)
}

func (s *Store) GetChar(name string) (rune, error) {
	p, err := s.lookup(name, Char)
	if err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return p.charVal, nil
}

func (s *Store) SetChar(name string, v rune) error {
	p, err := s.lookup(name, Char)
	if err != nil {
		return err
	}
	if p.allowedSet != nil && !p.allowedSet[v] {
		return errWrongValue(name, "character not in allowed set")
	}
	return s.commit(p, func() { p.charVal = v })
}

// AddStringOpt configures an optional registration for AddString.
type AddStringOpt func(*Parameter)

func WithStringHook(h ChangeHook) AddStringOpt { return func(p *Parameter) { p.hook = h } }

func (s *Store) AddString(name, description string, def string, opts ...AddStringOpt) error {
	p := &Parameter{Name: name, Description: description, Kind: String, strVal: def, strDef: def}
	for _, o := range opts {
		o(p)
	}
	return s.register(p)
}

func (s *Store) GetString(name string) (string, error) {
	p, err := s.lookup(name, String)
	if err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return p.strVal, nil
}

func (s *Store) SetString(name string, v string) error {
	p, err := s.lookup(name, String)
	if err != nil {
		return err
	}
	return s.commit(p, func() { p.strVal = v })
}

// commit applies mutate under the write lock, then — per the contract —
// runs the change hook with the new value already stored, returning the
// hook's error (if any) to the caller without rolling back the value.
func (s *Store) commit(p *Parameter, mutate func()) error {
	s.mu.Lock()
	mutate()
	hook := p.hook
	s.mu.Unlock()

	if hook != nil {
		return hook(p)
	}
	return nil
}
