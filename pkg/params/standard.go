package params

// StandardPluginNames lists the registered plugin names RegisterStandardSet
// builds a priority (or frequency+priority) parameter for, grouped by
// plugin kind.
type StandardPluginNames struct {
	Branching     []string
	NodeSelection []string
	Heuristics    []string
	Separating    []string
}

// RegisterStandardSet registers the fixed parameter keys required by the
// external interfaces contract: global search limits, presolve/separation
// round caps, and one dispatch-priority parameter (frequency too, for
// heuristics) per named plugin. Call it once, before reading any parameter
// file, so file values override these defaults instead of racing a later
// registration.
func RegisterStandardSet(s *Store, names StandardPluginNames) error {
	type add func() error
	adds := []add{
		func() error { return s.AddReal("limits/time", "wall-clock time limit in seconds, 0 for unlimited", 0) },
		func() error { return s.AddLongInt("limits/nodes", "node count limit, 0 for unlimited", 0) },
		func() error { return s.AddReal("limits/memory", "memory limit in MB, 0 for unlimited", 0) },
		func() error { return s.AddReal("limits/gap", "relative optimality gap at which to stop, 0 for exact", 0) },
		func() error {
			return s.AddInt("separating/maxrounds", "cutting-plane rounds per non-root node, -1 unlimited", -1)
		},
		func() error {
			return s.AddInt("separating/maxroundsroot", "cutting-plane rounds at the root node, -1 unlimited", -1)
		},
		func() error {
			return s.AddInt("presolving/maxrounds", "presolve rounds before giving up on a fixpoint, -1 unlimited", -1)
		},
	}
	for _, a := range adds {
		if err := a(); err != nil {
			return err
		}
	}

	for _, name := range names.Separating {
		if err := s.AddInt("separating/"+name+"/maxrounds", name+" cutting-plane rounds per non-root node, -1 unlimited", -1); err != nil {
			return err
		}
		if err := s.AddInt("separating/"+name+"/maxroundsroot", name+" cutting-plane rounds at the root node, -1 unlimited", -1); err != nil {
			return err
		}
		if err := s.AddInt("separating/"+name+"/maxsepacuts", name+" cuts added per round, -1 unlimited", -1); err != nil {
			return err
		}
		if err := s.AddInt("separating/"+name+"/maxsepacutsroot", name+" cuts added per round at the root, -1 unlimited", -1); err != nil {
			return err
		}
	}
	for _, name := range names.Heuristics {
		if err := s.AddInt("heuristics/"+name+"/freq", name+" heuristic call frequency in nodes, 0 every node", 0); err != nil {
			return err
		}
		if err := s.AddInt("heuristics/"+name+"/priority", name+" heuristic dispatch priority", 0); err != nil {
			return err
		}
	}
	for _, name := range names.Branching {
		if err := s.AddInt("branching/"+name+"/priority", name+" branching rule dispatch priority", 0); err != nil {
			return err
		}
	}
	for _, name := range names.NodeSelection {
		if err := s.AddInt("nodeselection/"+name+"/stdpriority", name+" node selector priority in normal memory mode", 0); err != nil {
			return err
		}
		if err := s.AddInt("nodeselection/"+name+"/memsavepriority", name+" node selector priority in memory-save mode", 0); err != nil {
			return err
		}
	}
	return nil
}
