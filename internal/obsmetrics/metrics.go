// Package obsmetrics registers the prometheus collectors that mirror the
// observationally-pure search-result surface of the specification's
// EXTERNAL INTERFACES section (get-node-count, get-LP-solve-count, ...).
// Nothing in pkg/engine reads these back; they are write-only instrumentation
// updated from the same call sites that update the engine's own counters.
package obsmetrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors bundles every gauge/counter the engine updates during a solve.
// A nil *Collectors (see NoOp) is safe to call methods on.
type Collectors struct {
	Nodes             prometheus.Counter
	LPSolves          prometheus.Counter
	SeparationRounds  prometheus.Counter
	CutsGenerated     prometheus.Counter
	DualBound         prometheus.Gauge
	PrimalBound       prometheus.Gauge
	SolveDuration     prometheus.Histogram
}

// NewRegistered constructs a Collectors set and registers it with reg.
func NewRegistered(reg prometheus.Registerer, namespace string) *Collectors {
	c := &Collectors{
		Nodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "nodes_total", Help: "Branch-and-bound nodes processed.",
		}),
		LPSolves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "lp_solves_total", Help: "LP relaxation solves performed.",
		}),
		SeparationRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "separation_rounds_total", Help: "Separator driver rounds run.",
		}),
		CutsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "cuts_generated_total", Help: "Cuts accepted into the LP.",
		}),
		DualBound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "dual_bound", Help: "Current global dual bound.",
		}),
		PrimalBound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "primal_bound", Help: "Current incumbent objective value.",
		}),
		SolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "solve_duration_seconds", Help: "Wall-clock duration of completed solves.",
		}),
	}
	reg.MustRegister(c.Nodes, c.LPSolves, c.SeparationRounds, c.CutsGenerated, c.DualBound, c.PrimalBound, c.SolveDuration)
	return c
}

// NoOp returns a Collectors whose methods are all safe no-ops, for callers
// (tests, library embedders) that do not want prometheus registration.
func NoOp() *Collectors { return &Collectors{} }

func (c *Collectors) IncNodes() {
	if c != nil && c.Nodes != nil {
		c.Nodes.Inc()
	}
}

func (c *Collectors) IncLPSolves() {
	if c != nil && c.LPSolves != nil {
		c.LPSolves.Inc()
	}
}

func (c *Collectors) IncSeparationRounds() {
	if c != nil && c.SeparationRounds != nil {
		c.SeparationRounds.Inc()
	}
}

func (c *Collectors) AddCuts(n int) {
	if c != nil && c.CutsGenerated != nil && n > 0 {
		c.CutsGenerated.Add(float64(n))
	}
}

func (c *Collectors) SetDualBound(v float64) {
	if c != nil && c.DualBound != nil {
		c.DualBound.Set(v)
	}
}

func (c *Collectors) SetPrimalBound(v float64) {
	if c != nil && c.PrimalBound != nil {
		c.PrimalBound.Set(v)
	}
}

func (c *Collectors) ObserveSolveSeconds(s float64) {
	if c != nil && c.SolveDuration != nil {
		c.SolveDuration.Observe(s)
	}
}
