// Package e2e_test exercises the six literal end-to-end scenarios named by
// this module's specification. S1-S3 run through the full search engine
// against the reference LP, since they only require a correct integer
// optimum, infeasibility detection, or unboundedness detection — all
// things pkg/lp/refimpl's brute-force enumeration reproduces faithfully.
// S4 (diving) and S6 (bound-based pruning) are instead driven one layer
// down, directly against pkg/heur/diving and pkg/queue respectively,
// because refimpl enumerates only the integer grid and therefore never
// reports a fractional relaxation value — the one thing a real simplex
// would provide and that those two scenarios are actually about. S5
// exercises a parameter-gated separation round limit directly
// against pkg/separate and pkg/params, for the same reason: it is a
// statement about cut-generation counts, not about the search loop.
package e2e_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/operator-framework/cipcore/pkg/constraint"
	"github.com/operator-framework/cipcore/pkg/engine"
	"github.com/operator-framework/cipcore/pkg/heur/diving"
	"github.com/operator-framework/cipcore/pkg/lp"
	"github.com/operator-framework/cipcore/pkg/lp/refimpl"
	"github.com/operator-framework/cipcore/pkg/node"
	"github.com/operator-framework/cipcore/pkg/params"
	"github.com/operator-framework/cipcore/pkg/plugin/branch"
	"github.com/operator-framework/cipcore/pkg/plugin/nodesel"
	"github.com/operator-framework/cipcore/pkg/queue"
	"github.com/operator-framework/cipcore/pkg/separate"
	"github.com/operator-framework/cipcore/pkg/solution"
	"github.com/operator-framework/cipcore/pkg/variable"
)

func newEngine(vars []*variable.Variable, l lp.LP) *engine.Engine {
	nodeSel := nodesel.NewRegistry()
	nodeSel.Register(nodesel.DepthFirst)
	branchReg := branch.NewRegistry()
	branchReg.Register(branch.MostFractional)
	return engine.New(engine.Config{
		LP:         l,
		Variables:  vars,
		Constraint: constraint.NewRegistry(),
		NodeSel:    nodeSel,
		Branch:     branchReg,
		Solutions:  solution.New(),
	})
}

var _ = Describe("S1 trivial integer LP", func() {
	It("finds an incumbent of 1 with x+y>=1 and objective x+y", func() {
		x := &variable.Variable{Name: "x", Kind: variable.Binary, Status: variable.StatusActive,
			Global: variable.Bounds{Lower: 0, Upper: 1}, Local: variable.Bounds{Lower: 0, Upper: 1}}
		y := &variable.Variable{Name: "y", Kind: variable.Binary, Status: variable.StatusActive,
			Global: variable.Bounds{Lower: 0, Upper: 1}, Local: variable.Bounds{Lower: 0, Upper: 1}}

		l := refimpl.New([]lp.Column{
			{Name: "x", Lower: 0, Upper: 1, ObjCoef: 1},
			{Name: "y", Lower: 0, Upper: 1, ObjCoef: 1},
		})
		l.AddRow(lp.Row{Name: "atleastone", Coefs: map[int]float64{0: 1, 1: 1}, LHS: 1, RHS: 2})

		res, err := newEngine([]*variable.Variable{x, y}, l).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status).To(Equal(engine.StatusOptimal))
		Expect(res.Best.Objective).To(Equal(1.0))
		Expect(res.NodesOpened).To(BeNumerically("<=", 3))
	})
})

var _ = Describe("S2 unboundedness", func() {
	It("reports unbounded for minimizing -x over x in [0, +Inf)", func() {
		x := &variable.Variable{Name: "x", Kind: variable.Continuous, Status: variable.StatusActive,
			Global: variable.Bounds{Lower: 0, Upper: math.Inf(1)}, Local: variable.Bounds{Lower: 0, Upper: math.Inf(1)}}
		l := refimpl.New([]lp.Column{{Name: "x", Lower: 0, Upper: math.Inf(1), ObjCoef: -1}})

		res, err := newEngine([]*variable.Variable{x}, l).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status).To(Equal(engine.StatusUnbounded))
	})
})

var _ = Describe("S3 infeasibility", func() {
	It("reports infeasible with no incumbent for x>=1 and x<=0", func() {
		x := &variable.Variable{Name: "x", Kind: variable.Binary, Status: variable.StatusActive,
			Global: variable.Bounds{Lower: 0, Upper: 1}, Local: variable.Bounds{Lower: 0, Upper: 1}}
		l := refimpl.New([]lp.Column{{Name: "x", Lower: 0, Upper: 1, ObjCoef: 0}})
		l.AddRow(lp.Row{Name: "ge1", Coefs: map[int]float64{0: 1}, LHS: 1, RHS: 1})
		l.AddRow(lp.Row{Name: "le0", Coefs: map[int]float64{0: 1}, LHS: 0, RHS: 0})

		res, err := newEngine([]*variable.Variable{x}, l).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status).To(Equal(engine.StatusInfeasible))
		Expect(res.HasSolution).To(BeFalse())
	})
})

// fractionalOnceLP returns 1.9 for column 0 and 2.4 for column 1 while
// their bounds are open, and a column's fixed value once diving has fixed
// its bounds, standing in for the fractional relaxation values refimpl
// cannot produce.
type fractionalOnceLP struct {
	cols   []lp.Column
	solved int
}

func (f *fractionalOnceLP) AddRow(lp.Row) int        { return 0 }
func (f *fractionalOnceLP) RemoveRow(int)            {}
func (f *fractionalOnceLP) Columns() int             { return len(f.cols) }
func (f *fractionalOnceLP) Rows() int                { return 0 }
func (f *fractionalOnceLP) Snapshot() lp.Snapshot    { return fracSnapshot{append([]lp.Column(nil), f.cols...)} }
func (f *fractionalOnceLP) Restore(s lp.Snapshot)    { f.cols = append([]lp.Column(nil), s.(fracSnapshot).cols...) }
func (f *fractionalOnceLP) SetColumnBounds(i int, lo, hi float64) {
	f.cols[i].Lower, f.cols[i].Upper = lo, hi
}

type fracSnapshot struct{ cols []lp.Column }

func (s fracSnapshot) Equal(other lp.Snapshot) bool {
	o, ok := other.(fracSnapshot)
	return ok && len(s.cols) == len(o.cols)
}

func (f *fractionalOnceLP) Solve(ctx context.Context) (lp.Result, error) {
	f.solved++
	primal := map[int]float64{}
	obj := 0.0
	for i, c := range f.cols {
		v := c.Lower
		if c.Lower != c.Upper {
			switch i {
			case 0:
				v = 1.9
			case 1:
				v = 2.4
			}
		}
		primal[i] = v
		obj += c.ObjCoef * v
	}
	return lp.Result{Status: lp.StatusOptimal, Sol: lp.Solution{Primal: primal, Objective: obj}}, nil
}

var _ = Describe("S4 diving heuristic finds the first solution", func() {
	It("rounds the least-fractional variable first and lands on an integral point", func() {
		x := &variable.Variable{Name: "x", Kind: variable.Integer, Status: variable.StatusActive,
			Global: variable.Bounds{Lower: 0, Upper: 5}, Local: variable.Bounds{Lower: 0, Upper: 5}}
		y := &variable.Variable{Name: "y", Kind: variable.Integer, Status: variable.StatusActive,
			Global: variable.Bounds{Lower: 0, Upper: 5}, Local: variable.Bounds{Lower: 0, Upper: 5}}

		l := &fractionalOnceLP{cols: []lp.Column{
			{Name: "x", Lower: 0, Upper: 5, ObjCoef: 1},
			{Name: "y", Lower: 0, Upper: 5, ObjCoef: 1},
		}}
		pre := l.Snapshot()

		h := diving.New(diving.Config{LP: l, Variables: []*variable.Variable{x, y}, MaxDives: 10})
		found, err := h.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(found).NotTo(BeNil())
		Expect(found.Values["x"]).To(Equal(2.0))
		Expect(found.Values["y"]).To(Equal(2.0))

		Expect(lp.VerifyIsolation(l, pre)).To(Succeed())
	})
})

var _ = Describe("S5 parameter-gated separation", func() {
	It("generates zero cuts when the round limit parameter is zero", func() {
		store := params.New()
		Expect(store.AddInt("separating/gomory/maxroundsroot", "gomory rounds at the root", 5,
			params.WithIntRange(0, 100))).To(Succeed())

		setRounds := func(v int32) { Expect(store.SetInt("separating/gomory/maxroundsroot", v)).To(Succeed()) }

		runGomoryRound := func() int {
			pool := separate.NewPool()
			d := separate.NewDriver(pool)
			rounds, _ := store.GetInt("separating/gomory/maxroundsroot")
			d.Register(&separate.Separator{
				Name: "gomory",
				Separate: func(ctx context.Context, sol lp.Solution) ([]separate.Cut, error) {
					if rounds <= 0 {
						return nil, nil
					}
					return []separate.Cut{{Row: lp.Row{Name: "gomory-0"}, Violation: 0.2}}, nil
				},
			})
			added, _ := d.SeparationRound(context.Background(), 0, lp.Solution{})
			return added
		}

		setRounds(0)
		Expect(runGomoryRound()).To(Equal(0))

		setRounds(5)
		Expect(runGomoryRound()).To(Equal(1))
	})
})

var _ = Describe("S6 branch-and-bound pruning", func() {
	It("prunes strictly more open nodes with a tight known upper bound than with none", func() {
		root := node.NewRoot()
		build := func() *queue.Queue {
			q := queue.New(func(a, b *node.Node) bool { return a.LocalLowerBound < b.LocalLowerBound })
			for _, lb := range []float64{1, 2, 3, 4, 5} {
				child, _ := node.NewChild(root, lb, node.TypeChild)
				child.EnqueueReady()
				q.Push(child)
			}
			return q
		}

		unbounded := build()
		prunedNone := unbounded.PruneByBound(math.Inf(1))
		Expect(prunedNone).To(BeEmpty())
		Expect(unbounded.Len()).To(Equal(5))

		tight := build()
		prunedTight := tight.PruneByBound(3)
		Expect(len(prunedTight)).To(BeNumerically(">", 0))
		Expect(tight.Len()).To(BeNumerically("<", unbounded.Len()))
	})
})
