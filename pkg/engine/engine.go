// Package engine implements the search engine (C14): the node processing
// loop that drives LP relaxation, propagation, separation, branching,
// primal heuristics, and presolve into the branch-and-bound algorithm
// described by this module's specification. A golang.org/x/sync/errgroup
// watchdog goroutine enforces node and time limits by cancelling the
// loop's context, the same structural role a timeout or liveness watcher
// plays in the teacher's reconciliation loops.
package engine

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/operator-framework/cipcore/internal/engineerr"
	"github.com/operator-framework/cipcore/internal/obsmetrics"
	"github.com/operator-framework/cipcore/pkg/constraint"
	"github.com/operator-framework/cipcore/pkg/heur"
	"github.com/operator-framework/cipcore/pkg/lp"
	"github.com/operator-framework/cipcore/pkg/node"
	"github.com/operator-framework/cipcore/pkg/plugin/branch"
	"github.com/operator-framework/cipcore/pkg/plugin/nodesel"
	"github.com/operator-framework/cipcore/pkg/presolve"
	"github.com/operator-framework/cipcore/pkg/propagate"
	"github.com/operator-framework/cipcore/pkg/queue"
	"github.com/operator-framework/cipcore/pkg/separate"
	"github.com/operator-framework/cipcore/pkg/solution"
	"github.com/operator-framework/cipcore/pkg/variable"
)

// Limits bounds how long and how far the search runs; any zero field means
// unlimited for that dimension.
type Limits struct {
	NodeLimit int
	TimeLimit time.Duration
}

// Config wires every plugin driver and collaborator the engine
// orchestrates. Omitted optional drivers (Separators, Heuristics,
// Presolvers) are simply skipped.
type Config struct {
	LP         lp.LP
	Variables  []*variable.Variable
	Constraint *constraint.Registry
	// GlobalConstraints are constraints active for the entire tree (the
	// common case: most constraint instances are added once at the root
	// and never locally disabled). Node-local constraint-set changes from
	// branching are additionally merged in at check time via the focus
	// node's own ChangeList.
	GlobalConstraints []*constraint.Constraint
	NodeSel    *nodesel.Registry
	Branch     *branch.Registry
	Propagate  *propagate.Driver
	Separate   *separate.Driver
	Heuristics *heur.Driver
	Presolve   *presolve.Driver
	Solutions  *solution.Store
	Metrics    *obsmetrics.Collectors
	Logger     logr.Logger
	Limits     Limits

	// SeparationRounds caps cutting-plane rounds per non-root node; 0 means
	// separation is skipped even if a driver is configured (params key
	// separating/maxrounds).
	SeparationRounds int
	// SeparationRoundsRoot overrides SeparationRounds at the root node
	// (depth 0); 0 means "use SeparationRounds" (params key
	// separating/maxroundsroot).
	SeparationRoundsRoot int
}

func (c Config) separationRoundsFor(depth int) int {
	if depth == 0 && c.SeparationRoundsRoot > 0 {
		return c.SeparationRoundsRoot
	}
	return c.SeparationRounds
}

// Status is the terminal outcome of a Run call.
type Status int

const (
	StatusUnknown Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
	StatusNodeLimit
	StatusTimeLimit
)

// Result is what Run returns: the terminal status and, if one was found,
// the best solution.
type Result struct {
	Status      Status
	Best        solution.Solution
	HasSolution bool
	NodesOpened int64
}

// Engine runs the branch-and-bound loop described by Config.
type Engine struct {
	cfg Config
	q   *queue.Queue
	// nodes is read by the watchdog goroutine and written by the loop
	// goroutine; sync/atomic keeps that cross-goroutine access race-free.
	nodes int64
}

// New builds an Engine from cfg. cfg.Metrics may be nil (NoOp metrics are
// substituted).
func New(cfg Config) *Engine {
	if cfg.Metrics == nil {
		cfg.Metrics = obsmetrics.NoOp()
	}
	return &Engine{cfg: cfg}
}

// Run executes the search to completion or to a limit, returning the
// terminal Result. It spawns a watchdog goroutine via errgroup that
// cancels the working context once NodeLimit or TimeLimit is hit.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	sel := e.cfg.NodeSel.Active()
	if sel == nil {
		sel = nodesel.DepthFirst
	}
	e.q = queue.New(sel.Less)

	if e.cfg.Presolve != nil {
		if _, err := e.cfg.Presolve.Run(ctx); err != nil {
			if engineerr.Is(err, presolve.ErrUnbounded) {
				return Result{Status: StatusUnbounded}, nil
			}
			return Result{}, engineerr.Wrap(err, "engine.Run", "presolve")
		}
	}

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(workCtx)
	var limitHit Status
	if e.cfg.Limits.TimeLimit > 0 || e.cfg.Limits.NodeLimit > 0 {
		g.Go(func() error {
			return e.watchdog(gctx, cancel, &limitHit)
		})
	}

	var result Result
	g.Go(func() error {
		var err error
		result, err = e.loop(gctx)
		cancel()
		return err
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return result, err
	}
	if limitHit != StatusUnknown && result.Status == StatusUnknown {
		result.Status = limitHit
	}
	return result, nil
}

func (e *Engine) watchdog(ctx context.Context, cancel context.CancelFunc, hit *Status) error {
	var timer <-chan time.Time
	if e.cfg.Limits.TimeLimit > 0 {
		t := time.NewTimer(e.cfg.Limits.TimeLimit)
		defer t.Stop()
		timer = t.C
	}
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer:
			*hit = StatusTimeLimit
			cancel()
			return nil
		case <-ticker.C:
			if e.cfg.Limits.NodeLimit > 0 && atomic.LoadInt64(&e.nodes) >= int64(e.cfg.Limits.NodeLimit) {
				*hit = StatusNodeLimit
				cancel()
				return nil
			}
		}
	}
}

func (e *Engine) loop(ctx context.Context) (Result, error) {
	root := node.NewRoot()
	root.EnqueueReady()
	e.q.Push(root)

	for {
		if err := ctx.Err(); err != nil {
			return e.currentResult(StatusUnknown), nil
		}
		n := e.q.Pop()
		if n == nil {
			status := StatusInfeasible
			if _, ok := e.cfg.Solutions.Best(); ok {
				status = StatusOptimal
			}
			return e.currentResult(status), nil
		}

		if best, ok := e.cfg.Solutions.Best(); ok && n.LocalLowerBound >= best.Objective {
			continue // bound-based pruning, spec §4.6
		}

		if err := n.EnterFocus(); err != nil {
			return e.currentResult(StatusUnknown), err
		}
		atomic.AddInt64(&e.nodes, 1)
		e.cfg.Metrics.IncNodes()

		outcome, err := e.processFocusNode(ctx, n)
		if uerr := n.Undo(); uerr != nil && err == nil {
			err = uerr
		}
		if engineerr.Is(err, errUnbounded) {
			return e.currentResult(StatusUnbounded), nil
		}
		if err != nil {
			return e.currentResult(StatusUnknown), err
		}
		_ = outcome
	}
}

// errUnbounded signals an unbounded relaxation up through processFocusNode
// to loop, which turns it into a StatusUnbounded result rather than
// propagating it as a hard error.
var errUnbounded = engineerr.Wrap(engineerr.InvalidResult, "engine", "relaxation unbounded")

type focusOutcome int

const (
	outcomeFeasible focusOutcome = iota
	outcomeInfeasible
	outcomeBranched
)

func (e *Engine) processFocusNode(ctx context.Context, n *node.Node) (focusOutcome, error) {
	if e.cfg.Propagate != nil {
		res, err := e.cfg.Propagate.PropagateToFixpoint(ctx, n.Depth)
		if err != nil {
			return outcomeInfeasible, err
		}
		if res == propagate.ResultCutoff {
			_ = n.MarkProcessed(node.StateProcessedInfeasible)
			return outcomeInfeasible, nil
		}
	}

	if e.cfg.Constraint != nil && e.cfg.Constraint.HasPseudoEnforcer() {
		if pseudo, ok := pseudoSolution(e.cfg.Variables); ok {
			active := e.activeConstraints(n)
			outcome, _, _, err := e.cfg.Constraint.Enforce(ctx, active, false)
			if err != nil {
				return outcomeInfeasible, err
			}
			if outcome == constraint.EnforceFeasible {
				_, improved, err := e.cfg.Solutions.Add(solution.Solution{Values: pseudo.values, Objective: pseudo.objective, FoundByNode: n.ID()})
				if err != nil {
					return outcomeInfeasible, err
				}
				if improved {
					e.cfg.Metrics.SetPrimalBound(pseudo.objective)
				}
				_ = n.MarkProcessed(node.StateProcessedFeasible)
				return outcomeFeasible, nil
			}
		}
	}

	start := time.Now()
	lpRes, err := e.cfg.LP.Solve(ctx)
	e.cfg.Metrics.IncLPSolves()
	e.cfg.Metrics.ObserveSolveSeconds(time.Since(start).Seconds())
	if err != nil {
		return outcomeInfeasible, err
	}
	switch lpRes.Status {
	case lp.StatusInfeasible:
		_ = n.MarkProcessed(node.StateProcessedInfeasible)
		return outcomeInfeasible, nil
	case lp.StatusUnbounded:
		return outcomeInfeasible, errUnbounded
	case lp.StatusOptimal:
		// fall through
	default:
		_ = n.MarkProcessed(node.StateProcessedInfeasible)
		return outcomeInfeasible, nil
	}
	e.cfg.Metrics.SetDualBound(lpRes.Sol.Objective)

	if rounds := e.cfg.separationRoundsFor(n.Depth); e.cfg.Separate != nil && rounds > 0 {
		for round := 0; round < rounds; round++ {
			added, err := e.cfg.Separate.SeparationRound(ctx, n.Depth, lpRes.Sol)
			if err != nil {
				return outcomeInfeasible, err
			}
			e.cfg.Metrics.IncSeparationRounds()
			if added == 0 {
				break
			}
			e.cfg.Metrics.AddCuts(added)
			for _, c := range e.cfg.Separate.NewlyAcceptedCuts() {
				e.cfg.LP.AddRow(c.Row)
			}
			lpRes, err = e.cfg.LP.Solve(ctx)
			if err != nil {
				return outcomeInfeasible, err
			}
			if lpRes.Status != lp.StatusOptimal {
				break
			}
		}
	}

	candidates := fractionalCandidates(e.cfg.Variables, lpRes.Sol.Primal)
	if len(candidates) == 0 {
		if e.cfg.Constraint != nil {
			active := e.activeConstraints(n)
			outcome, _, _, err := e.cfg.Constraint.Enforce(ctx, active, true)
			if err != nil {
				return outcomeInfeasible, err
			}
			if outcome != constraint.EnforceFeasible {
				_ = n.MarkProcessed(node.StateProcessedInfeasible)
				return outcomeInfeasible, nil
			}
		}
		values := make(map[string]float64, len(e.cfg.Variables))
		for i, v := range e.cfg.Variables {
			values[v.Name] = lpRes.Sol.Primal[i]
		}
		_, improved, err := e.cfg.Solutions.Add(solution.Solution{Values: values, Objective: lpRes.Sol.Objective, FoundByNode: n.ID()})
		if err != nil {
			return outcomeInfeasible, err
		}
		if improved {
			e.cfg.Metrics.SetPrimalBound(lpRes.Sol.Objective)
		}
		_ = n.MarkProcessed(node.StateProcessedFeasible)
		return outcomeFeasible, nil
	}

	if e.cfg.Heuristics != nil {
		if found, name, err := e.cfg.Heuristics.RunAt(ctx, heur.TimingAfterLPNode, n.Depth); err == nil && found != nil {
			if _, improved, err := e.cfg.Solutions.Add(solution.Solution{Values: found.Values, Objective: found.Objective, FoundByNode: n.ID(), Heuristic: name}); err == nil && improved {
				e.cfg.Metrics.SetPrimalBound(found.Objective)
			}
		}
	}

	decision, err := e.cfg.Branch.Decide(n.Depth, candidates)
	if err != nil {
		return outcomeInfeasible, err
	}
	if decision == nil {
		return outcomeInfeasible, engineerr.Wrap(engineerr.BranchingFailed, "engine.processFocusNode", "no branching rule produced a decision")
	}
	if err := e.branch(n, decision, lpRes.Sol.Objective); err != nil {
		return outcomeInfeasible, err
	}
	_ = n.MarkProcessed(node.StateProcessedToBranch)
	return outcomeBranched, nil
}

func (e *Engine) branch(parent *node.Node, d *branch.Decision, parentObjective float64) error {
	down, err := node.NewChild(parent, parentObjective, node.TypeChild)
	if err != nil {
		return err
	}
	if err := down.AddUpperBound(d.Var, d.DownUpper); err != nil {
		return err
	}
	up, err := node.NewChild(parent, parentObjective, node.TypeChild)
	if err != nil {
		return err
	}
	if err := up.AddLowerBound(d.Var, d.UpLower); err != nil {
		return err
	}
	down.EnqueueReady()
	up.EnqueueReady()
	e.q.Push(down)
	e.q.Push(up)
	return nil
}

// activeConstraints merges the tree-wide global constraints with n's own
// node-local additions into the handler-keyed view Enforce/Check expect.
func (e *Engine) activeConstraints(n *node.Node) map[string][]*constraint.Constraint {
	all := append(append([]*constraint.Constraint(nil), e.cfg.GlobalConstraints...), n.Changes.Constraints.Added...)
	return constraint.ByHandler(all)
}

// pseudoState is the pseudo solution obtained by fixing every variable to
// the bound its objective coefficient favors (spec glossary: "Pseudo
// solution"), used to skip the LP solve when that point is already
// integer-feasible.
type pseudoState struct {
	values    map[string]float64
	objective float64
}

// pseudoSolution builds the pseudo solution for vars and reports whether it
// is defined (every variable has a finite favored bound) and integral for
// every discrete variable.
func pseudoSolution(vars []*variable.Variable) (pseudoState, bool) {
	values := make(map[string]float64, len(vars))
	var objective float64
	for _, v := range vars {
		bound := v.Local.Lower
		if v.ObjCoef < 0 {
			bound = v.Local.Upper
		}
		if math.IsInf(bound, 0) {
			return pseudoState{}, false
		}
		if v.Kind != variable.Continuous && branch.Fractionality(bound) > 1e-6 {
			return pseudoState{}, false
		}
		values[v.Name] = bound
		objective += v.ObjCoef * bound
	}
	return pseudoState{values: values, objective: objective}, true
}

func fractionalCandidates(vars []*variable.Variable, primal map[int]float64) []branch.Candidate {
	var out []branch.Candidate
	for i, v := range vars {
		if v.Kind == variable.Continuous {
			continue
		}
		val := primal[i]
		if branch.Fractionality(val) > 1e-6 {
			out = append(out, branch.Candidate{Var: v, Value: val})
		}
	}
	return out
}

func (e *Engine) currentResult(fallback Status) Result {
	best, ok := e.cfg.Solutions.Best()
	status := fallback
	if fallback == StatusUnknown && !ok {
		status = StatusInfeasible
	} else if fallback == StatusUnknown && ok {
		status = StatusOptimal
	}
	return Result{Status: status, Best: best, HasSolution: ok, NodesOpened: atomic.LoadInt64(&e.nodes)}
}
