package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/operator-framework/cipcore/internal/cliconfig"
	"github.com/operator-framework/cipcore/internal/engineerr"
	"github.com/operator-framework/cipcore/internal/obslog"
	"github.com/operator-framework/cipcore/internal/obsmetrics"
	"github.com/operator-framework/cipcore/internal/obsprofile"
	"github.com/operator-framework/cipcore/pkg/cip"
	"github.com/operator-framework/cipcore/pkg/engine"
	"github.com/operator-framework/cipcore/pkg/heur/diving"
	"github.com/operator-framework/cipcore/pkg/lp"
	"github.com/operator-framework/cipcore/pkg/lp/refimpl"
	"github.com/operator-framework/cipcore/pkg/params"
	"github.com/operator-framework/cipcore/pkg/plugin/branch"
	"github.com/operator-framework/cipcore/pkg/plugin/nodesel"
	"github.com/operator-framework/cipcore/pkg/registry"
	"github.com/operator-framework/cipcore/pkg/solution"
)

func newSolveCommand(logger *logrus.Logger, cfg *cliconfig.Config) *cobra.Command {
	var (
		problemPath string
		paramsPath  string
		timeLimit   time.Duration
		nodeLimit   int
		debug       bool
	)
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "solve a problem instance read from a plain-text file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				logger.SetLevel(logrus.DebugLevel)
			}
			if problemPath == "" {
				problemPath = cfg.ProblemFile
			}
			if paramsPath == "" {
				paramsPath = cfg.ParameterFile
			}
			if problemPath == "" {
				return engineerr.Wrap(engineerr.InvalidData, "cipsolve.solve", "--problem is required (or set problemFile in --config)")
			}
			return runSolve(cmd, logger, cfg.MetricsAddr, problemPath, paramsPath, timeLimit, nodeLimit)
		},
	}
	cmd.Flags().StringVar(&problemPath, "problem", "", "path to the problem file (.txt)")
	cmd.Flags().StringVar(&paramsPath, "params", "", "path to a parameter file to load before solving")
	cmd.Flags().DurationVar(&timeLimit, "time-limit", 0, "wall-clock time limit, 0 for unlimited")
	cmd.Flags().IntVar(&nodeLimit, "node-limit", 0, "node count limit, 0 for unlimited")
	cmd.Flags().BoolVar(&debug, "debug", false, "use debug log level")
	return cmd
}

func runSolve(cmd *cobra.Command, logger *logrus.Logger, metricsAddr, problemPath, paramsPath string, timeLimit time.Duration, nodeLimit int) error {
	log := obslog.New(logger, "cipsolve")

	metrics := obsmetrics.NoOp()
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics = obsmetrics.NewRegistered(reg, "cipcore")
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		obsprofile.RegisterHandlers(mux)
		srv := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(err, "metrics server stopped")
			}
		}()
		defer srv.Close()
	}

	f, err := os.Open(problemPath)
	if err != nil {
		return engineerr.Wrap(err, "cipsolve.solve", "open problem file")
	}
	defer f.Close()

	ps := registry.NewPluginSet()
	r := ps.Readers.Lookup(".txt")
	if r == nil {
		return engineerr.Wrap(engineerr.PluginNotFound, "cipsolve.solve", "no reader registered for .txt")
	}
	parsed, err := r.Read(f)
	if err != nil {
		return engineerr.Wrap(err, "cipsolve.solve", "parse problem file")
	}

	problem := cip.Build(parsed)
	problem.Transform()

	cols := make([]lp.Column, len(problem.Transformed))
	for i, v := range problem.Transformed {
		cols[i] = lp.Column{Name: v.Name, Lower: v.Global.Lower, Upper: v.Global.Upper, ObjCoef: v.ObjCoef}
	}
	relaxation := refimpl.New(cols)

	divingHeur := diving.New(diving.Config{LP: relaxation, Variables: problem.Transformed, MaxDives: 50})
	ps.Heuristics.Register(divingHeur)

	store := params.New()
	standardNames := params.StandardPluginNames{
		Branching:     []string{branch.MostFractional.Name},
		NodeSelection: []string{nodesel.DepthFirst.Name},
		Heuristics:    []string{divingHeur.Name},
	}
	if err := params.RegisterStandardSet(store, standardNames); err != nil {
		return engineerr.Wrap(err, "cipsolve.solve", "register standard parameters")
	}
	if timeLimit > 0 {
		if err := store.SetReal("limits/time", timeLimit.Seconds()); err != nil {
			return engineerr.Wrap(err, "cipsolve.solve", "apply --time-limit")
		}
	}
	if nodeLimit > 0 {
		if err := store.SetLongInt("limits/nodes", int64(nodeLimit)); err != nil {
			return engineerr.Wrap(err, "cipsolve.solve", "apply --node-limit")
		}
	}
	if paramsPath != "" {
		if err := store.ReadFile(paramsPath, logger); err != nil {
			return engineerr.Wrap(err, "cipsolve.solve", "load parameter file")
		}
	}

	presolveMaxRounds, err := store.GetInt("presolving/maxrounds")
	if err != nil {
		return engineerr.Wrap(err, "cipsolve.solve", "read presolving/maxrounds")
	}
	ps.Presolve.SetMaxRounds(int(presolveMaxRounds))

	storedTimeLimit, err := store.GetReal("limits/time")
	if err != nil {
		return engineerr.Wrap(err, "cipsolve.solve", "read limits/time")
	}
	storedNodeLimit, err := store.GetLongInt("limits/nodes")
	if err != nil {
		return engineerr.Wrap(err, "cipsolve.solve", "read limits/nodes")
	}
	separationRounds, err := store.GetInt("separating/maxrounds")
	if err != nil {
		return engineerr.Wrap(err, "cipsolve.solve", "read separating/maxrounds")
	}
	separationRoundsRoot, err := store.GetInt("separating/maxroundsroot")
	if err != nil {
		return engineerr.Wrap(err, "cipsolve.solve", "read separating/maxroundsroot")
	}

	e := engine.New(engine.Config{
		LP:         relaxation,
		Variables:  problem.Transformed,
		Constraint: ps.Constraints,
		NodeSel:    ps.NodeSel,
		Branch:     ps.Branch,
		Propagate:  ps.Propagate,
		Separate:   ps.Separate,
		Heuristics: ps.Heuristics,
		Presolve:   ps.Presolve,
		Solutions:  solution.New(),
		Metrics:    metrics,
		Logger:     log,
		Limits: engine.Limits{
			TimeLimit: time.Duration(storedTimeLimit * float64(time.Second)),
			NodeLimit: int(storedNodeLimit),
		},
		SeparationRounds:     separationRoundCap(separationRounds),
		SeparationRoundsRoot: separationRoundCap(separationRoundsRoot),
	})

	log.Info("starting solve", "variables", len(problem.Transformed))
	res, err := e.Run(cmd.Context())
	if err != nil {
		return engineerr.Wrap(err, "cipsolve.solve", "run engine")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "status: %v\n", res.Status)
	fmt.Fprintf(out, "nodes: %d\n", res.NodesOpened)
	if res.HasSolution {
		fmt.Fprintf(out, "objective: %v\n", res.Best.Objective)
		for _, v := range problem.Transformed {
			fmt.Fprintf(out, "  %s = %v\n", v.Name, res.Best.Values[v.Name])
		}
	}
	return nil
}

// separationRoundsUnlimited approximates the params store's -1 ("unlimited
// rounds") as a large finite cap: engine.Config's round counters are plain
// loop bounds, not sentinel-aware.
const separationRoundsUnlimited = 1000

// separationRoundCap translates a separating/maxrounds-style parameter
// value (-1 unlimited, 0 disabled, n>0 exact cap) into engine.Config's loop
// bound.
func separationRoundCap(v int32) int {
	if v < 0 {
		return separationRoundsUnlimited
	}
	return int(v)
}
