package main

import (
	"errors"
	"fmt"
	"math"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/fealab/strata/coarse"
	"github.com/fealab/strata/hooking"
	"github.com/fealab/strata/krylov"
	"github.com/fealab/strata/mg"
	"github.com/fealab/strata/monitoring"
	"github.com/fealab/strata/plotting"
	"github.com/fealab/strata/poisson"
	"github.com/fealab/strata/recording"
	"github.com/fealab/strata/session"
	"github.com/fealab/strata/smoothers"
)

var solveFlags solveConfig

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Run a multigrid solve of a built-in model problem",
	Long: `Solve runs a preconditioned iteration on the 1-D Poisson equation
-u'' = 1 with homogeneous Dirichlet boundaries. The multigrid hierarchy
comes from global refinement (--uniform) or from local refinement toward
x = 0 (--refined); every cycle of the V-cycle preconditioner is traced
into the recording database.

Examples:
  # PCG with a V(2,2) Gauss-Seidel preconditioner on five uniform levels
  strata solve --levels 5 --points 7

  # Plain V-cycle iteration on a locally refined mesh, with a live monitor
  strata solve --refined --levels 4 --outer vcycle --monitor --open

  # Record into ClickHouse instead of a local SQLite file
  strata solve --levels 5 --clickhouse --clickhouse-host db.example.com`,
	Args: cobra.NoArgs,
	RunE: runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)

	f := solveCmd.Flags()

	f.BoolVar(&solveFlags.uniform, "uniform", false,
		"solve on a globally refined hierarchy (the default)")
	f.BoolVar(&solveFlags.refined, "refined", false,
		"solve on a hierarchy locally refined toward x = 0")
	solveCmd.MarkFlagsMutuallyExclusive("uniform", "refined")

	f.IntVar(&solveFlags.levels, "levels", 5,
		"number of levels in the hierarchy")
	f.IntVar(&solveFlags.minLevel, "min-level", 0,
		"index of the coarsest level")
	f.IntVar(&solveFlags.points, "points", 7,
		"unknowns on the coarsest level (uniform) or on every level (refined)")
	f.IntVar(&solveFlags.cycles, "cycles", 1,
		"V-cycles per preconditioner application")

	f.StringVar(&solveFlags.smoother, "smoother", "gs",
		"smoother: jacobi, gs, or sor")
	f.IntVar(&solveFlags.sweeps, "sweeps", 2,
		"smoothing sweeps per position")
	f.Float64Var(&solveFlags.omega, "omega", 1.0,
		"relaxation or damping factor in (0, 2)")
	f.StringVar(&solveFlags.coarse, "coarse", "dense",
		"coarsest-level solver: dense or cg")

	f.StringVar(&solveFlags.outer, "outer", "pcg",
		"outer iteration: pcg or vcycle")
	f.Float64Var(&solveFlags.tolerance, "tol", 1e-8,
		"relative residual tolerance")
	f.IntVar(&solveFlags.maxIterations, "max-iterations", 0,
		"iteration limit, 0 for twice the number of unknowns")

	f.StringVar(&solveFlags.db, "db", "",
		"output database file name, without the .sqlite3 suffix")
	f.StringVar(&solveFlags.csv, "csv", "",
		"additionally write the step trace to this CSV file")
	f.BoolVar(&solveFlags.clickHouse, "clickhouse", false,
		"record into ClickHouse instead of a local SQLite file")
	f.StringVar(&solveFlags.chHost, "clickhouse-host", "localhost",
		"ClickHouse host")
	f.IntVar(&solveFlags.chPort, "clickhouse-port", 9000,
		"ClickHouse port")
	f.StringVar(&solveFlags.chDatabase, "clickhouse-database", "default",
		"ClickHouse database")
	f.StringVar(&solveFlags.chUsername, "clickhouse-username", "default",
		"ClickHouse user")
	f.StringVar(&solveFlags.chPassword, "clickhouse-password", "",
		"ClickHouse password")

	f.BoolVar(&solveFlags.monitor, "monitor", false,
		"serve the live monitor while the solve runs")
	f.IntVar(&solveFlags.monitorPort, "monitor-port", 0,
		"port for the monitor, 0 for a random free port")
	f.BoolVar(&solveFlags.open, "open", false,
		"open the monitor page in the default browser")

	f.StringVar(&solveFlags.plot, "plot", "",
		"write a residual history plot to this PNG file")
	f.BoolVar(&solveFlags.quiet, "quiet", false,
		"suppress the convergence report")
}

func runSolve(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	if err := applyEnvDefaults(cmd); err != nil {
		return err
	}

	cfg := solveFlags
	if err := cfg.validate(); err != nil {
		return err
	}

	w := buildWorkload(cfg)
	sess := buildSession(cfg)
	defer sess.Terminate()

	solver := buildMultigrid(cfg, w)
	sess.RegisterCycleSolver(solver)
	sess.RegisterHierarchy(w.problem)

	outer := buildOuterSolver(cfg, w, solver)
	sess.RegisterOuterSolver(outer)

	bar := startProgress(sess, outer, cfg, len(w.problem.RHS()))

	result, err := outer.Solve(w.problem.RHS())
	if err != nil && !errors.Is(err, krylov.ErrIterationLimit) {
		return fmt.Errorf("solve failed: %w", err)
	}

	finishProgress(sess, bar)

	converged := err == nil
	sess.RecordRun(recording.RunEntry{
		Problem:    w.name,
		Method:     outer.Name(),
		MinLevel:   w.problem.MinLevel(),
		MaxLevel:   w.problem.MaxLevel(),
		Unknowns:   len(w.problem.RHS()),
		Tolerance:  cfg.tolerance,
		Iterations: result.Stats.Iterations,
		Converged:  converged,
		Seconds:    result.Stats.Runtime.Seconds(),
	})

	if !cfg.quiet {
		printReport(sess, w, result, converged)
	}

	if cfg.plot != "" {
		if plotErr := writePlot(sess, outer.Name(), cfg.plot); plotErr != nil {
			return plotErr
		}
	}

	return err
}

// A workload is a model problem together with the pieces of its
// hierarchy that the solver builder needs.
type workload struct {
	name     string
	problem  poisson.Problem
	transfer mg.Transfer
	edge     mg.EdgeMatrix
	exact    mg.Vector
}

func buildWorkload(cfg solveConfig) *workload {
	maxLevel := cfg.minLevel + cfg.levels - 1

	if cfg.refined {
		r := poisson.NewRefined(cfg.minLevel, maxLevel, cfg.points)
		return &workload{
			name:     "refined",
			problem:  r,
			transfer: r.Transfer(),
			edge:     r.EdgeMatrix(),
			exact:    r.Exact(),
		}
	}

	u := poisson.NewUniform(cfg.minLevel, maxLevel, cfg.points)
	return &workload{
		name:     "uniform",
		problem:  u,
		transfer: u.Transfer(),
		exact:    u.Exact(),
	}
}

func buildSession(cfg solveConfig) *session.Session {
	b := session.MakeBuilder()

	if !cfg.monitor {
		b = b.WithoutMonitoring()
	}
	if cfg.monitorPort > 0 {
		b = b.WithMonitorPort(cfg.monitorPort)
	}
	if cfg.open {
		b = b.WithBrowser()
	}
	if cfg.db != "" {
		b = b.WithOutputFileName(cfg.db)
	}
	if cfg.csv != "" {
		b = b.WithCSVTrace(cfg.csv)
	}
	if cfg.clickHouse {
		b = b.WithClickHouse(cfg.chHost, cfg.chPort,
			cfg.chDatabase, cfg.chUsername, cfg.chPassword)
	}

	return b.Build()
}

func buildMultigrid(cfg solveConfig, w *workload) *mg.Multigrid {
	pre, post := buildSmoothers(cfg, w.problem)

	b := mg.MakeBuilder().
		WithLevelRange(w.problem.MinLevel(), w.problem.MaxLevel()).
		WithMatrix(w.problem).
		WithPreSmoother(pre).
		WithPostSmoother(post).
		WithCoarseSolver(buildCoarseSolver(cfg, w.problem)).
		WithTransfer(w.transfer)

	if w.edge != nil {
		b = b.WithEdgeMatrices(w.edge, w.edge)
	}

	return b.Build("MG")
}

// buildSmoothers returns the pre- and post-smoother pair. The sweeping
// smoothers run backward after coarse-grid correction, which keeps the
// preconditioner symmetric for PCG.
func buildSmoothers(
	cfg solveConfig,
	set smoothers.MatrixSet,
) (pre, post mg.Smoother) {
	switch cfg.smoother {
	case "jacobi":
		s := smoothers.NewJacobi(set, cfg.sweeps, cfg.omega)
		return s, s
	case "gs":
		return smoothers.NewGaussSeidel(set, cfg.sweeps),
			smoothers.NewGaussSeidel(set, cfg.sweeps).Backward()
	default:
		return smoothers.NewSOR(set, cfg.sweeps, cfg.omega),
			smoothers.NewSOR(set, cfg.sweeps, cfg.omega).Backward()
	}
}

func buildCoarseSolver(cfg solveConfig, p poisson.Problem) mg.CoarseSolver {
	a := p.Matrix(p.MinLevel())

	if cfg.coarse == "cg" {
		n := p.Size(p.MinLevel())
		return coarse.NewCG(a, 1e-12, 10*n)
	}

	return coarse.NewDense(a)
}

func buildOuterSolver(
	cfg solveConfig,
	w *workload,
	solver *mg.Multigrid,
) *krylov.Solver {
	pre := poisson.NewPreconditioner(w.problem, solver, cfg.cycles)

	var method krylov.Method
	name := "PCG"
	if cfg.outer == "vcycle" {
		method = &krylov.Richardson{}
		name = "Richardson"
	} else {
		method = &krylov.CG{}
	}

	return krylov.MakeSolverBuilder().
		WithSystem(krylov.System{MatVec: func(dst, x []float64) {
			w.problem.System().MulVec(dst, x)
		}}).
		WithMethod(method).
		WithSettings(krylov.Settings{
			Tolerance:     cfg.tolerance,
			MaxIterations: cfg.maxIterations,
			PSolve:        pre.Precondition,
		}).
		Build(name)
}

// progressHook advances the monitor's progress bar by one for every
// finished outer iteration.
type progressHook struct {
	bar *monitoring.ProgressBar
}

func (h progressHook) Func(ctx hooking.HookCtx) {
	if ctx.Pos != krylov.HookPosIteration {
		return
	}

	h.bar.IncrementFinished(1)
}

func startProgress(
	sess *session.Session,
	outer *krylov.Solver,
	cfg solveConfig,
	unknowns int,
) *monitoring.ProgressBar {
	m := sess.GetMonitor()
	if m == nil {
		return nil
	}

	total := cfg.maxIterations
	if total == 0 {
		total = 2 * unknowns
	}

	bar := m.CreateProgressBar("outer iterations", uint64(total))
	outer.AcceptHook(progressHook{bar: bar})

	return bar
}

func finishProgress(sess *session.Session, bar *monitoring.ProgressBar) {
	if bar == nil {
		return
	}

	sess.GetMonitor().CompleteProgressBar(bar)
}

func printReport(
	sess *session.Session,
	w *workload,
	result krylov.Result,
	converged bool,
) {
	fmt.Printf("run %s: %s problem, %d unknowns on levels [%d, %d]\n",
		sess.ID(), w.name, len(w.problem.RHS()),
		w.problem.MinLevel(), w.problem.MaxLevel())

	fmt.Print(sess.GetAnalyzer().Report())
	fmt.Printf("max nodal error: %.6e\n",
		floats.Distance(result.X, w.exact, math.Inf(1)))

	if !converged {
		fmt.Println("solve did not converge within the iteration limit")
	}
}

func writePlot(sess *session.Session, series, path string) error {
	p := plotting.NewResidualPlot()

	if err := p.AddSeries(series, sess.GetAnalyzer().History()); err != nil {
		return err
	}

	if err := p.Save(path); err != nil {
		return err
	}

	fmt.Printf("Residual plot written to %s\n", path)

	return nil
}
