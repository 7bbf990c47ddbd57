package krylov

import (
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/fealab/strata/hooking"
)

// HookPosIteration marks the completion of one outer iteration.
var HookPosIteration = &hooking.HookPos{Name: "Iteration"}

// IterationInfo is the hook payload at HookPosIteration.
type IterationInfo struct {
	Iteration    int
	ResidualNorm float64
}

// A Solver runs an iterative method against a fixed system and reports
// the progress of every iteration through hooks. Tools that record or
// display convergence histories attach here.
type Solver struct {
	hooking.HookableBase

	name     string
	system   System
	method   Method
	settings Settings
}

// Name returns the name of the solver.
func (s *Solver) Name() string {
	return s.name
}

// Solve solves the system for the given right-hand side.
func (s *Solver) Solve(b []float64) (Result, error) {
	stats := Stats{StartTime: time.Now()}

	dim := len(b)
	if dim == 0 {
		panic("krylov: zero dimension")
	}

	settings := s.settings
	defaultSettings(&settings, dim)
	if settings.Tolerance < dlamchE || 1 <= settings.Tolerance {
		panic("krylov: invalid tolerance")
	}

	ctx := &Context{
		X:        make([]float64, dim),
		Residual: make([]float64, dim),
	}
	if settings.X0 != nil {
		copy(ctx.X, settings.X0)
		s.system.MatVec(ctx.Residual, ctx.X)
		stats.MatVec++
		floats.AddScaledTo(ctx.Residual, b, -1, ctx.Residual)
	} else {
		copy(ctx.Residual, b)
	}

	ctx.ResidualNorm = floats.Norm(ctx.Residual, 2)
	var err error
	if ctx.ResidualNorm >= settings.Tolerance {
		err = iterate(s.system, b, ctx, settings, s.method, &stats,
			s.iterationDone)
	}

	stats.Runtime = time.Since(stats.StartTime)
	return Result{
		X:     ctx.X,
		Stats: stats,
	}, err
}

func (s *Solver) iterationDone(stats Stats) {
	if s.NumHooks() == 0 {
		return
	}

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosIteration,
		Item: IterationInfo{
			Iteration:    stats.Iterations,
			ResidualNorm: stats.ResidualNorm,
		},
	})
}

// SolverBuilder builds Solvers.
type SolverBuilder struct {
	system   System
	method   Method
	settings Settings
}

// MakeSolverBuilder creates a SolverBuilder with default settings.
func MakeSolverBuilder() SolverBuilder {
	return SolverBuilder{settings: DefaultSettings()}
}

// WithSystem sets the linear system to solve.
func (b SolverBuilder) WithSystem(s System) SolverBuilder {
	b.system = s
	return b
}

// WithMethod sets the iterative method.
func (b SolverBuilder) WithMethod(m Method) SolverBuilder {
	b.method = m
	return b
}

// WithSettings sets the solve settings.
func (b SolverBuilder) WithSettings(s Settings) SolverBuilder {
	b.settings = s
	return b
}

// Build builds a Solver with the given name.
func (b SolverBuilder) Build(name string) *Solver {
	if name == "" {
		panic("krylov: solver must have a name")
	}
	if b.system.MatVec == nil {
		panic("krylov: no system configured")
	}
	if b.method == nil {
		panic("krylov: no method configured")
	}

	return &Solver{
		name:     name,
		system:   b.system,
		method:   b.method,
		settings: b.settings,
	}
}
