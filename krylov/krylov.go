// Package krylov provides outer iterative solvers for linear systems.
// The methods communicate with the caller through a reverse
// communication interface: Iterate commands an operation, the caller
// performs it on the shared context and calls Iterate again. This keeps
// the methods independent of how the matrix and the preconditioner are
// represented, so a multigrid cycle plugs in as a preconditioner the
// same way a diagonal scaling would.
package krylov

import (
	"errors"
	"time"

	"gonum.org/v1/gonum/floats"
)

// ErrIterationLimit is returned when a solve stops because it reached
// the configured iteration limit before the residual tolerance.
var ErrIterationLimit = errors.New("krylov: iteration limit reached")

// System describes the matrix of the linear system through its action.
type System struct {
	// MatVec computes A*x and stores the result into dst. It must be
	// non-nil.
	MatVec func(dst, x []float64)
}

// Settings configures a solve.
type Settings struct {
	// X0 is an initial guess. If it is nil, the zero vector is used.
	// Otherwise its length must equal the dimension of the system.
	X0 []float64

	// Tolerance is the relative residual tolerance for the final
	// approximation. It must be smaller than one and greater than the
	// machine epsilon; zero selects the default 1e-8.
	Tolerance float64

	// MaxIterations is the limit on the number of iterations. Zero
	// selects twice the dimension of the system.
	MaxIterations int

	// PSolve stores into dst the solution of the preconditioner system
	// M z = rhs. If it is nil, no preconditioning is used.
	PSolve func(dst, rhs []float64) error
}

// Operation specifies the type of operation commanded by a Method.
type Operation uint64

// Operations commanded by Method.Iterate.
const (
	NoOperation Operation = 0

	// Multiply A*x where x is stored in Context.Src and store the
	// result into Context.Dst.
	MatVec Operation = 1 << (iota - 1)

	// Solve the preconditioner system M z = r, where r is stored in
	// Context.Src, and store z into Context.Dst.
	PSolve

	// Compute b - A*x for the current approximation in Context.X and
	// store the result into Context.Residual.
	ComputeResidual

	// Check convergence using Context.ResidualNorm. The caller sets
	// Context.Converged before the next Iterate call.
	CheckResidualNorm

	// EndIteration closes one iteration of the method. The caller
	// updates its statistics and stops if Context.Converged is true.
	EndIteration
)

// Method is an iterative method producing a sequence of vectors that
// converges to the solution of A x = b.
type Method interface {
	// Init initializes the method for solving a dim×dim system.
	Init(dim int)

	// Iterate retrieves data from the context, updates it, and returns
	// the next operation for the caller to perform.
	Iterate(*Context) (Operation, error)
}

// Context mediates the communication between a Method and the caller.
// It must not be modified or accessed apart from the commanded
// operations.
type Context struct {
	// X is the current approximate solution. On the first call to
	// Method.Iterate, X holds the initial estimate. The method keeps it
	// current whenever it commands ComputeResidual or EndIteration.
	X []float64

	// Residual is the current residual b - A*x. On the first call to
	// Method.Iterate it holds the initial residual.
	Residual []float64

	// ResidualNorm is the norm of the current residual. The method
	// updates it before commanding CheckResidualNorm.
	ResidualNorm float64

	// Converged tells the method that ResidualNorm satisfied the
	// stopping criterion after a CheckResidualNorm operation.
	Converged bool

	// Src and Dst are the argument and result vectors of MatVec and
	// PSolve operations.
	Src, Dst []float64
}

// Stats holds the counters of a solve.
type Stats struct {
	Iterations   int
	MatVec       int
	PSolve       int
	ResidualNorm float64
	StartTime    time.Time
	Runtime      time.Duration
}

// Result is the outcome of a solve.
type Result struct {
	X     []float64
	Stats Stats
}

// Solve solves the system a x = b with the given method. It returns
// ErrIterationLimit when the iteration budget runs out first; the
// returned result still holds the best approximation found.
func Solve(a System, b []float64, method Method, settings Settings) (Result, error) {
	stats := Stats{StartTime: time.Now()}

	dim := len(b)
	switch {
	case dim == 0:
		panic("krylov: zero dimension")
	case a.MatVec == nil:
		panic("krylov: nil matrix-vector multiplication")
	case settings.X0 != nil && len(settings.X0) != dim:
		panic("krylov: mismatched length of initial guess")
	}

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
		a.MatVec(ctx.Residual, ctx.X)
		stats.MatVec++
		floats.AddScaledTo(ctx.Residual, b, -1, ctx.Residual) // r = b - Ax
	} else {
		copy(ctx.Residual, b) // r = b
	}

	ctx.ResidualNorm = floats.Norm(ctx.Residual, 2)
	var err error
	if ctx.ResidualNorm >= settings.Tolerance {
		err = iterate(a, b, ctx, settings, method, &stats, nil)
	}

	stats.Runtime = time.Since(stats.StartTime)
	return Result{
		X:     ctx.X,
		Stats: stats,
	}, err
}

// iterate runs the reverse communication loop. observe, when non-nil,
// is called with the running statistics after every finished iteration.
func iterate(a System, b []float64, ctx *Context, settings Settings,
	method Method, stats *Stats, observe func(Stats)) error {
	dim := len(ctx.X)
	bnorm := floats.Norm(b, 2)
	if bnorm == 0 {
		bnorm = 1
	}

	method.Init(dim)

	for {
		op, err := method.Iterate(ctx)
		if err != nil {
			return err
		}

		switch op {
		case NoOperation:

		case ComputeResidual:
			a.MatVec(ctx.Residual, ctx.X)
			stats.MatVec++
			floats.AddScaledTo(ctx.Residual, b, -1, ctx.Residual) // r = b - Ax

		case MatVec:
			a.MatVec(ctx.Dst, ctx.Src)
			stats.MatVec++

		case PSolve:
			if settings.PSolve == nil {
				copy(ctx.Dst, ctx.Src)
				continue
			}
			if err := settings.PSolve(ctx.Dst, ctx.Src); err != nil {
				return err
			}
			stats.PSolve++

		case CheckResidualNorm:
			ctx.Converged = ctx.ResidualNorm/bnorm < settings.Tolerance

		case EndIteration:
			stats.Iterations++
			stats.ResidualNorm = ctx.ResidualNorm
			if observe != nil {
				observe(*stats)
			}
			if ctx.Converged {
				return nil
			}
			if stats.Iterations == settings.MaxIterations {
				return ErrIterationLimit
			}

		default:
			panic("krylov: invalid operation")
		}
	}
}

// DefaultSettings returns the settings used when the zero value is
// passed to Solve.
func DefaultSettings() Settings {
	return Settings{
		Tolerance: 1e-8,
	}
}

func defaultSettings(s *Settings, dim int) {
	if s.Tolerance == 0 {
		s.Tolerance = 1e-8
	}
	if s.MaxIterations == 0 {
		s.MaxIterations = 2 * dim
	}
}

func reuse(v []float64, n int) []float64 {
	if cap(v) < n {
		return make([]float64, n)
	}
	return v[:n]
}

const dlamchE = 1.0 / (1 << 53)
