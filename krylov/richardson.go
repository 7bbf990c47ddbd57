package krylov

import "gonum.org/v1/gonum/floats"

// Richardson is the preconditioned Richardson iteration
//
//	x_{i+1} = x_i + M^-1 (b - A x_i).
//
// Unpreconditioned it is only useful for well-conditioned systems, but
// with a multigrid cycle as the preconditioner it is the classic
// "multigrid as a solver" outer loop: each iteration applies one cycle
// to the current residual and adds the correction.
type Richardson struct {
	z      []float64
	resume int
}

// Init implements Method.
func (r *Richardson) Init(dim int) {
	r.z = reuse(r.z, dim)
	r.resume = 1
}

// Iterate implements Method.
func (r *Richardson) Iterate(ctx *Context) (Operation, error) {
	switch r.resume {
	case 1:
		ctx.Src = ctx.Residual
		ctx.Dst = r.z
		r.resume = 2
		return PSolve, nil
		// Solve M z = r_i
	case 2:
		floats.Add(ctx.X, r.z) // x_{i+1} = x_i + z
		r.resume = 3
		return ComputeResidual, nil
	case 3:
		ctx.ResidualNorm = floats.Norm(ctx.Residual, 2)
		ctx.Converged = false
		r.resume = 4
		return CheckResidualNorm, nil
	case 4:
		r.resume = 1
		return EndIteration, nil

	default:
		panic("krylov: Richardson.Init not called")
	}
}
