package krylov

import "gonum.org/v1/gonum/floats"

// CG implements the preconditioned conjugate gradient method. The
// matrix and the preconditioner must both be symmetric positive
// definite; a V-cycle qualifies when its post-smoother is the adjoint
// of its pre-smoother.
type CG struct {
	first        bool
	rho, rhoPrev float64

	z, p, ap []float64

	resume int
}

// Init implements Method.
func (cg *CG) Init(dim int) {
	cg.first = true
	cg.z = reuse(cg.z, dim)
	cg.p = reuse(cg.p, dim)
	cg.ap = reuse(cg.ap, dim)
	cg.resume = 1
}

// Iterate implements Method.
func (cg *CG) Iterate(ctx *Context) (Operation, error) {
	switch cg.resume {
	case 1:
		ctx.Src = ctx.Residual
		ctx.Dst = cg.z
		cg.resume = 2
		return PSolve, nil
		// Solve M z = r_{i-1}
	case 2:
		cg.rho = floats.Dot(ctx.Residual, cg.z) // ρ_i = r_{i-1} · z
		if cg.first {
			copy(cg.p, cg.z) // p_1 = z
		} else {
			beta := cg.rho / cg.rhoPrev // β = ρ_i / ρ_{i-1}
			for i, z := range cg.z {
				cg.p[i] = z + beta*cg.p[i] // p_i = z + β p_{i-1}
			}
		}

		ctx.Src = cg.p
		ctx.Dst = cg.ap
		cg.resume = 3
		return MatVec, nil
		// Compute Ap_i
	case 3:
		alpha := cg.rho / floats.Dot(cg.p, cg.ap)     // α = ρ_i / (p_i · Ap_i)
		floats.AddScaled(ctx.X, alpha, cg.p)          // x_i = x_{i-1} + α p_i
		floats.AddScaled(ctx.Residual, -alpha, cg.ap) // r_i = r_{i-1} - α Ap_i

		ctx.ResidualNorm = floats.Norm(ctx.Residual, 2)
		ctx.Converged = false
		cg.resume = 4
		return CheckResidualNorm, nil
	case 4:
		cg.rhoPrev = cg.rho
		cg.first = false
		cg.resume = 1
		return EndIteration, nil

	default:
		panic("krylov: CG.Init not called")
	}
}
