package coarse

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/fealab/strata/mg"
	"github.com/fealab/strata/sparse"
)

// CG solves the coarsest system with unpreconditioned conjugate
// gradients. It suits hierarchies whose coarsest level is still too
// large to factorize, at the price of an inexact coarse solve. The
// matrix must be symmetric positive definite.
type CG struct {
	a       *sparse.CSR
	n       int
	tol     float64
	maxIter int

	r, p, ap []float64
}

// NewCG returns a conjugate gradient coarse solver that iterates until
// the residual norm drops below tol relative to the defect norm, or at
// most maxIter times.
func NewCG(a *sparse.CSR, tol float64, maxIter int) *CG {
	r, c := a.Dims()
	if r != c {
		panic(fmt.Sprintf("coarse: cannot solve %dx%d system", r, c))
	}
	if tol <= 0 || tol >= 1 {
		panic(fmt.Sprintf("coarse: relative tolerance %g outside (0, 1)", tol))
	}
	if maxIter <= 0 {
		panic(fmt.Sprintf("coarse: non-positive iteration limit %d", maxIter))
	}

	return &CG{
		a:       a,
		n:       r,
		tol:     tol,
		maxIter: maxIter,
		r:       make([]float64, r),
		p:       make([]float64, r),
		ap:      make([]float64, r),
	}
}

// SolveCoarse implements mg.CoarseSolver. It starts from the zero
// vector, so the first residual is the defect itself.
func (c *CG) SolveCoarse(level int, solution, defect mg.Vector) {
	if len(solution) != c.n || len(defect) != c.n {
		panic(fmt.Sprintf(
			"coarse: vectors of length %d, %d against %d unknowns",
			len(solution), len(defect), c.n))
	}

	solution.Zero()
	copy(c.r, defect)
	copy(c.p, defect)

	rho := floats.Dot(c.r, c.r)
	stop := c.tol * math.Sqrt(rho)

	for iter := 0; iter < c.maxIter && math.Sqrt(rho) > stop; iter++ {
		c.a.MulVec(c.ap, c.p)
		alpha := rho / floats.Dot(c.p, c.ap)
		floats.AddScaled(solution, alpha, c.p)
		floats.AddScaled(c.r, -alpha, c.ap)

		rhoNext := floats.Dot(c.r, c.r)
		beta := rhoNext / rho
		rho = rhoNext

		for i := range c.p {
			c.p[i] = c.r[i] + beta*c.p[i]
		}
	}
}
