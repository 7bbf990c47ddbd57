package poisson

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/fealab/strata/mg"
)

// Preconditioner applies V-cycles of a problem's hierarchy as the
// preconditioner solve of an outer iteration. Each application starts
// from zero, distributes the incoming right-hand side over the level
// defects, runs the configured number of cycles and gathers the
// composite correction.
type Preconditioner struct {
	problem Problem
	solver  *mg.Multigrid
	cycles  int

	residual mg.Vector
	update   mg.Vector
}

// NewPreconditioner wraps the given solver. The solver must have been
// built for the problem's level range.
func NewPreconditioner(p Problem, solver *mg.Multigrid, cycles int) *Preconditioner {
	if solver.MinLevel() != p.MinLevel() || solver.MaxLevel() != p.MaxLevel() {
		panic(fmt.Sprintf("poisson: solver levels [%d, %d] against problem levels [%d, %d]",
			solver.MinLevel(), solver.MaxLevel(), p.MinLevel(), p.MaxLevel()))
	}
	if cycles < 1 {
		panic(fmt.Sprintf("poisson: need at least one cycle per application, got %d",
			cycles))
	}

	n := len(p.RHS())
	return &Preconditioner{
		problem:  p,
		solver:   solver,
		cycles:   cycles,
		residual: mg.NewVector(n),
		update:   mg.NewVector(n),
	}
}

// Precondition stores into dst the multigrid approximation of the
// solution of the full system for the right-hand side rhs. Its
// signature matches the preconditioner solve of the krylov package.
func (p *Preconditioner) Precondition(dst, rhs []float64) error {
	x := mg.Vector(dst)
	x.Zero()

	for c := 0; c < p.cycles; c++ {
		copy(p.residual, rhs)
		if c > 0 {
			p.problem.System().MulVec(p.update, x)
			floats.Sub(p.residual, p.update)
		}

		p.problem.RestrictResidual(p.residual, p.solver.Vectors())
		p.solver.Cycle()
		p.problem.Collect(p.update, p.solver.Vectors())
		floats.Add(x, p.update)
	}

	return nil
}
