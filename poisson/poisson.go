// Package poisson provides model problems for the one-dimensional
// Poisson equation -u'' = f on (0, 1) with homogeneous Dirichlet
// boundaries, discretized with linear finite elements. The problems
// assemble complete multigrid hierarchies: per-level system matrices,
// transfer operators, and, for locally refined meshes, the interface
// coupling matrices. They serve as the standard workload for solver
// tests and the command line front end.
package poisson

import (
	"fmt"

	"github.com/fealab/strata/mg"
	"github.com/fealab/strata/sparse"
)

// A Problem is a discretized model problem together with its multigrid
// hierarchy. The composite system and right-hand side describe what an
// outer iteration solves; the per-level accessors and the residual
// plumbing feed the V-cycle that preconditions it.
type Problem interface {
	// MinLevel returns the coarsest level of the hierarchy.
	MinLevel() int

	// MaxLevel returns the finest level of the hierarchy.
	MaxLevel() int

	// Size returns the number of unknowns on a level.
	Size(level int) int

	// Matrix returns the system matrix assembled on a level.
	Matrix(level int) *sparse.CSR

	// Apply computes dst = A_level * src.
	Apply(level int, dst, src mg.Vector)

	// System returns the matrix of the full problem the outer
	// iteration works on.
	System() *sparse.CSR

	// RHS returns the load vector of the full problem.
	RHS() mg.Vector

	// Coordinates returns the node position of every unknown of the
	// full problem, in unknown order.
	Coordinates() []float64

	// RestrictResidual distributes a residual of the full problem over
	// the defect vectors of every level, so that a V-cycle sees a
	// consistent right-hand side on each of them.
	RestrictResidual(residual mg.Vector, vectors *mg.LevelVectors)

	// Collect gathers the per-level solutions of a completed V-cycle
	// into a correction for the full problem.
	Collect(dst mg.Vector, vectors *mg.LevelVectors)
}

// laplacian assembles the stiffness matrix of -u'' on a uniform mesh
// with n interior nodes and cell width h: the tridiagonal matrix with
// 2/h on the diagonal and -1/h beside it.
func laplacian(n int, h float64) *sparse.CSR {
	b := sparse.NewBuilder(n, n)
	for i := 0; i < n; i++ {
		b.Add(i, i, 2/h)
		if i > 0 {
			b.Add(i, i-1, -1/h)
		}
		if i < n-1 {
			b.Add(i, i+1, -1/h)
		}
	}
	return b.Build()
}

// assembleGraded assembles the stiffness matrix and the load vector for
// f = 1 on an arbitrary 1-D mesh given by its interior node positions.
// The two boundary nodes at 0 and 1 carry homogeneous Dirichlet values
// and are eliminated.
func assembleGraded(coords []float64) (*sparse.CSR, mg.Vector) {
	n := len(coords)
	b := sparse.NewBuilder(n, n)
	rhs := mg.NewVector(n)

	for i := 0; i < n; i++ {
		left := 0.0
		if i > 0 {
			left = coords[i-1]
		}
		right := 1.0
		if i < n-1 {
			right = coords[i+1]
		}

		gl := coords[i] - left
		gr := right - coords[i]
		b.Add(i, i, 1/gl+1/gr)
		if i > 0 {
			b.Add(i, i-1, -1/gl)
		}
		if i < n-1 {
			b.Add(i, i+1, -1/gr)
		}
		rhs[i] = (gl + gr) / 2
	}

	return b.Build(), rhs
}

// manufactured returns u(x) = x(1-x)/2, the solution of -u'' = 1 with
// homogeneous Dirichlet boundaries. Linear elements with exact load
// integration reproduce it at the nodes of any 1-D mesh, which makes it
// a sharp correctness reference.
func manufactured(x float64) float64 {
	return x * (1 - x) / 2
}

func levelsMustBeValid(minLevel, maxLevel int) {
	if minLevel < 0 || minLevel > maxLevel {
		panic(fmt.Sprintf("poisson: invalid level range [%d, %d]",
			minLevel, maxLevel))
	}
}
