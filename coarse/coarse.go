// Package coarse provides solvers for the coarsest level of a
// multigrid hierarchy, where the system is small enough for a direct
// factorization or a few Krylov iterations.
package coarse

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/fealab/strata/mg"
	"github.com/fealab/strata/sparse"
)

// Dense solves the coarsest system with a dense LU factorization. The
// factorization happens once at construction, every SolveCoarse call
// is a pair of triangular substitutions.
type Dense struct {
	n  int
	lu mat.LU
}

// NewDense densifies the given matrix and factorizes it. The matrix
// must be square and regular.
func NewDense(a *sparse.CSR) *Dense {
	r, c := a.Dims()
	if r != c {
		panic(fmt.Sprintf("coarse: cannot factorize %dx%d matrix", r, c))
	}

	dense := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		a.Row(i, func(j int, v float64) {
			dense.Set(i, j, v)
		})
	}

	d := &Dense{n: r}
	d.lu.Factorize(dense)

	return d
}

// SolveCoarse implements mg.CoarseSolver. It overwrites solution with
// the exact solution of the factorized system for the given defect.
func (d *Dense) SolveCoarse(level int, solution, defect mg.Vector) {
	if len(solution) != d.n || len(defect) != d.n {
		panic(fmt.Sprintf(
			"coarse: vectors of length %d, %d against %d unknowns",
			len(solution), len(defect), d.n))
	}

	x := mat.NewVecDense(d.n, solution)
	b := mat.NewVecDense(d.n, append([]float64(nil), defect...))

	err := d.lu.SolveVecTo(x, false, b)
	var cond mat.Condition
	if err != nil && !errors.As(err, &cond) {
		panic(fmt.Sprintf("coarse: coarsest system is singular: %v", err))
	}
}
