package smoothers

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/fealab/strata/mg"
)

// Jacobi is a damped Jacobi smoother. Each sweep computes the full
// residual first and then applies the diagonally scaled update
//
//	x <- x + omega * D^-1 * (b - A*x)
//
// so all entries are relaxed against the same iterate. With zero
// sweeps the smoother is the identity.
type Jacobi struct {
	set    MatrixSet
	sweeps int
	omega  float64

	residual []float64
}

// NewJacobi returns a Jacobi smoother that runs the given number of
// sweeps with damping factor omega. The usual damping for Poisson-type
// problems is in (0, 1]; omega outside (0, 2) diverges and is rejected.
func NewJacobi(set MatrixSet, sweeps int, omega float64) *Jacobi {
	if set == nil {
		panic("smoothers: matrix set must not be nil")
	}
	if sweeps < 0 {
		panic(fmt.Sprintf("smoothers: negative sweep count %d", sweeps))
	}
	if omega <= 0 || omega >= 2 {
		panic(fmt.Sprintf("smoothers: damping factor %g outside (0, 2)", omega))
	}

	return &Jacobi{set: set, sweeps: sweeps, omega: omega}
}

// Smooth implements mg.Smoother.
func (j *Jacobi) Smooth(level int, solution, defect mg.Vector) {
	a := j.set.Matrix(level)
	n, _ := a.Dims()
	if len(solution) != n || len(defect) != n {
		panic(fmt.Sprintf(
			"smoothers: vectors of length %d, %d against %d unknowns on level %d",
			len(solution), len(defect), n, level))
	}

	if cap(j.residual) < n {
		j.residual = make([]float64, n)
	}
	r := j.residual[:n]

	for s := 0; s < j.sweeps; s++ {
		a.MulVec(r, solution)
		floats.Sub(r, defect)
		for i := 0; i < n; i++ {
			solution[i] -= j.omega * r[i] / a.Diag(i)
		}
	}
}
