package smoothers

import (
	"fmt"

	"github.com/fealab/strata/mg"
	"github.com/fealab/strata/sparse"
)

// SOR is a successive over-relaxation smoother. Each forward sweep
// relaxes the rows in ascending index order,
//
//	x_i <- x_i + omega / a_ii * (b_i - sum_j a_ij * x_j)
//
// where entries below the diagonal already carry the new iterate. With
// omega = 1 this is the classic Gauss-Seidel method.
type SOR struct {
	set      MatrixSet
	sweeps   int
	omega    float64
	backward bool
}

// NewSOR returns an SOR smoother running the given number of forward
// sweeps with relaxation factor omega in (0, 2).
func NewSOR(set MatrixSet, sweeps int, omega float64) *SOR {
	if set == nil {
		panic("smoothers: matrix set must not be nil")
	}
	if sweeps < 0 {
		panic(fmt.Sprintf("smoothers: negative sweep count %d", sweeps))
	}
	if omega <= 0 || omega >= 2 {
		panic(fmt.Sprintf("smoothers: relaxation factor %g outside (0, 2)", omega))
	}

	return &SOR{set: set, sweeps: sweeps, omega: omega}
}

// NewGaussSeidel returns a forward Gauss-Seidel smoother, an SOR sweep
// with relaxation factor 1.
func NewGaussSeidel(set MatrixSet, sweeps int) *SOR {
	return NewSOR(set, sweeps, 1)
}

// Backward flips the sweep direction to descending row order and
// returns the smoother. Pairing a forward pre-smoother with a backward
// post-smoother keeps the two-sided cycle symmetric, which matters when
// the cycle serves as a preconditioner for conjugate gradients.
func (s *SOR) Backward() *SOR {
	s.backward = true
	return s
}

// Smooth implements mg.Smoother.
func (s *SOR) Smooth(level int, solution, defect mg.Vector) {
	a := s.set.Matrix(level)
	n, _ := a.Dims()
	if len(solution) != n || len(defect) != n {
		panic(fmt.Sprintf(
			"smoothers: vectors of length %d, %d against %d unknowns on level %d",
			len(solution), len(defect), n, level))
	}

	for sweep := 0; sweep < s.sweeps; sweep++ {
		if s.backward {
			for i := n - 1; i >= 0; i-- {
				s.relaxRow(a, i, solution, defect)
			}
		} else {
			for i := 0; i < n; i++ {
				s.relaxRow(a, i, solution, defect)
			}
		}
	}
}

func (s *SOR) relaxRow(a *sparse.CSR, i int, solution, defect mg.Vector) {
	sum := defect[i]
	a.Row(i, func(j int, v float64) {
		sum -= v * solution[j]
	})
	solution[i] += s.omega * sum / a.Diag(i)
}
