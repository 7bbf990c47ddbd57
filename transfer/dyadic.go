// Package transfer provides grid transfer operators that move vectors
// between adjacent levels of a multigrid hierarchy. Prolongation
// interpolates a coarse vector to the next finer level, restriction
// applies the transpose of that interpolation and accumulates into the
// coarser vector, so the pair stays adjoint to each other.
package transfer

import (
	"fmt"

	"github.com/fealab/strata/mg"
)

// Dyadic1D transfers between the levels of a one-dimensional dyadic
// hierarchy where a level with n interior points refines to 2n+1. Fine
// points that coincide with a coarse point copy its value, midpoints
// average their two neighbors. The operator is stateless; sizes come
// from the vectors themselves.
type Dyadic1D struct{}

// NewDyadic1D returns the transfer operator for 1-D dyadic meshes.
func NewDyadic1D() Dyadic1D {
	return Dyadic1D{}
}

// Prolongate implements mg.Transfer by linear interpolation. Boundary
// values are implicitly zero, matching homogeneous Dirichlet problems.
func (Dyadic1D) Prolongate(level int, fine, coarse mg.Vector) {
	nc := len(coarse)
	mustNest(level, len(fine), nc)

	for k := range fine {
		node := k + 1
		if node%2 == 0 {
			fine[k] = coarse[node/2-1]
			continue
		}

		var v float64
		if left := (node - 1) / 2; left >= 1 {
			v += 0.5 * coarse[left-1]
		}
		if right := (node + 1) / 2; right <= nc {
			v += 0.5 * coarse[right-1]
		}
		fine[k] = v
	}
}

// RestrictAndAdd implements mg.Transfer with the transpose of
// Prolongate, accumulated onto the coarse vector.
func (Dyadic1D) RestrictAndAdd(level int, coarse, fine mg.Vector) {
	mustNest(level, len(fine), len(coarse))

	for i := range coarse {
		node := i + 1
		coarse[i] += fine[2*node-1] +
			0.5*fine[2*node-2] +
			0.5*fine[2*node]
	}
}

func mustNest(level, nf, nc int) {
	if nf != 2*nc+1 {
		panic(fmt.Sprintf(
			"transfer: level %d with %d points does not refine %d dyadically",
			level, nf, nc))
	}
}
