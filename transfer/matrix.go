package transfer

import (
	"github.com/fealab/strata/mg"
	"github.com/fealab/strata/sparse"
)

// A ProlongationSet yields the prolongation matrix into a level. The
// matrix for level l maps vectors of level l-1 to vectors of level l,
// so its row count is the finer size and its column count the coarser.
type ProlongationSet interface {
	Prolongation(level int) *sparse.CSR
}

// MatrixBased transfers with prebuilt prolongation matrices, one per
// level above the coarsest. Restriction multiplies with the transpose
// of the same matrix, so the adjoint pairing holds by construction.
// This is the operator of choice for locally refined hierarchies where
// no closed-form interpolation stencil exists.
type MatrixBased struct {
	set ProlongationSet
}

// NewMatrixBased returns a transfer operator backed by the given
// prolongation matrices.
func NewMatrixBased(set ProlongationSet) *MatrixBased {
	if set == nil {
		panic("transfer: prolongation set must not be nil")
	}
	return &MatrixBased{set: set}
}

// Prolongate implements mg.Transfer.
func (t *MatrixBased) Prolongate(level int, fine, coarse mg.Vector) {
	t.set.Prolongation(level).MulVec(fine, coarse)
}

// RestrictAndAdd implements mg.Transfer.
func (t *MatrixBased) RestrictAndAdd(level int, coarse, fine mg.Vector) {
	t.set.Prolongation(level).AddMulTransVec(coarse, fine)
}
