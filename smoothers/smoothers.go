// Package smoothers provides relaxation methods that serve as pre- and
// post-smoothers on the levels of a multigrid hierarchy.
//
// All smoothers in this package sweep over the rows of a compressed
// sparse row matrix and therefore bind to the sparse package. They
// update the solution in place and never touch the defect vector.
package smoothers

import "github.com/fealab/strata/sparse"

// A MatrixSet yields the system matrix assembled on a level. A
// multilevel hierarchy implements this interface once and hands it to
// every smoother it configures.
type MatrixSet interface {
	Matrix(level int) *sparse.CSR
}
