// Package sparse provides the compressed sparse row matrices the level
// operators are assembled into. The package is deliberately small: the
// solver only ever needs construction, matrix-vector products and row
// traversal.
package sparse

import "sort"

type triplet struct {
	i, j int
	v    float64
}

// A Builder accumulates matrix entries in coordinate form. Entries may be
// added in any order; duplicates are summed when the matrix is compressed.
type Builder struct {
	rows, cols int
	data       []triplet
}

// NewBuilder creates a Builder for an r by c matrix.
func NewBuilder(r, c int) *Builder {
	if r <= 0 || c <= 0 {
		panic("sparse: non-positive dimension")
	}

	return &Builder{rows: r, cols: c}
}

// Add accumulates v at (i, j).
func (b *Builder) Add(i, j int, v float64) {
	if i < 0 || b.rows <= i {
		panic("sparse: row index out of range")
	}
	if j < 0 || b.cols <= j {
		panic("sparse: column index out of range")
	}

	b.data = append(b.data, triplet{i, j, v})
}

// Build compresses the accumulated entries into a CSR matrix. Zero-valued
// sums are kept; callers that assemble exact cancellations and care about
// the sparsity pattern get a predictable one.
func (b *Builder) Build() *CSR {
	sort.SliceStable(b.data, func(p, q int) bool {
		if b.data[p].i != b.data[q].i {
			return b.data[p].i < b.data[q].i
		}
		return b.data[p].j < b.data[q].j
	})

	m := &CSR{
		rows:   b.rows,
		cols:   b.cols,
		rowPtr: make([]int, b.rows+1),
	}

	prevI, prevJ := -1, -1
	for _, t := range b.data {
		if t.i == prevI && t.j == prevJ {
			m.values[len(m.values)-1] += t.v
			continue
		}

		m.colIdx = append(m.colIdx, t.j)
		m.values = append(m.values, t.v)
		m.rowPtr[t.i+1]++
		prevI, prevJ = t.i, t.j
	}

	for i := 0; i < b.rows; i++ {
		m.rowPtr[i+1] += m.rowPtr[i]
	}

	return m
}

// A CSR is an immutable matrix in compressed sparse row form.
type CSR struct {
	rows, cols int
	rowPtr     []int
	colIdx     []int
	values     []float64
}

// Dims returns the dimensions of the matrix.
func (m *CSR) Dims() (r, c int) {
	return m.rows, m.cols
}

// NonZeros returns the number of stored entries.
func (m *CSR) NonZeros() int {
	return len(m.values)
}

// At returns the entry at (i, j), zero if it is not stored.
func (m *CSR) At(i, j int) float64 {
	if i < 0 || m.rows <= i {
		panic("sparse: row index out of range")
	}
	if j < 0 || m.cols <= j {
		panic("sparse: column index out of range")
	}

	for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
		if m.colIdx[k] == j {
			return m.values[k]
		}
	}
	return 0
}

// MulVec computes dst = M*x.
func (m *CSR) MulVec(dst, x []float64) {
	if m.cols != len(x) {
		panic("sparse: dimension mismatch")
	}
	if m.rows != len(dst) {
		panic("sparse: dimension mismatch")
	}

	for i := 0; i < m.rows; i++ {
		s := 0.0
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			s += m.values[k] * x[m.colIdx[k]]
		}
		dst[i] = s
	}
}

// MulTransVec computes dst = M^T*x.
func (m *CSR) MulTransVec(dst, x []float64) {
	if m.cols != len(dst) {
		panic("sparse: dimension mismatch")
	}
	if m.rows != len(x) {
		panic("sparse: dimension mismatch")
	}

	for i := range dst {
		dst[i] = 0
	}
	for i := 0; i < m.rows; i++ {
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			dst[m.colIdx[k]] += m.values[k] * x[i]
		}
	}
}

// AddMulTransVec computes dst += M^T*x.
func (m *CSR) AddMulTransVec(dst, x []float64) {
	if m.cols != len(dst) {
		panic("sparse: dimension mismatch")
	}
	if m.rows != len(x) {
		panic("sparse: dimension mismatch")
	}

	for i := 0; i < m.rows; i++ {
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			dst[m.colIdx[k]] += m.values[k] * x[i]
		}
	}
}

// Row calls fn for every stored entry of row i.
func (m *CSR) Row(i int, fn func(j int, v float64)) {
	if i < 0 || m.rows <= i {
		panic("sparse: row index out of range")
	}

	for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
		fn(m.colIdx[k], m.values[k])
	}
}

// Diag returns the diagonal entry of row i, zero if it is not stored.
func (m *CSR) Diag(i int) float64 {
	return m.At(i, i)
}
