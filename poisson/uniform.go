package poisson

import (
	"fmt"

	"github.com/fealab/strata/mg"
	"github.com/fealab/strata/sparse"
	"github.com/fealab/strata/transfer"
)

// Uniform is the Poisson problem on a globally refined mesh hierarchy.
// The coarsest level has a chosen number of interior nodes and every
// finer level halves the cells, so a level with n unknowns refines to
// 2n+1. There is no refinement interface, hence no edge correction;
// transfer.Dyadic1D moves vectors between the levels.
type Uniform struct {
	minLevel int
	maxLevel int

	sizes    []int
	spacings []float64
	matrices []*sparse.CSR

	rhs mg.Vector
}

// NewUniform assembles the hierarchy for levels in [minLevel, maxLevel]
// with coarsePoints interior nodes on the coarsest level.
func NewUniform(minLevel, maxLevel, coarsePoints int) *Uniform {
	levelsMustBeValid(minLevel, maxLevel)
	if coarsePoints < 1 {
		panic(fmt.Sprintf("poisson: coarsest level needs at least one node, got %d",
			coarsePoints))
	}

	u := &Uniform{minLevel: minLevel, maxLevel: maxLevel}

	n := coarsePoints
	for l := minLevel; l <= maxLevel; l++ {
		h := 1.0 / float64(n+1)
		u.sizes = append(u.sizes, n)
		u.spacings = append(u.spacings, h)
		u.matrices = append(u.matrices, laplacian(n, h))
		n = 2*n + 1
	}

	fine := u.sizes[len(u.sizes)-1]
	h := u.spacings[len(u.spacings)-1]
	u.rhs = mg.NewVector(fine)
	for i := range u.rhs {
		u.rhs[i] = h
	}

	return u
}

// MinLevel returns the coarsest level.
func (u *Uniform) MinLevel() int {
	return u.minLevel
}

// MaxLevel returns the finest level.
func (u *Uniform) MaxLevel() int {
	return u.maxLevel
}

// Size returns the number of unknowns on a level.
func (u *Uniform) Size(level int) int {
	return u.sizes[u.index(level)]
}

// Spacing returns the mesh width on a level.
func (u *Uniform) Spacing(level int) float64 {
	return u.spacings[u.index(level)]
}

// Matrix returns the stiffness matrix of a level.
func (u *Uniform) Matrix(level int) *sparse.CSR {
	return u.matrices[u.index(level)]
}

// Apply implements mg.LevelMatrix.
func (u *Uniform) Apply(level int, dst, src mg.Vector) {
	u.Matrix(level).MulVec(dst, src)
}

// System returns the finest-level matrix; on a globally refined mesh
// the finest level carries the full problem.
func (u *Uniform) System() *sparse.CSR {
	return u.matrices[len(u.matrices)-1]
}

// RHS returns the load vector for f = 1 on the finest level.
func (u *Uniform) RHS() mg.Vector {
	return u.rhs
}

// Coordinates returns the finest-level node positions.
func (u *Uniform) Coordinates() []float64 {
	n := u.Size(u.maxLevel)
	h := u.Spacing(u.maxLevel)

	coords := make([]float64, n)
	for i := range coords {
		coords[i] = float64(i+1) * h
	}
	return coords
}

// Exact returns the nodal values of the manufactured solution of
// -u'' = 1 on the finest level. Linear elements reproduce it exactly,
// so a converged solve must match it to solver tolerance.
func (u *Uniform) Exact() mg.Vector {
	coords := u.Coordinates()
	exact := mg.NewVector(len(coords))
	for i, x := range coords {
		exact[i] = manufactured(x)
	}
	return exact
}

// Transfer returns the inter-level transfer operator of the hierarchy.
func (u *Uniform) Transfer() mg.Transfer {
	return transfer.NewDyadic1D()
}

// RestrictResidual installs the residual as the finest defect and
// cascades its plain restriction down to every coarser level.
func (u *Uniform) RestrictResidual(residual mg.Vector, vectors *mg.LevelVectors) {
	u.sizeMustMatch(len(residual))

	t := u.Transfer()
	u.installDefect(vectors, u.maxLevel, residual)

	for l := u.maxLevel; l > u.minLevel; l-- {
		d := u.defectSized(vectors, l-1)
		d.Zero()
		t.RestrictAndAdd(l, d, vectors.Defect(l))
	}
}

// Collect copies the finest-level solution into dst.
func (u *Uniform) Collect(dst mg.Vector, vectors *mg.LevelVectors) {
	u.sizeMustMatch(len(dst))
	copy(dst, vectors.Solution(u.maxLevel))
}

func (u *Uniform) installDefect(vectors *mg.LevelVectors, level int, src mg.Vector) {
	d := u.defectSized(vectors, level)
	copy(d, src)
}

// defectSized returns the defect vector of a level, allocating it at
// the level's size when missing or stale.
func (u *Uniform) defectSized(vectors *mg.LevelVectors, level int) mg.Vector {
	n := u.Size(level)
	d := vectors.Defect(level)
	if len(d) != n {
		d = mg.NewVector(n)
		vectors.SetDefect(level, d)
	}
	return d
}

func (u *Uniform) sizeMustMatch(n int) {
	if n != u.Size(u.maxLevel) {
		panic(fmt.Sprintf("poisson: vector of length %d against %d unknowns",
			n, u.Size(u.maxLevel)))
	}
}

func (u *Uniform) index(level int) int {
	if level < u.minLevel || level > u.maxLevel {
		panic(fmt.Sprintf("poisson: level %d outside [%d, %d]",
			level, u.minLevel, u.maxLevel))
	}
	return level - u.minLevel
}
