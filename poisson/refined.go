package poisson

import (
	"fmt"

	"github.com/fealab/strata/mg"
	"github.com/fealab/strata/sparse"
	"github.com/fealab/strata/transfer"
)

// Refined is the Poisson problem on a mesh graded toward x = 0 by local
// refinement. Every level beyond the coarsest splits only the cells in
// the left half of the previous level's refined region, so level l
// covers (0, 2^-(l-minlevel)) at half the spacing of level l-1 and all
// levels carry the same number of unknowns.
//
// A level's rightmost mesh node is the interface to the unrefined
// remainder of the domain. That node is not an unknown of the level; it
// belongs to the next-coarser level, and the stiffness coupling between
// the two sides of the interface is carried by a separate edge matrix
// per level. Feeding those matrices to the V-cycle as the edge-down and
// edge-up pair keeps the composite right-hand side consistent across
// the interface, which is exactly the correction the engine's edge
// steps implement.
type Refined struct {
	minLevel int
	maxLevel int

	// points is the number of unknowns on every level, jStar the
	// 1-based coarse-level index of a level's interface node.
	points int
	jStar  int

	spacings []float64
	matrices []*sparse.CSR
	prolongs []*sparse.CSR
	edges    []*sparse.CSR

	coords []float64
	system *sparse.CSR
	rhs    mg.Vector
}

// NewRefined assembles the graded hierarchy for levels in
// [minLevel, maxLevel] with points unknowns per level. points must be
// odd so that the refined half of each level ends on a mesh node.
func NewRefined(minLevel, maxLevel, points int) *Refined {
	levelsMustBeValid(minLevel, maxLevel)
	if points < 1 || points%2 == 0 {
		panic(fmt.Sprintf("poisson: refined hierarchy needs an odd number of points, got %d",
			points))
	}

	r := &Refined{
		minLevel: minLevel,
		maxLevel: maxLevel,
		points:   points,
		jStar:    (points + 1) / 2,
	}

	h := 1.0 / float64(points+1)
	for l := minLevel; l <= maxLevel; l++ {
		r.spacings = append(r.spacings, h)
		r.matrices = append(r.matrices, laplacian(points, h))

		if l == minLevel {
			r.prolongs = append(r.prolongs, nil)
			r.edges = append(r.edges, nil)
		} else {
			r.prolongs = append(r.prolongs, r.buildProlongation())
			r.edges = append(r.edges, r.buildEdge(h))
		}

		h /= 2
	}

	r.coords = r.buildCoordinates()
	r.system, r.rhs = assembleGraded(r.coords)

	return r
}

// buildProlongation interpolates a coarser level onto the refined half
// of its region: fine node k sits at coarse position k/2, so even nodes
// copy the coarse value and odd nodes average their neighbors. The
// rightmost fine node leans on the interface node jStar, which closes
// the stencil at the patch boundary.
func (r *Refined) buildProlongation() *sparse.CSR {
	b := sparse.NewBuilder(r.points, r.points)
	for k := 1; k <= r.points; k++ {
		if k%2 == 0 {
			b.Add(k-1, k/2-1, 1)
			continue
		}
		if left := (k - 1) / 2; left >= 1 {
			b.Add(k-1, left-1, 0.5)
		}
		b.Add(k-1, (k+1)/2-1, 0.5)
	}
	return b.Build()
}

// buildEdge holds the single stiffness entry that couples a level's
// last unknown to the interface node on the coarser level.
func (r *Refined) buildEdge(h float64) *sparse.CSR {
	b := sparse.NewBuilder(r.points, r.points)
	b.Add(r.jStar-1, r.points-1, -1/h)
	return b.Build()
}

// buildCoordinates lists the composite mesh nodes in ascending order:
// the finest patch first, then each coarser level's unrefined remainder
// from its interface node rightward.
func (r *Refined) buildCoordinates() []float64 {
	var coords []float64

	h := r.spacings[len(r.spacings)-1]
	for k := 1; k <= r.points; k++ {
		coords = append(coords, float64(k)*h)
	}

	for l := r.maxLevel - 1; l >= r.minLevel; l-- {
		h := r.spacings[l-r.minLevel]
		for k := r.jStar; k <= r.points; k++ {
			coords = append(coords, float64(k)*h)
		}
	}

	return coords
}

// MinLevel returns the coarsest level.
func (r *Refined) MinLevel() int {
	return r.minLevel
}

// MaxLevel returns the finest level.
func (r *Refined) MaxLevel() int {
	return r.maxLevel
}

// Size returns the number of unknowns on a level; it is the same on
// every level of a graded hierarchy.
func (r *Refined) Size(level int) int {
	r.index(level)
	return r.points
}

// Spacing returns the mesh width of a level's patch.
func (r *Refined) Spacing(level int) float64 {
	return r.spacings[r.index(level)]
}

// Matrix returns the stiffness matrix of a level's patch.
func (r *Refined) Matrix(level int) *sparse.CSR {
	return r.matrices[r.index(level)]
}

// Apply implements mg.LevelMatrix.
func (r *Refined) Apply(level int, dst, src mg.Vector) {
	r.Matrix(level).MulVec(dst, src)
}

// Prolongation returns the patch interpolation matrix into a level,
// implementing transfer.ProlongationSet.
func (r *Refined) Prolongation(level int) *sparse.CSR {
	i := r.index(level)
	if i == 0 {
		panic(fmt.Sprintf("poisson: no prolongation into coarsest level %d", level))
	}
	return r.prolongs[i]
}

// Transfer returns the matrix-backed transfer operator of the
// hierarchy.
func (r *Refined) Transfer() mg.Transfer {
	return transfer.NewMatrixBased(r)
}

// EdgeMatrix returns the interface coupling operator. The same
// operator serves as both the edge-down and the edge-up matrix: the
// composite problem is symmetric, so the coupling from fine to coarse
// is the transpose of the coupling from coarse to fine.
func (r *Refined) EdgeMatrix() mg.EdgeMatrix {
	return refinedEdge{r}
}

// System returns the composite matrix over all active mesh nodes.
func (r *Refined) System() *sparse.CSR {
	return r.system
}

// RHS returns the composite load vector for f = 1.
func (r *Refined) RHS() mg.Vector {
	return r.rhs
}

// Coordinates returns the composite node positions in unknown order.
func (r *Refined) Coordinates() []float64 {
	return r.coords
}

// Exact returns the nodal values of the manufactured solution of
// -u'' = 1 on the composite mesh.
func (r *Refined) Exact() mg.Vector {
	exact := mg.NewVector(len(r.coords))
	for i, x := range r.coords {
		exact[i] = manufactured(x)
	}
	return exact
}

// RestrictResidual distributes a composite residual over the level
// defects. Unknowns at and right of a level's interface node take their
// residual entry directly; unknowns under the refined patch accumulate
// the transposed patch interpolation of the finer defect instead, and
// the interface node itself receives both shares.
func (r *Refined) RestrictResidual(residual mg.Vector, vectors *mg.LevelVectors) {
	r.sizeMustMatch(len(residual))

	d := r.defectSized(vectors, r.maxLevel)
	copy(d, residual[:r.points])

	for l := r.maxLevel - 1; l >= r.minLevel; l-- {
		d := r.defectSized(vectors, l)
		d.Zero()
		r.prolongs[l+1-r.minLevel].AddMulTransVec(d, vectors.Defect(l+1))
		for k := r.jStar; k <= r.points; k++ {
			d[k-1] += residual[r.compositeIndex(l, k)]
		}
	}
}

// Collect gathers the composite correction: every composite node takes
// its value from the one level that smooths it.
func (r *Refined) Collect(dst mg.Vector, vectors *mg.LevelVectors) {
	r.sizeMustMatch(len(dst))

	copy(dst[:r.points], vectors.Solution(r.maxLevel))

	for l := r.maxLevel - 1; l >= r.minLevel; l-- {
		s := vectors.Solution(l)
		for k := r.jStar; k <= r.points; k++ {
			dst[r.compositeIndex(l, k)] = s[k-1]
		}
	}
}

// compositeIndex returns the position of level-l node k in the
// composite ordering. Only nodes at and right of the interface are
// composite unknowns of that level.
func (r *Refined) compositeIndex(level, k int) int {
	if level == r.maxLevel {
		return k - 1
	}
	run := r.points - r.jStar + 1
	return r.points + (r.maxLevel-1-level)*run + (k - r.jStar)
}

func (r *Refined) defectSized(vectors *mg.LevelVectors, level int) mg.Vector {
	d := vectors.Defect(level)
	if len(d) != r.points {
		d = mg.NewVector(r.points)
		vectors.SetDefect(level, d)
	}
	return d
}

func (r *Refined) sizeMustMatch(n int) {
	if n != len(r.coords) {
		panic(fmt.Sprintf("poisson: vector of length %d against %d composite unknowns",
			n, len(r.coords)))
	}
}

func (r *Refined) index(level int) int {
	if level < r.minLevel || level > r.maxLevel {
		panic(fmt.Sprintf("poisson: level %d outside [%d, %d]",
			level, r.minLevel, r.maxLevel))
	}
	return level - r.minLevel
}

// refinedEdge adapts the per-level edge matrices to mg.EdgeMatrix.
type refinedEdge struct {
	r *Refined
}

func (e refinedEdge) Apply(level int, dst, src mg.Vector) {
	e.r.edges[e.r.index(level)].MulVec(dst, src)
}

func (e refinedEdge) ApplyTranspose(level int, dst, src mg.Vector) {
	e.r.edges[e.r.index(level)].MulTransVec(dst, src)
}
