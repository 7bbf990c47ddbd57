package mg

// The interfaces in this file are the roles the cycle engine invokes. All of
// them operate "at a level": the level index is an explicit argument and the
// implementations hold whatever per-level data they need. Vector arguments
// are shaped for the level they belong to; passing a wrong shape is a caller
// bug and panics.

// A Smoother applies an in-place relaxation step to a level's solution
// iterate, damping the high-frequency components of the error. The number of
// sweeps per call is the smoother's own configuration; the engine never
// inspects it.
type Smoother interface {
	Smooth(level int, solution, defect Vector)
}

// A CoarseSolver produces the solution of the coarsest level's system. It is
// a black box to the engine: whether it solves directly or iterates to some
// accuracy is its own business.
type CoarseSolver interface {
	SolveCoarse(level int, solution, defect Vector)
}

// A Transfer moves vectors between adjacent levels. The level argument always
// names the finer of the two levels involved.
type Transfer interface {
	// Prolongate interpolates coarse, a vector on level-1, onto fine, a
	// vector shaped for level. fine is overwritten.
	Prolongate(level int, fine, coarse Vector)

	// RestrictAndAdd restricts fine, a vector on level, to the shape of
	// level-1 and adds the result into coarse. Callers that want a plain
	// restriction must zero coarse first.
	RestrictAndAdd(level int, coarse, fine Vector)
}

// A LevelMatrix is a per-level linear operator. Apply overwrites dst with the
// matrix-vector product at the given level.
type LevelMatrix interface {
	Apply(level int, dst, src Vector)
}

// An EdgeMatrix is a level matrix that also exposes its transpose. Edge
// matrices carry the coupling across the interface between refined and
// unrefined mesh regions: the down matrix maps a level's solution onto the
// next-coarser shape, the up matrix transposed maps a coarse correction back
// onto the finer shape.
type EdgeMatrix interface {
	LevelMatrix

	ApplyTranspose(level int, dst, src Vector)
}

// EdgeCorrection holds the optional pair of interface coupling operators. On
// uniformly refined hierarchies there is no refinement interface and the zero
// value (disabled) is the correct configuration; the engine then skips both
// edge steps entirely.
type EdgeCorrection struct {
	down    EdgeMatrix
	up      EdgeMatrix
	enabled bool
}

// NewEdgeCorrection creates an enabled edge correction from a down/up pair.
// Both operators must be supplied.
func NewEdgeCorrection(down, up EdgeMatrix) EdgeCorrection {
	if down == nil || up == nil {
		panic("mg: edge correction requires both the down and the up matrix")
	}

	return EdgeCorrection{down: down, up: up, enabled: true}
}

// Enabled reports whether the edge steps run.
func (e EdgeCorrection) Enabled() bool {
	return e.enabled
}
