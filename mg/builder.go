package mg

// Builder builds Multigrid solvers. The matrix, the two smoothers, the
// coarse solver and the transfer operator are mandatory; the edge pair is
// optional and only meaningful on locally refined hierarchies.
type Builder struct {
	minLevel int
	maxLevel int

	matrix       LevelMatrix
	preSmoother  Smoother
	postSmoother Smoother
	coarse       CoarseSolver
	transfer     Transfer
	edge         EdgeCorrection
}

// MakeBuilder creates a Builder with a single-level [0, 0] range.
func MakeBuilder() Builder {
	return Builder{}
}

// WithLevelRange sets the coarsest and finest level of the hierarchy.
func (b Builder) WithLevelRange(minLevel, maxLevel int) Builder {
	b.minLevel = minLevel
	b.maxLevel = maxLevel
	return b
}

// WithMatrix sets the per-level system matrix.
func (b Builder) WithMatrix(m LevelMatrix) Builder {
	b.matrix = m
	return b
}

// WithPreSmoother sets the smoother applied before coarse-grid correction.
func (b Builder) WithPreSmoother(s Smoother) Builder {
	b.preSmoother = s
	return b
}

// WithPostSmoother sets the smoother applied after coarse-grid correction.
func (b Builder) WithPostSmoother(s Smoother) Builder {
	b.postSmoother = s
	return b
}

// WithSmoother sets the same smoother for both the pre and the post position.
func (b Builder) WithSmoother(s Smoother) Builder {
	b.preSmoother = s
	b.postSmoother = s
	return b
}

// WithCoarseSolver sets the solver used at the coarsest level.
func (b Builder) WithCoarseSolver(c CoarseSolver) Builder {
	b.coarse = c
	return b
}

// WithTransfer sets the inter-level transfer operator.
func (b Builder) WithTransfer(t Transfer) Builder {
	b.transfer = t
	return b
}

// WithEdgeMatrices sets the optional pair of interface coupling matrices for
// locally refined hierarchies.
func (b Builder) WithEdgeMatrices(down, up EdgeMatrix) Builder {
	b.edge = NewEdgeCorrection(down, up)
	return b
}

// Build builds a Multigrid solver with the given name. Missing mandatory
// bindings and invalid level ranges are configuration errors and panic.
func (b Builder) Build(name string) *Multigrid {
	if name == "" {
		panic("mg: solver must have a name")
	}

	b.bindingsMustBeComplete()
	levelRangeMustBeValid(b.minLevel, b.maxLevel)

	return &Multigrid{
		name:         name,
		minLevel:     b.minLevel,
		maxLevel:     b.maxLevel,
		vectors:      NewLevelVectors(b.minLevel, b.maxLevel),
		matrix:       b.matrix,
		preSmoother:  b.preSmoother,
		postSmoother: b.postSmoother,
		coarse:       b.coarse,
		transfer:     b.transfer,
		edge:         b.edge,
	}
}

func (b Builder) bindingsMustBeComplete() {
	switch {
	case b.matrix == nil:
		panic("mg: no level matrix configured")
	case b.preSmoother == nil:
		panic("mg: no pre-smoother configured")
	case b.postSmoother == nil:
		panic("mg: no post-smoother configured")
	case b.coarse == nil:
		panic("mg: no coarse solver configured")
	case b.transfer == nil:
		panic("mg: no transfer operator configured")
	}
}
