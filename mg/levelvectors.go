package mg

import "fmt"

// LevelVectors owns the per-level vectors the cycle works on. Each level in
// the active range [minLevel, maxLevel] holds three vectors: the defect
// (right-hand side), the solution iterate, and a scratch vector the engine
// uses for residuals and transfer targets.
//
// The defect vectors are installed by the caller before a cycle runs. The
// finest defect is the right-hand side of the cycle; coarser defects are
// consumed as algorithmic scratch during restriction, so their contents after
// a cycle are not meaningful to callers.
type LevelVectors struct {
	minLevel int
	maxLevel int

	defect   []Vector
	solution []Vector
	scratch  []Vector
}

// NewLevelVectors creates a store for levels in [minLevel, maxLevel].
func NewLevelVectors(minLevel, maxLevel int) *LevelVectors {
	v := &LevelVectors{}
	v.Reset(minLevel, maxLevel)
	return v
}

// Reset sets the active level range, discarding all vectors currently held.
func (v *LevelVectors) Reset(minLevel, maxLevel int) {
	levelRangeMustBeValid(minLevel, maxLevel)

	n := maxLevel - minLevel + 1
	v.minLevel = minLevel
	v.maxLevel = maxLevel
	v.defect = make([]Vector, n)
	v.solution = make([]Vector, n)
	v.scratch = make([]Vector, n)
}

// MinLevel returns the coarsest active level.
func (v *LevelVectors) MinLevel() int {
	return v.minLevel
}

// MaxLevel returns the finest active level.
func (v *LevelVectors) MaxLevel() int {
	return v.maxLevel
}

// SetDefect installs the defect vector for one level. The vector is aliased,
// not copied; the engine overwrites defect vectors below the finest level
// during a cycle.
func (v *LevelVectors) SetDefect(level int, d Vector) {
	v.defect[v.index(level)] = d
}

// Defect returns the defect vector at the given level.
func (v *LevelVectors) Defect(level int) Vector {
	return v.defect[v.index(level)]
}

// Solution returns the solution vector at the given level.
func (v *LevelVectors) Solution(level int) Vector {
	return v.solution[v.index(level)]
}

// Scratch returns the scratch vector at the given level.
func (v *LevelVectors) Scratch(level int) Vector {
	return v.scratch[v.index(level)]
}

// MatchShapes shapes the solution and scratch vector of every active level
// after its defect vector and zeroes them. Every defect vector must have been
// installed and be non-empty before the call. MatchShapes is idempotent:
// calling it again with unchanged defect shapes only re-zeroes.
func (v *LevelVectors) MatchShapes() {
	for l := v.minLevel; l <= v.maxLevel; l++ {
		i := v.index(l)

		d := v.defect[i]
		if len(d) == 0 {
			panic(fmt.Sprintf("mg: defect vector missing at level %d", l))
		}

		v.solution[i] = reshape(v.solution[i], len(d))
		v.scratch[i] = reshape(v.scratch[i], len(d))
	}
}

func (v *LevelVectors) index(level int) int {
	if level < v.minLevel || level > v.maxLevel {
		panic(fmt.Sprintf("mg: level %d outside active range [%d, %d]",
			level, v.minLevel, v.maxLevel))
	}

	return level - v.minLevel
}

// reshape returns a zeroed vector of length n, reusing the storage of v when
// it already has the right length.
func reshape(v Vector, n int) Vector {
	if len(v) != n {
		return NewVector(n)
	}

	v.Zero()
	return v
}

func levelRangeMustBeValid(minLevel, maxLevel int) {
	if minLevel < 0 {
		panic(fmt.Sprintf("mg: negative coarsest level %d", minLevel))
	}

	if minLevel > maxLevel {
		panic(fmt.Sprintf("mg: coarsest level %d above finest level %d",
			minLevel, maxLevel))
	}
}
