// Package mg implements a geometric multigrid V-cycle over a hierarchy of
// nested discretization levels. The engine owns the recursive correction
// bookkeeping; smoothing, coarse solving, level transfer and the level
// matrices themselves are supplied through the operator interfaces defined
// in this package.
package mg

import (
	"gonum.org/v1/gonum/floats"

	"github.com/fealab/strata/hooking"
)

// HookPosCycleStart marks the beginning of one V-cycle.
var HookPosCycleStart = &hooking.HookPos{Name: "CycleStart"}

// HookPosCycleEnd marks the completion of one V-cycle.
var HookPosCycleEnd = &hooking.HookPos{Name: "CycleEnd"}

// HookPosStepStart marks the beginning of one engine step at one level.
var HookPosStepStart = &hooking.HookPos{Name: "StepStart"}

// HookPosStepEnd marks the completion of one engine step at one level.
var HookPosStepEnd = &hooking.HookPos{Name: "StepEnd"}

// Phase identifies one kind of engine step.
type Phase string

// The phases the engine steps through at each level.
const (
	PhasePreSmooth   Phase = "pre_smooth"
	PhaseRestrict    Phase = "restrict"
	PhaseCoarseSolve Phase = "coarse_solve"
	PhaseProlongate  Phase = "prolongate"
	PhaseEdgeDown    Phase = "edge_down"
	PhaseEdgeUp      Phase = "edge_up"
	PhasePostSmooth  Phase = "post_smooth"
)

// StepInfo is the hook payload for step positions.
type StepInfo struct {
	Cycle int
	Level int
	Phase Phase

	// Norm is the 2-norm of the vector the step wrote. It is only filled on
	// HookPosStepEnd.
	Norm float64
}

// CycleInfo is the hook payload for cycle positions. On HookPosCycleStart,
// Norm is the 2-norm of the finest defect, i.e. of the right-hand side the
// cycle corrects for; on HookPosCycleEnd it is the 2-norm of the finest
// solution, i.e. of the correction produced.
type CycleInfo struct {
	Cycle int
	Norm  float64
}

// A Multigrid runs V-cycles over the level range it was built for. The five
// operator bindings are fixed at build time; the defect vectors are installed
// by the caller through Vectors() before each cycle.
//
// One cycle is strictly sequential and single-threaded: each level's
// correction depends on the fully updated state of its neighbors, and the
// per-level scratch vectors are deliberately reused across recursion frames.
type Multigrid struct {
	hooking.HookableBase

	name string

	minLevel int
	maxLevel int
	vectors  *LevelVectors

	matrix       LevelMatrix
	preSmoother  Smoother
	postSmoother Smoother
	coarse       CoarseSolver
	transfer     Transfer
	edge         EdgeCorrection

	cyclesDone int
}

// Name returns the name of the solver.
func (m *Multigrid) Name() string {
	return m.name
}

// MinLevel returns the coarsest level of the hierarchy.
func (m *Multigrid) MinLevel() int {
	return m.minLevel
}

// MaxLevel returns the finest level of the hierarchy.
func (m *Multigrid) MaxLevel() int {
	return m.maxLevel
}

// Vectors returns the level vector store. Callers populate the defect
// vectors through it before invoking Cycle and read the finest solution
// after.
func (m *Multigrid) Vectors() *LevelVectors {
	return m.vectors
}

// CyclesDone returns the number of completed cycles since construction.
func (m *Multigrid) CyclesDone() int {
	return m.cyclesDone
}

// Cycle runs one V-cycle. The finest defect vector must hold the right-hand
// side to correct for; on return the finest solution vector holds the
// correction. Solution and scratch vectors are reshaped to match the defect
// shapes at the start of every call, so defect vectors may change shape
// between cycles. Defect vectors below the finest level are consumed as
// scratch.
func (m *Multigrid) Cycle() {
	m.vectors.MatchShapes()

	if m.NumHooks() > 0 {
		m.InvokeHook(hooking.HookCtx{
			Domain: m,
			Pos:    HookPosCycleStart,
			Item: CycleInfo{
				Cycle: m.cyclesDone,
				Norm:  m.vectors.Defect(m.maxLevel).Norm(),
			},
		})
	}

	m.levelStep(m.maxLevel)

	if m.NumHooks() > 0 {
		m.InvokeHook(hooking.HookCtx{
			Domain: m,
			Pos:    HookPosCycleEnd,
			Item: CycleInfo{
				Cycle: m.cyclesDone,
				Norm:  m.vectors.Solution(m.maxLevel).Norm(),
			},
		})
	}

	m.cyclesDone++
}

// levelStep performs the correction at one level: smooth, restrict the
// residual through all coarser levels, recurse, prolongate the coarse
// correction back, and smooth again. The descent below the current level
// reuses this level's scratch vector, so the scratch is re-zeroed after the
// recursive call returns.
func (m *Multigrid) levelStep(level int) {
	solution := m.vectors.Solution(level)
	solution.Zero()

	if level == m.minLevel {
		m.stepStart(level, PhaseCoarseSolve)
		m.coarse.SolveCoarse(level, solution, m.vectors.Defect(level))
		m.stepEnd(level, PhaseCoarseSolve, solution)
		return
	}

	m.stepStart(level, PhasePreSmooth)
	m.preSmoother.Smooth(level, solution, m.vectors.Defect(level))
	m.stepEnd(level, PhasePreSmooth, solution)

	m.restrictResidual(level, solution)

	m.levelStep(level - 1)

	// The recursion above wrote through this level's scratch vector.
	scratch := m.vectors.Scratch(level)
	scratch.Zero()

	m.stepStart(level, PhaseProlongate)
	m.transfer.Prolongate(level, scratch, m.vectors.Solution(level-1))
	floats.Add(solution, scratch)
	m.stepEnd(level, PhaseProlongate, solution)

	if m.edge.enabled {
		m.stepStart(level, PhaseEdgeUp)
		m.edge.up.ApplyTranspose(level, scratch, m.vectors.Solution(level-1))
		floats.Sub(m.vectors.Defect(level), scratch)
		m.stepEnd(level, PhaseEdgeUp, scratch)
	}

	m.stepStart(level, PhasePostSmooth)
	m.postSmoother.Smooth(level, solution, m.vectors.Defect(level))
	m.stepEnd(level, PhasePostSmooth, solution)
}

// restrictResidual turns the coarser defect vectors into a consistent
// composite right-hand side for the descent. Where the mesh is not refined
// beyond a coarser level, that level's defect already carries the global
// right-hand side; where it is refined, the contribution of the solution
// just computed at this level is subtracted so the coarser system sees what
// remains to be corrected.
func (m *Multigrid) restrictResidual(level int, solution Vector) {
	m.stepStart(level, PhaseRestrict)
	m.matrix.Apply(level, m.vectors.Scratch(level), solution)

	for l := level; l > m.minLevel; l-- {
		coarser := m.vectors.Scratch(l - 1)
		coarser.Zero()

		// The edge coupling only exists for the solution freshly smoothed at
		// this cycle's entry level; the cascade below it restricts plain
		// residuals.
		if l == level && m.edge.enabled {
			m.stepStart(level, PhaseEdgeDown)
			m.edge.down.Apply(level, coarser, solution)
			m.stepEnd(level, PhaseEdgeDown, coarser)
		}

		m.transfer.RestrictAndAdd(l, coarser, m.vectors.Scratch(l))
		floats.Sub(m.vectors.Defect(l-1), coarser)
	}
	m.stepEnd(level, PhaseRestrict, m.vectors.Scratch(m.minLevel))
}

func (m *Multigrid) stepStart(level int, phase Phase) {
	if m.NumHooks() == 0 {
		return
	}

	m.InvokeHook(hooking.HookCtx{
		Domain: m,
		Pos:    HookPosStepStart,
		Item:   StepInfo{Cycle: m.cyclesDone, Level: level, Phase: phase},
	})
}

func (m *Multigrid) stepEnd(level int, phase Phase, wrote Vector) {
	if m.NumHooks() == 0 {
		return
	}

	m.InvokeHook(hooking.HookCtx{
		Domain: m,
		Pos:    HookPosStepEnd,
		Item: StepInfo{
			Cycle: m.cyclesDone,
			Level: level,
			Phase: phase,
			Norm:  wrote.Norm(),
		},
	})
}
