package mg

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
	"gonum.org/v1/gonum/floats"

	"github.com/fealab/strata/hooking"
)

// Functional fixtures for the numeric cycle tests. All values are dyadic,
// so every expected result below is exact in float64.

// nopSmoother leaves the iterate untouched.
type nopSmoother struct{}

func (nopSmoother) Smooth(int, Vector, Vector) {}

// halfStepSmoother adds half the defect to the iterate.
type halfStepSmoother struct{}

func (halfStepSmoother) Smooth(_ int, solution, defect Vector) {
	floats.AddScaled(solution, 0.5, defect)
}

// identityMatrix applies the identity at every level.
type identityMatrix struct{}

func (identityMatrix) Apply(_ int, dst, src Vector) {
	copy(dst, src)
}

// zeroMatrix annihilates everything, which isolates the edge terms in
// the residual cascade.
type zeroMatrix struct{}

func (zeroMatrix) Apply(_ int, dst, _ Vector) {
	dst.Zero()
}

// pairTransfer is the piecewise-constant dyadic pair: prolongation
// copies each coarse value onto its two fine children and restriction
// sums them back, so restricting a constant doubles it.
type pairTransfer struct{}

func (pairTransfer) Prolongate(_ int, fine, coarse Vector) {
	for i := range fine {
		fine[i] = coarse[i/2]
	}
}

func (pairTransfer) RestrictAndAdd(_ int, coarse, fine Vector) {
	for i, v := range fine {
		coarse[i/2] += v
	}
}

// copyTransfer moves vectors between same-sized levels unchanged.
type copyTransfer struct{}

func (copyTransfer) Prolongate(_ int, fine, coarse Vector) {
	copy(fine, coarse)
}

func (copyTransfer) RestrictAndAdd(_ int, coarse, fine Vector) {
	floats.Add(coarse, fine)
}

// copyCoarse pretends the coarsest matrix is the identity and solves it
// exactly.
type copyCoarse struct{}

func (copyCoarse) SolveCoarse(_ int, solution, defect Vector) {
	copy(solution, defect)
}

// cornerEdge is an interface coupling with the single entry e in row 1,
// column 0.
type cornerEdge struct{ e float64 }

func (c cornerEdge) Apply(_ int, dst, src Vector) {
	dst.Zero()
	dst[1] = c.e * src[0]
}

func (c cornerEdge) ApplyTranspose(_ int, dst, src Vector) {
	dst.Zero()
	dst[0] = c.e * src[1]
}

// zeroEdge is an explicit all-zero coupling pair.
type zeroEdge struct{}

func (zeroEdge) Apply(_ int, dst, _ Vector) {
	dst.Zero()
}

func (zeroEdge) ApplyTranspose(_ int, dst, _ Vector) {
	dst.Zero()
}

// recordingHook stores every invocation it sees.
type recordingHook struct {
	events []hooking.HookCtx
}

func (h *recordingHook) Func(ctx hooking.HookCtx) {
	h.events = append(h.events, ctx)
}

// buildDyadicSolver assembles the three-level reference setup: identity
// matrices, half-step smoothing on both sides, exact identity coarse
// solve and the piecewise-constant transfer pair.
func buildDyadicSolver() *Multigrid {
	return MakeBuilder().
		WithLevelRange(0, 2).
		WithMatrix(identityMatrix{}).
		WithSmoother(halfStepSmoother{}).
		WithCoarseSolver(copyCoarse{}).
		WithTransfer(pairTransfer{}).
		Build("MG")
}

func installDyadicDefects(m *Multigrid, scale float64) {
	m.Vectors().SetDefect(2, Vector{8 * scale, 8 * scale, 8 * scale, 8 * scale})
	m.Vectors().SetDefect(1, Vector{4 * scale, 4 * scale})
	m.Vectors().SetDefect(0, Vector{2 * scale})
}

var _ = Describe("Multigrid", func() {
	Context("with a single-level hierarchy", func() {
		var (
			mockCtrl     *gomock.Controller
			matrix       *MockLevelMatrix
			smoother     *MockSmoother
			coarseSolver *MockCoarseSolver
			transfer     *MockTransfer
			m            *Multigrid
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			matrix = NewMockLevelMatrix(mockCtrl)
			smoother = NewMockSmoother(mockCtrl)
			coarseSolver = NewMockCoarseSolver(mockCtrl)
			transfer = NewMockTransfer(mockCtrl)

			m = MakeBuilder().
				WithLevelRange(0, 0).
				WithMatrix(matrix).
				WithSmoother(smoother).
				WithCoarseSolver(coarseSolver).
				WithTransfer(transfer).
				Build("MG")
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should return exactly the coarse solve, with no smoothing or transfer", func() {
			coarseSolver.EXPECT().
				SolveCoarse(0, gomock.Any(), gomock.Any()).
				Do(func(_ int, solution, defect Vector) {
					copy(solution, defect)
				})

			m.Vectors().SetDefect(0, Vector{3, 4})
			m.Cycle()

			Expect(m.Vectors().Solution(0)).To(Equal(Vector{3, 4}))
			Expect(m.CyclesDone()).To(Equal(1))
		})
	})

	Context("with the three-level dyadic setup", func() {
		var m *Multigrid

		BeforeEach(func() {
			m = buildDyadicSolver()
			installDyadicDefects(m, 1)
		})

		It("should produce the hand-computed correction", func() {
			m.Cycle()

			Expect(m.Vectors().Solution(2)).To(Equal(Vector{-6, -6, -6, -6}))
			Expect(m.Vectors().Solution(1)).To(Equal(Vector{-14, -14}))
			Expect(m.Vectors().Solution(0)).To(Equal(Vector{-10}))
		})

		It("should not touch the finest defect", func() {
			m.Cycle()

			Expect(m.Vectors().Defect(2)).To(Equal(Vector{8, 8, 8, 8}))
		})

		It("should scale the correction linearly with the defect", func() {
			m.Cycle()
			base := m.Vectors().Solution(2).Clone()

			scaled := buildDyadicSolver()
			installDyadicDefects(scaled, 3.7)
			scaled.Cycle()

			got := scaled.Vectors().Solution(2)
			for i := range got {
				Expect(math.Abs(got[i] - 3.7*base[i])).To(
					BeNumerically("<=", 1e-12*math.Abs(3.7*base[i])))
			}
		})

		It("should survive defect reshaping between cycles", func() {
			m.Cycle()

			m.Vectors().SetDefect(2, NewVector(8))
			m.Vectors().SetDefect(1, NewVector(4))
			m.Vectors().SetDefect(0, NewVector(2))
			m.Cycle()

			for l := 0; l <= 2; l++ {
				Expect(m.Vectors().Solution(l)).To(
					HaveLen(len(m.Vectors().Defect(l))))
				Expect(m.Vectors().Scratch(l)).To(
					HaveLen(len(m.Vectors().Defect(l))))
			}

			installDyadicDefects(m, 1)
			m.Cycle()

			Expect(m.Vectors().Solution(2)).To(Equal(Vector{-6, -6, -6, -6}))
			Expect(m.CyclesDone()).To(Equal(3))
		})

		It("should treat an explicit zero edge pair like no edge pair", func() {
			m.Cycle()

			zeroEdged := MakeBuilder().
				WithLevelRange(0, 2).
				WithMatrix(identityMatrix{}).
				WithSmoother(halfStepSmoother{}).
				WithCoarseSolver(copyCoarse{}).
				WithTransfer(pairTransfer{}).
				WithEdgeMatrices(zeroEdge{}, zeroEdge{}).
				Build("MG")
			installDyadicDefects(zeroEdged, 1)
			zeroEdged.Cycle()

			Expect(zeroEdged.Vectors().Solution(2)).To(
				Equal(m.Vectors().Solution(2)))
			Expect(zeroEdged.Vectors().Solution(1)).To(
				Equal(m.Vectors().Solution(1)))
			Expect(zeroEdged.Vectors().Solution(0)).To(
				Equal(m.Vectors().Solution(0)))
		})
	})

	Context("with an interface coupling pair", func() {
		var m *Multigrid

		BeforeEach(func() {
			m = MakeBuilder().
				WithLevelRange(0, 1).
				WithMatrix(zeroMatrix{}).
				WithPreSmoother(halfStepSmoother{}).
				WithPostSmoother(nopSmoother{}).
				WithCoarseSolver(copyCoarse{}).
				WithTransfer(copyTransfer{}).
				WithEdgeMatrices(cornerEdge{e: 3}, cornerEdge{e: 3}).
				Build("MG")

			m.Vectors().SetDefect(1, Vector{2, 4})
			m.Vectors().SetDefect(0, Vector{10, 20})
		})

		It("should couple downward before restriction and upward transposed after prolongation", func() {
			m.Cycle()

			// Pre-smoothing produces (1, 2); the coarse defect loses
			// E*(1, 2) = (0, 3) before its exact solve.
			Expect(m.Vectors().Solution(0)).To(Equal(Vector{10, 17}))

			// The fine defect loses E^T*(10, 17) = (51, 0) after the
			// coarse correction came back up.
			Expect(m.Vectors().Defect(1)).To(Equal(Vector{-49, 4}))
			Expect(m.Vectors().Solution(1)).To(Equal(Vector{11, 19}))
		})

		It("should nest the downward coupling inside the restriction step", func() {
			hook := &recordingHook{}
			m.AcceptHook(hook)

			m.Cycle()

			restrictStart := findStep(hook.events, HookPosStepStart, PhaseRestrict)
			edgeStart := findStep(hook.events, HookPosStepStart, PhaseEdgeDown)
			edgeEnd := findStep(hook.events, HookPosStepEnd, PhaseEdgeDown)
			restrictEnd := findStep(hook.events, HookPosStepEnd, PhaseRestrict)

			Expect(restrictStart).To(BeNumerically("<", edgeStart))
			Expect(edgeStart).To(BeNumerically("<", edgeEnd))
			Expect(edgeEnd).To(BeNumerically("<", restrictEnd))
		})
	})

	Context("with a hook attached", func() {
		var (
			m    *Multigrid
			hook *recordingHook
		)

		BeforeEach(func() {
			m = buildDyadicSolver()
			installDyadicDefects(m, 1)
			hook = &recordingHook{}
			m.AcceptHook(hook)
		})

		It("should frame the cycle with defect and correction norms", func() {
			m.Cycle()

			first := hook.events[0]
			Expect(first.Pos).To(BeIdenticalTo(HookPosCycleStart))
			Expect(first.Item).To(Equal(CycleInfo{Cycle: 0, Norm: 16}))
			Expect(first.Domain).To(BeIdenticalTo(hooking.Hookable(m)))

			last := hook.events[len(hook.events)-1]
			Expect(last.Pos).To(BeIdenticalTo(HookPosCycleEnd))
			Expect(last.Item).To(Equal(CycleInfo{Cycle: 0, Norm: 12}))
		})

		It("should report every step in depth-first order", func() {
			m.Cycle()

			ends := stepEnds(hook.events)

			levels := make([]int, len(ends))
			phases := make([]Phase, len(ends))
			for i, e := range ends {
				levels[i] = e.Level
				phases[i] = e.Phase
			}

			Expect(phases).To(Equal([]Phase{
				PhasePreSmooth, PhaseRestrict,
				PhasePreSmooth, PhaseRestrict,
				PhaseCoarseSolve,
				PhaseProlongate, PhasePostSmooth,
				PhaseProlongate, PhasePostSmooth,
			}))
			Expect(levels).To(Equal([]int{2, 2, 1, 1, 0, 1, 1, 2, 2}))
		})

		It("should report the norms of the vectors the steps wrote", func() {
			m.Cycle()

			ends := stepEnds(hook.events)

			Expect(ends[0].Norm).To(Equal(8.0))  // smoothed iterate (4,4,4,4)
			Expect(ends[1].Norm).To(Equal(16.0)) // cascaded residual (16)
			Expect(ends[3].Norm).To(Equal(4.0))  // cascaded residual (-4)
			Expect(ends[4].Norm).To(Equal(10.0)) // coarse solution (-10)
			Expect(ends[7].Norm).To(Equal(20.0)) // corrected iterate (-10,...)
			Expect(ends[8].Norm).To(Equal(12.0)) // final iterate (-6,...)
		})

		It("should stamp step starts with a zero norm", func() {
			m.Cycle()

			for _, e := range hook.events {
				if e.Pos != HookPosStepStart {
					continue
				}
				Expect(e.Item.(StepInfo).Norm).To(BeZero())
			}
		})

		It("should count cycles in the payloads", func() {
			m.Cycle()
			installDyadicDefects(m, 1)
			m.Cycle()

			last := hook.events[len(hook.events)-1]
			Expect(last.Item.(CycleInfo).Cycle).To(Equal(1))
			Expect(m.CyclesDone()).To(Equal(2))
		})
	})

	Context("call order over one two-level cycle", func() {
		var (
			mockCtrl     *gomock.Controller
			matrix       *MockLevelMatrix
			pre          *MockSmoother
			post         *MockSmoother
			coarseSolver *MockCoarseSolver
			transfer     *MockTransfer
			edge         *MockEdgeMatrix
			m            *Multigrid
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			matrix = NewMockLevelMatrix(mockCtrl)
			pre = NewMockSmoother(mockCtrl)
			post = NewMockSmoother(mockCtrl)
			coarseSolver = NewMockCoarseSolver(mockCtrl)
			transfer = NewMockTransfer(mockCtrl)
			edge = NewMockEdgeMatrix(mockCtrl)

			m = MakeBuilder().
				WithLevelRange(0, 1).
				WithMatrix(matrix).
				WithPreSmoother(pre).
				WithPostSmoother(post).
				WithCoarseSolver(coarseSolver).
				WithTransfer(transfer).
				WithEdgeMatrices(edge, edge).
				Build("MG")

			m.Vectors().SetDefect(1, Vector{1, 1})
			m.Vectors().SetDefect(0, Vector{1, 1})
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should run the phases in the V-cycle order", func() {
			gomock.InOrder(
				pre.EXPECT().Smooth(1, gomock.Any(), gomock.Any()),
				matrix.EXPECT().Apply(1, gomock.Any(), gomock.Any()),
				edge.EXPECT().Apply(1, gomock.Any(), gomock.Any()),
				transfer.EXPECT().RestrictAndAdd(1, gomock.Any(), gomock.Any()),
				coarseSolver.EXPECT().SolveCoarse(0, gomock.Any(), gomock.Any()),
				transfer.EXPECT().Prolongate(1, gomock.Any(), gomock.Any()),
				edge.EXPECT().ApplyTranspose(1, gomock.Any(), gomock.Any()),
				post.EXPECT().Smooth(1, gomock.Any(), gomock.Any()),
			)

			m.Cycle()
		})
	})
})

// stepEnds extracts the StepInfo payloads of all step completions.
func stepEnds(events []hooking.HookCtx) []StepInfo {
	var infos []StepInfo
	for _, e := range events {
		if e.Pos == HookPosStepEnd {
			infos = append(infos, e.Item.(StepInfo))
		}
	}
	return infos
}

// findStep returns the index of the first event at the position with the
// given phase.
func findStep(events []hooking.HookCtx, pos *hooking.HookPos, phase Phase) int {
	for i, e := range events {
		if e.Pos != pos {
			continue
		}
		if e.Item.(StepInfo).Phase == phase {
			return i
		}
	}
	return -1
}
