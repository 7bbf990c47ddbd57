package poisson

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/floats"

	"github.com/fealab/strata/coarse"
	"github.com/fealab/strata/mg"
)

var _ = Describe("Refined", func() {
	var p *Refined

	BeforeEach(func() {
		p = NewRefined(0, 2, 3)
	})

	It("should keep the same number of unknowns on every level", func() {
		Expect(p.Size(0)).To(Equal(3))
		Expect(p.Size(1)).To(Equal(3))
		Expect(p.Size(2)).To(Equal(3))
	})

	It("should halve the spacing per level", func() {
		Expect(p.Spacing(0)).To(Equal(0.25))
		Expect(p.Spacing(1)).To(Equal(0.125))
		Expect(p.Spacing(2)).To(Equal(0.0625))
	})

	It("should order the composite nodes ascending", func() {
		Expect(p.Coordinates()).To(Equal([]float64{
			0.0625, 0.125, 0.1875, 0.25, 0.375, 0.5, 0.75,
		}))
	})

	It("should assemble the graded system across the interface", func() {
		a := p.System()

		r, c := a.Dims()
		Expect(r).To(Equal(7))
		Expect(c).To(Equal(7))

		// The interface node at 0.25 joins a fine cell of width 1/16 and
		// a coarse cell of width 1/8.
		Expect(a.At(3, 3)).To(Equal(24.0))
		Expect(a.At(3, 2)).To(Equal(-16.0))
		Expect(a.At(3, 4)).To(Equal(-8.0))

		Expect(p.RHS()[3]).To(Equal(0.09375))
	})

	It("should reproduce the manufactured solution at the nodes", func() {
		x := mg.NewVector(7)

		coarse.NewDense(p.System()).SolveCoarse(0, x, p.RHS())

		Expect(floats.Distance(x, p.Exact(), 2)).To(BeNumerically("<", 1e-10))
	})

	Describe("Prolongation", func() {
		It("should interpolate the patch and lean on the interface node", func() {
			pr := p.Prolongation(2)

			r, c := pr.Dims()
			Expect(r).To(Equal(3))
			Expect(c).To(Equal(3))

			Expect(pr.At(0, 0)).To(Equal(0.5))
			Expect(pr.At(1, 0)).To(Equal(1.0))
			Expect(pr.At(2, 0)).To(Equal(0.5))
			Expect(pr.At(2, 1)).To(Equal(0.5))
			Expect(pr.At(0, 2)).To(BeZero())
			Expect(pr.At(2, 2)).To(BeZero())
		})

		It("should panic for the coarsest level", func() {
			Expect(func() { p.Prolongation(0) }).To(
				PanicWith("poisson: no prolongation into coarsest level 0"))
		})
	})

	Describe("EdgeMatrix", func() {
		It("should couple the last patch unknown to the interface node", func() {
			e := p.EdgeMatrix()

			dst := mg.NewVector(3)
			e.Apply(2, dst, mg.Vector{0, 0, 1})
			Expect(dst).To(Equal(mg.Vector{0, -16, 0}))

			e.Apply(1, dst, mg.Vector{0, 0, 1})
			Expect(dst).To(Equal(mg.Vector{0, -8, 0}))
		})

		It("should transpose the same entry upward", func() {
			e := p.EdgeMatrix()

			dst := mg.NewVector(3)
			e.ApplyTranspose(2, dst, mg.Vector{0, 1, 0})

			Expect(dst).To(Equal(mg.Vector{0, 0, -16}))
		})
	})

	Describe("RestrictResidual", func() {
		It("should split the residual between patch transfer and direct injection", func() {
			vectors := mg.NewLevelVectors(0, 2)

			p.RestrictResidual(mg.Vector{1, 2, 3, 4, 5, 6, 7}, vectors)

			Expect(vectors.Defect(2)).To(Equal(mg.Vector{1, 2, 3}))
			Expect(vectors.Defect(1)).To(Equal(mg.Vector{4, 5.5, 9}))
			Expect(vectors.Defect(0)).To(Equal(mg.Vector{12, 10.5, 7}))
		})

		It("should panic on a mismatched residual", func() {
			Expect(func() {
				p.RestrictResidual(mg.NewVector(5), mg.NewLevelVectors(0, 2))
			}).To(PanicWith(
				"poisson: vector of length 5 against 7 composite unknowns"))
		})
	})

	Describe("Collect", func() {
		It("should gather every composite node from its owning level", func() {
			vectors := mg.NewLevelVectors(0, 2)
			p.RestrictResidual(mg.NewVector(7), vectors)
			vectors.MatchShapes()

			copy(vectors.Solution(2), mg.Vector{1, 2, 3})
			copy(vectors.Solution(1), mg.Vector{10, 20, 30})
			copy(vectors.Solution(0), mg.Vector{100, 200, 300})

			dst := mg.NewVector(7)
			p.Collect(dst, vectors)

			Expect(dst).To(Equal(mg.Vector{1, 2, 3, 20, 30, 200, 300}))
		})
	})

	It("should reject invalid configurations", func() {
		Expect(func() { NewRefined(1, 0, 3) }).To(
			PanicWith("poisson: invalid level range [1, 0]"))
		Expect(func() { NewRefined(0, 1, 4) }).To(PanicWith(
			"poisson: refined hierarchy needs an odd number of points, got 4"))
		Expect(func() { NewRefined(0, 1, 0) }).To(Panic())
	})

	It("should panic on out-of-range levels", func() {
		Expect(func() { p.Matrix(5) }).To(
			PanicWith("poisson: level 5 outside [0, 2]"))
	})
})
