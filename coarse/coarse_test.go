package coarse

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/floats"

	"github.com/fealab/strata/mg"
	"github.com/fealab/strata/sparse"
)

// stencil builds the n by n second-difference matrix.
func stencil(n int) *sparse.CSR {
	b := sparse.NewBuilder(n, n)
	for i := 0; i < n; i++ {
		b.Add(i, i, 2)
	}
	for i := 0; i < n-1; i++ {
		b.Add(i, i+1, -1)
		b.Add(i+1, i, -1)
	}

	return b.Build()
}

var _ = Describe("Dense", func() {
	var d *Dense

	BeforeEach(func() {
		d = NewDense(stencil(2))
	})

	It("should solve the system exactly", func() {
		x := mg.NewVector(2)

		d.SolveCoarse(0, x, mg.Vector{1, 1})

		Expect(x[0]).To(BeNumerically("~", 1, 1e-14))
		Expect(x[1]).To(BeNumerically("~", 1, 1e-14))
	})

	It("should reuse the factorization across solves", func() {
		x := mg.NewVector(2)

		d.SolveCoarse(0, x, mg.Vector{1, 1})
		d.SolveCoarse(0, x, mg.Vector{4, 2})

		// A^-1 * (4, 2) = (10/3, 8/3)
		Expect(x[0]).To(BeNumerically("~", 10.0/3.0, 1e-12))
		Expect(x[1]).To(BeNumerically("~", 8.0/3.0, 1e-12))
	})

	It("should overwrite whatever the solution vector held", func() {
		x := mg.Vector{99, -99}

		d.SolveCoarse(0, x, mg.Vector{1, 1})

		Expect(x[0]).To(BeNumerically("~", 1, 1e-14))
		Expect(x[1]).To(BeNumerically("~", 1, 1e-14))
	})

	It("should leave the defect untouched", func() {
		defect := mg.Vector{1, 1}

		d.SolveCoarse(0, mg.NewVector(2), defect)

		Expect(defect).To(Equal(mg.Vector{1, 1}))
	})

	It("should panic on a non-square matrix", func() {
		Expect(func() { NewDense(sparse.NewBuilder(2, 3).Build()) }).To(
			PanicWith("coarse: cannot factorize 2x3 matrix"))
	})

	It("should panic on mismatched vector shapes", func() {
		Expect(func() {
			d.SolveCoarse(0, mg.NewVector(3), mg.NewVector(2))
		}).To(Panic())
	})
})

var _ = Describe("CG", func() {
	It("should solve a symmetric positive definite system", func() {
		// defect = A * (1, 2, 3)
		c := NewCG(stencil(3), 1e-10, 100)
		x := mg.NewVector(3)

		c.SolveCoarse(0, x, mg.Vector{0, 0, 4})

		Expect(floats.Distance(x, []float64{1, 2, 3}, 2)).To(
			BeNumerically("<", 1e-8))
	})

	It("should start from zero regardless of the solution content", func() {
		c := NewCG(stencil(3), 1e-10, 100)
		x := mg.Vector{9, 9, 9}

		c.SolveCoarse(0, x, mg.Vector{0, 0, 4})

		Expect(floats.Distance(x, []float64{1, 2, 3}, 2)).To(
			BeNumerically("<", 1e-8))
	})

	It("should return zero for a zero defect", func() {
		c := NewCG(stencil(3), 1e-10, 100)
		x := mg.Vector{5, 5, 5}

		c.SolveCoarse(0, x, mg.NewVector(3))

		Expect(x).To(Equal(mg.Vector{0, 0, 0}))
	})

	It("should stop at the iteration limit", func() {
		// One step from p = r = (0, 0, 4): alpha = 16/32, so the
		// iterate lands exactly on (0, 0, 2).
		c := NewCG(stencil(3), 1e-14, 1)
		x := mg.NewVector(3)

		c.SolveCoarse(0, x, mg.Vector{0, 0, 4})

		Expect(x).To(Equal(mg.Vector{0, 0, 2}))
	})

	It("should solve a larger system within tolerance", func() {
		n := 32
		a := stencil(n)
		exact := make([]float64, n)
		for i := range exact {
			exact[i] = float64(i % 5)
		}
		defect := mg.NewVector(n)
		a.MulVec(defect, exact)

		c := NewCG(a, 1e-12, 10*n)
		x := mg.NewVector(n)
		c.SolveCoarse(0, x, defect)

		Expect(floats.Distance(x, exact, 2)).To(BeNumerically("<", 1e-6))
	})

	It("should reject invalid configurations", func() {
		Expect(func() { NewCG(sparse.NewBuilder(2, 3).Build(), 1e-8, 10) }).To(
			PanicWith("coarse: cannot solve 2x3 system"))
		Expect(func() { NewCG(stencil(2), 0, 10) }).To(Panic())
		Expect(func() { NewCG(stencil(2), 1, 10) }).To(Panic())
		Expect(func() { NewCG(stencil(2), 1e-8, 0) }).To(
			PanicWith("coarse: non-positive iteration limit 0"))
	})

	It("should panic on mismatched vector shapes", func() {
		c := NewCG(stencil(2), 1e-8, 10)

		Expect(func() {
			c.SolveCoarse(0, mg.NewVector(2), mg.NewVector(3))
		}).To(Panic())
	})
})
