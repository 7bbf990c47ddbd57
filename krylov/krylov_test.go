package krylov

import (
	"errors"

	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/floats"
)

// tridiagSystem is the action of the n by n second-difference matrix.
func tridiagSystem(n int) System {
	return System{
		MatVec: func(dst, x []float64) {
			for i := range dst {
				dst[i] = 2 * x[i]
				if i > 0 {
					dst[i] -= x[i-1]
				}
				if i < n-1 {
					dst[i] -= x[i+1]
				}
			}
		},
	}
}

// manufactured returns the right-hand side that makes exact the
// solution of the n-point second-difference system.
func manufactured(n int) (b, exact []float64) {
	exact = make([]float64, n)
	for i := range exact {
		exact[i] = float64(i%4) - 1.5
	}

	b = make([]float64, n)
	tridiagSystem(n).MatVec(b, exact)
	return b, exact
}

var _ = ginkgo.Describe("Solve", func() {
	ginkgo.It("should solve a symmetric system with conjugate gradients", func() {
		b, exact := manufactured(8)

		result, err := Solve(tridiagSystem(8), b, &CG{},
			Settings{Tolerance: 1e-10})

		Expect(err).NotTo(HaveOccurred())
		Expect(floats.Distance(result.X, exact, 2)).To(
			BeNumerically("<", 1e-6))
		Expect(result.Stats.Iterations).To(BeNumerically("<=", 12))
		Expect(result.Stats.MatVec).To(Equal(result.Stats.Iterations))
		Expect(result.Stats.PSolve).To(BeZero())
	})

	ginkgo.It("should count preconditioner applications", func() {
		b, exact := manufactured(8)

		result, err := Solve(tridiagSystem(8), b, &CG{}, Settings{
			Tolerance: 1e-10,
			PSolve: func(dst, rhs []float64) error {
				for i := range dst {
					dst[i] = rhs[i] / 2
				}
				return nil
			},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(floats.Distance(result.X, exact, 2)).To(
			BeNumerically("<", 1e-6))
		Expect(result.Stats.PSolve).To(Equal(result.Stats.Iterations))
	})

	ginkgo.It("should finish Richardson in one step with an exact preconditioner", func() {
		// The preconditioner inverts [2 -1; -1 2] exactly, so the first
		// correction already is the solution.
		result, err := Solve(tridiagSystem(2), []float64{1, 1}, &Richardson{},
			Settings{
				Tolerance: 1e-12,
				PSolve: func(dst, rhs []float64) error {
					dst[0] = (2*rhs[0] + rhs[1]) / 3
					dst[1] = (rhs[0] + 2*rhs[1]) / 3
					return nil
				},
			})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.X).To(Equal([]float64{1, 1}))
		Expect(result.Stats.Iterations).To(Equal(1))
	})

	ginkgo.It("should treat convergence on the last allowed iteration as success", func() {
		result, err := Solve(tridiagSystem(2), []float64{1, 1}, &Richardson{},
			Settings{
				Tolerance:     1e-12,
				MaxIterations: 1,
				PSolve: func(dst, rhs []float64) error {
					dst[0] = (2*rhs[0] + rhs[1]) / 3
					dst[1] = (rhs[0] + 2*rhs[1]) / 3
					return nil
				},
			})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Stats.Iterations).To(Equal(1))
	})

	ginkgo.It("should fall back to the identity preconditioner", func() {
		identity := System{MatVec: func(dst, x []float64) { copy(dst, x) }}

		result, err := Solve(identity, []float64{3, 4}, &Richardson{},
			Settings{Tolerance: 1e-12})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.X).To(Equal([]float64{3, 4}))
		Expect(result.Stats.Iterations).To(Equal(1))
		Expect(result.Stats.PSolve).To(BeZero())
	})

	ginkgo.It("should report the iteration limit", func() {
		b, _ := manufactured(8)

		result, err := Solve(tridiagSystem(8), b, &Richardson{},
			Settings{Tolerance: 1e-12, MaxIterations: 3})

		Expect(errors.Is(err, ErrIterationLimit)).To(BeTrue())
		Expect(result.Stats.Iterations).To(Equal(3))
	})

	ginkgo.It("should accept an already converged right-hand side", func() {
		result, err := Solve(tridiagSystem(4), make([]float64, 4), &CG{},
			Settings{Tolerance: 1e-10})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.X).To(Equal(make([]float64, 4)))
		Expect(result.Stats.Iterations).To(BeZero())
	})

	ginkgo.It("should start from the initial guess", func() {
		result, err := Solve(tridiagSystem(2), []float64{1, 1}, &CG{},
			Settings{Tolerance: 1e-10, X0: []float64{1, 1}})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.X).To(Equal([]float64{1, 1}))
		Expect(result.Stats.Iterations).To(BeZero())
		Expect(result.Stats.MatVec).To(Equal(1))
	})

	ginkgo.It("should panic on an empty right-hand side", func() {
		Expect(func() {
			_, _ = Solve(tridiagSystem(2), nil, &CG{}, Settings{})
		}).To(PanicWith("krylov: zero dimension"))
	})

	ginkgo.It("should panic on a missing matrix action", func() {
		Expect(func() {
			_, _ = Solve(System{}, []float64{1}, &CG{}, Settings{})
		}).To(PanicWith("krylov: nil matrix-vector multiplication"))
	})

	ginkgo.It("should panic on a mismatched initial guess", func() {
		Expect(func() {
			_, _ = Solve(tridiagSystem(2), []float64{1, 1}, &CG{},
				Settings{X0: []float64{1}})
		}).To(PanicWith("krylov: mismatched length of initial guess"))
	})

	ginkgo.It("should panic on tolerances outside the meaningful range", func() {
		Expect(func() {
			_, _ = Solve(tridiagSystem(2), []float64{1, 1}, &CG{},
				Settings{Tolerance: 1})
		}).To(PanicWith("krylov: invalid tolerance"))

		Expect(func() {
			_, _ = Solve(tridiagSystem(2), []float64{1, 1}, &CG{},
				Settings{Tolerance: 1e-17})
		}).To(PanicWith("krylov: invalid tolerance"))
	})
})

var _ = ginkgo.Describe("Methods", func() {
	ginkgo.It("should panic when iterated without Init", func() {
		Expect(func() { _, _ = (&CG{}).Iterate(&Context{}) }).To(
			PanicWith("krylov: CG.Init not called"))
		Expect(func() { _, _ = (&Richardson{}).Iterate(&Context{}) }).To(
			PanicWith("krylov: Richardson.Init not called"))
	})

	ginkgo.It("should be reusable across solves after Init", func() {
		cg := &CG{}

		b, exact := manufactured(8)
		first, err := Solve(tridiagSystem(8), b, cg, Settings{Tolerance: 1e-10})
		Expect(err).NotTo(HaveOccurred())

		b2, exact2 := manufactured(4)
		second, err := Solve(tridiagSystem(4), b2, cg, Settings{Tolerance: 1e-10})
		Expect(err).NotTo(HaveOccurred())

		Expect(floats.Distance(first.X, exact, 2)).To(BeNumerically("<", 1e-6))
		Expect(floats.Distance(second.X, exact2, 2)).To(BeNumerically("<", 1e-6))
	})
})
