package analysis

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fealab/strata/hooking"
	"github.com/fealab/strata/krylov"
)

var _ = Describe("ConvergenceAnalyzer", func() {
	var analyzer *ConvergenceAnalyzer

	BeforeEach(func() {
		analyzer = NewConvergenceAnalyzer()
	})

	It("should report no rate without enough observations", func() {
		Expect(analyzer.AsymptoticRate()).To(Equal(0.0))

		analyzer.Observe(1.0)

		Expect(analyzer.AsymptoticRate()).To(Equal(0.0))
		Expect(analyzer.Contractions()).To(BeNil())
	})

	It("should track contraction factors", func() {
		analyzer.Observe(1.0)
		analyzer.Observe(0.1)
		analyzer.Observe(0.01)

		Expect(analyzer.Iterations()).To(Equal(3))
		Expect(analyzer.History()).To(Equal([]float64{1.0, 0.1, 0.01}))

		contractions := analyzer.Contractions()
		Expect(contractions).To(HaveLen(2))
		Expect(contractions[0]).To(BeNumerically("~", 0.1, 1e-12))
		Expect(contractions[1]).To(BeNumerically("~", 0.1, 1e-12))
	})

	It("should estimate the rate from the tail of the history", func() {
		// A slow start that settles into a steady contraction of 0.1.
		analyzer.Observe(1.0)
		analyzer.Observe(0.9)
		analyzer.Observe(0.09)
		analyzer.Observe(0.009)

		Expect(analyzer.AsymptoticRate()).To(BeNumerically("~", 0.1, 1e-12))
	})

	It("should observe through the iteration hook", func() {
		analyzer.Func(hooking.HookCtx{
			Pos:  krylov.HookPosIteration,
			Item: krylov.IterationInfo{Iteration: 0, ResidualNorm: 1.0},
		})
		analyzer.Func(hooking.HookCtx{
			Pos:  krylov.HookPosIteration,
			Item: krylov.IterationInfo{Iteration: 1, ResidualNorm: 0.5},
		})
		analyzer.Func(hooking.HookCtx{
			Pos: &hooking.HookPos{Name: "Elsewhere"},
		})

		Expect(analyzer.History()).To(Equal([]float64{1.0, 0.5}))
	})

	It("should reset", func() {
		analyzer.Observe(1.0)
		analyzer.Observe(0.1)

		analyzer.Reset()

		Expect(analyzer.Iterations()).To(Equal(0))
		Expect(analyzer.AsymptoticRate()).To(Equal(0.0))
	})

	It("should summarize the solve", func() {
		analyzer.Observe(1.0)
		analyzer.Observe(0.25)

		report := analyzer.Report()

		Expect(report).To(ContainSubstring("iterations: 2"))
		Expect(report).To(ContainSubstring("final residual: 2.500000e-01"))
		Expect(report).To(ContainSubstring("asymptotic rate: 0.2500"))
	})
})
