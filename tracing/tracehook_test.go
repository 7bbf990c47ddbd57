package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/fealab/strata/hooking"
	"github.com/fealab/strata/mg"
)

type testDomain struct {
	hooking.HookableBase
}

func (d *testDomain) Name() string {
	return "solver"
}

var _ = Describe("CollectTrace", func() {
	var (
		mockCtrl *gomock.Controller
		tracer   *MockTracer
		domain   *testDomain
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		tracer = NewMockTracer(mockCtrl)
		domain = &testDomain{}

		CollectTrace(domain, tracer)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should forward cycle and step records", func() {
		tracer.EXPECT().StartCycle(CycleMark{Cycle: 1, Norm: 2.0})
		domain.InvokeHook(hooking.HookCtx{
			Domain: domain,
			Pos:    mg.HookPosCycleStart,
			Item:   mg.CycleInfo{Cycle: 1, Norm: 2.0},
		})

		tracer.EXPECT().StartStep(Step{Cycle: 1, Level: 3, Phase: "pre_smooth"})
		domain.InvokeHook(hooking.HookCtx{
			Domain: domain,
			Pos:    mg.HookPosStepStart,
			Item:   mg.StepInfo{Cycle: 1, Level: 3, Phase: mg.PhasePreSmooth},
		})

		tracer.EXPECT().EndStep(
			Step{Cycle: 1, Level: 3, Phase: "pre_smooth", Norm: 0.25})
		domain.InvokeHook(hooking.HookCtx{
			Domain: domain,
			Pos:    mg.HookPosStepEnd,
			Item: mg.StepInfo{
				Cycle: 1,
				Level: 3,
				Phase: mg.PhasePreSmooth,
				Norm:  0.25,
			},
		})

		tracer.EXPECT().EndCycle(CycleMark{Cycle: 1, Norm: 0.5})
		domain.InvokeHook(hooking.HookCtx{
			Domain: domain,
			Pos:    mg.HookPosCycleEnd,
			Item:   mg.CycleInfo{Cycle: 1, Norm: 0.5},
		})
	})

	It("should ignore unrelated hook positions", func() {
		domain.InvokeHook(hooking.HookCtx{
			Domain: domain,
			Pos:    &hooking.HookPos{Name: "Elsewhere"},
		})
	})

	It("should reject attaching the same tracer twice", func() {
		Expect(func() {
			CollectTrace(domain, tracer)
		}).To(Panic())
	})
})
