package tracing

import (
	"github.com/fealab/strata/hooking"
	"github.com/fealab/strata/krylov"
	"github.com/fealab/strata/recording"
)

// ResidualTracer is a hook that records one residuals-table row per
// outer iteration of a Krylov solver. One tracer owns the residuals
// table of its backend.
type ResidualTracer struct {
	backend recording.DataRecorder
	runID   string
}

// NewResidualTracer creates a ResidualTracer writing into the given
// recorder.
func NewResidualTracer(
	runID string,
	backend recording.DataRecorder,
) *ResidualTracer {
	backend.CreateTable(recording.ResidualTable, recording.ResidualEntry{})

	return &ResidualTracer{
		backend: backend,
		runID:   runID,
	}
}

// CollectResiduals attaches the tracer to a Krylov solver.
func CollectResiduals(domain NamedHookable, tracer *ResidualTracer) {
	for _, hook := range domain.Hooks() {
		if hook == hooking.Hook(tracer) {
			panic("domain " + domain.Name() + " already has this tracer")
		}
	}

	domain.AcceptHook(tracer)
}

// Func records the residual norm when the solver completes an
// iteration.
func (t *ResidualTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != krylov.HookPosIteration {
		return
	}

	info := ctx.Item.(krylov.IterationInfo)

	t.backend.InsertData(recording.ResidualTable, recording.ResidualEntry{
		RunID:        t.runID,
		Iteration:    info.Iteration,
		ResidualNorm: info.ResidualNorm,
	})
}
