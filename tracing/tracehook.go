package tracing

import (
	"fmt"
	"reflect"

	"github.com/fealab/strata/hooking"
	"github.com/fealab/strata/mg"
)

// NamedHookable represents something that both has a name and can be
// hooked.
type NamedHookable interface {
	Name() string
	hooking.Hookable
}

// CollectTrace lets the tracer collect traces from a solver domain.
func CollectTrace(domain NamedHookable, tracer Tracer) {
	for _, hook := range domain.Hooks() {
		hook, ok := hook.(*traceHook)
		if ok && hook.t == tracer {
			panic(fmt.Sprintf(
				"domain %s already has tracer %s",
				domain.Name(), reflect.TypeOf(tracer)))
		}
	}

	h := traceHook{t: tracer}
	domain.AcceptHook(&h)
}

// A traceHook is a hook that forwards cycle and step records to a
// tracer.
type traceHook struct {
	t Tracer
}

// Func calls the tracer interfaces when the hook is triggered.
func (h *traceHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case mg.HookPosCycleStart:
		h.t.StartCycle(cycleMark(ctx))
	case mg.HookPosCycleEnd:
		h.t.EndCycle(cycleMark(ctx))
	case mg.HookPosStepStart:
		h.t.StartStep(step(ctx))
	case mg.HookPosStepEnd:
		h.t.EndStep(step(ctx))
	}
}

func cycleMark(ctx hooking.HookCtx) CycleMark {
	info := ctx.Item.(mg.CycleInfo)

	return CycleMark{Cycle: info.Cycle, Norm: info.Norm}
}

func step(ctx hooking.HookCtx) Step {
	info := ctx.Item.(mg.StepInfo)

	return Step{
		Cycle: info.Cycle,
		Level: info.Level,
		Phase: string(info.Phase),
		Norm:  info.Norm,
	}
}
