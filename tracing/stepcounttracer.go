package tracing

import (
	"sync"
)

// StepCountTracer counts how often each phase completes. It answers
// questions like "how many smoothing applications did this solve
// perform" without storing the individual steps.
type StepCountTracer struct {
	filter StepFilter

	lock       sync.Mutex
	phaseNames []string
	phaseCount map[string]uint64
	cycleCount uint64
}

// NewStepCountTracer creates a new StepCountTracer. Only steps accepted
// by the filter are counted; a nil filter counts everything.
func NewStepCountTracer(filter StepFilter) *StepCountTracer {
	t := &StepCountTracer{
		filter:     filter,
		phaseCount: make(map[string]uint64),
	}

	return t
}

// PhaseNames returns all the phase names collected, in first-seen
// order.
func (t *StepCountTracer) PhaseNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.phaseNames
}

// StepCount returns the number of completed steps recorded with a
// certain phase name.
func (t *StepCountTracer) StepCount(phase string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.phaseCount[phase]
}

// CycleCount returns the number of completed cycles.
func (t *StepCountTracer) CycleCount() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.cycleCount
}

// StartCycle does nothing.
func (t *StepCountTracer) StartCycle(_ CycleMark) {
}

// EndCycle counts the completed cycle.
func (t *StepCountTracer) EndCycle(_ CycleMark) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.cycleCount++
}

// StartStep does nothing.
func (t *StepCountTracer) StartStep(_ Step) {
}

// EndStep counts the completed step.
func (t *StepCountTracer) EndStep(s Step) {
	if t.filter != nil && !t.filter(s) {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	_, ok := t.phaseCount[s.Phase]
	if !ok {
		t.phaseNames = append(t.phaseNames, s.Phase)
	}

	t.phaseCount[s.Phase]++
}
