package tracing

import (
	"sync"
	"time"
)

// TotalTimeTracer collects the total time spent in a certain kind of
// step. The engine runs steps strictly sequentially, so the total is
// also the wall-clock share of the filtered phases.
type TotalTimeTracer struct {
	timeSource TimeSource
	filter     StepFilter

	lock          sync.Mutex
	totalTime     time.Duration
	inflightSteps map[Step]time.Time
}

// NewTotalTimeTracer creates a new TotalTimeTracer. A nil filter
// accepts every step.
func NewTotalTimeTracer(
	timeSource TimeSource,
	filter StepFilter,
) *TotalTimeTracer {
	t := &TotalTimeTracer{
		timeSource:    timeSource,
		filter:        filter,
		inflightSteps: make(map[Step]time.Time),
	}

	return t
}

// TotalTime returns the time spent on the filtered steps so far.
func (t *TotalTimeTracer) TotalTime() time.Duration {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.totalTime
}

// StartCycle does nothing.
func (t *TotalTimeTracer) StartCycle(_ CycleMark) {
}

// EndCycle does nothing.
func (t *TotalTimeTracer) EndCycle(_ CycleMark) {
}

// StartStep records the step start time.
func (t *TotalTimeTracer) StartStep(s Step) {
	if t.filter != nil && !t.filter(s) {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.inflightSteps[s.key()] = t.timeSource.Now()
}

// EndStep adds the step duration to the total.
func (t *TotalTimeTracer) EndStep(s Step) {
	t.lock.Lock()
	defer t.lock.Unlock()

	start, ok := t.inflightSteps[s.key()]
	if !ok {
		return
	}

	t.totalTime += t.timeSource.Now().Sub(start)
	delete(t.inflightSteps, s.key())
}
