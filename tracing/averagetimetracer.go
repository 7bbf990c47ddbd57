package tracing

import (
	"sync"
	"time"
)

// AverageTimeTracer collects the average duration of a certain kind of
// step.
type AverageTimeTracer struct {
	timeSource TimeSource
	filter     StepFilter

	lock          sync.Mutex
	averageTime   time.Duration
	stepCount     uint64
	inflightSteps map[Step]time.Time
}

// NewAverageTimeTracer creates a new AverageTimeTracer. A nil filter
// accepts every step.
func NewAverageTimeTracer(
	timeSource TimeSource,
	filter StepFilter,
) *AverageTimeTracer {
	t := &AverageTimeTracer{
		timeSource:    timeSource,
		filter:        filter,
		inflightSteps: make(map[Step]time.Time),
	}

	return t
}

// AverageTime returns the average duration of the filtered steps so
// far.
func (t *AverageTimeTracer) AverageTime() time.Duration {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.averageTime
}

// TotalCount returns the number of completed filtered steps.
func (t *AverageTimeTracer) TotalCount() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.stepCount
}

// StartCycle does nothing.
func (t *AverageTimeTracer) StartCycle(_ CycleMark) {
}

// EndCycle does nothing.
func (t *AverageTimeTracer) EndCycle(_ CycleMark) {
}

// StartStep records the step start time.
func (t *AverageTimeTracer) StartStep(s Step) {
	if t.filter != nil && !t.filter(s) {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.inflightSteps[s.key()] = t.timeSource.Now()
}

// EndStep folds the step duration into the running average.
func (t *AverageTimeTracer) EndStep(s Step) {
	t.lock.Lock()
	defer t.lock.Unlock()

	start, ok := t.inflightSteps[s.key()]
	if !ok {
		return
	}

	stepTime := t.timeSource.Now().Sub(start)
	t.averageTime = time.Duration(
		(float64(t.averageTime)*float64(t.stepCount) + float64(stepTime)) /
			float64(t.stepCount+1))
	delete(t.inflightSteps, s.key())
	t.stepCount++
}
