package tracing

import (
	"sync"
	"time"

	"github.com/tebeka/atexit"

	"github.com/fealab/strata/recording"
)

// DBTracer stores completed steps in a database. It can connect with
// different backends so that the steps can be stored in different types
// of databases. One tracer owns the steps table of its backend, so use
// at most one DBTracer per database.
type DBTracer struct {
	mu         sync.Mutex
	timeSource TimeSource
	backend    recording.DataRecorder
	runID      string

	inflightSteps map[Step]time.Time
}

// NewDBTracer creates a new DBTracer writing into the given recorder.
// The runID tags every row, so that databases holding several runs stay
// separable.
func NewDBTracer(
	timeSource TimeSource,
	runID string,
	backend recording.DataRecorder,
) *DBTracer {
	backend.CreateTable(recording.StepTable, recording.StepEntry{})

	t := &DBTracer{
		timeSource:    timeSource,
		backend:       backend,
		runID:         runID,
		inflightSteps: make(map[Step]time.Time),
	}

	atexit.Register(func() {
		t.backend.Flush()
	})

	return t
}

// StartCycle does nothing. Cycle-level history lives in the residuals
// table, written by the ResidualTracer.
func (t *DBTracer) StartCycle(_ CycleMark) {
}

// EndCycle does nothing.
func (t *DBTracer) EndCycle(_ CycleMark) {
}

// StartStep records the step start time.
func (t *DBTracer) StartStep(s Step) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.inflightSteps[s.key()] = t.timeSource.Now()
}

// EndStep writes the completed step to the database.
func (t *DBTracer) EndStep(s Step) {
	t.mu.Lock()
	defer t.mu.Unlock()

	start, ok := t.inflightSteps[s.key()]
	if !ok {
		return
	}

	delete(t.inflightSteps, s.key())

	t.backend.InsertData(recording.StepTable, recording.StepEntry{
		RunID:   t.runID,
		Cycle:   s.Cycle,
		Level:   s.Level,
		Phase:   s.Phase,
		Norm:    s.Norm,
		Seconds: t.timeSource.Now().Sub(start).Seconds(),
	})
}

// Terminate flushes the backend and drops the in-flight state.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.inflightSteps = nil
	t.backend.Flush()
}
